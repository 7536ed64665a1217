// Copyright 2024 OpenRMM AS
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package model

import (
	"time"
)

// Derived connectivity status values
const (
	DeviceStatusOnline  = "online"
	DeviceStatusStale   = "stale"
	DeviceStatusOffline = "offline"
)

// Classification thresholds on the age of the last heartbeat
const (
	DefaultOnlineThreshold = 120 * time.Second
	DefaultStaleThreshold  = 600 * time.Second
)

// Device represents a managed device and its attributes
type Device struct {
	ID        string    `json:"device_id" bson:"_id"`
	TenantID  string    `json:"tenant_id" bson:"tenant_id"`
	CreatedTs time.Time `json:"created_ts" bson:"created_ts,omitempty"`
	UpdatedTs time.Time `json:"updated_ts" bson:"updated_ts,omitempty"`
}

// ConnectivityRecord holds the persisted liveness state for one device.
// All timestamps are epoch seconds. LastOnlineChange moves only on a
// genuine IsOnline flip, never on a same-state refresh.
type ConnectivityRecord struct {
	DeviceID         string                 `json:"device_id" bson:"_id"`
	IsOnline         bool                   `json:"is_online" bson:"is_online"`
	LastHeartbeat    int64                  `json:"last_heartbeat" bson:"last_heartbeat"`
	LastSeenOnline   int64                  `json:"last_seen_online" bson:"last_seen_online"`
	LastOnlineChange int64                  `json:"last_online_change" bson:"last_online_change"`
	ConnectionType   string                 `json:"connection_type" bson:"connection_type"`
	ConnectionInfo   map[string]interface{} `json:"connection_info" bson:"connection_info"`
	AgentVersion     string                 `json:"agent_version" bson:"agent_version"`
}

// StatusAt derives the connectivity status at the given instant. The
// classification is a pure function of the stored fields plus the
// clock; the record itself is not modified by reads.
func (r *ConnectivityRecord) StatusAt(
	now time.Time,
	onlineThreshold, staleThreshold time.Duration,
) string {
	if r == nil || !r.IsOnline || r.LastHeartbeat == 0 {
		return DeviceStatusOffline
	}
	age := now.Sub(time.Unix(r.LastHeartbeat, 0))
	switch {
	case age <= onlineThreshold:
		return DeviceStatusOnline
	case age <= staleThreshold:
		return DeviceStatusStale
	default:
		return DeviceStatusOffline
	}
}

// Status derives the connectivity status with the default thresholds.
func (r *ConnectivityRecord) Status(now time.Time) string {
	return r.StatusAt(now, DefaultOnlineThreshold, DefaultStaleThreshold)
}
