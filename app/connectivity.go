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

package app

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/openrmm/devicebus/model"
	"github.com/openrmm/devicebus/store"
	"github.com/openrmm/devicebus/utils"
)

// Payload keys agents may use to report an explicit offline transition
// on a status envelope.
const (
	payloadFieldOnline = "online"
	payloadFieldStatus = "status"
)

// ConnectivityTracker maintains the per-device connectivity record
// from heartbeat and status envelopes, and derives the
// online/stale/offline classification at read time.
type ConnectivityTracker struct {
	store store.DataStore
	clock utils.Clock

	onlineThreshold time.Duration
	staleThreshold  time.Duration
}

// NewConnectivityTracker returns a tracker with the given thresholds;
// non-positive thresholds fall back to the defaults.
func NewConnectivityTracker(
	ds store.DataStore,
	clock utils.Clock,
	onlineThreshold, staleThreshold time.Duration,
) *ConnectivityTracker {
	if clock == nil {
		clock = utils.RealClock{}
	}
	if onlineThreshold <= 0 {
		onlineThreshold = model.DefaultOnlineThreshold
	}
	if staleThreshold <= 0 {
		staleThreshold = model.DefaultStaleThreshold
	}
	return &ConnectivityTracker{
		store:           ds,
		clock:           clock,
		onlineThreshold: onlineThreshold,
		staleThreshold:  staleThreshold,
	}
}

// HandleEnvelope is the write path, registered as the router handler
// for heartbeat and status envelopes. LastOnlineChange is stamped only
// when the stored is_online flag genuinely flips; a same-state refresh
// leaves it untouched. Concurrent heartbeats for one device resolve by
// the store's whole-record last-write-wins semantics.
func (t *ConnectivityTracker) HandleEnvelope(
	ctx context.Context,
	envelope *model.Envelope,
) error {
	record, err := t.store.GetConnectivityRecord(ctx,
		envelope.TenantID, envelope.DeviceID)
	if err != nil {
		return errors.Wrap(err, "connectivity: failed to load record")
	}
	if record == nil {
		record = &model.ConnectivityRecord{
			DeviceID: envelope.DeviceID,
		}
	}

	now := t.clock.Now().Unix()
	online := reportedOnline(envelope)

	if record.IsOnline != online {
		record.LastOnlineChange = now
	}
	record.IsOnline = online
	record.LastHeartbeat = now
	if online {
		record.LastSeenOnline = now
	}

	hb := envelope.HeartbeatPayload()
	if hb.ConnectionType != "" {
		record.ConnectionType = hb.ConnectionType
	}
	if hb.ConnectionInfo != nil {
		record.ConnectionInfo = hb.ConnectionInfo
	}
	if hb.AgentVersion != "" {
		record.AgentVersion = hb.AgentVersion
	}

	err = t.store.UpsertConnectivityRecord(ctx, envelope.TenantID, record)
	if err != nil {
		return errors.Wrap(err, "connectivity: failed to persist record")
	}
	return nil
}

// DeviceStatus returns the stored record together with its derived
// classification. The classification is computed from the record and
// the clock; the stored fields are not modified by reads.
func (t *ConnectivityTracker) DeviceStatus(
	ctx context.Context,
	tenantID, deviceID string,
) (string, *model.ConnectivityRecord, error) {
	record, err := t.store.GetConnectivityRecord(ctx, tenantID, deviceID)
	if err != nil {
		return "", nil, errors.Wrap(err,
			"connectivity: failed to load record")
	}
	status := record.StatusAt(t.clock.Now(),
		t.onlineThreshold, t.staleThreshold)
	return status, record, nil
}

// reportedOnline interprets the envelope as a liveness signal. Any
// heartbeat means online; a status envelope may explicitly report the
// device going offline.
func reportedOnline(envelope *model.Envelope) bool {
	if envelope.MessageType != model.MessageTypeStatus {
		return true
	}
	if v, ok := envelope.Payload[payloadFieldOnline].(bool); ok {
		return v
	}
	if v, ok := envelope.Payload[payloadFieldStatus].(string); ok {
		return v != model.DeviceStatusOffline
	}
	return true
}
