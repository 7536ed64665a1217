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
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Envelope message types
const (
	MessageTypeHeartbeat  = "heartbeat"
	MessageTypeStatus     = "status"
	MessageTypeMonitoring = "monitoring"
	MessageTypeResponse   = "response"
	MessageTypeCommand    = "command"
	MessageTypeBroadcast  = "broadcast"
)

// Payload keys shared between command and response envelopes
const (
	PayloadFieldCommand    = "command"
	PayloadFieldCommandID  = "command_id"
	PayloadFieldParameters = "parameters"
	PayloadFieldResult     = "result"
)

// Envelope is the message unit exchanged over the bus. All six fields
// are required for routing; the payload is message-type-specific and
// opaque to the routing layer. Instances are immutable once built.
type Envelope struct {
	TenantID    string                 `json:"tenant_uuid" msgpack:"tenant_uuid"`
	DeviceID    string                 `json:"device_uuid" msgpack:"device_uuid"`
	MessageType string                 `json:"message_type" msgpack:"message_type"`
	Payload     map[string]interface{} `json:"payload" msgpack:"payload"`
	Timestamp   int64                  `json:"timestamp" msgpack:"timestamp"`
	MessageID   string                 `json:"message_id" msgpack:"message_id"`
}

// Validate checks that all required envelope fields are present. An
// envelope failing this check is routine noise from partial agent
// implementations, not an operational error.
func (e Envelope) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.TenantID, validation.Required),
		validation.Field(&e.DeviceID, validation.Required),
		validation.Field(&e.MessageType, validation.Required),
		validation.Field(&e.Payload, validation.Required),
		validation.Field(&e.Timestamp, validation.Required),
		validation.Field(&e.MessageID, validation.Required),
	)
}

// MarshalEnvelope encodes the envelope for the bus.
func MarshalEnvelope(e *Envelope) ([]byte, error) {
	data, err := msgpack.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, "model: failed to encode envelope")
	}
	return data, nil
}

// UnmarshalEnvelope decodes a bus message. Unknown fields are ignored
// so newer agents can extend the envelope without breaking routing.
func UnmarshalEnvelope(data []byte) (*Envelope, error) {
	e := &Envelope{}
	if err := msgpack.Unmarshal(data, e); err != nil {
		return nil, errors.Wrap(err, "model: failed to decode envelope")
	}
	return e, nil
}

// HeartbeatPayload is the typed view of a heartbeat/status payload.
// Fields the agent did not report are left at their zero values.
type HeartbeatPayload struct {
	ConnectionType string
	ConnectionInfo map[string]interface{}
	AgentVersion   string
}

// HeartbeatPayload extracts the typed heartbeat fields from an opaque
// payload map.
func (e *Envelope) HeartbeatPayload() HeartbeatPayload {
	hb := HeartbeatPayload{}
	if v, ok := e.Payload["connection_type"].(string); ok {
		hb.ConnectionType = v
	}
	if v, ok := toStringMap(e.Payload["connection_info"]); ok {
		hb.ConnectionInfo = v
	}
	if v, ok := e.Payload["agent_version"].(string); ok {
		hb.AgentVersion = v
	}
	return hb
}

// CommandPayload is the payload of a command envelope.
type CommandPayload struct {
	Command    string                 `json:"command" msgpack:"command"`
	CommandID  string                 `json:"command_id" msgpack:"command_id"`
	Parameters map[string]interface{} `json:"parameters" msgpack:"parameters"`
}

// Map renders the command payload as an opaque envelope payload.
func (p CommandPayload) Map() map[string]interface{} {
	return map[string]interface{}{
		PayloadFieldCommand:    p.Command,
		PayloadFieldCommandID:  p.CommandID,
		PayloadFieldParameters: p.Parameters,
	}
}

// ResponseCommandID extracts the command id from a response payload,
// checking both the top level and one nested result level to tolerate
// agents that wrap their results.
func ResponseCommandID(payload map[string]interface{}) string {
	if id, ok := payload[PayloadFieldCommandID].(string); ok && id != "" {
		return id
	}
	if nested, ok := toStringMap(payload[PayloadFieldResult]); ok {
		if id, ok := nested[PayloadFieldCommandID].(string); ok {
			return id
		}
	}
	return ""
}

// ResponseResult extracts the result from a response payload, or
// returns the whole payload when no result field is present.
func ResponseResult(payload map[string]interface{}) interface{} {
	if result, ok := payload[PayloadFieldResult]; ok {
		return result
	}
	return payload
}

// toStringMap normalizes the two map shapes the msgpack decoder
// produces for nested objects.
func toStringMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	}
	return nil, false
}
