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

	"github.com/google/uuid"
	"github.com/mendersoftware/go-lib-micro/log"

	nats "github.com/openrmm/devicebus/client/nats"
	"github.com/openrmm/devicebus/model"
	"github.com/openrmm/devicebus/subject"
	"github.com/openrmm/devicebus/utils"
)

// Publisher sends typed envelopes to a device's subject. Publish
// failures are expected under partition: they are logged and reported
// as a boolean, never raised, so a calling request handler decides
// whether the failure is user-visible.
type Publisher struct {
	pool  *nats.Pool
	clock utils.Clock
}

// NewPublisher returns a Publisher over the given connection pool.
func NewPublisher(pool *nats.Pool, clock utils.Clock) *Publisher {
	if clock == nil {
		clock = utils.RealClock{}
	}
	return &Publisher{
		pool:  pool,
		clock: clock,
	}
}

// Publish builds and sends one envelope. With useDurable the message
// goes through the tenant's durable stream (at-least-once, bounded by
// the stream retention); otherwise it is fire-and-forget. Invalid
// identifiers fail before any network activity.
func (p *Publisher) Publish(
	ctx context.Context,
	tenantID, deviceID, messageType string,
	payload map[string]interface{},
	useDurable bool,
) bool {
	l := log.FromContext(ctx)

	subj, err := subject.Build(tenantID, deviceID, messageType)
	if err != nil {
		l.Errorf("publish rejected: %v", err)
		return false
	}

	envelope := &model.Envelope{
		TenantID:    tenantID,
		DeviceID:    deviceID,
		MessageType: subject.SanitizeType(messageType),
		Payload:     payload,
		Timestamp:   p.clock.Now().Unix(),
		MessageID:   uuid.New().String(),
	}
	data, err := model.MarshalEnvelope(envelope)
	if err != nil {
		l.Errorf("publish tenant=%s device=%s type=%s: %v",
			tenantID, deviceID, messageType, err)
		return false
	}

	if useDurable {
		client, err := p.pool.GetDurable(ctx, tenantID)
		if err == nil {
			err = client.StreamPublish(ctx, subj, data)
		}
		if err != nil {
			l.Errorf("durable publish tenant=%s device=%s type=%s: %v",
				tenantID, deviceID, messageType, err)
			return false
		}
		return true
	}

	client, err := p.pool.Get(ctx, tenantID)
	if err == nil {
		err = client.Publish(subj, data)
	}
	if err != nil {
		l.Errorf("publish tenant=%s device=%s type=%s: %v",
			tenantID, deviceID, messageType, err)
		return false
	}
	return true
}
