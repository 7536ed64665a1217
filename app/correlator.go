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
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mendersoftware/go-lib-micro/log"
	natsio "github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	nats "github.com/openrmm/devicebus/client/nats"
	"github.com/openrmm/devicebus/model"
	"github.com/openrmm/devicebus/subject"
	"github.com/openrmm/devicebus/utils"
)

const (
	// DefaultCommandTimeout bounds a command round-trip when the
	// caller does not specify one.
	DefaultCommandTimeout = 30 * time.Second

	// CommandTimeoutError is the error field value of a timed-out
	// command result.
	CommandTimeoutError = "Command timeout - agent did not respond"

	responseChannelSize = 25
)

// ErrCommandPublish is returned when the command envelope could not be
// handed to the bus at all.
var ErrCommandPublish = errors.New("correlator: failed to publish command")

// pendingCommand tracks one in-flight command. Owned exclusively by
// the Correlator; removed on response or timeout, whichever first.
type pendingCommand struct {
	tenantID string
	deviceID string
	issuedAt time.Time
}

// Correlator matches asynchronous command and response envelopes by a
// shared command id, giving callers a synchronous request/response
// round-trip over the bus.
type Correlator struct {
	pool      *nats.Pool
	publisher *Publisher
	clock     utils.Clock

	mutex   sync.Mutex
	pending map[string]pendingCommand
}

// NewCorrelator returns a Correlator publishing through the given
// Publisher.
func NewCorrelator(pool *nats.Pool, publisher *Publisher, clock utils.Clock) *Correlator {
	if clock == nil {
		clock = utils.RealClock{}
	}
	return &Correlator{
		pool:      pool,
		publisher: publisher,
		clock:     clock,
		pending:   make(map[string]pendingCommand),
	}
}

// PendingCommands returns the number of in-flight commands.
func (c *Correlator) PendingCommands() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.pending)
}

// SendCommand publishes a command envelope to the device and waits for
// the matching response. On timeout the returned result is the
// structured timeout error, not a Go error: the caller owns the retry
// policy. The response subscription is torn down on every exit path.
func (c *Correlator) SendCommand(
	ctx context.Context,
	tenantID, deviceID, action string,
	parameters map[string]interface{},
	timeout time.Duration,
) (interface{}, error) {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}

	// Fail fast on malformed identifiers, before any network access
	responseSubject, err := subject.Build(tenantID, deviceID,
		model.MessageTypeResponse)
	if err != nil {
		return nil, err
	}

	client, err := c.pool.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	commandID := uuid.New().String()

	// Subscribe before publishing so a fast responder cannot win the
	// race against the subscription.
	channel := make(chan *natsio.Msg, responseChannelSize)
	sub, err := client.ChanSubscribe(responseSubject, channel)
	if err != nil {
		return nil, errors.Wrap(err,
			"correlator: failed to subscribe for response")
	}
	defer sub.Unsubscribe()

	c.track(commandID, tenantID, deviceID)
	defer c.untrack(commandID)

	payload := model.CommandPayload{
		Command:    action,
		CommandID:  commandID,
		Parameters: parameters,
	}
	ok := c.publisher.Publish(ctx, tenantID, deviceID,
		model.MessageTypeCommand, payload.Map(), true)
	if !ok {
		return nil, ErrCommandPublish
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	l := log.FromContext(ctx)
	for {
		select {
		case msg := <-channel:
			envelope, err := model.UnmarshalEnvelope(msg.Data)
			if err != nil || envelope.Validate() != nil {
				continue
			}
			if model.ResponseCommandID(envelope.Payload) != commandID {
				// Response to some other in-flight command
				continue
			}
			return model.ResponseResult(envelope.Payload), nil
		case <-timer.C:
			l.Warnf("command %s to tenant=%s device=%s timed out after %s",
				commandID, tenantID, deviceID, timeout)
			return map[string]interface{}{
				"error": CommandTimeoutError,
			}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (c *Correlator) track(commandID, tenantID, deviceID string) {
	c.mutex.Lock()
	c.pending[commandID] = pendingCommand{
		tenantID: tenantID,
		deviceID: deviceID,
		issuedAt: c.clock.Now(),
	}
	c.mutex.Unlock()
}

func (c *Correlator) untrack(commandID string) {
	c.mutex.Lock()
	delete(c.pending, commandID)
	c.mutex.Unlock()
}
