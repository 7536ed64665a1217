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
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/mendersoftware/go-lib-micro/log"
	natsio "github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	nats "github.com/openrmm/devicebus/client/nats"
	"github.com/openrmm/devicebus/model"
	"github.com/openrmm/devicebus/store"
	"github.com/openrmm/devicebus/subject"
	"github.com/openrmm/devicebus/utils"
)

// Handler processes one accepted envelope. A returned error is counted
// against the handler's stats; it is never propagated to the bus.
type Handler func(ctx context.Context, envelope *model.Envelope) error

// RoutingStats is the snapshot of one handler's counters.
type RoutingStats struct {
	Processed     int64 `json:"processed_count"`
	Errors        int64 `json:"error_count"`
	LastProcessed int64 `json:"last_processed_timestamp"`
}

// Stats is the aggregate router snapshot exposed to monitoring
// callers. Raw transport and validation errors are never exposed;
// only these counters are.
type Stats struct {
	Handlers            map[string]RoutingStats `json:"handlers"`
	ValidationRejected  int64                   `json:"validation_rejected"`
	MalformedDropped    int64                   `json:"malformed_dropped"`
	NoHandlerDropped    int64                   `json:"no_handler_dropped"`
	ActiveSubscriptions int                     `json:"active_subscriptions"`
}

type handlerStats struct {
	processed     int64
	errors        int64
	lastProcessed int64
}

// Router subscribes to tenant subject spaces, decodes envelopes,
// enforces tenant/device ownership against the system of record and
// dispatches to per-message-type handlers.
//
// Ownership validation is the tenant-isolation enforcement point: it
// runs on every message with no bypass path, and failures are absorbed
// silently so a hostile agent cannot probe tenant boundaries through
// error responses.
type Router struct {
	pool  *nats.Pool
	store store.DataStore
	clock utils.Clock

	mutex    sync.Mutex
	handlers map[string]Handler
	subs     map[string][]*natsio.Subscription

	stats              map[string]*handlerStats
	validationRejected int64
	malformedDropped   int64
	noHandlerDropped   int64
}

// NewRouter returns a Router using the data store for ownership
// lookups.
func NewRouter(pool *nats.Pool, ds store.DataStore, clock utils.Clock) *Router {
	if clock == nil {
		clock = utils.RealClock{}
	}
	return &Router{
		pool:     pool,
		store:    ds,
		clock:    clock,
		handlers: make(map[string]Handler),
		subs:     make(map[string][]*natsio.Subscription),
		stats:    make(map[string]*handlerStats),
	}
}

// Handle registers the handler for a message type. Registration must
// complete before the first subscription starts.
func (r *Router) Handle(messageType string, handler Handler) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.handlers[messageType] = handler
	r.stats[messageType] = &handlerStats{}
}

// SubscribeToTenant starts routing the tenant's traffic. With explicit
// message types one subscription per type is created
// (tenant.<id>.device.*.<type>); otherwise the full tenant wildcard is
// used. Returns a subscription id for Unsubscribe.
func (r *Router) SubscribeToTenant(
	ctx context.Context,
	tenantID string,
	messageTypes ...string,
) (string, error) {
	var subjects []string
	if len(messageTypes) == 0 {
		wildcard, err := subject.TenantWildcard(tenantID)
		if err != nil {
			return "", err
		}
		subjects = []string{wildcard}
	} else {
		for _, messageType := range messageTypes {
			subj, err := subject.TypeWildcard(tenantID, messageType)
			if err != nil {
				return "", err
			}
			subjects = append(subjects, subj)
		}
	}

	client, err := r.pool.Get(ctx, tenantID)
	if err != nil {
		return "", err
	}

	subs := make([]*natsio.Subscription, 0, len(subjects))
	for _, subj := range subjects {
		sub, err := client.Subscribe(subj, func(msg *natsio.Msg) {
			r.route(ctx, tenantID, msg)
		})
		if err != nil {
			for _, s := range subs {
				s.Unsubscribe()
			}
			return "", errors.Wrapf(err,
				"router: failed to subscribe to %s", subj)
		}
		subs = append(subs, sub)
	}

	subscriptionID := uuid.New().String()
	r.mutex.Lock()
	r.subs[subscriptionID] = subs
	r.mutex.Unlock()
	return subscriptionID, nil
}

// Unsubscribe stops a subscription started by SubscribeToTenant.
// Idempotent: unknown ids are ignored.
func (r *Router) Unsubscribe(subscriptionID string) {
	r.mutex.Lock()
	subs := r.subs[subscriptionID]
	delete(r.subs, subscriptionID)
	r.mutex.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

// Close stops all subscriptions.
func (r *Router) Close() {
	r.mutex.Lock()
	all := r.subs
	r.subs = make(map[string][]*natsio.Subscription)
	r.mutex.Unlock()

	for _, subs := range all {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}
}

// GetStats returns a snapshot of the routing counters.
func (r *Router) GetStats() Stats {
	r.mutex.Lock()
	handlers := make(map[string]RoutingStats, len(r.stats))
	for messageType, hs := range r.stats {
		handlers[messageType] = RoutingStats{
			Processed:     atomic.LoadInt64(&hs.processed),
			Errors:        atomic.LoadInt64(&hs.errors),
			LastProcessed: atomic.LoadInt64(&hs.lastProcessed),
		}
	}
	active := len(r.subs)
	r.mutex.Unlock()

	return Stats{
		Handlers:            handlers,
		ValidationRejected:  atomic.LoadInt64(&r.validationRejected),
		MalformedDropped:    atomic.LoadInt64(&r.malformedDropped),
		NoHandlerDropped:    atomic.LoadInt64(&r.noHandlerDropped),
		ActiveSubscriptions: active,
	}
}

// route is the per-message pipeline: decode, tolerant field check,
// ownership validation, dispatch. Drops never generate bus traffic.
func (r *Router) route(ctx context.Context, tenantID string, msg *natsio.Msg) {
	l := log.FromContext(ctx)

	envelope, err := model.UnmarshalEnvelope(msg.Data)
	if err != nil {
		// Routine noise from heterogeneous agent versions
		atomic.AddInt64(&r.malformedDropped, 1)
		l.Debugf("dropped undecodable message on %s", msg.Subject)
		return
	}
	if err := envelope.Validate(); err != nil {
		atomic.AddInt64(&r.malformedDropped, 1)
		l.Debugf("dropped incomplete envelope on %s: %v", msg.Subject, err)
		return
	}
	if !subject.ValidTenantID(envelope.TenantID) ||
		!subject.ValidDeviceID(envelope.DeviceID) {
		atomic.AddInt64(&r.malformedDropped, 1)
		l.Debugf("dropped envelope with malformed ids on %s", msg.Subject)
		return
	}

	if !r.validateOwnership(ctx, tenantID, envelope) {
		atomic.AddInt64(&r.validationRejected, 1)
		l.Warnf("rejected envelope tenant=%s device=%s type=%s: ownership check failed",
			envelope.TenantID, envelope.DeviceID, envelope.MessageType)
		return
	}

	r.mutex.Lock()
	handler := r.handlers[envelope.MessageType]
	hs := r.stats[envelope.MessageType]
	r.mutex.Unlock()
	if handler == nil {
		atomic.AddInt64(&r.noHandlerDropped, 1)
		l.Debugf("no handler for message type %q", envelope.MessageType)
		return
	}

	if err := handler(ctx, envelope); err != nil {
		atomic.AddInt64(&hs.errors, 1)
		l.Errorf("handler tenant=%s device=%s type=%s: %v",
			envelope.TenantID, envelope.DeviceID,
			envelope.MessageType, err)
		return
	}
	atomic.AddInt64(&hs.processed, 1)
	atomic.StoreInt64(&hs.lastProcessed, r.clock.Now().Unix())
}

// validateOwnership confirms the envelope's tenant exists and that the
// device both exists and belongs to that exact tenant. A device id
// that exists under a different tenant is rejected even when the
// claimed tenant is itself valid.
func (r *Router) validateOwnership(
	ctx context.Context,
	subscribedTenant string,
	envelope *model.Envelope,
) bool {
	if envelope.TenantID != subscribedTenant {
		return false
	}
	tenant, err := r.store.GetTenant(ctx, envelope.TenantID)
	if err != nil || tenant == nil {
		return false
	}
	device, err := r.store.GetDevice(ctx, envelope.TenantID, envelope.DeviceID)
	if err != nil || device == nil {
		return false
	}
	return device.TenantID == envelope.TenantID
}
