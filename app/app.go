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

	"github.com/mendersoftware/go-lib-micro/log"
	natsio "github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	nats "github.com/openrmm/devicebus/client/nats"
	"github.com/openrmm/devicebus/creds"
	"github.com/openrmm/devicebus/model"
	"github.com/openrmm/devicebus/store"
	"github.com/openrmm/devicebus/subject"
	"github.com/openrmm/devicebus/utils"
)

// App errors
var (
	ErrTenantNotFound = errors.New("tenant not found")
	ErrDeviceNotFound = errors.New("device not found")
)

// DeviceConnectivity is the management view of one device: the record
// plus its read-time classification.
type DeviceConnectivity struct {
	Device *model.Device             `json:"device"`
	Record *model.ConnectivityRecord `json:"connectivity,omitempty"`
	Status string                    `json:"status"`
}

// Config holds the app-level tunables.
type Config struct {
	OnlineThreshold time.Duration
	StaleThreshold  time.Duration
	CommandTimeout  time.Duration
}

// App interface describes app objects
//
//nolint:lll
//go:generate ../utils/mockgen.sh
type App interface {
	HealthCheck(ctx context.Context) error
	ProvisionTenant(ctx context.Context, tenant *model.Tenant) error
	ProvisionDevice(ctx context.Context, tenantID string, device *model.Device) error
	DeleteDevice(ctx context.Context, tenantID, deviceID string) error
	GetDevice(ctx context.Context, tenantID, deviceID string) (*model.Device, error)
	GetDeviceConnectivity(ctx context.Context, tenantID, deviceID string) (*DeviceConnectivity, error)
	StartTenantRouting(ctx context.Context, tenantID string) (string, error)
	StopTenantRouting(subscriptionID string)
	SendCommand(ctx context.Context, tenantID, deviceID, action string, parameters map[string]interface{}, timeout time.Duration) (interface{}, error)
	Publish(ctx context.Context, tenantID, deviceID, messageType string, payload map[string]interface{}, useDurable bool) bool
	Watch(ctx context.Context, tenantID string) (<-chan *model.Envelope, func(), error)
	GetStats() Stats
	Shutdown()
}

// deviceBus is the app object tying the messaging core together. All
// collaborators are injected so tests can substitute fakes.
type deviceBus struct {
	store       store.DataStore
	pool        *nats.Pool
	provisioner *creds.Provisioner
	publisher   *Publisher
	router      *Router
	tracker     *ConnectivityTracker
	correlator  *Correlator
	config      Config

	routingMutex sync.Mutex
	// routing maps a tenant id to its routing subscription id, so
	// provisioning the same tenant twice keeps a single subscription.
	routing map[string]string
}

// New initializes a new devicebus App. The heartbeat and status
// handlers feed the connectivity tracker; response and monitoring
// envelopes are accepted for the routing stats and consumed by their
// interested parties (the correlator holds its own response
// subscription).
func New(
	ds store.DataStore,
	pool *nats.Pool,
	provisioner *creds.Provisioner,
	clock utils.Clock,
	config Config,
) App {
	if clock == nil {
		clock = utils.RealClock{}
	}
	if config.CommandTimeout <= 0 {
		config.CommandTimeout = DefaultCommandTimeout
	}

	publisher := NewPublisher(pool, clock)
	router := NewRouter(pool, ds, clock)
	tracker := NewConnectivityTracker(ds, clock,
		config.OnlineThreshold, config.StaleThreshold)
	correlator := NewCorrelator(pool, publisher, clock)

	router.Handle(model.MessageTypeHeartbeat, tracker.HandleEnvelope)
	router.Handle(model.MessageTypeStatus, tracker.HandleEnvelope)
	router.Handle(model.MessageTypeResponse, acceptEnvelope)
	router.Handle(model.MessageTypeMonitoring, acceptEnvelope)

	return &deviceBus{
		store:       ds,
		pool:        pool,
		provisioner: provisioner,
		publisher:   publisher,
		router:      router,
		tracker:     tracker,
		correlator:  correlator,
		config:      config,
		routing:     make(map[string]string),
	}
}

// acceptEnvelope counts an envelope without further processing.
func acceptEnvelope(ctx context.Context, envelope *model.Envelope) error {
	return nil
}

// HealthCheck performs a health check and returns an error if it fails
func (a *deviceBus) HealthCheck(ctx context.Context) error {
	return a.store.Ping(ctx)
}

// ProvisionTenant provisions a new tenant: the record, its bus
// credentials, its durable stream and its routing subscription. The
// stream warm-up is best-effort; it is ensured again lazily on first
// durable publish. Routing failures are returned: provisioning is an
// idempotent upsert and can be retried.
func (a *deviceBus) ProvisionTenant(ctx context.Context, tenant *model.Tenant) error {
	if err := tenant.Validate(); err != nil {
		return errors.Wrap(err, "app: cannot provision invalid tenant")
	}
	if err := a.store.ProvisionTenant(ctx, tenant); err != nil {
		return err
	}
	if _, err := a.provisioner.GetOrCreate(ctx, tenant.TenantID); err != nil {
		return err
	}
	if _, err := a.pool.GetDurable(ctx, tenant.TenantID); err != nil {
		log.FromContext(ctx).Warnf(
			"failed to warm up durable stream for tenant %s: %v",
			tenant.TenantID, err,
		)
	}
	_, err := a.startRouting(ctx, tenant.TenantID)
	return err
}

// ProvisionDevice provisions a new device under a tenant
func (a *deviceBus) ProvisionDevice(
	ctx context.Context,
	tenantID string,
	device *model.Device,
) error {
	if !subject.ValidTenantID(tenantID) || !subject.ValidDeviceID(device.ID) {
		return errors.Wrap(subject.ErrInvalidIdentifier,
			"app: cannot provision device")
	}
	return a.store.ProvisionDevice(ctx, tenantID, device.ID)
}

// DeleteDevice removes a device and its connectivity record
func (a *deviceBus) DeleteDevice(ctx context.Context, tenantID, deviceID string) error {
	return a.store.DeleteDevice(ctx, tenantID, deviceID)
}

// GetDevice returns a device
func (a *deviceBus) GetDevice(
	ctx context.Context,
	tenantID string,
	deviceID string,
) (*model.Device, error) {
	device, err := a.store.GetDevice(ctx, tenantID, deviceID)
	if err == store.ErrDeviceNotFound {
		return nil, ErrDeviceNotFound
	} else if err != nil {
		return nil, err
	}
	return device, nil
}

// GetDeviceConnectivity returns the device together with its stored
// connectivity record and derived status
func (a *deviceBus) GetDeviceConnectivity(
	ctx context.Context,
	tenantID, deviceID string,
) (*DeviceConnectivity, error) {
	device, err := a.GetDevice(ctx, tenantID, deviceID)
	if err != nil {
		return nil, err
	}
	status, record, err := a.tracker.DeviceStatus(ctx, tenantID, deviceID)
	if err != nil {
		return nil, err
	}
	return &DeviceConnectivity{
		Device: device,
		Record: record,
		Status: status,
	}, nil
}

// StartTenantRouting subscribes the router to the tenant's subject
// space and returns the subscription id. The tenant must exist.
// Idempotent per tenant: a tenant already being routed keeps its
// existing subscription.
func (a *deviceBus) StartTenantRouting(
	ctx context.Context,
	tenantID string,
) (string, error) {
	_, err := a.store.GetTenant(ctx, tenantID)
	if err == store.ErrTenantNotFound {
		return "", ErrTenantNotFound
	} else if err != nil {
		return "", err
	}
	return a.startRouting(ctx, tenantID)
}

func (a *deviceBus) startRouting(
	ctx context.Context,
	tenantID string,
) (string, error) {
	a.routingMutex.Lock()
	subscriptionID, ok := a.routing[tenantID]
	a.routingMutex.Unlock()
	if ok {
		return subscriptionID, nil
	}

	subscriptionID, err := a.router.SubscribeToTenant(ctx, tenantID)
	if err != nil {
		return "", err
	}

	a.routingMutex.Lock()
	if existing, ok := a.routing[tenantID]; ok {
		// Lost the race against a concurrent start; keep the
		// first subscription.
		a.routingMutex.Unlock()
		a.router.Unsubscribe(subscriptionID)
		return existing, nil
	}
	a.routing[tenantID] = subscriptionID
	a.routingMutex.Unlock()
	return subscriptionID, nil
}

// StopTenantRouting stops a routing subscription. Idempotent.
func (a *deviceBus) StopTenantRouting(subscriptionID string) {
	a.routingMutex.Lock()
	for tenantID, id := range a.routing {
		if id == subscriptionID {
			delete(a.routing, tenantID)
			break
		}
	}
	a.routingMutex.Unlock()
	a.router.Unsubscribe(subscriptionID)
}

// SendCommand runs a command/response round-trip against a device.
func (a *deviceBus) SendCommand(
	ctx context.Context,
	tenantID, deviceID, action string,
	parameters map[string]interface{},
	timeout time.Duration,
) (interface{}, error) {
	if timeout <= 0 {
		timeout = a.config.CommandTimeout
	}
	return a.correlator.SendCommand(ctx,
		tenantID, deviceID, action, parameters, timeout)
}

// Publish sends one envelope to a device's subject.
func (a *deviceBus) Publish(
	ctx context.Context,
	tenantID, deviceID, messageType string,
	payload map[string]interface{},
	useDurable bool,
) bool {
	return a.publisher.Publish(ctx,
		tenantID, deviceID, messageType, payload, useDurable)
}

// Watch subscribes to the tenant's full subject space and yields the
// decoded envelopes. The returned cancel func tears the subscription
// down and closes the channel; it is idempotent.
func (a *deviceBus) Watch(
	ctx context.Context,
	tenantID string,
) (<-chan *model.Envelope, func(), error) {
	wildcard, err := subject.TenantWildcard(tenantID)
	if err != nil {
		return nil, nil, err
	}
	client, err := a.pool.Get(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}

	messages := make(chan *natsio.Msg, responseChannelSize)
	sub, err := client.ChanSubscribe(wildcard, messages)
	if err != nil {
		return nil, nil, errors.Wrap(err, "app: failed to subscribe")
	}

	envelopes := make(chan *model.Envelope, responseChannelSize)
	done := make(chan struct{})
	go func() {
		defer close(envelopes)
		for {
			select {
			case msg := <-messages:
				envelope, err := model.UnmarshalEnvelope(msg.Data)
				if err != nil || envelope.Validate() != nil {
					continue
				}
				select {
				case envelopes <- envelope:
				case <-done:
					return
				}
			case <-done:
				return
			}
		}
	}()

	var cancelOnce sync.Once
	cancel := func() {
		cancelOnce.Do(func() {
			sub.Unsubscribe()
			close(done)
		})
	}
	return envelopes, cancel, nil
}

// GetStats returns the router's counters.
func (a *deviceBus) GetStats() Stats {
	return a.router.GetStats()
}

// Shutdown stops all routing subscriptions and closes the tenant
// connections.
func (a *deviceBus) Shutdown() {
	a.routingMutex.Lock()
	a.routing = make(map[string]string)
	a.routingMutex.Unlock()
	a.router.Close()
	a.pool.CloseAll()
}
