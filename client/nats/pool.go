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

package nats

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/openrmm/devicebus/creds"
	"github.com/openrmm/devicebus/subject"
)

// Durable stream retention defaults
const (
	DefaultStreamMaxAge  = 24 * time.Hour
	DefaultStreamMaxMsgs = int64(65536)

	streamNamePrefix = "TENANT_"
)

// ErrConnect wraps a failed connection attempt. There is no degraded
// fallback: callers decide how to surface the failure.
var ErrConnect = errors.New("nats: failed to establish tenant connection")

// Dialer opens an authenticated connection to the broker. Swapped for
// a fake in tests.
type Dialer func(url, username, password string) (Client, error)

// PoolConfig bounds the per-tenant durable stream.
type PoolConfig struct {
	StreamMaxAge  time.Duration
	StreamMaxMsgs int64
}

// Pool owns one authenticated connection per tenant, created lazily on
// first use. Reconnects after a transport-level disconnect reuse the
// same Client, so references held by other components stay valid; a
// terminally closed connection is replaced on the next Get.
type Pool struct {
	url         string
	provisioner *creds.Provisioner
	dial        Dialer
	config      PoolConfig

	mutex   sync.Mutex
	entries map[string]*poolEntry
}

type poolEntry struct {
	connectOnce sync.Once
	client      Client
	err         error

	streamOnce sync.Once
	streamErr  error
}

// NewPool returns a connection pool backed by the given credential
// provisioner. A nil dialer uses the default authenticated client.
func NewPool(
	url string,
	provisioner *creds.Provisioner,
	config PoolConfig,
	dial Dialer,
) *Pool {
	if config.StreamMaxAge <= 0 {
		config.StreamMaxAge = DefaultStreamMaxAge
	}
	if config.StreamMaxMsgs <= 0 {
		config.StreamMaxMsgs = DefaultStreamMaxMsgs
	}
	if dial == nil {
		dial = NewClientWithDefaults
	}
	return &Pool{
		url:         url,
		provisioner: provisioner,
		dial:        dial,
		config:      config,
		entries:     make(map[string]*poolEntry),
	}
}

// Get returns the tenant's connection, establishing it on first use.
// The pool mutex guards only the entry map; the network dial happens
// outside it, serialized per tenant by the entry's once.
func (p *Pool) Get(ctx context.Context, tenantID string) (Client, error) {
	entry, err := p.entry(tenantID)
	if err != nil {
		return nil, err
	}

	entry.connectOnce.Do(func() {
		var client Client
		creds, err := p.provisioner.GetOrCreate(ctx, tenantID)
		if err == nil {
			client, err = p.dial(p.url, creds.Username, creds.Password)
			if err != nil {
				err = errors.Wrapf(ErrConnect,
					"tenant %s: %s", tenantID, err.Error())
			}
		}
		// Publish the result under the pool mutex: entry() and
		// Close() read these fields without passing through the
		// once, so the once alone gives them no happens-before
		// with the dial.
		p.mutex.Lock()
		entry.client = client
		entry.err = err
		p.mutex.Unlock()
	})

	if entry.err != nil {
		// Drop the failed entry so the next call retries.
		p.evict(tenantID, entry)
		return nil, entry.err
	}
	return entry.client, nil
}

// GetDurable returns the tenant's connection with its durable stream
// ensured. The stream captures all device traffic for the tenant and
// is bounded by both age and message count.
func (p *Pool) GetDurable(ctx context.Context, tenantID string) (Client, error) {
	client, err := p.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	p.mutex.Lock()
	entry := p.entries[tenantID]
	p.mutex.Unlock()
	if entry == nil {
		// Evicted between Get and here; retry from scratch.
		return p.GetDurable(ctx, tenantID)
	}

	entry.streamOnce.Do(func() {
		filter, err := subject.DeviceWildcard(tenantID)
		if err != nil {
			entry.streamErr = err
			return
		}
		entry.streamErr = client.EnsureStream(ctx,
			StreamName(tenantID),
			[]string{filter},
			p.config.StreamMaxAge,
			p.config.StreamMaxMsgs,
		)
	})
	if entry.streamErr != nil {
		return nil, entry.streamErr
	}
	return client, nil
}

// StreamName returns the durable stream name for a tenant.
func StreamName(tenantID string) string {
	return streamNamePrefix + tenantID
}

// Close tears down the tenant's connection. Idempotent. The client is
// copied out under the mutex; the network close happens outside it.
func (p *Pool) Close(tenantID string) {
	p.mutex.Lock()
	var client Client
	if entry := p.entries[tenantID]; entry != nil {
		client = entry.client
	}
	delete(p.entries, tenantID)
	p.mutex.Unlock()

	if client != nil {
		client.Close()
	}
}

// CloseAll tears down every tenant connection.
func (p *Pool) CloseAll() {
	p.mutex.Lock()
	clients := make([]Client, 0, len(p.entries))
	for _, entry := range p.entries {
		if entry.client != nil {
			clients = append(clients, entry.client)
		}
	}
	p.entries = make(map[string]*poolEntry)
	p.mutex.Unlock()

	for _, client := range clients {
		client.Close()
	}
}

func (p *Pool) entry(tenantID string) (*poolEntry, error) {
	if !subject.ValidTenantID(tenantID) {
		return nil, errors.Wrapf(subject.ErrInvalidIdentifier,
			"tenant id %q", tenantID)
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()

	entry, ok := p.entries[tenantID]
	if ok && entry.client != nil && entry.client.IsClosed() {
		// Terminally closed connection: replace the entry.
		ok = false
	}
	if !ok {
		entry = &poolEntry{}
		p.entries[tenantID] = entry
	}
	return entry, nil
}

func (p *Pool) evict(tenantID string, failed *poolEntry) {
	p.mutex.Lock()
	if p.entries[tenantID] == failed {
		delete(p.entries, tenantID)
	}
	p.mutex.Unlock()
}
