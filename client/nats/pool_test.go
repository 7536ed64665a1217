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
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/openrmm/devicebus/client/nats/mocks"
	"github.com/openrmm/devicebus/creds"
	"github.com/openrmm/devicebus/subject"
)

const testTenantID = "11111111-1111-1111-1111-111111111111"

// testDialer connects to the embedded test broker, which runs without
// authentication, and counts dials.
func testDialer(dials *int32) Dialer {
	return func(url, username, password string) (Client, error) {
		atomic.AddInt32(dials, 1)
		return NewClient(url)
	}
}

func TestPoolConnectionReuse(t *testing.T) {
	t.Parallel()
	uri := NewNATSTestServer(t)

	var dials int32
	pool := NewPool(uri, creds.NewProvisioner(nil), PoolConfig{}, testDialer(&dials))
	defer pool.CloseAll()

	ctx := context.Background()
	first, err := pool.Get(ctx, testTenantID)
	assert.NoError(t, err)

	second, err := pool.Get(ctx, testTenantID)
	assert.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&dials))
}

func TestPoolConcurrentFirstAccess(t *testing.T) {
	t.Parallel()
	uri := NewNATSTestServer(t)

	var dials int32
	pool := NewPool(uri, creds.NewProvisioner(nil), PoolConfig{}, testDialer(&dials))
	defer pool.CloseAll()

	const callers = 16
	clients := make([]Client, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			client, err := pool.Get(context.Background(), testTenantID)
			assert.NoError(t, err)
			clients[i] = client
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		assert.Same(t, clients[0], clients[i])
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&dials))
}

// Get, the entry liveness check and Close must all observe the entry
// fields coherently while a dial is still in flight.
func TestPoolConcurrentGetClose(t *testing.T) {
	t.Parallel()
	uri := NewNATSTestServer(t)

	slowDialer := func(url, username, password string) (Client, error) {
		time.Sleep(10 * time.Millisecond)
		return NewClient(url)
	}
	pool := NewPool(uri, creds.NewProvisioner(nil), PoolConfig{}, slowDialer)
	defer pool.CloseAll()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			//nolint:errcheck
			pool.Get(context.Background(), testTenantID)
		}()
		go func() {
			defer wg.Done()
			pool.Close(testTenantID)
		}()
	}
	wg.Wait()

	client, err := pool.Get(context.Background(), testTenantID)
	assert.NoError(t, err)
	assert.False(t, client.IsClosed())
}

func TestPoolInvalidTenantID(t *testing.T) {
	t.Parallel()
	pool := NewPool("nats://localhost:4222", creds.NewProvisioner(nil),
		PoolConfig{}, testDialer(new(int32)))
	_, err := pool.Get(context.Background(), "tenant-1")
	assert.ErrorIs(t, err, subject.ErrInvalidIdentifier)
}

func TestPoolDialFailurePropagatesAndRetries(t *testing.T) {
	t.Parallel()
	uri := NewNATSTestServer(t)

	var fail int32 = 1
	var dials int32
	dialer := func(url, username, password string) (Client, error) {
		atomic.AddInt32(&dials, 1)
		if atomic.LoadInt32(&fail) == 1 {
			return nil, errors.New("connection refused")
		}
		return NewClient(url)
	}
	pool := NewPool(uri, creds.NewProvisioner(nil), PoolConfig{}, dialer)
	defer pool.CloseAll()

	ctx := context.Background()
	_, err := pool.Get(ctx, testTenantID)
	assert.ErrorIs(t, err, ErrConnect)

	// The failed entry must not be cached
	atomic.StoreInt32(&fail, 0)
	client, err := pool.Get(ctx, testTenantID)
	assert.NoError(t, err)
	assert.NotNil(t, client)
	assert.Equal(t, int32(2), atomic.LoadInt32(&dials))
}

func TestPoolDurableStream(t *testing.T) {
	t.Parallel()
	uri := NewNATSTestServer(t)

	pool := NewPool(uri, creds.NewProvisioner(nil), PoolConfig{},
		testDialer(new(int32)))
	defer pool.CloseAll()

	ctx := context.Background()
	client, err := pool.GetDurable(ctx, testTenantID)
	assert.NoError(t, err)

	// The stream accepts device traffic for the tenant
	subj, err := subject.Build(testTenantID,
		"22222222-2222-2222-2222-222222222222", "heartbeat")
	assert.NoError(t, err)
	err = client.StreamPublish(ctx, subj, []byte("payload"))
	assert.NoError(t, err)

	// Second call reuses the ensured stream
	again, err := pool.GetDurable(ctx, testTenantID)
	assert.NoError(t, err)
	assert.Same(t, client, again)
}

func TestPoolClose(t *testing.T) {
	t.Parallel()
	uri := NewNATSTestServer(t)

	var dials int32
	pool := NewPool(uri, creds.NewProvisioner(nil), PoolConfig{}, testDialer(&dials))

	ctx := context.Background()
	first, err := pool.Get(ctx, testTenantID)
	assert.NoError(t, err)

	pool.Close(testTenantID)
	pool.Close(testTenantID) // idempotent
	assert.True(t, first.IsClosed())

	second, err := pool.Get(ctx, testTenantID)
	assert.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, int32(2), atomic.LoadInt32(&dials))

	pool.CloseAll()
	assert.True(t, second.IsClosed())
}

// A connection that reports itself terminally closed is replaced on
// the next Get instead of being handed out again.
func TestPoolReplacesClosedClient(t *testing.T) {
	t.Parallel()

	dead := &mocks.Client{}
	dead.On("IsClosed").Return(true)
	replacement := &mocks.Client{}
	replacement.On("IsClosed").Return(false)
	replacement.On("Close").Return()

	clients := []Client{dead, replacement}
	var dials int32
	dialer := func(url, username, password string) (Client, error) {
		n := atomic.AddInt32(&dials, 1)
		return clients[n-1], nil
	}

	pool := NewPool("nats://localhost:4222",
		creds.NewProvisioner(nil), PoolConfig{}, dialer)
	defer pool.CloseAll()

	ctx := context.Background()
	first, err := pool.Get(ctx, testTenantID)
	assert.NoError(t, err)
	assert.Same(t, dead, first)

	second, err := pool.Get(ctx, testTenantID)
	assert.NoError(t, err)
	assert.Same(t, replacement, second)
	assert.Equal(t, int32(2), atomic.LoadInt32(&dials))

	dead.AssertExpectations(t)
}
