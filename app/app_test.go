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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/openrmm/devicebus/model"
	"github.com/openrmm/devicebus/store"
	storemocks "github.com/openrmm/devicebus/store/mocks"
	"github.com/openrmm/devicebus/subject"
)

const (
	appTenant = "dc4bdf3c-8228-4c49-abb9-3dba1f2cd795"
	appDevice = "c131d98e-1d06-4e8e-b7a8-6b24b6247b25"
)

func TestAppHealthCheck(t *testing.T) {
	t.Parallel()

	errPing := errors.New("store unavailable")
	testCases := []struct {
		Name     string
		PingErr  error
		Expected error
	}{{
		Name: "healthy",
	}, {
		Name:     "store down",
		PingErr:  errPing,
		Expected: errPing,
	}}
	for i := range testCases {
		tc := testCases[i]
		t.Run(tc.Name, func(t *testing.T) {
			uri := newNATSTestServer(t)
			ds := new(storemocks.DataStore)
			ds.On("Ping", mock.Anything).Return(tc.PingErr)

			app := New(ds, newTestPool(t, uri),
				newTestProvisioner(), nil, Config{})
			err := app.HealthCheck(context.Background())
			if tc.Expected != nil {
				assert.ErrorIs(t, err, tc.Expected)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAppProvisionTenant(t *testing.T) {
	t.Parallel()

	uri := newNATSTestServer(t)
	ds := new(storemocks.DataStore)
	ds.On("ProvisionTenant", mock.Anything,
		mock.AnythingOfType("*model.Tenant")).
		Return(nil)
	defer ds.AssertExpectations(t)

	pool := newTestPool(t, uri)
	app := New(ds, pool, newTestProvisioner(), nil, Config{})
	defer app.Shutdown()

	err := app.ProvisionTenant(context.Background(), &model.Tenant{
		TenantID: appTenant,
		Name:     "acme",
	})
	assert.NoError(t, err)

	// Provisioning starts routing for the tenant right away, and
	// re-provisioning keeps the single subscription.
	assert.Equal(t, 1, app.GetStats().ActiveSubscriptions)

	err = app.ProvisionTenant(context.Background(), &model.Tenant{
		TenantID: appTenant,
		Name:     "acme renamed",
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, app.GetStats().ActiveSubscriptions)

	err = app.ProvisionTenant(context.Background(), &model.Tenant{
		TenantID: "not-a-uuid",
	})
	assert.Error(t, err)
}

func TestAppProvisionDevice(t *testing.T) {
	t.Parallel()

	uri := newNATSTestServer(t)
	ds := new(storemocks.DataStore)
	ds.On("ProvisionDevice", mock.Anything, appTenant, appDevice).
		Return(nil)

	pool := newTestPool(t, uri)
	defer pool.CloseAll()
	app := New(ds, pool, newTestProvisioner(), nil, Config{})

	err := app.ProvisionDevice(context.Background(), appTenant,
		&model.Device{ID: appDevice})
	assert.NoError(t, err)

	err = app.ProvisionDevice(context.Background(), appTenant,
		&model.Device{ID: "truncated"})
	assert.ErrorIs(t, err, subject.ErrInvalidIdentifier)
}

func TestAppGetDevice(t *testing.T) {
	t.Parallel()

	uri := newNATSTestServer(t)
	ds := new(storemocks.DataStore)
	ds.On("GetDevice", mock.Anything, appTenant, appDevice).
		Return(&model.Device{ID: appDevice, TenantID: appTenant}, nil)
	ds.On("GetDevice", mock.Anything, appTenant,
		"eb5bfa85-a4e0-45eb-b7b7-757e0b7b64c6").
		Return(nil, store.ErrDeviceNotFound)

	pool := newTestPool(t, uri)
	defer pool.CloseAll()
	app := New(ds, pool, newTestProvisioner(), nil, Config{})

	device, err := app.GetDevice(context.Background(), appTenant, appDevice)
	assert.NoError(t, err)
	require.NotNil(t, device)
	assert.Equal(t, appDevice, device.ID)

	_, err = app.GetDevice(context.Background(), appTenant,
		"eb5bfa85-a4e0-45eb-b7b7-757e0b7b64c6")
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestAppGetDeviceConnectivity(t *testing.T) {
	t.Parallel()

	uri := newNATSTestServer(t)
	ds := new(storemocks.DataStore)
	ds.On("GetDevice", mock.Anything, appTenant, appDevice).
		Return(&model.Device{ID: appDevice, TenantID: appTenant}, nil)
	ds.On("GetConnectivityRecord", mock.Anything, appTenant, appDevice).
		Return(&model.ConnectivityRecord{
			DeviceID:      appDevice,
			IsOnline:      true,
			LastHeartbeat: time.Now().Unix(),
		}, nil)

	pool := newTestPool(t, uri)
	defer pool.CloseAll()
	app := New(ds, pool, newTestProvisioner(), nil, Config{})

	connectivity, err := app.GetDeviceConnectivity(
		context.Background(), appTenant, appDevice)
	require.NoError(t, err)
	assert.Equal(t, model.DeviceStatusOnline, connectivity.Status)
	assert.NotNil(t, connectivity.Record)
	assert.Equal(t, appDevice, connectivity.Device.ID)
}

// End to end through the façade: start routing for a tenant, publish a
// heartbeat through the app, and observe the connectivity write.
func TestAppRoutingEndToEnd(t *testing.T) {
	t.Parallel()

	uri := newNATSTestServer(t)
	ds := new(storemocks.DataStore)
	ds.On("GetTenant", mock.Anything, appTenant).
		Return(&model.Tenant{TenantID: appTenant}, nil)
	ds.On("GetDevice", mock.Anything, appTenant, appDevice).
		Return(&model.Device{ID: appDevice, TenantID: appTenant}, nil)
	ds.On("GetConnectivityRecord", mock.Anything, appTenant, appDevice).
		Return(nil, nil)

	upserted := make(chan *model.ConnectivityRecord, 1)
	ds.On("UpsertConnectivityRecord", mock.Anything, appTenant,
		mock.AnythingOfType("*model.ConnectivityRecord")).
		Run(func(args mock.Arguments) {
			select {
			case upserted <- args.Get(2).(*model.ConnectivityRecord):
			default:
			}
		}).
		Return(nil)

	pool := newTestPool(t, uri)
	app := New(ds, pool, newTestProvisioner(), nil, Config{})
	defer app.Shutdown()

	subID, err := app.StartTenantRouting(context.Background(), appTenant)
	require.NoError(t, err)
	require.NotEmpty(t, subID)

	ok := app.Publish(context.Background(), appTenant, appDevice,
		model.MessageTypeHeartbeat,
		map[string]interface{}{"connection_type": "wifi"}, false)
	require.True(t, ok)

	select {
	case record := <-upserted:
		assert.True(t, record.IsOnline)
		assert.Equal(t, "wifi", record.ConnectionType)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for connectivity upsert")
	}

	app.StopTenantRouting(subID)
	assert.Zero(t, app.GetStats().ActiveSubscriptions)
}

func TestAppWatch(t *testing.T) {
	t.Parallel()

	uri := newNATSTestServer(t)
	ds := new(storemocks.DataStore)
	pool := newTestPool(t, uri)
	app := New(ds, pool, newTestProvisioner(), nil, Config{})
	defer app.Shutdown()

	envelopes, cancel, err := app.Watch(context.Background(), appTenant)
	require.NoError(t, err)
	defer cancel()

	ok := app.Publish(context.Background(), appTenant, appDevice,
		model.MessageTypeMonitoring,
		map[string]interface{}{"cpu": 0.17}, false)
	require.True(t, ok)

	select {
	case envelope := <-envelopes:
		assert.Equal(t, appTenant, envelope.TenantID)
		assert.Equal(t, model.MessageTypeMonitoring, envelope.MessageType)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for watched envelope")
	}
}

// The watch cancel func must tolerate concurrent and repeated calls;
// the envelope channel closes exactly once.
func TestAppWatchCancelIdempotent(t *testing.T) {
	t.Parallel()

	uri := newNATSTestServer(t)
	ds := new(storemocks.DataStore)
	pool := newTestPool(t, uri)
	app := New(ds, pool, newTestProvisioner(), nil, Config{})
	defer app.Shutdown()

	envelopes, cancel, err := app.Watch(context.Background(), appTenant)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cancel()
		}()
	}
	wg.Wait()
	cancel()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, open := <-envelopes:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("timeout waiting for watch channel to close")
		}
	}
}
