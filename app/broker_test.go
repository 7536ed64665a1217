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
	"net/url"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/mock"

	nats "github.com/openrmm/devicebus/client/nats"
	"github.com/openrmm/devicebus/creds"
	storemocks "github.com/openrmm/devicebus/store/mocks"
)

var natsPort int32 = 42269

// newNATSTestServer starts an embedded NATS server with JetStream
// enabled and returns its URI.
func newNATSTestServer(t *testing.T) (URI string) {
	port := atomic.AddInt32(&natsPort, 1)
	dir, err := os.MkdirTemp("", "devicebus-app-js")
	if err != nil {
		panic(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	opts := &server.Options{
		Port:      int(port),
		JetStream: true,
		StoreDir:  dir,
	}
	srv, err := server.NewServer(opts)
	if err != nil {
		panic(err)
	}
	go srv.Start()
	t.Cleanup(srv.Shutdown)

	// Spinlock until go routine is listening
	for i := 0; srv.Addr() == nil && i < 1000; i++ {
		time.Sleep(10 * time.Millisecond)
	}
	if srv.Addr() == nil {
		panic("failed to setup NATS test server")
	}
	uri, err := url.Parse("nats://" + srv.Addr().String())
	if err != nil {
		panic(err)
	}

	return uri.String()
}

// newTestPool returns a pool against the test broker. The broker runs
// without authentication so the dialer ignores the minted credentials.
func newTestPool(t *testing.T, uri string) *nats.Pool {
	return nats.NewPool(uri,
		newTestProvisioner(),
		nats.PoolConfig{},
		func(url, _, _ string) (nats.Client, error) {
			return nats.NewClient(url)
		},
	)
}

func newTestProvisioner() *creds.Provisioner {
	ds := new(storemocks.DataStore)
	ds.On("UpsertCredentials", mock.Anything,
		mock.AnythingOfType("*model.TenantCredentials")).
		Return(nil)
	return creds.NewProvisioner(ds)
}
