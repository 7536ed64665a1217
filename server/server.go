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

package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sys/unix"

	"github.com/mendersoftware/go-lib-micro/config"
	"github.com/mendersoftware/go-lib-micro/log"

	api "github.com/openrmm/devicebus/api/http"
	"github.com/openrmm/devicebus/app"
	nats "github.com/openrmm/devicebus/client/nats"
	dconfig "github.com/openrmm/devicebus/config"
	"github.com/openrmm/devicebus/creds"
	"github.com/openrmm/devicebus/store"
)

// InitAndRun initializes the server and runs it
func InitAndRun(conf config.Reader, dataStore store.DataStore) error {
	ctx := context.Background()

	log.Setup(conf.GetBool(dconfig.SettingDebugLog))
	l := log.FromContext(ctx)

	provisioner := creds.NewProvisioner(dataStore)
	pool := nats.NewPool(
		conf.GetString(dconfig.SettingNatsURI),
		provisioner,
		nats.PoolConfig{
			StreamMaxAge: time.Duration(
				conf.GetInt(dconfig.SettingStreamMaxAgeHours)) * time.Hour,
			StreamMaxMsgs: int64(conf.GetInt(dconfig.SettingStreamMaxMsgs)),
		},
		nil,
	)

	deviceBusApp := app.New(dataStore, pool, provisioner, nil, app.Config{
		OnlineThreshold: time.Duration(
			conf.GetInt(dconfig.SettingOnlineThresholdSec)) * time.Second,
		StaleThreshold: time.Duration(
			conf.GetInt(dconfig.SettingStaleThresholdSec)) * time.Second,
		CommandTimeout: time.Duration(
			conf.GetInt(dconfig.SettingCommandTimeoutSec)) * time.Second,
	})
	defer deviceBusApp.Shutdown()

	// Restore routing for every known tenant. Tenants provisioned
	// while the server runs get their subscription from the
	// provisioning end-point itself.
	tenants, err := dataStore.ListTenants(ctx)
	if err != nil {
		l.Fatalf("failed to list tenants: %v", err)
	}
	for _, tenant := range tenants {
		if _, err := deviceBusApp.StartTenantRouting(
			ctx, tenant.TenantID); err != nil {
			l.Errorf("failed to start routing for tenant %s: %v",
				tenant.TenantID, err)
		}
	}

	var listen = conf.GetString(dconfig.SettingListen)
	router, err := api.NewRouter(deviceBusApp)
	if err != nil {
		l.Fatal(err)
	}
	srv := &http.Server{
		Addr:    listen,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, unix.SIGINT, unix.SIGTERM)
	<-quit

	l.Info("Shutdown Server ...")

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxWithTimeout); err != nil {
		l.Fatal("Server Shutdown: ", err)
	}

	return nil
}
