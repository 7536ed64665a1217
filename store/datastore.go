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

package store

import (
	"context"
	"errors"

	"github.com/openrmm/devicebus/model"
)

// DataStore interface for DataStore services
//
//nolint:lll - skip line length check for interface declaration.
//go:generate ../utils/mockgen.sh
type DataStore interface {
	Ping(ctx context.Context) error
	ProvisionTenant(ctx context.Context, tenant *model.Tenant) error
	GetTenant(ctx context.Context, tenantID string) (*model.Tenant, error)
	ListTenants(ctx context.Context) ([]model.Tenant, error)
	ProvisionDevice(ctx context.Context, tenantID, deviceID string) error
	DeleteDevice(ctx context.Context, tenantID, deviceID string) error
	GetDevice(ctx context.Context, tenantID, deviceID string) (*model.Device, error)
	GetConnectivityRecord(ctx context.Context, tenantID, deviceID string) (*model.ConnectivityRecord, error)
	UpsertConnectivityRecord(ctx context.Context, tenantID string, record *model.ConnectivityRecord) error
	UpsertCredentials(ctx context.Context, creds *model.TenantCredentials) error
	Close() error
}

// Lookup errors returned by DataStore implementations
var (
	ErrTenantNotFound = errors.New("store: tenant not found")
	ErrDeviceNotFound = errors.New("store: device not found")
)
