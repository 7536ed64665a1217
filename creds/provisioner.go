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

// Package creds issues per-tenant bus credentials with tenant-scoped
// permission patterns. Credentials live for the process lifetime;
// rotation is an explicit administrative action.
package creds

import (
	"context"
	"crypto/rand"
	"math/big"
	"sync"

	"github.com/mendersoftware/go-lib-micro/log"
	"github.com/pkg/errors"

	"github.com/openrmm/devicebus/model"
	"github.com/openrmm/devicebus/subject"
)

const (
	secretAlphabet = "abcdefghijklmnopqrstuvwxyz" +
		"ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	secretLength = 48

	usernamePrefix = "tenant-"
)

// CredentialsStore persists issued credentials. Persistence is
// best-effort: a write failure is logged and the in-memory credentials
// are still returned.
type CredentialsStore interface {
	UpsertCredentials(ctx context.Context, creds *model.TenantCredentials) error
}

// Provisioner issues and caches tenant bus credentials. Safe for
// concurrent use; at most one credential set is ever generated per
// tenant regardless of how many callers race on first access.
type Provisioner struct {
	store CredentialsStore

	mutex sync.Mutex
	cache map[string]*model.TenantCredentials

	// generations counts credential-generation events, for tests
	// and diagnostics.
	generations int64
}

// NewProvisioner returns a Provisioner. The store may be nil, in which
// case credentials are held in memory only.
func NewProvisioner(store CredentialsStore) *Provisioner {
	return &Provisioner{
		store: store,
		cache: make(map[string]*model.TenantCredentials),
	}
}

// GetOrCreate returns the tenant's credentials, generating them on
// first access. Losers of a concurrent first-access race receive the
// winner's credentials.
func (p *Provisioner) GetOrCreate(
	ctx context.Context,
	tenantID string,
) (*model.TenantCredentials, error) {
	if !subject.ValidTenantID(tenantID) {
		return nil, errors.Wrapf(subject.ErrInvalidIdentifier,
			"tenant id %q", tenantID)
	}

	p.mutex.Lock()
	if creds, ok := p.cache[tenantID]; ok {
		p.mutex.Unlock()
		return creds, nil
	}
	creds, err := p.generate(tenantID)
	if err != nil {
		p.mutex.Unlock()
		return nil, err
	}
	p.cache[tenantID] = creds
	p.generations++
	p.mutex.Unlock()

	if p.store != nil {
		if err := p.store.UpsertCredentials(ctx, creds); err != nil {
			// Availability over durability: the tenant can
			// still connect with the in-memory credentials.
			log.FromContext(ctx).Warnf(
				"failed to persist credentials for tenant %s: %v",
				tenantID, err,
			)
		}
	}
	return creds, nil
}

// Rotate discards the cached credentials so the next GetOrCreate mints
// a fresh set. Connections opened with the old credentials keep
// working until they are closed.
func (p *Provisioner) Rotate(tenantID string) {
	p.mutex.Lock()
	delete(p.cache, tenantID)
	p.mutex.Unlock()
}

// Generations returns the number of credential-generation events.
func (p *Provisioner) Generations() int64 {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.generations
}

func (p *Provisioner) generate(tenantID string) (*model.TenantCredentials, error) {
	wildcard, err := subject.TenantWildcard(tenantID)
	if err != nil {
		return nil, err
	}
	password, err := randomSecret(secretLength)
	if err != nil {
		return nil, errors.Wrap(err, "creds: failed to generate secret")
	}
	return &model.TenantCredentials{
		TenantID:          tenantID,
		Username:          usernamePrefix + tenantID,
		Password:          password,
		PublishPatterns:   []string{wildcard},
		SubscribePatterns: []string{wildcard},
	}, nil
}

func randomSecret(length int) (string, error) {
	max := big.NewInt(int64(len(secretAlphabet)))
	secret := make([]byte, length)
	for i := range secret {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		secret[i] = secretAlphabet[n.Int64()]
	}
	return string(secret), nil
}
