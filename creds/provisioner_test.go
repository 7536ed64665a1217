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

package creds

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/openrmm/devicebus/model"
	"github.com/openrmm/devicebus/subject"
)

const testTenantID = "11111111-1111-1111-1111-111111111111"

func TestGetOrCreate(t *testing.T) {
	t.Parallel()
	p := NewProvisioner(nil)

	ctx := context.Background()
	creds, err := p.GetOrCreate(ctx, testTenantID)
	assert.NoError(t, err)
	assert.Equal(t, testTenantID, creds.TenantID)
	assert.Equal(t, "tenant-"+testTenantID, creds.Username)
	assert.GreaterOrEqual(t, len(creds.Password), 32)
	assert.Equal(t,
		[]string{"tenant." + testTenantID + ".>"},
		creds.PublishPatterns,
	)
	assert.Equal(t, creds.PublishPatterns, creds.SubscribePatterns)

	again, err := p.GetOrCreate(ctx, testTenantID)
	assert.NoError(t, err)
	assert.Same(t, creds, again)
	assert.Equal(t, int64(1), p.Generations())
}

func TestGetOrCreateInvalidTenantID(t *testing.T) {
	t.Parallel()
	p := NewProvisioner(nil)
	_, err := p.GetOrCreate(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, subject.ErrInvalidIdentifier)
}

func TestGetOrCreateConcurrent(t *testing.T) {
	t.Parallel()
	p := NewProvisioner(nil)

	const callers = 32
	results := make([]*model.TenantCredentials, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			creds, err := p.GetOrCreate(context.Background(), testTenantID)
			assert.NoError(t, err)
			results[i] = creds
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		assert.Same(t, results[0], results[i])
	}
	assert.Equal(t, int64(1), p.Generations())
}

type failingCredsStore struct{}

func (failingCredsStore) UpsertCredentials(
	ctx context.Context, creds *model.TenantCredentials,
) error {
	return errors.New("store unavailable")
}

func TestGetOrCreatePersistenceFailureIsNotFatal(t *testing.T) {
	t.Parallel()
	p := NewProvisioner(failingCredsStore{})

	creds, err := p.GetOrCreate(context.Background(), testTenantID)
	assert.NoError(t, err)
	assert.NotNil(t, creds)
}

func TestRotate(t *testing.T) {
	t.Parallel()
	p := NewProvisioner(nil)

	ctx := context.Background()
	creds, err := p.GetOrCreate(ctx, testTenantID)
	assert.NoError(t, err)

	p.Rotate(testTenantID)

	rotated, err := p.GetOrCreate(ctx, testTenantID)
	assert.NoError(t, err)
	assert.NotSame(t, creds, rotated)
	assert.NotEqual(t, creds.Password, rotated.Password)
	assert.Equal(t, int64(2), p.Generations())
}
