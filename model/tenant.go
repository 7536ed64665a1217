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

package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Tenant represents a customer organization boundary
type Tenant struct {
	TenantID string `json:"tenant_id" bson:"_id"`
	Name     string `json:"name,omitempty" bson:"name,omitempty"`
}

// Validate validates the tenant
func (t Tenant) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.TenantID, validation.Required, is.UUID),
	)
}

// TenantCredentials are the bus credentials issued to one tenant. The
// permission patterns confine the tenant to its own subject space.
type TenantCredentials struct {
	TenantID          string   `json:"tenant_id" bson:"_id"`
	Username          string   `json:"username" bson:"username"`
	Password          string   `json:"-" bson:"password"`
	PublishPatterns   []string `json:"publish_patterns" bson:"publish_patterns"`
	SubscribePatterns []string `json:"subscribe_patterns" bson:"subscribe_patterns"`
}
