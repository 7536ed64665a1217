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

package subject

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Subject grammar:
//
//	tenant.<tenant_uuid>.device.<device_uuid>.<message_type>
//
// Both id segments must be valid UUIDs; the message type segment is
// sanitized so the subject always has exactly five dot-separated
// segments for simple message types.
const (
	prefixTenant = "tenant"
	prefixDevice = "device"

	numSegments = 5
)

// Codec errors
var (
	ErrInvalidIdentifier = errors.New("subject: invalid identifier")
	ErrMalformedSubject  = errors.New("subject: malformed subject")
)

// ValidTenantID reports whether s is a syntactically valid tenant id.
func ValidTenantID(s string) bool {
	return validUUID(s)
}

// ValidDeviceID reports whether s is a syntactically valid device id.
func ValidDeviceID(s string) bool {
	return validUUID(s)
}

func validUUID(s string) bool {
	if len(s) != 36 {
		// uuid.Parse accepts urn: and braced forms; the bus
		// grammar only admits the canonical representation.
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// SanitizeType normalizes a message type for embedding in a subject:
// lower-cased, whitespace and dots replaced with underscores.
func SanitizeType(messageType string) string {
	t := strings.ToLower(strings.TrimSpace(messageType))
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '.':
			return '_'
		}
		return r
	}, t)
}

// Build constructs the subject for a single device and message type.
func Build(tenantID, deviceID, messageType string) (string, error) {
	if !ValidTenantID(tenantID) {
		return "", errors.Wrapf(ErrInvalidIdentifier,
			"tenant id %q", tenantID)
	}
	if !ValidDeviceID(deviceID) {
		return "", errors.Wrapf(ErrInvalidIdentifier,
			"device id %q", deviceID)
	}
	return strings.Join([]string{
		prefixTenant, tenantID,
		prefixDevice, deviceID,
		SanitizeType(messageType),
	}, "."), nil
}

// Parsed holds the identity embedded in a subject.
type Parsed struct {
	TenantID    string
	DeviceID    string
	MessageType string
}

// Parse decodes a device subject. Message types containing dots span
// the trailing segments.
func Parse(subj string) (Parsed, error) {
	segments := strings.Split(subj, ".")
	if len(segments) < numSegments {
		return Parsed{}, errors.Wrapf(ErrMalformedSubject,
			"%q: expected at least %d segments", subj, numSegments)
	}
	if segments[0] != prefixTenant || segments[2] != prefixDevice {
		return Parsed{}, errors.Wrapf(ErrMalformedSubject,
			"%q: bad segment structure", subj)
	}
	return Parsed{
		TenantID:    segments[1],
		DeviceID:    segments[3],
		MessageType: strings.Join(segments[4:], "."),
	}, nil
}

// TenantWildcard returns the subject matching all of a tenant's traffic.
func TenantWildcard(tenantID string) (string, error) {
	if !ValidTenantID(tenantID) {
		return "", errors.Wrapf(ErrInvalidIdentifier,
			"tenant id %q", tenantID)
	}
	return prefixTenant + "." + tenantID + ".>", nil
}

// DeviceWildcard returns the subject matching all message types
// published by a tenant's devices.
func DeviceWildcard(tenantID string) (string, error) {
	if !ValidTenantID(tenantID) {
		return "", errors.Wrapf(ErrInvalidIdentifier,
			"tenant id %q", tenantID)
	}
	return strings.Join([]string{
		prefixTenant, tenantID, prefixDevice, ">",
	}, "."), nil
}

// TypeWildcard returns the subject matching one message type across all
// of a tenant's devices.
func TypeWildcard(tenantID, messageType string) (string, error) {
	if !ValidTenantID(tenantID) {
		return "", errors.Wrapf(ErrInvalidIdentifier,
			"tenant id %q", tenantID)
	}
	return strings.Join([]string{
		prefixTenant, tenantID,
		prefixDevice, "*",
		SanitizeType(messageType),
	}, "."), nil
}
