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
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	testTenantID = "11111111-1111-1111-1111-111111111111"
	testDeviceID = "22222222-2222-2222-2222-222222222222"
)

func TestBuildParseRoundTrip(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		Name string

		MessageType string
		Sanitized   string
	}{{
		Name:        "heartbeat",
		MessageType: "heartbeat",
		Sanitized:   "heartbeat",
	}, {
		Name:        "upper case",
		MessageType: "Status",
		Sanitized:   "status",
	}, {
		Name:        "whitespace and dots",
		MessageType: "remote query.v2",
		Sanitized:   "remote_query_v2",
	}}
	for i := range testCases {
		tc := testCases[i]
		t.Run(tc.Name, func(t *testing.T) {
			t.Parallel()
			subj, err := Build(testTenantID, testDeviceID, tc.MessageType)
			assert.NoError(t, err)

			parsed, err := Parse(subj)
			assert.NoError(t, err)
			assert.Equal(t, testTenantID, parsed.TenantID)
			assert.Equal(t, testDeviceID, parsed.DeviceID)
			assert.Equal(t, tc.Sanitized, parsed.MessageType)
		})
	}
}

func TestBuildRejectsBadIdentifiers(t *testing.T) {
	t.Parallel()
	badIDs := []string{
		"",
		"not-a-uuid",
		testTenantID[:35],
		testTenantID + "0",
		"urn:uuid:" + testTenantID,
		"{" + testTenantID + "}",
	}
	for _, id := range badIDs {
		_, err := Build(id, testDeviceID, "heartbeat")
		assert.ErrorIs(t, err, ErrInvalidIdentifier, "tenant id %q", id)

		_, err = Build(testTenantID, id, "heartbeat")
		assert.ErrorIs(t, err, ErrInvalidIdentifier, "device id %q", id)

		_, err = TenantWildcard(id)
		assert.ErrorIs(t, err, ErrInvalidIdentifier, "wildcard %q", id)
	}
}

func TestParseRejectsMalformedSubjects(t *testing.T) {
	t.Parallel()
	badSubjects := []string{
		"",
		"tenant." + testTenantID,
		"tenant." + testTenantID + ".device." + testDeviceID,
		"session." + testTenantID + ".device." + testDeviceID + ".heartbeat",
		"tenant." + testTenantID + ".session." + testDeviceID + ".heartbeat",
	}
	for _, subj := range badSubjects {
		_, err := Parse(subj)
		assert.ErrorIs(t, err, ErrMalformedSubject, "subject %q", subj)
	}
}

func TestWildcards(t *testing.T) {
	t.Parallel()
	wildcard, err := TenantWildcard(testTenantID)
	assert.NoError(t, err)
	assert.Equal(t, "tenant."+testTenantID+".>", wildcard)

	wildcard, err = DeviceWildcard(testTenantID)
	assert.NoError(t, err)
	assert.Equal(t, "tenant."+testTenantID+".device.>", wildcard)

	wildcard, err = TypeWildcard(testTenantID, "Heartbeat")
	assert.NoError(t, err)
	assert.Equal(t, "tenant."+testTenantID+".device.*.heartbeat", wildcard)
}
