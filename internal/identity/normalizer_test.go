/*
 * Copyright (c) 2026, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package identity

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/patient-data-service/internal/system/errors"
)

func TestNormalize_PhoneVariants(t *testing.T) {
	tests := []struct {
		name      string
		phone     string
		masterKey string
		display   string
	}{
		{"formatted with country code", "+1 (555) 123-4567", "5551234567", "(555) 123-4567"},
		{"bare digits", "5551234567", "5551234567", "(555) 123-4567"},
		{"dots and dashes", "555.123.4567", "5551234567", "(555) 123-4567"},
		{"eleven digits without prefix", "25551234567", "25551234567", "+25551234567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys, err := Normalize(RawAttributes{Phone: tt.phone})
			require.NoError(t, err)
			assert.Equal(t, tt.masterKey, keys.MasterKey)
			assert.Equal(t, tt.display, keys.Display)
		})
	}
}

func TestNormalize_TooFewDigits_Rejected(t *testing.T) {
	_, err := Normalize(RawAttributes{Phone: "555-1234"})
	require.Error(t, err)

	clientErr, ok := err.(*errors.ClientError)
	require.True(t, ok, "expected a ClientError")
	assert.Equal(t, http.StatusBadRequest, clientErr.StatusCode)
	assert.Equal(t, errors.INVALID_FORMAT.Code, clientErr.Code)
}

func TestNormalize_EmptyPhone_NoMasterKey(t *testing.T) {
	keys, err := Normalize(RawAttributes{ExternalRef: " mrn-00042 "})
	require.NoError(t, err)
	assert.Empty(t, keys.MasterKey)
	assert.Equal(t, "MRN-00042", keys.ExternalRef)
}

// The display form must round-trip: normalizing what we render yields the
// same master key.
func TestNormalize_DisplayIsIdempotent(t *testing.T) {
	inputs := []string{"+1 (555) 123-4567", "5551234567", "1-555-123-4567", "25551234567"}
	for _, input := range inputs {
		first, err := Normalize(RawAttributes{Phone: input})
		require.NoError(t, err)

		second, err := Normalize(RawAttributes{Phone: first.Display})
		require.NoError(t, err)
		assert.Equal(t, first.MasterKey, second.MasterKey)
		assert.Equal(t, first.Display, second.Display)
	}
}
