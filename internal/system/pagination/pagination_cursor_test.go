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

package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryCursor_RoundTrip(t *testing.T) {
	original := HistoryCursor{
		CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC),
		Sequence:  42,
	}

	decoded, err := DecodeHistoryCursor(EncodeHistoryCursor(original))
	require.NoError(t, err)
	require.NotNil(t, decoded)
	assert.True(t, original.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, original.Sequence, decoded.Sequence)
}

func TestHistoryCursor_EmptyStringIsNil(t *testing.T) {
	decoded, err := DecodeHistoryCursor("")
	require.NoError(t, err)
	assert.Nil(t, decoded)
}

func TestHistoryCursor_TamperedInputs(t *testing.T) {
	inputs := []string{
		"!!!not-base64!!!",
		"aGVsbG8",      // valid base64, no separator
		"MjAyNnwtNQ",   // "2026|-5": bad timestamp
	}
	for _, input := range inputs {
		_, err := DecodeHistoryCursor(input)
		assert.Error(t, err, "input %q should be rejected", input)
	}

	negative := EncodeHistoryCursor(HistoryCursor{CreatedAt: time.Now(), Sequence: 1})
	decoded, err := DecodeHistoryCursor(negative)
	require.NoError(t, err)
	assert.Equal(t, int64(1), decoded.Sequence)
}
