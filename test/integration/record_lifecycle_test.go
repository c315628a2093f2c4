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

package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/patient-data-service/internal/idgen"
	mergemodel "github.com/wso2/patient-data-service/internal/merge/model"
	mergeservice "github.com/wso2/patient-data-service/internal/merge/service"
	recordservice "github.com/wso2/patient-data-service/internal/record/service"
	"github.com/wso2/patient-data-service/internal/system/errors"
)

func TestRecord_NotFound(t *testing.T) {
	_, err := recordservice.GetRecordService().GetRecord("PR-2026-999999")
	require.Error(t, err)
	clientErr, ok := err.(*errors.ClientError)
	require.True(t, ok)
	assert.Equal(t, errors.RECORD_NOT_FOUND.Code, clientErr.Code)
	assert.Equal(t, 404, clientErr.StatusCode)
}

func TestRecord_AccessCodeReset(t *testing.T) {
	engine := mergeservice.GetMergeService()
	records := recordservice.GetRecordService()

	created, err := engine.Apply(&mergemodel.IdentityFragment{
		SourceTag: "portal",
		Phone:     freshPhone(),
	})
	require.NoError(t, err)

	before, err := records.GetRecord(created.RecordId)
	require.NoError(t, err)

	code, err := records.ResetAccessCode(created.RecordId)
	require.NoError(t, err)
	assert.True(t, idgen.ValidAccessCode(code))
	assert.NotEqual(t, before.AccessCode, code)

	after, err := records.GetRecord(created.RecordId)
	require.NoError(t, err)
	assert.Equal(t, code, after.AccessCode)
	assert.Greater(t, after.Version, before.Version, "a reset is a guarded write like any other")
}

func TestRecord_DeactivateReservesMasterKey(t *testing.T) {
	engine := mergeservice.GetMergeService()
	records := recordservice.GetRecordService()
	phone := freshPhone()

	created, err := engine.Apply(&mergemodel.IdentityFragment{
		SourceTag: "portal",
		Phone:     phone,
	})
	require.NoError(t, err)

	require.NoError(t, records.DeactivateRecord(created.RecordId))

	_, err = records.GetRecord(created.RecordId)
	require.Error(t, err, "inactive records read as not found")

	// The phone number stays reserved; a new fragment cannot spawn a
	// fresh record under the same identity.
	_, err = engine.Apply(&mergemodel.IdentityFragment{
		SourceTag: "lab-system",
		Phone:     phone,
	})
	require.Error(t, err)
	clientErr, ok := err.(*errors.ClientError)
	require.True(t, ok)
	assert.Equal(t, 409, clientErr.StatusCode)
}

func TestRecord_DeactivateTwice_NotFound(t *testing.T) {
	engine := mergeservice.GetMergeService()
	records := recordservice.GetRecordService()

	created, err := engine.Apply(&mergemodel.IdentityFragment{
		SourceTag: "portal",
		Phone:     freshPhone(),
	})
	require.NoError(t, err)

	require.NoError(t, records.DeactivateRecord(created.RecordId))

	err = records.DeactivateRecord(created.RecordId)
	require.Error(t, err)
	clientErr, ok := err.(*errors.ClientError)
	require.True(t, ok)
	assert.Equal(t, errors.RECORD_NOT_FOUND.Code, clientErr.Code)
}
