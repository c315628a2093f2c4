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

package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/patient-data-service/internal/identity"
	"github.com/wso2/patient-data-service/internal/record/model"
	"github.com/wso2/patient-data-service/internal/system/errors"
	"github.com/wso2/patient-data-service/internal/system/log"
)

func TestMain(m *testing.M) {
	log.Init("debug")
	m.Run()
}

type fakeFinder struct {
	byMasterKey   map[string]*model.CanonicalRecord
	byExternalRef map[string][]model.CanonicalRecord
}

func (f *fakeFinder) GetRecordByMasterKey(masterKey string) (*model.CanonicalRecord, error) {
	return f.byMasterKey[masterKey], nil
}

func (f *fakeFinder) GetRecordsByExternalRef(externalRef string) ([]model.CanonicalRecord, error) {
	return f.byExternalRef[externalRef], nil
}

func TestResolve_MasterKeyWinsOverExternalRef(t *testing.T) {
	phoneOwner := &model.CanonicalRecord{RecordId: "PR-2026-000001", MasterKey: "5551234567"}
	refOwner := model.CanonicalRecord{RecordId: "PR-2026-000002", ExternalRef: "MRN-9"}

	resolver := NewResolverWithFinder(&fakeFinder{
		byMasterKey:   map[string]*model.CanonicalRecord{"5551234567": phoneOwner},
		byExternalRef: map[string][]model.CanonicalRecord{"MRN-9": {refOwner}},
	})

	record, err := resolver.Resolve(identity.NormalizedKeys{MasterKey: "5551234567", ExternalRef: "MRN-9"})
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "PR-2026-000001", record.RecordId)
}

func TestResolve_FallsBackToExternalRef(t *testing.T) {
	refOwner := model.CanonicalRecord{RecordId: "PR-2026-000002", ExternalRef: "MRN-9"}

	resolver := NewResolverWithFinder(&fakeFinder{
		byExternalRef: map[string][]model.CanonicalRecord{"MRN-9": {refOwner}},
	})

	record, err := resolver.Resolve(identity.NormalizedKeys{MasterKey: "5550000000", ExternalRef: "MRN-9"})
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "PR-2026-000002", record.RecordId)
}

func TestResolve_NoMatchReturnsNil(t *testing.T) {
	resolver := NewResolverWithFinder(&fakeFinder{})

	record, err := resolver.Resolve(identity.NormalizedKeys{MasterKey: "5551234567", ExternalRef: "MRN-9"})
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestResolve_MultipleExternalRefHits_Ambiguous(t *testing.T) {
	resolver := NewResolverWithFinder(&fakeFinder{
		byExternalRef: map[string][]model.CanonicalRecord{"MRN-9": {
			{RecordId: "PR-2026-000002"},
			{RecordId: "PR-2026-000003"},
		}},
	})

	_, err := resolver.Resolve(identity.NormalizedKeys{ExternalRef: "MRN-9"})
	require.Error(t, err)

	clientErr, ok := err.(*errors.ClientError)
	require.True(t, ok, "expected a ClientError")
	assert.Equal(t, 409, clientErr.StatusCode)
	assert.Equal(t, errors.AMBIGUOUS_MATCH.Code, clientErr.Code)
}

func TestResolve_EmptyKeys_NoLookup(t *testing.T) {
	resolver := NewResolverWithFinder(&fakeFinder{})

	record, err := resolver.Resolve(identity.NormalizedKeys{})
	require.NoError(t, err)
	assert.Nil(t, record)
}
