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
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/patient-data-service/internal/idgen"
	mergemodel "github.com/wso2/patient-data-service/internal/merge/model"
	mergeservice "github.com/wso2/patient-data-service/internal/merge/service"
	recordservice "github.com/wso2/patient-data-service/internal/record/service"
	recordstore "github.com/wso2/patient-data-service/internal/record/store"
	"github.com/wso2/patient-data-service/internal/system/constants"
	"github.com/wso2/patient-data-service/internal/system/errors"
)

var phoneCounter = 5550000000

var phoneMu sync.Mutex

// freshPhone hands out phone numbers no other test has used, so tests
// never collide on the master key unique constraint.
func freshPhone() string {
	phoneMu.Lock()
	defer phoneMu.Unlock()
	phoneCounter++
	return fmt.Sprintf("%d", phoneCounter)
}

func TestMerge_CreateThenMergeSamePhone(t *testing.T) {
	phone := freshPhone()
	engine := mergeservice.GetMergeService()

	created, err := engine.Apply(&mergemodel.IdentityFragment{
		SourceTag: "registration-desk",
		Phone:     phone,
		Fields: map[string]interface{}{
			"first_name": "Jane",
			"last_name":  "Doe",
		},
	})
	require.NoError(t, err)
	assert.True(t, created.Created)
	assert.Regexp(t, regexp.MustCompile(`^PR-\d{4}-\d{6}$`), created.RecordId)
	assert.Equal(t, 2, created.FieldsMerged)

	// Same number in a different format must land on the same record.
	merged, err := engine.Apply(&mergemodel.IdentityFragment{
		SourceTag: "lab-system",
		Phone:     "+1 (" + phone[:3] + ") " + phone[3:6] + "-" + phone[6:],
		Fields: map[string]interface{}{
			"first_name": "Janet",
			"last_name":  "Smith",
			"email":      "jane@example.com",
		},
		Strategies: map[string]string{"first_name": constants.StrategyKeepExisting},
	})
	require.NoError(t, err)
	assert.False(t, merged.Created)
	assert.Equal(t, created.RecordId, merged.RecordId)
	assert.Equal(t, 1, merged.ConflictsRecorded, "Doe -> Smith overwrite is a conflict")

	record, err := recordservice.GetRecordService().GetRecord(created.RecordId)
	require.NoError(t, err)
	assert.Equal(t, "Jane", record.FirstName, "keepExisting preserved the first writer")
	assert.Equal(t, "Smith", record.LastName)
	assert.Equal(t, "jane@example.com", record.Email)
	assert.Equal(t, "registration-desk", record.FieldProvenance["first_name"])
	assert.Equal(t, "lab-system", record.FieldProvenance["last_name"])
	assert.ElementsMatch(t, []string{"registration-desk", "lab-system"}, record.DataSources)
	assert.True(t, idgen.ValidAccessCode(record.AccessCode))
	assert.Greater(t, record.CompletenessScore, 0)
	assert.GreaterOrEqual(t, record.FactVersions[constants.CategoryDemographics], int64(2))
}

func TestMerge_FragmentIdDeduplicates(t *testing.T) {
	engine := mergeservice.GetMergeService()
	fragmentId := uuid.New().String()

	fragment := &mergemodel.IdentityFragment{
		FragmentId: fragmentId,
		SourceTag:  "pharmacy",
		Phone:      freshPhone(),
		Fields:     map[string]interface{}{"medications": []interface{}{"Metformin"}},
	}

	first, err := engine.Apply(fragment)
	require.NoError(t, err)
	assert.False(t, first.Deduplicated)

	second, err := engine.Apply(fragment)
	require.NoError(t, err)
	assert.True(t, second.Deduplicated)
	assert.Equal(t, first.RecordId, second.RecordId)
	assert.Equal(t, first.FieldsMerged, second.FieldsMerged)

	// The retry must not have produced a second history entry.
	page, err := recordservice.GetRecordService().GetHistory(first.RecordId, "", 10)
	require.NoError(t, err)
	assert.Len(t, page.Entries, 1)
}

func TestMerge_ExternalRefAmbiguity(t *testing.T) {
	engine := mergeservice.GetMergeService()
	ref := "MRN-" + uuid.New().String()[:8]

	first, err := engine.Apply(&mergemodel.IdentityFragment{
		SourceTag:   "ehr",
		Phone:       freshPhone(),
		ExternalRef: ref,
	})
	require.NoError(t, err)

	second, err := engine.Apply(&mergemodel.IdentityFragment{
		SourceTag: "ehr",
		Phone:     freshPhone(),
	})
	require.NoError(t, err)
	require.NotEqual(t, first.RecordId, second.RecordId)

	// Staff mistakenly writes the same reference number onto the
	// second record.
	_, err = engine.Apply(&mergemodel.IdentityFragment{
		SourceTag: "registration-desk",
		RecordRef: second.RecordId,
		Fields:    map[string]interface{}{"external_ref": ref},
	})
	require.NoError(t, err)

	// A fragment carrying only that reference now matches two records.
	_, err = engine.Apply(&mergemodel.IdentityFragment{
		SourceTag:   "lab-system",
		ExternalRef: ref,
	})
	require.Error(t, err)
	clientErr, ok := err.(*errors.ClientError)
	require.True(t, ok, "expected a ClientError, got %v", err)
	assert.Equal(t, errors.AMBIGUOUS_MATCH.Code, clientErr.Code)
	assert.Equal(t, 409, clientErr.StatusCode)
}

func TestMerge_ConcurrentFragmentsSamePhone_OneRecord(t *testing.T) {
	engine := mergeservice.GetMergeService()
	phone := freshPhone()

	const writers = 4
	results := make([]*mergemodel.MergeSummary, writers)
	errs := make([]error, writers)

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = engine.Apply(&mergemodel.IdentityFragment{
				SourceTag: fmt.Sprintf("source-%d", i),
				Phone:     phone,
				Fields:    map[string]interface{}{"conditions": []interface{}{fmt.Sprintf("C%d", i)}},
				Strategies: map[string]string{
					"conditions": constants.StrategyAppend,
				},
			})
		}(i)
	}
	wg.Wait()

	recordId := ""
	for i := 0; i < writers; i++ {
		require.NoError(t, errs[i], "writer %d failed", i)
		if recordId == "" {
			recordId = results[i].RecordId
		}
		assert.Equal(t, recordId, results[i].RecordId, "all writers must land on one record")
	}

	record, err := recordstore.GetRecordByMasterKey(phone)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, recordId, record.RecordId)
	assert.Len(t, record.Conditions, writers, "every writer's append survived")
}

func TestMerge_InvalidPhoneRejected(t *testing.T) {
	_, err := mergeservice.GetMergeService().Apply(&mergemodel.IdentityFragment{
		SourceTag: "portal",
		Phone:     "12345",
	})
	require.Error(t, err)
	clientErr, ok := err.(*errors.ClientError)
	require.True(t, ok)
	assert.Equal(t, errors.INVALID_FORMAT.Code, clientErr.Code)
}

func TestMerge_UnknownFieldRejected(t *testing.T) {
	_, err := mergeservice.GetMergeService().Apply(&mergemodel.IdentityFragment{
		SourceTag: "portal",
		Phone:     freshPhone(),
		Fields:    map[string]interface{}{"blood_type": "O+"},
	})
	require.Error(t, err)
	clientErr, ok := err.(*errors.ClientError)
	require.True(t, ok)
	assert.Equal(t, errors.UNKNOWN_FIELD.Code, clientErr.Code)
}

func TestHistory_CursorPagination(t *testing.T) {
	engine := mergeservice.GetMergeService()
	phone := freshPhone()

	created, err := engine.Apply(&mergemodel.IdentityFragment{
		SourceTag: "registration-desk",
		Phone:     phone,
	})
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := engine.Apply(&mergemodel.IdentityFragment{
			SourceTag: "lab-system",
			Phone:     phone,
			Fields:    map[string]interface{}{"conditions": []interface{}{fmt.Sprintf("C%d", i)}},
			Strategies: map[string]string{
				"conditions": constants.StrategyAppend,
			},
		})
		require.NoError(t, err)
	}

	records := recordservice.GetRecordService()

	var sequences []int64
	cursor := ""
	pages := 0
	for {
		page, err := records.GetHistory(created.RecordId, cursor, 2)
		require.NoError(t, err)
		pages++
		for _, entry := range page.Entries {
			sequences = append(sequences, entry.Sequence)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	assert.Equal(t, 3, pages)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, sequences, "commit order, no gaps, no duplicates")
}

func TestHistory_InvalidCursorRejected(t *testing.T) {
	engine := mergeservice.GetMergeService()

	created, err := engine.Apply(&mergemodel.IdentityFragment{
		SourceTag: "portal",
		Phone:     freshPhone(),
	})
	require.NoError(t, err)

	_, err = recordservice.GetRecordService().GetHistory(created.RecordId, "not-a-cursor!!!", 10)
	require.Error(t, err)
	clientErr, ok := err.(*errors.ClientError)
	require.True(t, ok)
	assert.Equal(t, errors.INVALID_CURSOR.Code, clientErr.Code)
}
