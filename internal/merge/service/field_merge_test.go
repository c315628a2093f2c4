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

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mergemodel "github.com/wso2/patient-data-service/internal/merge/model"
	"github.com/wso2/patient-data-service/internal/record/model"
	"github.com/wso2/patient-data-service/internal/system/constants"
	"github.com/wso2/patient-data-service/internal/system/errors"
	"github.com/wso2/patient-data-service/internal/system/log"
)

func TestMain(m *testing.M) {
	log.Init("debug")
	m.Run()
}

func newRecord() *model.CanonicalRecord {
	return &model.CanonicalRecord{
		RecordId:        "PR-2026-000001",
		FieldProvenance: map[string]string{},
		FactVersions:    map[string]int64{},
		Active:          true,
	}
}

func TestApplyFields_KeepExisting_DoesNotReplaceValue(t *testing.T) {
	record := newRecord()
	record.FirstName = "Jane"

	fragment := &mergemodel.IdentityFragment{
		SourceTag:  "lab-system",
		Fields:     map[string]interface{}{"first_name": "Janet"},
		Strategies: map[string]string{"first_name": constants.StrategyKeepExisting},
	}

	changes, conflicts, touched := applyFragmentFields(record, fragment)
	assert.Equal(t, "Jane", record.FirstName)
	assert.Empty(t, changes)
	assert.Empty(t, conflicts)
	assert.Empty(t, touched)
}

func TestApplyFields_KeepExisting_FillsEmptyField(t *testing.T) {
	record := newRecord()

	fragment := &mergemodel.IdentityFragment{
		SourceTag:  "lab-system",
		Fields:     map[string]interface{}{"first_name": "Janet"},
		Strategies: map[string]string{"first_name": constants.StrategyKeepExisting},
	}

	changes, conflicts, touched := applyFragmentFields(record, fragment)
	assert.Equal(t, "Janet", record.FirstName)
	assert.Len(t, changes, 1)
	assert.Empty(t, conflicts)
	assert.Equal(t, []string{"first_name"}, touched)
	assert.Equal(t, "lab-system", record.FieldProvenance["first_name"])
}

func TestApplyFields_Overwrite_RecordsConflict(t *testing.T) {
	record := newRecord()
	record.LastName = "Doe"

	fragment := &mergemodel.IdentityFragment{
		SourceTag: "registration-desk",
		Fields:    map[string]interface{}{"last_name": "Smith"},
	}

	changes, conflicts, touched := applyFragmentFields(record, fragment)
	assert.Equal(t, "Smith", record.LastName)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "last_name", conflicts[0].Field)
	assert.Equal(t, "Doe", conflicts[0].Existing)
	assert.Equal(t, "Smith", conflicts[0].Incoming)
	require.Len(t, changes, 1)
	assert.Equal(t, constants.StrategyOverwrite, changes[0].Strategy)
	assert.Equal(t, []string{"last_name"}, touched)
}

func TestApplyFields_Overwrite_CaseOnlyDifference_NoConflict(t *testing.T) {
	record := newRecord()
	record.LastName = "smith"

	fragment := &mergemodel.IdentityFragment{
		SourceTag: "registration-desk",
		Fields:    map[string]interface{}{"last_name": "Smith"},
	}

	changes, conflicts, _ := applyFragmentFields(record, fragment)
	assert.Equal(t, "Smith", record.LastName)
	assert.Len(t, changes, 1)
	assert.Empty(t, conflicts, "case-only overwrite is not a conflict")
}

func TestApplyFields_Overwrite_SameValue_NoChange(t *testing.T) {
	record := newRecord()
	record.Email = "jane@example.com"

	fragment := &mergemodel.IdentityFragment{
		SourceTag: "portal",
		Fields:    map[string]interface{}{"email": "jane@example.com"},
	}

	changes, conflicts, touched := applyFragmentFields(record, fragment)
	assert.Empty(t, changes)
	assert.Empty(t, conflicts)
	assert.Empty(t, touched)
}

func TestApplyFields_Append_UnionsCaseInsensitively(t *testing.T) {
	record := newRecord()
	record.Medications = []string{"Metformin", "Lisinopril"}

	fragment := &mergemodel.IdentityFragment{
		SourceTag:  "pharmacy",
		Fields:     map[string]interface{}{"medications": []interface{}{"metformin", "Atorvastatin"}},
		Strategies: map[string]string{"medications": constants.StrategyAppend},
	}

	changes, conflicts, _ := applyFragmentFields(record, fragment)
	assert.Equal(t, []string{"Metformin", "Lisinopril", "Atorvastatin"}, record.Medications)
	assert.Len(t, changes, 1)
	assert.Empty(t, conflicts)
}

func TestApplyFields_Append_AllDuplicates_NoChange(t *testing.T) {
	record := newRecord()
	record.Allergies = []string{"Penicillin"}

	fragment := &mergemodel.IdentityFragment{
		SourceTag:  "lab-system",
		Fields:     map[string]interface{}{"allergies": []interface{}{"penicillin"}},
		Strategies: map[string]string{"allergies": constants.StrategyAppend},
	}

	changes, _, touched := applyFragmentFields(record, fragment)
	assert.Equal(t, []string{"Penicillin"}, record.Allergies)
	assert.Empty(t, changes)
	assert.Empty(t, touched)
}

func TestApplyFields_Overwrite_MultiValued_RecordsConflict(t *testing.T) {
	record := newRecord()
	record.Conditions = []string{"Asthma"}

	fragment := &mergemodel.IdentityFragment{
		SourceTag: "ehr",
		Fields:    map[string]interface{}{"conditions": []interface{}{"Diabetes"}},
	}

	_, conflicts, _ := applyFragmentFields(record, fragment)
	assert.Equal(t, []string{"Diabetes"}, record.Conditions)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "conditions", conflicts[0].Field)
}

func TestApplyFields_EmptyIncomingValue_Ignored(t *testing.T) {
	record := newRecord()
	record.FirstName = "Jane"

	fragment := &mergemodel.IdentityFragment{
		SourceTag: "portal",
		Fields: map[string]interface{}{
			"first_name":  "   ",
			"medications": []interface{}{"", "  "},
		},
	}

	changes, conflicts, touched := applyFragmentFields(record, fragment)
	assert.Equal(t, "Jane", record.FirstName, "a fragment never blanks a field")
	assert.Empty(t, record.Medications)
	assert.Empty(t, changes)
	assert.Empty(t, conflicts)
	assert.Empty(t, touched)
}

func TestValidateFragmentFields_UnknownField(t *testing.T) {
	fragment := &mergemodel.IdentityFragment{
		SourceTag: "portal",
		Fields:    map[string]interface{}{"blood_type": "O+"},
	}

	err := validateFragmentFields(fragment)
	require.Error(t, err)
	clientErr, ok := err.(*errors.ClientError)
	require.True(t, ok)
	assert.Equal(t, errors.UNKNOWN_FIELD.Code, clientErr.Code)
}

func TestValidateFragmentFields_UnknownStrategy(t *testing.T) {
	fragment := &mergemodel.IdentityFragment{
		SourceTag:  "portal",
		Fields:     map[string]interface{}{"first_name": "Jane"},
		Strategies: map[string]string{"first_name": "merge"},
	}

	err := validateFragmentFields(fragment)
	require.Error(t, err)
	clientErr, ok := err.(*errors.ClientError)
	require.True(t, ok)
	assert.Equal(t, errors.INVALID_MERGE_STRATEGY.Code, clientErr.Code)
}

func TestValidateFragmentFields_AppendOnSingleValued(t *testing.T) {
	fragment := &mergemodel.IdentityFragment{
		SourceTag:  "portal",
		Fields:     map[string]interface{}{"email": "jane@example.com"},
		Strategies: map[string]string{"email": constants.StrategyAppend},
	}

	err := validateFragmentFields(fragment)
	require.Error(t, err)
	clientErr, ok := err.(*errors.ClientError)
	require.True(t, ok)
	assert.Equal(t, errors.INVALID_MERGE_STRATEGY.Code, clientErr.Code)
}

func TestTouchedCategories_DistinctInOrder(t *testing.T) {
	categories := touchedCategories([]string{"first_name", "last_name", "email", "medications"})
	assert.Equal(t, []string{
		constants.CategoryDemographics, constants.CategoryContact, constants.CategoryClinical,
	}, categories)
}
