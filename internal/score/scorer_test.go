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

package score

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wso2/patient-data-service/internal/record/model"
)

func TestScore_EmptyRecord(t *testing.T) {
	record := &model.CanonicalRecord{}
	assert.Equal(t, 0, Score(record))
}

func TestScore_MasterKeyOnly(t *testing.T) {
	record := &model.CanonicalRecord{MasterKey: "5551234567"}
	assert.Equal(t, 25, Score(record))
}

func TestScore_FullRecordIsHundred(t *testing.T) {
	record := &model.CanonicalRecord{
		MasterKey:   "5551234567",
		ExternalRef: "MRN-1",
		FirstName:   "Jane",
		LastName:    "Doe",
		DateOfBirth: "1984-02-29",
		Email:       "jane@example.com",
		AddressLine: "1 Main St",
		City:        "Springfield",
		PostalCode:  "01110",
		Conditions:  []string{"asthma"},
		Medications: []string{"albuterol"},
		Allergies:   []string{"penicillin"},
	}
	assert.Equal(t, 100, Score(record))
}

// Adding fields never lowers the score as long as nothing is cleared.
func TestScore_MonotonicUnderAddition(t *testing.T) {
	record := &model.CanonicalRecord{MasterKey: "5551234567"}
	previous := Score(record)

	additions := []func(){
		func() { record.FirstName = "Jane" },
		func() { record.LastName = "Doe" },
		func() { record.DateOfBirth = "1984-02-29" },
		func() { record.Email = "jane@example.com" },
		func() { record.Conditions = []string{"asthma"} },
		func() { record.Medications = append(record.Medications, "albuterol") },
	}

	for _, add := range additions {
		add()
		current := Score(record)
		assert.GreaterOrEqual(t, current, previous)
		previous = current
	}
}

func TestScore_OverwriteKeepsScore(t *testing.T) {
	record := &model.CanonicalRecord{MasterKey: "5551234567", LastName: "Doe"}
	before := Score(record)
	record.LastName = "Smith"
	assert.Equal(t, before, Score(record))
}
