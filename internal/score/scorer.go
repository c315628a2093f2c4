/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
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
	"github.com/wso2/patient-data-service/internal/record/model"
)

// RubricVersion identifies the weight table in effect. Rubric changes are
// additive under a new version; existing weights are never redefined so
// historical scores stay comparable.
const RubricVersion = 1

// rubricV1 assigns a weight to each scored attribute. Identity fields
// weigh more than optional demographic and clinical detail. The weights
// sum to 100.
var rubricV1 = map[string]int{
	"master_key":    25,
	"first_name":    10,
	"last_name":     10,
	"date_of_birth": 15,
	"email":         10,
	"address_line":  5,
	"city":          3,
	"postal_code":   2,
	"external_ref":  5,
	"conditions":    5,
	"medications":   5,
	"allergies":     5,
}

// Score computes the weighted completeness score of a record, clamped to
// [0, 100]. It is a pure function over the record's own fields and is
// recomputed fully on every merge commit.
func Score(record *model.CanonicalRecord) int {

	total := 0
	if record.MasterKey != "" {
		total += rubricV1["master_key"]
	}
	for _, def := range model.MergeableFields() {
		weight, ok := rubricV1[def.Name]
		if !ok {
			continue
		}
		if fieldPresent(record, def) {
			total += weight
		}
	}

	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}
	return total
}

func fieldPresent(record *model.CanonicalRecord, def model.FieldDef) bool {
	value := model.GetField(record, def.Name)
	if def.MultiValued {
		values, _ := value.([]string)
		return len(values) > 0
	}
	str, _ := value.(string)
	return str != ""
}
