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

package service

import (
	"time"

	recordmodel "github.com/wso2/patient-data-service/internal/record/model"
	"github.com/wso2/patient-data-service/internal/system/constants"
)

// ViewDef declares one derived view: which fact categories its payload
// depends on and how to compute it from a record snapshot. A view is
// stale as soon as any dependency category's fact version moves past
// the version it was computed from.
type ViewDef struct {
	Name       string
	Categories []string
	TTL        time.Duration
	Compute    func(record *recordmodel.CanonicalRecord) map[string]interface{}
}

var viewRegistry = map[string]ViewDef{
	constants.ViewActiveMedications: {
		Name:       constants.ViewActiveMedications,
		Categories: []string{constants.CategoryClinical},
		TTL:        constants.DefaultViewTTL,
		Compute:    computeActiveMedications,
	},
	constants.ViewDailySummary: {
		Name: constants.ViewDailySummary,
		Categories: []string{
			constants.CategoryIdentity, constants.CategoryDemographics,
			constants.CategoryContact, constants.CategoryClinical,
		},
		TTL:     constants.DefaultViewTTL,
		Compute: computeDailySummary,
	},
}

// ViewDefByName looks up a registered view definition.
func ViewDefByName(name string) (ViewDef, bool) {
	def, ok := viewRegistry[name]
	return def, ok
}

// ViewNames returns the names of all registered views.
func ViewNames() []string {
	names := make([]string, 0, len(viewRegistry))
	for name := range viewRegistry {
		names = append(names, name)
	}
	return names
}

func computeActiveMedications(record *recordmodel.CanonicalRecord) map[string]interface{} {
	return map[string]interface{}{
		"medications": emptyIfNil(record.Medications),
		"allergies":   emptyIfNil(record.Allergies),
	}
}

func computeDailySummary(record *recordmodel.CanonicalRecord) map[string]interface{} {
	return map[string]interface{}{
		"record_id":          record.RecordId,
		"name":               displayName(record),
		"phone":              record.PhoneDisplay,
		"email":              record.Email,
		"city":               record.City,
		"conditions":         emptyIfNil(record.Conditions),
		"medication_count":   len(record.Medications),
		"allergy_count":      len(record.Allergies),
		"completeness_score": record.CompletenessScore,
		"high_priority":      record.HighPriority,
		"sources":            emptyIfNil(record.DataSources),
	}
}

func displayName(record *recordmodel.CanonicalRecord) string {
	switch {
	case record.FirstName != "" && record.LastName != "":
		return record.FirstName + " " + record.LastName
	case record.LastName != "":
		return record.LastName
	default:
		return record.FirstName
	}
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
