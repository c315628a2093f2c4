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

package model

import "time"

// CanonicalRecord is the single authoritative record for one patient.
// RecordId is immutable once assigned; MasterKey uniquely determines at
// most one record. Records are never hard-deleted, only deactivated.
type CanonicalRecord struct {
	RecordId          string            `json:"record_id"`
	AccessCode        string            `json:"access_code"`
	ExternalRef       string            `json:"external_ref,omitempty"`
	MasterKey         string            `json:"master_key"`
	PhoneDisplay      string            `json:"phone_display,omitempty"`
	FirstName         string            `json:"first_name,omitempty"`
	LastName          string            `json:"last_name,omitempty"`
	DateOfBirth       string            `json:"date_of_birth,omitempty"`
	Email             string            `json:"email,omitempty"`
	AddressLine       string            `json:"address_line,omitempty"`
	City              string            `json:"city,omitempty"`
	PostalCode        string            `json:"postal_code,omitempty"`
	Conditions        []string          `json:"conditions,omitempty"`
	Medications       []string          `json:"medications,omitempty"`
	Allergies         []string          `json:"allergies,omitempty"`
	DataSources       []string          `json:"data_sources"`
	FieldProvenance   map[string]string `json:"field_provenance"`
	FactVersions      map[string]int64  `json:"fact_versions"`
	CompletenessScore int               `json:"completeness_score"`
	HighPriority      bool              `json:"high_priority"`
	Active            bool              `json:"active"`
	Version           int64             `json:"version"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// HasSource reports whether the given upstream source has ever
// contributed to this record.
func (r *CanonicalRecord) HasSource(sourceTag string) bool {
	for _, s := range r.DataSources {
		if s == sourceTag {
			return true
		}
	}
	return false
}

// AddSource records an upstream source contribution, keeping DataSources
// a set.
func (r *CanonicalRecord) AddSource(sourceTag string) {
	if !r.HasSource(sourceTag) {
		r.DataSources = append(r.DataSources, sourceTag)
	}
}

// Clone returns a deep copy. The merge engine mutates a clone so a
// failed optimistic write never leaves partial state on the original.
func (r *CanonicalRecord) Clone() *CanonicalRecord {
	clone := *r
	clone.Conditions = append([]string(nil), r.Conditions...)
	clone.Medications = append([]string(nil), r.Medications...)
	clone.Allergies = append([]string(nil), r.Allergies...)
	clone.DataSources = append([]string(nil), r.DataSources...)
	clone.FieldProvenance = make(map[string]string, len(r.FieldProvenance))
	for k, v := range r.FieldProvenance {
		clone.FieldProvenance[k] = v
	}
	clone.FactVersions = make(map[string]int64, len(r.FactVersions))
	for k, v := range r.FactVersions {
		clone.FactVersions[k] = v
	}
	return &clone
}

// BumpFactVersion increments the version counter of a fact category and
// returns the new value.
func (r *CanonicalRecord) BumpFactVersion(category string) int64 {
	if r.FactVersions == nil {
		r.FactVersions = map[string]int64{}
	}
	r.FactVersions[category]++
	return r.FactVersions[category]
}
