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

import "github.com/wso2/patient-data-service/internal/system/constants"

// FieldDef describes one mergeable field of the canonical record: its
// fact category (for derived-view dependency tracking) and whether it is
// multi-valued (an append target).
type FieldDef struct {
	Name        string
	Category    string
	MultiValued bool
}

// fieldRegistry is the fixed, known schema of the patient record. The
// master identity key and internal identifiers are not listed here; they
// are not mergeable through fragments.
var fieldRegistry = []FieldDef{
	{Name: "external_ref", Category: constants.CategoryIdentity},
	{Name: "first_name", Category: constants.CategoryDemographics},
	{Name: "last_name", Category: constants.CategoryDemographics},
	{Name: "date_of_birth", Category: constants.CategoryDemographics},
	{Name: "email", Category: constants.CategoryContact},
	{Name: "address_line", Category: constants.CategoryContact},
	{Name: "city", Category: constants.CategoryContact},
	{Name: "postal_code", Category: constants.CategoryContact},
	{Name: "conditions", Category: constants.CategoryClinical, MultiValued: true},
	{Name: "medications", Category: constants.CategoryClinical, MultiValued: true},
	{Name: "allergies", Category: constants.CategoryClinical, MultiValued: true},
}

// MergeableFields returns the field definitions in registry order.
func MergeableFields() []FieldDef {
	return fieldRegistry
}

// FieldByName looks up a field definition.
func FieldByName(name string) (FieldDef, bool) {
	for _, def := range fieldRegistry {
		if def.Name == name {
			return def, true
		}
	}
	return FieldDef{}, false
}

// GetField reads a mergeable field off the record. Single-valued fields
// return string, multi-valued fields return []string.
func GetField(r *CanonicalRecord, name string) interface{} {
	switch name {
	case "external_ref":
		return r.ExternalRef
	case "first_name":
		return r.FirstName
	case "last_name":
		return r.LastName
	case "date_of_birth":
		return r.DateOfBirth
	case "email":
		return r.Email
	case "address_line":
		return r.AddressLine
	case "city":
		return r.City
	case "postal_code":
		return r.PostalCode
	case "conditions":
		return r.Conditions
	case "medications":
		return r.Medications
	case "allergies":
		return r.Allergies
	default:
		return nil
	}
}

// SetField writes a mergeable field on the record.
func SetField(r *CanonicalRecord, name string, value interface{}) {
	switch name {
	case "external_ref":
		r.ExternalRef, _ = value.(string)
	case "first_name":
		r.FirstName, _ = value.(string)
	case "last_name":
		r.LastName, _ = value.(string)
	case "date_of_birth":
		r.DateOfBirth, _ = value.(string)
	case "email":
		r.Email, _ = value.(string)
	case "address_line":
		r.AddressLine, _ = value.(string)
	case "city":
		r.City, _ = value.(string)
	case "postal_code":
		r.PostalCode, _ = value.(string)
	case "conditions":
		r.Conditions = toStringSlice(value)
	case "medications":
		r.Medications = toStringSlice(value)
	case "allergies":
		r.Allergies = toStringSlice(value)
	}
}

// toStringSlice coerces fragment payload values (JSON decoding yields
// []interface{}) into a string slice.
func toStringSlice(value interface{}) []string {
	switch v := value.(type) {
	case []string:
		return v
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []interface{}:
		var result []string
		for _, item := range v {
			if str, ok := item.(string); ok {
				result = append(result, str)
			}
		}
		return result
	default:
		return nil
	}
}
