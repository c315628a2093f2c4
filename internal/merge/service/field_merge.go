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
	"fmt"
	"net/http"
	"strings"

	mergemodel "github.com/wso2/patient-data-service/internal/merge/model"
	"github.com/wso2/patient-data-service/internal/record/model"
	"github.com/wso2/patient-data-service/internal/system/constants"
	"github.com/wso2/patient-data-service/internal/system/errors"
)

// fieldOutcome is the result of applying one fragment field.
type fieldOutcome struct {
	changed  bool
	change   mergemodel.FieldChange
	conflict *mergemodel.FieldConflict
}

// validateFragmentFields rejects unknown field names, unknown strategy
// names, and append on single-valued fields before any state changes.
func validateFragmentFields(fragment *mergemodel.IdentityFragment) error {

	for name := range fragment.Fields {
		if _, ok := model.FieldByName(name); !ok {
			return errors.NewClientError(errors.ErrorMessage{
				Code:        errors.UNKNOWN_FIELD.Code,
				Message:     errors.UNKNOWN_FIELD.Message,
				Description: fmt.Sprintf("Field %q is not part of the patient record schema.", name),
			}, http.StatusBadRequest)
		}
	}

	for name, strategy := range fragment.Strategies {
		def, ok := model.FieldByName(name)
		if !ok {
			return errors.NewClientError(errors.ErrorMessage{
				Code:        errors.UNKNOWN_FIELD.Code,
				Message:     errors.UNKNOWN_FIELD.Message,
				Description: fmt.Sprintf("Strategy given for unknown field %q.", name),
			}, http.StatusBadRequest)
		}
		if !constants.AllowedMergeStrategies[strategy] {
			return errors.NewClientError(errors.ErrorMessage{
				Code:        errors.INVALID_MERGE_STRATEGY.Code,
				Message:     errors.INVALID_MERGE_STRATEGY.Message,
				Description: fmt.Sprintf("Strategy %q is not supported.", strategy),
			}, http.StatusBadRequest)
		}
		if strategy == constants.StrategyAppend && !def.MultiValued {
			return errors.NewClientError(errors.ErrorMessage{
				Code:        errors.INVALID_MERGE_STRATEGY.Code,
				Message:     errors.INVALID_MERGE_STRATEGY.Message,
				Description: fmt.Sprintf("Field %q is single-valued and cannot be appended to.", name),
			}, http.StatusBadRequest)
		}
	}
	return nil
}

// applyFragmentFields merges every non-empty fragment field onto the
// record in registry order, recording provenance, per-field changes and
// overwrite conflicts. Empty incoming values are ignored regardless of
// strategy; a fragment can add or replace data but never blank a field.
func applyFragmentFields(record *model.CanonicalRecord, fragment *mergemodel.IdentityFragment) (
	changes []mergemodel.FieldChange, conflicts []mergemodel.FieldConflict, touched []string) {

	for _, def := range model.MergeableFields() {
		raw, present := fragment.Fields[def.Name]
		if !present {
			continue
		}

		strategy := fragment.StrategyFor(def.Name, constants.StrategyOverwrite)
		outcome := applyFieldValue(record, def, raw, strategy)
		if !outcome.changed {
			continue
		}

		record.FieldProvenance[def.Name] = fragment.SourceTag
		touched = append(touched, def.Name)
		changes = append(changes, outcome.change)
		if outcome.conflict != nil {
			conflicts = append(conflicts, *outcome.conflict)
		}
	}
	return changes, conflicts, touched
}

func applyFieldValue(record *model.CanonicalRecord, def model.FieldDef, raw interface{},
	strategy string) fieldOutcome {

	if def.MultiValued {
		return applyMultiValued(record, def, raw, strategy)
	}
	return applySingleValued(record, def, raw, strategy)
}

func applySingleValued(record *model.CanonicalRecord, def model.FieldDef, raw interface{},
	strategy string) fieldOutcome {

	incoming := strings.TrimSpace(coerceString(raw))
	if incoming == "" {
		return fieldOutcome{}
	}
	// External references are matched case-insensitively at resolution
	// time; store them the way lookups normalize them.
	if def.Name == "external_ref" {
		incoming = strings.ToUpper(incoming)
	}

	existing, _ := model.GetField(record, def.Name).(string)

	switch strategy {
	case constants.StrategyKeepExisting:
		if existing != "" {
			return fieldOutcome{}
		}
	case constants.StrategyOverwrite:
		if existing == incoming {
			return fieldOutcome{}
		}
	}

	outcome := fieldOutcome{
		changed: true,
		change: mergemodel.FieldChange{
			Field:    def.Name,
			Before:   nilIfEmpty(existing),
			After:    incoming,
			Strategy: strategy,
		},
	}
	if strategy == constants.StrategyOverwrite && existing != "" && materiallyDifferent(existing, incoming) {
		outcome.conflict = &mergemodel.FieldConflict{Field: def.Name, Existing: existing, Incoming: incoming}
	}

	model.SetField(record, def.Name, incoming)
	return outcome
}

func applyMultiValued(record *model.CanonicalRecord, def model.FieldDef, raw interface{},
	strategy string) fieldOutcome {

	incoming := cleanValues(raw)
	if len(incoming) == 0 {
		return fieldOutcome{}
	}

	existing, _ := model.GetField(record, def.Name).([]string)

	var next []string
	switch strategy {
	case constants.StrategyKeepExisting:
		if len(existing) > 0 {
			return fieldOutcome{}
		}
		next = incoming
	case constants.StrategyAppend:
		next = appendUnion(existing, incoming)
		if len(next) == len(existing) {
			return fieldOutcome{}
		}
	default: // overwrite
		next = incoming
		if equalFold(existing, incoming) {
			return fieldOutcome{}
		}
	}

	outcome := fieldOutcome{
		changed: true,
		change: mergemodel.FieldChange{
			Field:    def.Name,
			Before:   nilIfEmptySlice(existing),
			After:    next,
			Strategy: strategy,
		},
	}
	if strategy == constants.StrategyOverwrite && len(existing) > 0 {
		outcome.conflict = &mergemodel.FieldConflict{Field: def.Name, Existing: existing, Incoming: incoming}
	}

	model.SetField(record, def.Name, next)
	return outcome
}

// appendUnion keeps existing entries in order and appends incoming
// entries not already present, compared case-insensitively.
func appendUnion(existing, incoming []string) []string {

	seen := make(map[string]bool, len(existing))
	for _, v := range existing {
		seen[strings.ToLower(v)] = true
	}

	result := existing
	for _, v := range incoming {
		key := strings.ToLower(v)
		if !seen[key] {
			seen[key] = true
			result = append(result, v)
		}
	}
	return result
}

// materiallyDifferent treats values differing only in case or
// surrounding whitespace as the same fact arriving twice, not a
// conflict.
func materiallyDifferent(existing, incoming string) bool {
	return !strings.EqualFold(strings.TrimSpace(existing), strings.TrimSpace(incoming))
}

func equalFold(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

func cleanValues(raw interface{}) []string {

	var values []string
	switch v := raw.(type) {
	case []string:
		values = v
	case string:
		values = []string{v}
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				values = append(values, s)
			}
		}
	}

	var cleaned []string
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}

func coerceString(raw interface{}) string {
	s, _ := raw.(string)
	return s
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nilIfEmptySlice(s []string) interface{} {
	if len(s) == 0 {
		return nil
	}
	return s
}
