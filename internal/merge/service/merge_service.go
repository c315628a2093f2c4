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

// Package service implements the merge engine: the single write path
// through which identity fragments become canonical record state.
package service

import (
	goerrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lib/pq"

	"github.com/wso2/patient-data-service/internal/events"
	"github.com/wso2/patient-data-service/internal/identity"
	"github.com/wso2/patient-data-service/internal/idgen"
	"github.com/wso2/patient-data-service/internal/match"
	"github.com/wso2/patient-data-service/internal/merge/model"
	historystore "github.com/wso2/patient-data-service/internal/merge/store"
	recordmodel "github.com/wso2/patient-data-service/internal/record/model"
	recordstore "github.com/wso2/patient-data-service/internal/record/store"
	"github.com/wso2/patient-data-service/internal/score"
	"github.com/wso2/patient-data-service/internal/system/constants"
	"github.com/wso2/patient-data-service/internal/system/database/provider"
	errors2 "github.com/wso2/patient-data-service/internal/system/errors"
	"github.com/wso2/patient-data-service/internal/system/log"
	"github.com/wso2/patient-data-service/internal/system/workers"
)

const (
	masterKeyConstraint  = "canonical_record_master_key_uq"
	accessCodeConstraint = "canonical_record_access_code_uq"
)

// MergeServiceInterface is the merge engine contract.
type MergeServiceInterface interface {
	Apply(fragment *model.IdentityFragment) (*model.MergeSummary, error)
}

type MergeService struct {
	resolver *match.Resolver
}

// GetMergeService returns a merge engine over the canonical stores.
func GetMergeService() MergeServiceInterface {
	return &MergeService{resolver: match.NewResolver()}
}

// Apply runs one fragment through the full merge pipeline: validation,
// idempotency dedupe, identity resolution, create-or-merge under
// optimistic concurrency, completeness scoring and history append.
// On success the touched fact categories are announced to the fact
// change queue.
func (s *MergeService) Apply(fragment *model.IdentityFragment) (*model.MergeSummary, error) {

	logger := log.GetLogger()

	if err := validateFragment(fragment); err != nil {
		return nil, err
	}

	keys, err := identity.Normalize(identity.RawAttributes{
		Phone:       fragment.Phone,
		ExternalRef: fragment.ExternalRef,
	})
	if err != nil {
		return nil, err
	}

	if fragment.FragmentId != "" {
		summary, err := s.dedupe(fragment.FragmentId)
		if err != nil {
			return nil, err
		}
		if summary != nil {
			logger.Debug("Fragment already applied. Returning recorded outcome.",
				log.String("fragmentId", fragment.FragmentId))
			return summary, nil
		}
	}

	target, err := s.resolveTarget(fragment, *keys)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < constants.MaxRetryAttempts; attempt++ {

		if target == nil {
			summary, raced, err := s.createRecord(fragment, *keys)
			if err != nil {
				return nil, err
			}
			if !raced {
				return summary, nil
			}
			// Another writer created the record for this master key
			// between resolution and insert. Merge into the winner.
			target, err = s.resolver.Resolve(*keys)
			if err != nil {
				return nil, err
			}
			if target == nil {
				// The key is taken but no active record carries it: a
				// deactivated record still owns this phone. Reusing the
				// number needs manual reactivation, not a silent new id.
				return nil, errors2.NewClientError(errors2.ErrorMessage{
					Code:        errors2.BAD_REQUEST.Code,
					Message:     errors2.BAD_REQUEST.Message,
					Description: "The phone number belongs to a deactivated record.",
				}, http.StatusConflict)
			}
			continue
		}

		summary, stale, err := s.mergeIntoRecord(target, fragment, *keys)
		if err != nil {
			return nil, err
		}
		if !stale {
			return summary, nil
		}

		time.Sleep(constants.RetryDelay)
		target, err = recordstore.GetRecordById(target.RecordId)
		if err != nil {
			return nil, err
		}
		if target == nil {
			break
		}
	}

	logger.Warn("Merge retries exhausted.", log.String("sourceTag", fragment.SourceTag))
	return nil, errors2.NewServerError(errors2.CONCURRENCY_CONFLICT,
		fmt.Errorf("record contended for %d attempts", constants.MaxRetryAttempts))
}

func validateFragment(fragment *model.IdentityFragment) error {

	if fragment.SourceTag == "" {
		return errors2.NewClientError(errors2.ErrorMessage{
			Code:        errors2.BAD_REQUEST.Code,
			Message:     errors2.BAD_REQUEST.Message,
			Description: "source_tag is required.",
		}, http.StatusBadRequest)
	}
	if fragment.Phone == "" && fragment.ExternalRef == "" && fragment.RecordRef == "" {
		return errors2.NewClientError(errors2.ErrorMessage{
			Code:        errors2.BAD_REQUEST.Code,
			Message:     errors2.BAD_REQUEST.Message,
			Description: "A fragment must carry a phone, an external_ref or a record_ref.",
		}, http.StatusBadRequest)
	}
	return validateFragmentFields(fragment)
}

// dedupe returns the recorded outcome when the fragment id was already
// applied, or nil for a first-time fragment.
func (s *MergeService) dedupe(fragmentId string) (*model.MergeSummary, error) {

	entry, err := historystore.GetEntryByFragmentId(fragmentId)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}

	summary := &model.MergeSummary{
		RecordId:          entry.RecordId,
		FieldsMerged:      len(entry.FieldsTouched),
		ConflictsRecorded: len(entry.Conflicts),
		Deduplicated:      true,
	}
	record, err := recordstore.GetRecordById(entry.RecordId)
	if err != nil {
		return nil, err
	}
	if record != nil {
		summary.CompletenessScore = record.CompletenessScore
	}
	return summary, nil
}

func (s *MergeService) resolveTarget(fragment *model.IdentityFragment,
	keys identity.NormalizedKeys) (*recordmodel.CanonicalRecord, error) {

	if fragment.RecordRef != "" {
		record, err := recordstore.GetRecordById(fragment.RecordRef)
		if err != nil {
			return nil, err
		}
		if record == nil || !record.Active {
			return nil, errors2.NewClientError(errors2.ErrorMessage{
				Code:        errors2.RECORD_NOT_FOUND.Code,
				Message:     errors2.RECORD_NOT_FOUND.Message,
				Description: fmt.Sprintf("Record %s does not exist or is inactive.", fragment.RecordRef),
			}, http.StatusNotFound)
		}
		return record, nil
	}
	return s.resolver.Resolve(keys)
}

// createRecord builds and persists a brand-new canonical record. The
// raced return is true when another writer claimed the master key
// first; the caller then re-resolves and merges instead.
func (s *MergeService) createRecord(fragment *model.IdentityFragment,
	keys identity.NormalizedKeys) (*model.MergeSummary, bool, error) {

	logger := log.GetLogger()

	for attempt := 0; attempt < constants.AccessCodeAttempts; attempt++ {

		summary, failure, err := s.tryCreate(fragment, keys)
		if err != nil {
			return nil, false, err
		}
		switch failure {
		case createOk:
			return summary, false, nil
		case createMasterKeyRace:
			return nil, true, nil
		case createAccessCodeCollision:
			logger.Debug("Access code collided with an existing record. Regenerating.",
				log.Int("attempt", attempt+1))
		}
	}

	return nil, false, errors2.NewServerError(errors2.GENERATION_EXHAUSTED,
		fmt.Errorf("access code space yielded %d consecutive collisions", constants.AccessCodeAttempts))
}

type createFailure int

const (
	createOk createFailure = iota
	createMasterKeyRace
	createAccessCodeCollision
)

func (s *MergeService) tryCreate(fragment *model.IdentityFragment,
	keys identity.NormalizedKeys) (*model.MergeSummary, createFailure, error) {

	dbClient, err := provider.NewDBProvider().GetDBClient()
	if err != nil {
		return nil, createOk, errors2.NewServerError(errors2.DB_CLIENT_INIT, err)
	}
	defer dbClient.Close()

	tx, err := dbClient.BeginTx()
	if err != nil {
		return nil, createOk, errors2.NewServerError(errors2.BEGIN_TRANSACTION, err)
	}

	now := time.Now().UTC()
	recordId, err := idgen.NextRecordId(tx, now)
	if err != nil {
		_ = tx.Rollback()
		return nil, createOk, err
	}
	accessCode, err := idgen.NewAccessCode()
	if err != nil {
		_ = tx.Rollback()
		return nil, createOk, err
	}

	record := &recordmodel.CanonicalRecord{
		RecordId:        recordId,
		AccessCode:      accessCode,
		MasterKey:       keys.MasterKey,
		PhoneDisplay:    keys.Display,
		ExternalRef:     keys.ExternalRef,
		FieldProvenance: map[string]string{},
		FactVersions:    map[string]int64{},
		Active:          true,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	record.AddSource(fragment.SourceTag)
	if keys.ExternalRef != "" {
		record.FieldProvenance["external_ref"] = fragment.SourceTag
	}
	if fragment.HighPriority != nil {
		record.HighPriority = *fragment.HighPriority
	}

	changes, conflicts, touched := applyFragmentFields(record, fragment)

	record.BumpFactVersion(constants.CategoryIdentity)
	for _, category := range touchedCategories(touched) {
		if category != constants.CategoryIdentity {
			record.BumpFactVersion(category)
		}
	}
	record.CompletenessScore = score.Score(record)

	if err := recordstore.InsertRecordTx(tx, record); err != nil {
		_ = tx.Rollback()
		if uniqueViolation(err, masterKeyConstraint) {
			return nil, createMasterKeyRace, nil
		}
		if uniqueViolation(err, accessCodeConstraint) {
			return nil, createAccessCodeCollision, nil
		}
		return nil, createOk, errors2.NewServerError(errors2.INSERT_RECORD, err)
	}

	entry := &model.MergeHistoryEntry{
		RecordId:      recordId,
		Sequence:      1,
		FragmentId:    fragment.FragmentId,
		SourceTag:     fragment.SourceTag,
		Actor:         fragment.Actor,
		FieldsTouched: touched,
		Changes:       changes,
		Conflicts:     conflicts,
		CreatedAt:     now,
	}
	if err := historystore.InsertEntryTx(tx, entry); err != nil {
		_ = tx.Rollback()
		return nil, createOk, err
	}

	if err := tx.Commit(); err != nil {
		return nil, createOk, errors2.NewServerError(errors2.COMMIT_TRANSACTION, err)
	}

	publishFactChanges(record, record.FactVersions)

	log.GetLogger().Info(fmt.Sprintf("Created canonical record: %s from source: %s",
		recordId, fragment.SourceTag))

	return &model.MergeSummary{
		RecordId:          recordId,
		Created:           true,
		FieldsMerged:      len(touched),
		ConflictsRecorded: len(conflicts),
		CompletenessScore: record.CompletenessScore,
	}, createOk, nil
}

// mergeIntoRecord applies the fragment onto an existing record under
// the record's optimistic version. The stale return is true when a
// concurrent writer committed first and the caller must re-read.
func (s *MergeService) mergeIntoRecord(target *recordmodel.CanonicalRecord,
	fragment *model.IdentityFragment, keys identity.NormalizedKeys) (*model.MergeSummary, bool, error) {

	now := time.Now().UTC()
	record := target.Clone()

	changes, conflicts, touched := applyFragmentFields(record, fragment)

	// A record found through its external reference may not yet own a
	// master key. The first fragment arriving with a phone attaches it.
	// An established master key is immutable; a differing phone is
	// recorded as a conflict and not applied.
	identityChanged := false
	if keys.MasterKey != "" {
		switch {
		case record.MasterKey == "":
			record.MasterKey = keys.MasterKey
			record.PhoneDisplay = keys.Display
			identityChanged = true
			changes = append(changes, model.FieldChange{
				Field: "phone", After: keys.Display, Strategy: constants.StrategyOverwrite,
			})
		case record.MasterKey != keys.MasterKey:
			conflicts = append(conflicts, model.FieldConflict{
				Field: "phone", Existing: record.PhoneDisplay, Incoming: keys.Display,
			})
		}
	}

	record.AddSource(fragment.SourceTag)
	if fragment.HighPriority != nil {
		record.HighPriority = *fragment.HighPriority
	}

	bumped := map[string]int64{}
	for _, category := range touchedCategories(touched) {
		bumped[category] = record.BumpFactVersion(category)
	}
	if identityChanged && bumped[constants.CategoryIdentity] == 0 {
		bumped[constants.CategoryIdentity] = record.BumpFactVersion(constants.CategoryIdentity)
	}

	record.CompletenessScore = score.Score(record)
	record.UpdatedAt = now

	dbClient, err := provider.NewDBProvider().GetDBClient()
	if err != nil {
		return nil, false, errors2.NewServerError(errors2.DB_CLIENT_INIT, err)
	}
	defer dbClient.Close()

	tx, err := dbClient.BeginTx()
	if err != nil {
		return nil, false, errors2.NewServerError(errors2.BEGIN_TRANSACTION, err)
	}

	affected, err := recordstore.UpdateRecordTx(tx, record, target.Version)
	if err != nil {
		_ = tx.Rollback()
		return nil, false, errors2.NewServerError(errors2.UPDATE_RECORD, err)
	}
	if affected == 0 {
		_ = tx.Rollback()
		return nil, true, nil
	}

	sequence, err := historystore.NextSequenceTx(tx, record.RecordId)
	if err != nil {
		_ = tx.Rollback()
		return nil, false, err
	}
	entry := &model.MergeHistoryEntry{
		RecordId:      record.RecordId,
		Sequence:      sequence,
		FragmentId:    fragment.FragmentId,
		SourceTag:     fragment.SourceTag,
		Actor:         fragment.Actor,
		FieldsTouched: touched,
		Changes:       changes,
		Conflicts:     conflicts,
		CreatedAt:     now,
	}
	if err := historystore.InsertEntryTx(tx, entry); err != nil {
		_ = tx.Rollback()
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, errors2.NewServerError(errors2.COMMIT_TRANSACTION, err)
	}

	publishFactChanges(record, bumped)

	return &model.MergeSummary{
		RecordId:          record.RecordId,
		FieldsMerged:      len(touched),
		ConflictsRecorded: len(conflicts),
		CompletenessScore: record.CompletenessScore,
	}, false, nil
}

// touchedCategories returns the distinct fact categories behind the
// touched field names, in first-touch order.
func touchedCategories(touched []string) []string {
	var categories []string
	seen := map[string]bool{}
	for _, name := range touched {
		def, ok := recordmodel.FieldByName(name)
		if !ok || seen[def.Category] {
			continue
		}
		seen[def.Category] = true
		categories = append(categories, def.Category)
	}
	return categories
}

func publishFactChanges(record *recordmodel.CanonicalRecord, bumped map[string]int64) {
	for category, version := range bumped {
		workers.PublishFactChange(events.FactChangeEvent{
			RecordId:     record.RecordId,
			Category:     category,
			NewVersion:   version,
			HighPriority: record.HighPriority,
		})
	}
}

func uniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if goerrors.As(err, &pqErr) {
		return pqErr.Code == "23505" && string(pqErr.Constraint) == constraint
	}
	return false
}
