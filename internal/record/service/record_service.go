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
	"context"
	"fmt"
	"net/http"

	"github.com/wso2/patient-data-service/internal/idgen"
	mergemodel "github.com/wso2/patient-data-service/internal/merge/model"
	historystore "github.com/wso2/patient-data-service/internal/merge/store"
	"github.com/wso2/patient-data-service/internal/record/model"
	"github.com/wso2/patient-data-service/internal/record/store"
	"github.com/wso2/patient-data-service/internal/system/constants"
	errors2 "github.com/wso2/patient-data-service/internal/system/errors"
	"github.com/wso2/patient-data-service/internal/system/log"
	"github.com/wso2/patient-data-service/internal/system/pagination"
	viewservice "github.com/wso2/patient-data-service/internal/views/service"
)

const defaultHistoryPageSize = 20
const maxHistoryPageSize = 100

// RecordServiceInterface exposes read and lifecycle operations on
// canonical records. All writes to record fields go through the merge
// engine, never through this service.
type RecordServiceInterface interface {
	GetRecord(recordId string) (*model.CanonicalRecord, error)
	GetHistory(recordId, cursor string, limit int) (*mergemodel.HistoryPage, error)
	ResetAccessCode(recordId string) (string, error)
	DeactivateRecord(recordId string) error
}

type RecordService struct{}

func GetRecordService() RecordServiceInterface {
	return &RecordService{}
}

func (rs *RecordService) GetRecord(recordId string) (*model.CanonicalRecord, error) {

	record, err := store.GetRecordById(recordId)
	if err != nil {
		return nil, err
	}
	if record == nil || !record.Active {
		return nil, recordNotFound(recordId)
	}
	return record, nil
}

// GetHistory returns one page of the record's merge history in commit
// order. The cursor is opaque to callers; a tampered cursor is a client
// error, not a server fault.
func (rs *RecordService) GetHistory(recordId, cursor string, limit int) (*mergemodel.HistoryPage, error) {

	record, err := store.GetRecordById(recordId)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, recordNotFound(recordId)
	}

	if limit <= 0 {
		limit = defaultHistoryPageSize
	}
	if limit > maxHistoryPageSize {
		limit = maxHistoryPageSize
	}

	position, err := pagination.DecodeHistoryCursor(cursor)
	if err != nil {
		return nil, errors2.NewClientError(errors2.ErrorMessage{
			Code:        errors2.INVALID_CURSOR.Code,
			Message:     errors2.INVALID_CURSOR.Message,
			Description: err.Error(),
		}, http.StatusBadRequest)
	}

	// Fetch one past the page size to learn whether a next page exists.
	entries, err := historystore.GetHistoryPage(recordId, position, limit+1)
	if err != nil {
		return nil, err
	}

	page := &mergemodel.HistoryPage{Entries: entries}
	if len(entries) > limit {
		page.Entries = entries[:limit]
		last := page.Entries[limit-1]
		page.NextCursor = pagination.EncodeHistoryCursor(pagination.HistoryCursor{
			CreatedAt: last.CreatedAt,
			Sequence:  last.Sequence,
		})
	}
	return page, nil
}

// ResetAccessCode draws fresh random access codes until one is unused,
// bounded by the same attempt limit as record creation.
func (rs *RecordService) ResetAccessCode(recordId string) (string, error) {

	record, err := store.GetRecordById(recordId)
	if err != nil {
		return "", err
	}
	if record == nil || !record.Active {
		return "", recordNotFound(recordId)
	}

	for attempt := 0; attempt < constants.AccessCodeAttempts; attempt++ {
		code, err := idgen.NewAccessCode()
		if err != nil {
			return "", err
		}

		taken, err := store.AccessCodeExists(code)
		if err != nil {
			return "", err
		}
		if taken {
			log.GetLogger().Debug("Access code collided during reset. Regenerating.",
				log.Int("attempt", attempt+1))
			continue
		}

		if err := store.UpdateAccessCode(recordId, code); err != nil {
			return "", err
		}
		log.GetLogger().Info(fmt.Sprintf("Access code reset for record: %s", recordId))
		return code, nil
	}

	return "", errors2.NewServerError(errors2.GENERATION_EXHAUSTED,
		fmt.Errorf("access code space yielded %d consecutive collisions", constants.AccessCodeAttempts))
}

// DeactivateRecord soft-deactivates a record. Its master key stays
// reserved so the identity cannot silently re-emerge under a new id.
func (rs *RecordService) DeactivateRecord(recordId string) error {

	record, err := store.GetRecordById(recordId)
	if err != nil {
		return err
	}
	if record == nil || !record.Active {
		return recordNotFound(recordId)
	}

	if err := store.DeactivateRecord(recordId); err != nil {
		return err
	}

	// Cached views of an inactive record are dead weight; best effort.
	if err := viewservice.GetViewService().DropRecordViews(context.Background(), recordId); err != nil {
		log.GetLogger().Warn(fmt.Sprintf("Failed to drop views for deactivated record: %s", recordId),
			log.Error(err))
	}

	log.GetLogger().Info(fmt.Sprintf("Deactivated record: %s", recordId))
	return nil
}

func recordNotFound(recordId string) error {
	return errors2.NewClientError(errors2.ErrorMessage{
		Code:        errors2.RECORD_NOT_FOUND.Code,
		Message:     errors2.RECORD_NOT_FOUND.Message,
		Description: fmt.Sprintf("Record %s does not exist or is inactive.", recordId),
	}, http.StatusNotFound)
}
