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

package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/wso2/patient-data-service/internal/merge/model"
	"github.com/wso2/patient-data-service/internal/system/database/provider"
	"github.com/wso2/patient-data-service/internal/system/database/scripts"
	errors2 "github.com/wso2/patient-data-service/internal/system/errors"
	"github.com/wso2/patient-data-service/internal/system/log"
	"github.com/wso2/patient-data-service/internal/system/pagination"
)

// NextSequenceTx allocates the next per-record history sequence inside
// the caller's transaction. The transaction holds the record row update,
// so sequence allocation cannot race for the same record.
func NextSequenceTx(tx *sql.Tx, recordId string) (int64, error) {

	query := scripts.NextMergeHistorySequence[provider.NewDBProvider().GetDBType()]

	var sequence int64
	if err := tx.QueryRow(query, recordId).Scan(&sequence); err != nil {
		return 0, errors2.NewServerError(errors2.FETCH_MERGE_HISTORY, err)
	}
	return sequence, nil
}

// InsertEntryTx appends a history entry inside the caller's transaction.
func InsertEntryTx(tx *sql.Tx, entry *model.MergeHistoryEntry) error {

	query := scripts.InsertMergeHistory[provider.NewDBProvider().GetDBType()]

	fieldsTouched, err := json.Marshal(emptyStrings(entry.FieldsTouched))
	if err != nil {
		return errors2.NewServerError(errors2.MARSHAL_JSON, err)
	}
	changes, err := json.Marshal(emptyChanges(entry.Changes))
	if err != nil {
		return errors2.NewServerError(errors2.MARSHAL_JSON, err)
	}
	conflicts, err := json.Marshal(emptyConflicts(entry.Conflicts))
	if err != nil {
		return errors2.NewServerError(errors2.MARSHAL_JSON, err)
	}

	fragmentId := sql.NullString{String: entry.FragmentId, Valid: entry.FragmentId != ""}
	_, err = tx.Exec(query, entry.RecordId, entry.Sequence, fragmentId, entry.SourceTag, entry.Actor,
		fieldsTouched, changes, conflicts, entry.CreatedAt)
	if err != nil {
		return errors2.NewServerError(errors2.INSERT_MERGE_HISTORY, err)
	}
	return nil
}

// GetEntryByFragmentId looks up the history entry recorded for a
// fragment id. Used to collapse idempotent retries before any merge
// work happens. Returns nil when the fragment was never applied.
func GetEntryByFragmentId(fragmentId string) (*model.MergeHistoryEntry, error) {

	rows, err := executeHistoryQuery(scripts.GetMergeHistoryByFragmentId, fragmentId)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rowToEntry(rows[0])
}

// GetHistoryPage returns up to limit entries of a record's merge
// history in commit order, starting after the cursor position when one
// is given.
func GetHistoryPage(recordId string, cursor *pagination.HistoryCursor, limit int) (
	[]model.MergeHistoryEntry, error) {

	var rows []map[string]interface{}
	var err error
	if cursor == nil {
		rows, err = executeHistoryQuery(scripts.GetMergeHistoryFirstPage, recordId, limit)
	} else {
		rows, err = executeHistoryQuery(scripts.GetMergeHistoryNextPage, recordId, cursor.CreatedAt,
			cursor.Sequence, limit)
	}
	if err != nil {
		return nil, err
	}

	entries := make([]model.MergeHistoryEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := rowToEntry(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

func executeHistoryQuery(queryByType map[string]string, args ...interface{}) ([]map[string]interface{}, error) {

	dbClient, err := provider.NewDBProvider().GetDBClient()
	if err != nil {
		errorMsg := "Failed to get database client for merge history lookup."
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return nil, errors2.NewServerError(errors2.ErrorMessage{
			Code:        errors2.DB_CLIENT_INIT.Code,
			Message:     errors2.DB_CLIENT_INIT.Message,
			Description: errorMsg,
		}, err)
	}
	defer dbClient.Close()

	query := queryByType[provider.NewDBProvider().GetDBType()]
	rows, err := dbClient.ExecuteQuery(query, args...)
	if err != nil {
		errorMsg := "Error occurred while querying merge history."
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return nil, errors2.NewServerError(errors2.ErrorMessage{
			Code:        errors2.FETCH_MERGE_HISTORY.Code,
			Message:     errors2.FETCH_MERGE_HISTORY.Message,
			Description: errorMsg,
		}, err)
	}
	return rows, nil
}

func rowToEntry(row map[string]interface{}) (*model.MergeHistoryEntry, error) {

	entry := &model.MergeHistoryEntry{
		RecordId:   asString(row["record_id"]),
		FragmentId: asString(row["fragment_id"]),
		SourceTag:  asString(row["source_tag"]),
		Actor:      asString(row["actor"]),
	}

	if seq, ok := row["sequence"].(int64); ok {
		entry.Sequence = seq
	}
	if t, ok := row["created_at"].(time.Time); ok {
		entry.CreatedAt = t
	}

	if raw := asString(row["fields_touched"]); raw != "" {
		if err := json.Unmarshal([]byte(raw), &entry.FieldsTouched); err != nil {
			return nil, errors2.NewServerError(errors2.UNMARSHAL_JSON, err)
		}
	}
	if raw := asString(row["changes"]); raw != "" {
		if err := json.Unmarshal([]byte(raw), &entry.Changes); err != nil {
			return nil, errors2.NewServerError(errors2.UNMARSHAL_JSON, err)
		}
	}
	if raw := asString(row["conflicts"]); raw != "" {
		if err := json.Unmarshal([]byte(raw), &entry.Conflicts); err != nil {
			return nil, errors2.NewServerError(errors2.UNMARSHAL_JSON, err)
		}
	}

	return entry, nil
}

func asString(v interface{}) string {
	switch value := v.(type) {
	case string:
		return value
	case []byte:
		return string(value)
	default:
		return ""
	}
}

func emptyStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func emptyChanges(c []model.FieldChange) []model.FieldChange {
	if c == nil {
		return []model.FieldChange{}
	}
	return c
}

func emptyConflicts(c []model.FieldConflict) []model.FieldConflict {
	if c == nil {
		return []model.FieldConflict{}
	}
	return c
}
