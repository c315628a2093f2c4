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
	"fmt"
	"time"

	"github.com/wso2/patient-data-service/internal/record/model"
	"github.com/wso2/patient-data-service/internal/system/database/provider"
	"github.com/wso2/patient-data-service/internal/system/database/scripts"
	errors2 "github.com/wso2/patient-data-service/internal/system/errors"
	"github.com/wso2/patient-data-service/internal/system/log"
)

// GetRecordById fetches a canonical record by its internal identifier.
// Returns nil without error when the record does not exist.
func GetRecordById(recordId string) (*model.CanonicalRecord, error) {

	rows, err := executeRecordQuery(scripts.GetCanonicalRecordById, recordId)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rowToRecord(rows[0])
}

// GetRecordByMasterKey fetches the active record owning a normalized
// master identity key. The unique constraint guarantees at most one.
func GetRecordByMasterKey(masterKey string) (*model.CanonicalRecord, error) {

	rows, err := executeRecordQuery(scripts.GetCanonicalRecordByMasterKey, masterKey)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rowToRecord(rows[0])
}

// GetRecordsByExternalRef fetches every active record carrying the given
// external reference number. External references are staff-editable and
// not guaranteed unique; callers must treat multiple hits as ambiguous.
func GetRecordsByExternalRef(externalRef string) ([]model.CanonicalRecord, error) {

	rows, err := executeRecordQuery(scripts.GetCanonicalRecordsByExternalRef, externalRef)
	if err != nil {
		return nil, err
	}

	var records []model.CanonicalRecord
	for _, row := range rows {
		record, err := rowToRecord(row)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, nil
}

// GetHighPriorityRecordIds lists active records flagged for proactive
// derived-view recomputation.
func GetHighPriorityRecordIds() ([]string, error) {

	rows, err := executeRecordQuery(scripts.GetHighPriorityRecordIds)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, row := range rows {
		if id, ok := row["record_id"].(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// InsertRecordTx persists a newly created record inside the caller's
// transaction. A unique-constraint violation surfaces as the driver
// error so the merge engine can distinguish master-key races from
// access-code collisions.
func InsertRecordTx(tx *sql.Tx, record *model.CanonicalRecord) error {

	query := scripts.InsertCanonicalRecord[provider.NewDBProvider().GetDBType()]

	conditions, medications, allergies, dataSources, provenance, factVersions, err := marshalRecordJSON(record)
	if err != nil {
		return err
	}

	_, err = tx.Exec(query,
		record.RecordId, record.AccessCode, nullString(record.ExternalRef), nullString(record.MasterKey),
		record.PhoneDisplay,
		record.FirstName, record.LastName, record.DateOfBirth, record.Email, record.AddressLine, record.City,
		record.PostalCode, conditions, medications, allergies, dataSources, provenance, factVersions,
		record.CompletenessScore, record.HighPriority, record.Active, record.Version,
		record.CreatedAt, record.UpdatedAt)
	return err
}

// UpdateRecordTx updates a record guarded by its version column. It
// returns the number of affected rows; zero means another writer
// committed first and the caller must re-read and retry.
func UpdateRecordTx(tx *sql.Tx, record *model.CanonicalRecord, expectedVersion int64) (int64, error) {

	query := scripts.UpdateCanonicalRecord[provider.NewDBProvider().GetDBType()]

	conditions, medications, allergies, dataSources, provenance, factVersions, err := marshalRecordJSON(record)
	if err != nil {
		return 0, err
	}

	result, err := tx.Exec(query,
		record.RecordId, record.AccessCode, nullString(record.ExternalRef), record.PhoneDisplay,
		record.FirstName, record.LastName, record.DateOfBirth, record.Email, record.AddressLine, record.City,
		record.PostalCode, conditions, medications, allergies, dataSources, provenance, factVersions,
		record.CompletenessScore, record.HighPriority, record.UpdatedAt, expectedVersion,
		nullString(record.MasterKey))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeactivateRecord soft-deactivates a record. Records are never hard
// deleted.
func DeactivateRecord(recordId string) error {

	dbClient, err := provider.NewDBProvider().GetDBClient()
	if err != nil {
		return dbClientError(err, "deactivating record "+recordId)
	}
	defer dbClient.Close()

	query := scripts.DeactivateCanonicalRecord[provider.NewDBProvider().GetDBType()]
	if _, err := dbClient.ExecuteQuery(query, recordId, time.Now().UTC()); err != nil {
		errorMsg := fmt.Sprintf("Error occurred while deactivating record: %s", recordId)
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return errors2.NewServerError(errors2.ErrorMessage{
			Code:        errors2.UPDATE_RECORD.Code,
			Message:     errors2.UPDATE_RECORD.Message,
			Description: errorMsg,
		}, err)
	}
	return nil
}

// UpdateAccessCode replaces the human-facing access code of a record.
func UpdateAccessCode(recordId, accessCode string) error {

	dbClient, err := provider.NewDBProvider().GetDBClient()
	if err != nil {
		return dbClientError(err, "resetting access code for record "+recordId)
	}
	defer dbClient.Close()

	query := scripts.UpdateAccessCode[provider.NewDBProvider().GetDBType()]
	if _, err := dbClient.ExecuteQuery(query, recordId, accessCode, time.Now().UTC()); err != nil {
		return err
	}
	return nil
}

// AccessCodeExists reports whether any record currently holds the code.
func AccessCodeExists(accessCode string) (bool, error) {

	dbClient, err := provider.NewDBProvider().GetDBClient()
	if err != nil {
		return false, dbClientError(err, "checking access code uniqueness")
	}
	defer dbClient.Close()

	query := scripts.CountAccessCode[provider.NewDBProvider().GetDBType()]
	rows, err := dbClient.ExecuteQuery(query, accessCode)
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}
	total, _ := rows[0]["total"].(int64)
	return total > 0, nil
}

func executeRecordQuery(queryByType map[string]string, args ...interface{}) ([]map[string]interface{}, error) {

	dbClient, err := provider.NewDBProvider().GetDBClient()
	logger := log.GetLogger()
	if err != nil {
		return nil, dbClientError(err, "record lookup")
	}
	defer dbClient.Close()

	query := queryByType[provider.NewDBProvider().GetDBType()]
	rows, err := dbClient.ExecuteQuery(query, args...)
	if err != nil {
		errorMsg := "Error occurred while querying canonical records."
		logger.Debug(errorMsg, log.Error(err))
		return nil, errors2.NewServerError(errors2.ErrorMessage{
			Code:        errors2.FETCH_RECORD.Code,
			Message:     errors2.FETCH_RECORD.Message,
			Description: errorMsg,
		}, err)
	}
	return rows, nil
}

func dbClientError(err error, context string) error {
	errorMsg := "Failed to get database client for " + context + "."
	log.GetLogger().Debug(errorMsg, log.Error(err))
	return errors2.NewServerError(errors2.ErrorMessage{
		Code:        errors2.DB_CLIENT_INIT.Code,
		Message:     errors2.DB_CLIENT_INIT.Message,
		Description: errorMsg,
	}, err)
}

func marshalRecordJSON(record *model.CanonicalRecord) (conditions, medications, allergies, dataSources,
	provenance, factVersions []byte, err error) {

	marshal := func(v interface{}) []byte {
		if err != nil {
			return nil
		}
		var b []byte
		b, err = json.Marshal(v)
		return b
	}

	conditions = marshal(emptySlice(record.Conditions))
	medications = marshal(emptySlice(record.Medications))
	allergies = marshal(emptySlice(record.Allergies))
	dataSources = marshal(emptySlice(record.DataSources))
	provenance = marshal(emptyStringMap(record.FieldProvenance))
	factVersions = marshal(emptyInt64Map(record.FactVersions))
	if err != nil {
		err = errors2.NewServerError(errors2.MARSHAL_JSON, err)
	}
	return
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func emptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func emptyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func emptyInt64Map(m map[string]int64) map[string]int64 {
	if m == nil {
		return map[string]int64{}
	}
	return m
}

// rowToRecord maps a query result row onto the record model. JSONB
// columns arrive as their text casts.
func rowToRecord(row map[string]interface{}) (*model.CanonicalRecord, error) {

	record := &model.CanonicalRecord{
		RecordId:     stringVal(row["record_id"]),
		AccessCode:   stringVal(row["access_code"]),
		ExternalRef:  stringVal(row["external_ref"]),
		MasterKey:    stringVal(row["master_key"]),
		PhoneDisplay: stringVal(row["phone_display"]),
		FirstName:    stringVal(row["first_name"]),
		LastName:     stringVal(row["last_name"]),
		DateOfBirth:  stringVal(row["date_of_birth"]),
		Email:        stringVal(row["email"]),
		AddressLine:  stringVal(row["address_line"]),
		City:         stringVal(row["city"]),
		PostalCode:   stringVal(row["postal_code"]),
	}

	if err := unmarshalJSONColumn(row["conditions"], &record.Conditions); err != nil {
		return nil, err
	}
	if err := unmarshalJSONColumn(row["medications"], &record.Medications); err != nil {
		return nil, err
	}
	if err := unmarshalJSONColumn(row["allergies"], &record.Allergies); err != nil {
		return nil, err
	}
	if err := unmarshalJSONColumn(row["data_sources"], &record.DataSources); err != nil {
		return nil, err
	}
	if err := unmarshalJSONColumn(row["field_provenance"], &record.FieldProvenance); err != nil {
		return nil, err
	}
	if err := unmarshalJSONColumn(row["fact_versions"], &record.FactVersions); err != nil {
		return nil, err
	}

	record.CompletenessScore = int(int64Val(row["completeness_score"]))
	record.HighPriority = boolVal(row["high_priority"])
	record.Active = boolVal(row["active"])
	record.Version = int64Val(row["version"])
	record.CreatedAt = timeVal(row["created_at"])
	record.UpdatedAt = timeVal(row["updated_at"])

	return record, nil
}

func unmarshalJSONColumn(value interface{}, target interface{}) error {
	raw := stringVal(value)
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		return errors2.NewServerError(errors2.UNMARSHAL_JSON, err)
	}
	return nil
}

func stringVal(v interface{}) string {
	switch value := v.(type) {
	case string:
		return value
	case []byte:
		return string(value)
	default:
		return ""
	}
}

func int64Val(v interface{}) int64 {
	switch value := v.(type) {
	case int64:
		return value
	case int:
		return int64(value)
	case float64:
		return int64(value)
	default:
		return 0
	}
}

func boolVal(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func timeVal(v interface{}) time.Time {
	t, _ := v.(time.Time)
	return t
}
