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

package scripts

const recordColumns = `record_id, access_code, external_ref, master_key, phone_display, first_name, last_name,
       date_of_birth, email, address_line, city, postal_code, conditions::text, medications::text, allergies::text,
       data_sources::text, field_provenance::text, fact_versions::text, completeness_score, high_priority, active,
       version, created_at, updated_at`

var InsertCanonicalRecord = map[string]string{
	"postgres": `INSERT INTO canonical_record (record_id, access_code, external_ref, master_key, phone_display,
        first_name, last_name, date_of_birth, email, address_line, city, postal_code, conditions, medications,
        allergies, data_sources, field_provenance, fact_versions, completeness_score, high_priority, active, version,
        created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22,
        $23, $24)`,
}

var GetCanonicalRecordById = map[string]string{
	"postgres": `SELECT ` + recordColumns + ` FROM canonical_record WHERE record_id = $1`,
}

var GetCanonicalRecordByMasterKey = map[string]string{
	"postgres": `SELECT ` + recordColumns + ` FROM canonical_record WHERE master_key = $1 AND active = TRUE`,
}

var GetCanonicalRecordsByExternalRef = map[string]string{
	"postgres": `SELECT ` + recordColumns + ` FROM canonical_record WHERE external_ref = $1 AND active = TRUE`,
}

var UpdateCanonicalRecord = map[string]string{
	"postgres": `UPDATE canonical_record
        SET access_code = $2, external_ref = $3, phone_display = $4, first_name = $5, last_name = $6,
            date_of_birth = $7, email = $8, address_line = $9, city = $10, postal_code = $11, conditions = $12,
            medications = $13, allergies = $14, data_sources = $15, field_provenance = $16, fact_versions = $17,
            completeness_score = $18, high_priority = $19, master_key = $22, version = version + 1,
            updated_at = $20
        WHERE record_id = $1 AND version = $21`,
}

var DeactivateCanonicalRecord = map[string]string{
	"postgres": `UPDATE canonical_record SET active = FALSE, version = version + 1, updated_at = $2
        WHERE record_id = $1`,
}

var UpdateAccessCode = map[string]string{
	"postgres": `UPDATE canonical_record SET access_code = $2, version = version + 1, updated_at = $3
        WHERE record_id = $1`,
}

var CountAccessCode = map[string]string{
	"postgres": `SELECT COUNT(1) AS total FROM canonical_record WHERE access_code = $1`,
}

var IncrementRecordCounter = map[string]string{
	"postgres": `INSERT INTO record_counter (scope, current_value) VALUES ($1, 1)
        ON CONFLICT (scope) DO UPDATE SET current_value = record_counter.current_value + 1
        RETURNING current_value`,
}

var NextMergeHistorySequence = map[string]string{
	"postgres": `SELECT COALESCE(MAX(sequence), 0) + 1 AS next_sequence FROM merge_history WHERE record_id = $1`,
}

var InsertMergeHistory = map[string]string{
	"postgres": `INSERT INTO merge_history (record_id, sequence, fragment_id, source_tag, actor, fields_touched,
        changes, conflicts, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
}

var GetMergeHistoryByFragmentId = map[string]string{
	"postgres": `SELECT record_id, sequence, fragment_id, source_tag, actor, fields_touched::text, changes::text,
        conflicts::text, created_at FROM merge_history WHERE fragment_id = $1 LIMIT 1`,
}

var GetMergeHistoryFirstPage = map[string]string{
	"postgres": `SELECT record_id, sequence, fragment_id, source_tag, actor, fields_touched::text, changes::text,
        conflicts::text, created_at FROM merge_history WHERE record_id = $1
        ORDER BY created_at, sequence LIMIT $2`,
}

var GetMergeHistoryNextPage = map[string]string{
	"postgres": `SELECT record_id, sequence, fragment_id, source_tag, actor, fields_touched::text, changes::text,
        conflicts::text, created_at FROM merge_history WHERE record_id = $1
        AND (created_at, sequence) > ($2, $3) ORDER BY created_at, sequence LIMIT $4`,
}

var GetHighPriorityRecordIds = map[string]string{
	"postgres": `SELECT record_id FROM canonical_record WHERE high_priority = TRUE AND active = TRUE`,
}
