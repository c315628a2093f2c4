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

package idgen

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/wso2/patient-data-service/internal/system/constants"
	"github.com/wso2/patient-data-service/internal/system/database/provider"
	"github.com/wso2/patient-data-service/internal/system/database/scripts"
	errors2 "github.com/wso2/patient-data-service/internal/system/errors"
)

var accessCodeRegex = regexp.MustCompile(constants.AccessCodePattern)

// NextRecordId allocates the next sequential internal identifier within
// the calendar-year scope, e.g. "PR-2026-000042". The counter row is
// advanced with a single conditional-increment statement inside the
// caller's transaction, so generation and persistence commit atomically
// and the identifier can never be reassigned.
func NextRecordId(tx *sql.Tx, now time.Time) (string, error) {

	scope := fmt.Sprintf("%s-%d", constants.RecordIdPrefix, now.UTC().Year())
	query := scripts.IncrementRecordCounter[provider.NewDBProvider().GetDBType()]

	var value int64
	if err := tx.QueryRow(query, scope).Scan(&value); err != nil {
		return "", errors2.NewServerError(errors2.ErrorMessage{
			Code:        errors2.SEQUENCE_INCREMENT.Code,
			Message:     errors2.SEQUENCE_INCREMENT.Message,
			Description: fmt.Sprintf("Failed to advance the identifier counter for scope %s.", scope),
		}, err)
	}

	return fmt.Sprintf("%s-%06d", scope, value), nil
}

// NewAccessCode draws a random human-typable access code in the grouped
// digit format "DDDD-DDDD". Uniqueness is not guaranteed here: the
// unique constraint on the record table detects collisions at persist
// time and the caller retries with a fresh draw.
func NewAccessCode() (string, error) {

	max := big.NewInt(100000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", errors2.NewServerError(errors2.ErrorMessage{
			Code:        errors2.GENERATION_EXHAUSTED.Code,
			Message:     errors2.GENERATION_EXHAUSTED.Message,
			Description: "Random source failure while drawing an access code.",
		}, err)
	}

	digits := fmt.Sprintf("%08d", n.Int64())
	code := digits[0:4] + "-" + digits[4:8]
	if !ValidAccessCode(code) {
		return "", errors2.NewServerError(errors2.ErrorMessage{
			Code:        errors2.GENERATION_EXHAUSTED.Code,
			Message:     errors2.GENERATION_EXHAUSTED.Message,
			Description: fmt.Sprintf("Generated access code %q does not satisfy the required format.", code),
		}, nil)
	}
	return code, nil
}

// ValidAccessCode checks a code against the strict accepted format.
func ValidAccessCode(code string) bool {
	return accessCodeRegex.MatchString(code)
}
