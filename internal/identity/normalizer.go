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

package identity

import (
	"fmt"
	"net/http"
	"strings"

	errors2 "github.com/wso2/patient-data-service/internal/system/errors"
)

// RawAttributes are the identity attributes of an incoming fragment
// before canonicalization.
type RawAttributes struct {
	Phone       string
	ExternalRef string
}

// NormalizedKeys are the comparable identity keys derived from raw
// attributes. MasterKey is the only deterministic match key; Display is
// a presentation form and is never used for matching.
type NormalizedKeys struct {
	MasterKey   string
	Display     string
	ExternalRef string
}

// Normalize canonicalizes raw identity attributes. It is a pure function:
// deterministic, side-effect free and safe for concurrent use.
func Normalize(raw RawAttributes) (*NormalizedKeys, error) {

	keys := &NormalizedKeys{
		ExternalRef: strings.ToUpper(strings.TrimSpace(raw.ExternalRef)),
	}

	if strings.TrimSpace(raw.Phone) == "" {
		return keys, nil
	}

	digits := stripNonDigits(raw.Phone)
	// A leading US/CA country prefix reduces to the national number.
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) < 10 {
		return nil, errors2.NewClientError(errors2.ErrorMessage{
			Code:        errors2.INVALID_FORMAT.Code,
			Message:     errors2.INVALID_FORMAT.Message,
			Description: fmt.Sprintf("Phone number normalizes to %d digits; at least 10 are required.", len(digits)),
		}, http.StatusBadRequest)
	}

	keys.MasterKey = digits
	keys.Display = formatDisplay(digits)
	return keys, nil
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// formatDisplay renders a 10-digit national number as "(XXX) XXX-XXXX".
// Longer numbers keep their digit string with a plus prefix.
func formatDisplay(digits string) string {
	if len(digits) == 10 {
		return fmt.Sprintf("(%s) %s-%s", digits[0:3], digits[3:6], digits[6:10])
	}
	return "+" + digits
}
