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

package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// HistoryCursor marks a restart position inside a record's merge history.
// Ordering is (created_at, sequence), matching commit order.
type HistoryCursor struct {
	CreatedAt time.Time
	Sequence  int64
}

func EncodeHistoryCursor(c HistoryCursor) string {
	raw := fmt.Sprintf("%s|%d", c.CreatedAt.UTC().Format(time.RFC3339Nano), c.Sequence)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func DecodeHistoryCursor(s string) (*HistoryCursor, error) {
	if s == "" {
		return nil, nil
	}

	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor encoding")
	}

	parts := strings.SplitN(string(b), "|", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid cursor format")
	}

	t, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp")
	}

	seq, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil || seq < 0 {
		return nil, fmt.Errorf("invalid cursor sequence")
	}

	return &HistoryCursor{CreatedAt: t.UTC(), Sequence: seq}, nil
}
