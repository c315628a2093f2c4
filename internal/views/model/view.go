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

import "time"

// DerivedView is a cached, versioned projection of one record. It is
// valid only while SourceFactVersion covers the current versions of the
// fact categories it was computed from and the TTL has not run out;
// otherwise the next read recomputes it. Views are disposable state,
// never a source of truth.
type DerivedView struct {
	RecordId          string                 `bson:"record_id" json:"record_id"`
	ViewName          string                 `bson:"view_name" json:"view_name"`
	Payload           map[string]interface{} `bson:"payload" json:"payload"`
	SourceFactVersion int64                  `bson:"source_fact_version" json:"source_fact_version"`
	ComputedAt        time.Time              `bson:"computed_at" json:"computed_at"`
	ExpiresAt         time.Time              `bson:"expires_at" json:"expires_at"`
}

// Valid reports whether the view can be served as-is against the given
// current fact version.
func (v *DerivedView) Valid(currentFactVersion int64, now time.Time) bool {
	return v.SourceFactVersion >= currentFactVersion && now.Before(v.ExpiresAt)
}
