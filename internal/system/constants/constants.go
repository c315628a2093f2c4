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

package constants

import "time"

const (
	ApiBasePath = "/api/v1"
)

const (
	MaxRetryAttempts = 5
	RetryDelay       = 100 * time.Millisecond
	DefaultQueueSize = 256
)

// Merge strategies applicable to a fragment field.
const (
	StrategyOverwrite    = "overwrite"
	StrategyAppend       = "append"
	StrategyKeepExisting = "keepExisting"
)

var AllowedMergeStrategies = map[string]bool{
	StrategyOverwrite:    true,
	StrategyAppend:       true, // Only valid for multi-valued fields.
	StrategyKeepExisting: true,
}

// Fact categories group record fields for derived-view dependency tracking.
const (
	CategoryIdentity     = "identity"
	CategoryDemographics = "demographics"
	CategoryContact      = "contact"
	CategoryClinical     = "clinical"
)

var AllowedFactCategories = map[string]bool{
	CategoryIdentity:     true,
	CategoryDemographics: true,
	CategoryContact:      true,
	CategoryClinical:     true,
}

// Derived view names owned by this service.
const (
	ViewActiveMedications = "active_medications"
	ViewDailySummary      = "daily_summary"
)

const (
	DerivedViewCollection = "derived_views"
)

// Internal record identifiers are sequential within a calendar-year scope.
const (
	RecordIdPrefix     = "PR"
	AccessCodePattern  = `^[0-9]{4}-[0-9]{4}$`
	AccessCodeAttempts = 5
)

const (
	DefaultViewTTL      = 24 * time.Hour
	DefaultSweepSeconds = 300
)
