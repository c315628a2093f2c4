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

package events

// FactChangeEvent announces that a merge bumped one fact category of a
// record. Consumers use it to refresh derived views ahead of demand;
// correctness never depends on delivery because view validity is
// re-derived from fact versions on every read.
type FactChangeEvent struct {
	RecordId     string
	Category     string
	NewVersion   int64
	HighPriority bool
}
