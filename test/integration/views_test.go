/*
 * Copyright (c) 2026, WSO2 LLC. (http://www.wso2.com).
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

package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mergemodel "github.com/wso2/patient-data-service/internal/merge/model"
	mergeservice "github.com/wso2/patient-data-service/internal/merge/service"
	"github.com/wso2/patient-data-service/internal/system/constants"
	"github.com/wso2/patient-data-service/internal/system/errors"
	viewservice "github.com/wso2/patient-data-service/internal/views/service"
)

func TestViews_LazyComputeAndInvalidation(t *testing.T) {
	ctx := context.Background()
	engine := mergeservice.GetMergeService()
	views := viewservice.GetViewService()

	created, err := engine.Apply(&mergemodel.IdentityFragment{
		SourceTag: "pharmacy",
		Phone:     freshPhone(),
		Fields:    map[string]interface{}{"medications": []interface{}{"Metformin"}},
	})
	require.NoError(t, err)

	first, err := views.GetView(ctx, created.RecordId, constants.ViewActiveMedications)
	require.NoError(t, err)
	assert.Contains(t, first.Payload["medications"], "Metformin")

	// A second read without fact changes serves the same computation.
	again, err := views.GetView(ctx, created.RecordId, constants.ViewActiveMedications)
	require.NoError(t, err)
	assert.Equal(t, first.ComputedAt, again.ComputedAt)

	// A clinical merge makes the cached view stale; the next read
	// recomputes with a higher source version.
	_, err = engine.Apply(&mergemodel.IdentityFragment{
		SourceTag:  "pharmacy",
		RecordRef:  created.RecordId,
		Fields:     map[string]interface{}{"medications": []interface{}{"Atorvastatin"}},
		Strategies: map[string]string{"medications": constants.StrategyAppend},
	})
	require.NoError(t, err)

	refreshed, err := views.GetView(ctx, created.RecordId, constants.ViewActiveMedications)
	require.NoError(t, err)
	assert.Contains(t, refreshed.Payload["medications"], "Atorvastatin")
	assert.Greater(t, refreshed.SourceFactVersion, first.SourceFactVersion)
}

func TestViews_NonDependencyChangeDoesNotInvalidate(t *testing.T) {
	ctx := context.Background()
	engine := mergeservice.GetMergeService()
	views := viewservice.GetViewService()

	created, err := engine.Apply(&mergemodel.IdentityFragment{
		SourceTag: "pharmacy",
		Phone:     freshPhone(),
		Fields:    map[string]interface{}{"medications": []interface{}{"Metformin"}},
	})
	require.NoError(t, err)

	first, err := views.GetView(ctx, created.RecordId, constants.ViewActiveMedications)
	require.NoError(t, err)

	// A demographics-only merge leaves the clinical view untouched.
	_, err = engine.Apply(&mergemodel.IdentityFragment{
		SourceTag: "registration-desk",
		RecordRef: created.RecordId,
		Fields:    map[string]interface{}{"first_name": "Jane"},
	})
	require.NoError(t, err)

	again, err := views.GetView(ctx, created.RecordId, constants.ViewActiveMedications)
	require.NoError(t, err)
	assert.Equal(t, first.ComputedAt, again.ComputedAt, "view only depends on clinical facts")
	assert.Equal(t, first.SourceFactVersion, again.SourceFactVersion)
}

func TestViews_DailySummary(t *testing.T) {
	ctx := context.Background()
	engine := mergeservice.GetMergeService()

	created, err := engine.Apply(&mergemodel.IdentityFragment{
		SourceTag: "registration-desk",
		Phone:     freshPhone(),
		Fields: map[string]interface{}{
			"first_name": "Jane",
			"last_name":  "Smith",
			"conditions": []interface{}{"Asthma"},
		},
	})
	require.NoError(t, err)

	view, err := viewservice.GetViewService().GetView(ctx, created.RecordId, constants.ViewDailySummary)
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", view.Payload["name"])
	assert.Contains(t, view.Payload["conditions"], "Asthma")
}

func TestViews_UnknownViewRejected(t *testing.T) {
	engine := mergeservice.GetMergeService()

	created, err := engine.Apply(&mergemodel.IdentityFragment{
		SourceTag: "portal",
		Phone:     freshPhone(),
	})
	require.NoError(t, err)

	_, err = viewservice.GetViewService().GetView(context.Background(), created.RecordId, "discharge_letter")
	require.Error(t, err)
	clientErr, ok := err.(*errors.ClientError)
	require.True(t, ok)
	assert.Equal(t, errors.VIEW_NOT_FOUND.Code, clientErr.Code)
}
