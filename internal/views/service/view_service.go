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

// Package service serves derived views lazily: a read returns the
// cached projection when it is still covered by the record's fact
// versions, and recomputes it otherwise. Staleness is monotonic; once
// a merge bumps a dependency category the old view can never be served
// again, even if the recompute that follows crashes halfway.
package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	recordmodel "github.com/wso2/patient-data-service/internal/record/model"
	recordstore "github.com/wso2/patient-data-service/internal/record/store"
	"github.com/wso2/patient-data-service/internal/system/cache"
	errors2 "github.com/wso2/patient-data-service/internal/system/errors"
	"github.com/wso2/patient-data-service/internal/system/log"
	"github.com/wso2/patient-data-service/internal/views/model"
	"github.com/wso2/patient-data-service/internal/views/store"
)

// hotViews keeps recently served views in memory ahead of the document
// store. Entries are validated against fact versions on every hit, so a
// stale in-memory copy is never served.
var hotViews = cache.NewCache(5 * time.Minute)

// ViewServiceInterface serves and refreshes derived views.
type ViewServiceInterface interface {
	GetView(ctx context.Context, recordId, viewName string) (*model.DerivedView, error)
	RefreshRecordViews(ctx context.Context, recordId string)
	DropRecordViews(ctx context.Context, recordId string) error
}

type ViewService struct{}

func GetViewService() ViewServiceInterface {
	return &ViewService{}
}

// GetView returns the requested view, recomputing it when the cached
// copy is stale, expired or absent.
func (vs *ViewService) GetView(ctx context.Context, recordId, viewName string) (*model.DerivedView, error) {

	def, ok := ViewDefByName(viewName)
	if !ok {
		return nil, errors2.NewClientError(errors2.ErrorMessage{
			Code:        errors2.VIEW_NOT_FOUND.Code,
			Message:     errors2.VIEW_NOT_FOUND.Message,
			Description: fmt.Sprintf("View %q is not registered.", viewName),
		}, http.StatusNotFound)
	}

	record, err := recordstore.GetRecordById(recordId)
	if err != nil {
		return nil, err
	}
	if record == nil || !record.Active {
		return nil, errors2.NewClientError(errors2.ErrorMessage{
			Code:        errors2.RECORD_NOT_FOUND.Code,
			Message:     errors2.RECORD_NOT_FOUND.Message,
			Description: fmt.Sprintf("Record %s does not exist or is inactive.", recordId),
		}, http.StatusNotFound)
	}

	currentVersion := dependencyVersion(record, def)
	now := time.Now().UTC()

	if cached, hit := hotViews.Get(viewKey(recordId, viewName)); hit {
		if view, ok := cached.(*model.DerivedView); ok && view.Valid(currentVersion, now) {
			return view, nil
		}
	}

	stored, err := store.FindView(ctx, recordId, viewName)
	if err != nil {
		return nil, err
	}
	if stored != nil && stored.Valid(currentVersion, now) {
		hotViews.Set(viewKey(recordId, viewName), stored)
		return stored, nil
	}

	return vs.recompute(ctx, record, def, currentVersion, now)
}

// recompute builds the view from the record snapshot the version was
// read from. Persisting the snapshot's version, not a re-read one,
// keeps staleness monotonic under concurrent merges.
func (vs *ViewService) recompute(ctx context.Context, record *recordmodel.CanonicalRecord, def ViewDef,
	snapshotVersion int64, now time.Time) (*model.DerivedView, error) {

	view := &model.DerivedView{
		RecordId:          record.RecordId,
		ViewName:          def.Name,
		Payload:           def.Compute(record),
		SourceFactVersion: snapshotVersion,
		ComputedAt:        now,
		ExpiresAt:         now.Add(def.TTL),
	}

	if err := store.UpsertView(ctx, view); err != nil {
		return nil, err
	}
	hotViews.Set(viewKey(record.RecordId, def.Name), view)

	log.GetLogger().Debug("Recomputed derived view.",
		log.String("recordId", record.RecordId), log.String("view", def.Name),
		log.Int64("factVersion", snapshotVersion))
	return view, nil
}

// RefreshRecordViews recomputes every registered view of a record.
// Used by the fact change worker and the sweep scheduler; failures are
// logged and swallowed because lazy reads will recompute anyway.
func (vs *ViewService) RefreshRecordViews(ctx context.Context, recordId string) {

	logger := log.GetLogger()
	for _, name := range ViewNames() {
		if _, err := vs.GetView(ctx, recordId, name); err != nil {
			logger.Warn(fmt.Sprintf("Failed to refresh view: %s for record: %s", name, recordId),
				log.Error(err))
		}
	}
}

// DropRecordViews removes all cached views of a record.
func (vs *ViewService) DropRecordViews(ctx context.Context, recordId string) error {

	for _, name := range ViewNames() {
		hotViews.Delete(viewKey(recordId, name))
	}
	return store.DeleteViewsForRecord(ctx, recordId)
}

// dependencyVersion sums the record's current fact versions over the
// view's dependency categories. The sum only moves forward, which is
// what makes view validity comparisons monotonic.
func dependencyVersion(record *recordmodel.CanonicalRecord, def ViewDef) int64 {
	var total int64
	for _, category := range def.Categories {
		total += record.FactVersions[category]
	}
	return total
}

func viewKey(recordId, viewName string) string {
	return recordId + "|" + viewName
}
