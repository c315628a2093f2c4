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

package schedulers

import (
	"context"
	"fmt"
	"time"

	recordstore "github.com/wso2/patient-data-service/internal/record/store"
	"github.com/wso2/patient-data-service/internal/system/config"
	"github.com/wso2/patient-data-service/internal/system/constants"
	"github.com/wso2/patient-data-service/internal/system/database/lock"
	"github.com/wso2/patient-data-service/internal/system/log"
	viewservice "github.com/wso2/patient-data-service/internal/views/service"
)

const sweepLockKey = "view-sweep"

// StartViewSweepScheduler periodically recomputes derived views of
// high-priority records so their reads never pay the recompute cost.
// An advisory lock keeps exactly one instance sweeping at a time when
// several service replicas share the database.
func StartViewSweepScheduler() {

	cfg := config.GetPDSRuntime().Config.Sweep
	if !cfg.Enabled {
		log.GetLogger().Info("View sweep scheduler is disabled.")
		return
	}

	interval := time.Duration(cfg.IntervalSeconds) * time.Second
	if cfg.IntervalSeconds <= 0 {
		interval = constants.DefaultSweepSeconds * time.Second
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			sweepHighPriorityViews()
		}
	}()

	log.GetLogger().Info(fmt.Sprintf("View sweep scheduler started with interval: %s", interval))
}

func sweepHighPriorityViews() {

	logger := log.GetLogger()

	pgLock := lock.NewPostgresLock()
	acquired, err := pgLock.Acquire(sweepLockKey)
	if err != nil {
		logger.Warn("Failed to acquire sweep lock.", log.Error(err))
		return
	}
	if !acquired {
		logger.Debug("Another instance is sweeping. Skipping this round.")
		return
	}
	defer func() {
		if err := pgLock.Release(sweepLockKey); err != nil {
			logger.Warn("Failed to release sweep lock.", log.Error(err))
		}
	}()

	recordIds, err := recordstore.GetHighPriorityRecordIds()
	if err != nil {
		logger.Warn("Failed to list high priority records for sweep.", log.Error(err))
		return
	}
	if len(recordIds) == 0 {
		return
	}

	views := viewservice.GetViewService()
	for _, recordId := range recordIds {
		views.RefreshRecordViews(context.Background(), recordId)
	}
	logger.Debug("View sweep completed.", log.Int("records", len(recordIds)))
}
