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

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/wso2/patient-data-service/internal/system/database/provider"
	"github.com/wso2/patient-data-service/internal/system/utils"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// HandleHealth reports process liveness.
func (hh *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "UP"})
}

// HandleReadiness reports whether both backing stores answer.
func (hh *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {

	checks := map[string]string{"database": "UP", "view_store": "UP"}
	healthy := true

	dbClient, err := provider.NewDBProvider().GetDBClient()
	if err != nil {
		checks["database"] = "DOWN"
		healthy = false
	} else {
		if _, err := dbClient.ExecuteQuery("SELECT 1"); err != nil {
			checks["database"] = "DOWN"
			healthy = false
		}
		_ = dbClient.Close()
	}

	mongoDB, err := provider.GetMongoDBInstance()
	if err != nil {
		checks["view_store"] = "DOWN"
		healthy = false
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		if err := mongoDB.Client.Ping(ctx, nil); err != nil {
			checks["view_store"] = "DOWN"
			healthy = false
		}
		cancel()
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	utils.WriteJSONResponse(w, status, checks)
}
