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
	"net/http"
	"strconv"

	"github.com/wso2/patient-data-service/internal/record/service"
	"github.com/wso2/patient-data-service/internal/system/authn"
	"github.com/wso2/patient-data-service/internal/system/utils"
)

type RecordHandler struct{}

func NewRecordHandler() *RecordHandler {
	return &RecordHandler{}
}

// GetRecord returns the canonical record by its internal identifier.
func (rh *RecordHandler) GetRecord(w http.ResponseWriter, r *http.Request) {

	if err := authn.ValidateRequest(r); err != nil {
		utils.HandleError(w, err)
		return
	}

	record, err := service.GetRecordService().GetRecord(r.PathValue("id"))
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, record)
}

// GetHistory returns one page of the record's merge history. Accepts
// optional cursor and limit query parameters.
func (rh *RecordHandler) GetHistory(w http.ResponseWriter, r *http.Request) {

	if err := authn.ValidateRequest(r); err != nil {
		utils.HandleError(w, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	page, err := service.GetRecordService().GetHistory(r.PathValue("id"), r.URL.Query().Get("cursor"), limit)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, page)
}

// ResetAccessCode rotates the record's human-facing access code and
// returns the new value exactly once.
func (rh *RecordHandler) ResetAccessCode(w http.ResponseWriter, r *http.Request) {

	if err := authn.ValidateRequest(r); err != nil {
		utils.HandleError(w, err)
		return
	}

	code, err := service.GetRecordService().ResetAccessCode(r.PathValue("id"))
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"access_code": code})
}

// DeactivateRecord soft-deactivates the record.
func (rh *RecordHandler) DeactivateRecord(w http.ResponseWriter, r *http.Request) {

	if err := authn.ValidateRequest(r); err != nil {
		utils.HandleError(w, err)
		return
	}

	if err := service.GetRecordService().DeactivateRecord(r.PathValue("id")); err != nil {
		utils.HandleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
