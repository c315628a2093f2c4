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
	"encoding/json"
	"net/http"

	"github.com/wso2/patient-data-service/internal/merge/model"
	"github.com/wso2/patient-data-service/internal/merge/service"
	"github.com/wso2/patient-data-service/internal/system/authn"
	errors2 "github.com/wso2/patient-data-service/internal/system/errors"
	"github.com/wso2/patient-data-service/internal/system/utils"
)

type FragmentHandler struct{}

func NewFragmentHandler() *FragmentHandler {
	return &FragmentHandler{}
}

// SubmitFragment handles fragment ingress. A fragment either creates a
// new canonical record or merges into the one it resolves to; the
// response summary says which.
func (fh *FragmentHandler) SubmitFragment(w http.ResponseWriter, r *http.Request) {

	if err := authn.ValidateRequest(r); err != nil {
		utils.HandleError(w, err)
		return
	}

	var fragment model.IdentityFragment
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&fragment); err != nil {
		description := utils.HandleDecodeError(err, "fragment")
		utils.WriteErrorResponse(w, errors2.NewClientError(errors2.ErrorMessage{
			Code:        errors2.BAD_REQUEST.Code,
			Message:     errors2.BAD_REQUEST.Message,
			Description: description,
		}, http.StatusBadRequest))
		return
	}

	summary, err := service.GetMergeService().Apply(&fragment)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	status := http.StatusOK
	if summary.Created {
		status = http.StatusCreated
	}
	utils.WriteJSONResponse(w, status, summary)
}
