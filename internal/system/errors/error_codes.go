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

package errors

const errorPrefix = "PDS-"

var (
	// Server error codes

	DB_CLIENT_INIT = ErrorMessage{
		Code:    errorPrefix + "15001",
		Message: "Unable to initialize database client.",
	}

	EXECUTE_QUERY = ErrorMessage{
		Code:    errorPrefix + "15002",
		Message: "Error while executing database query.",
	}

	BEGIN_TRANSACTION = ErrorMessage{
		Code:    errorPrefix + "15003",
		Message: "Error while starting a database transaction.",
	}

	COMMIT_TRANSACTION = ErrorMessage{
		Code:    errorPrefix + "15004",
		Message: "Error while committing a database transaction.",
	}

	LOCK_ACQUIRE = ErrorMessage{
		Code:    errorPrefix + "15005",
		Message: "Advisory lock acquisition failed.",
	}

	LOCK_RELEASE = ErrorMessage{
		Code:    errorPrefix + "15006",
		Message: "Error while releasing the advisory lock.",
	}

	LOCK_KEY_GEN = ErrorMessage{
		Code:    errorPrefix + "15007",
		Message: "Error generating advisory lock key.",
	}

	LOCK_RESULT_INVALID = ErrorMessage{
		Code:    errorPrefix + "15008",
		Message: "Invalid response from advisory lock query.",
	}

	MARSHAL_JSON = ErrorMessage{
		Code:    errorPrefix + "15009",
		Message: "Error while marshalling JSON.",
	}

	UNMARSHAL_JSON = ErrorMessage{
		Code:    errorPrefix + "15010",
		Message: "Error while un-marshalling JSON.",
	}

	INSERT_RECORD = ErrorMessage{
		Code:    errorPrefix + "15011",
		Message: "Error while persisting the patient record.",
	}

	UPDATE_RECORD = ErrorMessage{
		Code:    errorPrefix + "15012",
		Message: "Error while updating the patient record.",
	}

	FETCH_RECORD = ErrorMessage{
		Code:    errorPrefix + "15013",
		Message: "Error while fetching the patient record.",
	}

	INSERT_MERGE_HISTORY = ErrorMessage{
		Code:    errorPrefix + "15014",
		Message: "Error while appending the merge history entry.",
	}

	FETCH_MERGE_HISTORY = ErrorMessage{
		Code:    errorPrefix + "15015",
		Message: "Error while fetching merge history.",
	}

	SEQUENCE_INCREMENT = ErrorMessage{
		Code:    errorPrefix + "15016",
		Message: "Error while incrementing the record identifier sequence.",
	}

	GENERATION_EXHAUSTED = ErrorMessage{
		Code:    errorPrefix + "15017",
		Message: "Access code generation retries exhausted.",
	}

	CONCURRENCY_CONFLICT = ErrorMessage{
		Code:    errorPrefix + "15018",
		Message: "Concurrent record update retries exhausted.",
	}

	VIEW_STORE = ErrorMessage{
		Code:    errorPrefix + "15019",
		Message: "Error while accessing the derived view store.",
	}

	VIEW_COMPUTE = ErrorMessage{
		Code:    errorPrefix + "15020",
		Message: "Error while recomputing the derived view.",
	}

	PARSING_ERROR = ErrorMessage{
		Code:    errorPrefix + "15021",
		Message: "Error while parsing the authentication token.",
	}

	// Client error codes

	BAD_REQUEST = ErrorMessage{
		Code:    errorPrefix + "11001",
		Message: "Invalid request payload.",
	}

	INVALID_FORMAT = ErrorMessage{
		Code:    errorPrefix + "11002",
		Message: "Malformed identity attribute.",
	}

	AMBIGUOUS_MATCH = ErrorMessage{
		Code:        errorPrefix + "11003",
		Message:     "Fragment matches more than one patient record.",
		Description: "Manual disambiguation is required; the fragment was not merged.",
	}

	RECORD_NOT_FOUND = ErrorMessage{
		Code:    errorPrefix + "11004",
		Message: "Patient record not found.",
	}

	VIEW_NOT_FOUND = ErrorMessage{
		Code:    errorPrefix + "11005",
		Message: "Unknown derived view.",
	}

	INVALID_CURSOR = ErrorMessage{
		Code:    errorPrefix + "11006",
		Message: "Invalid history cursor.",
	}

	INVALID_MERGE_STRATEGY = ErrorMessage{
		Code:    errorPrefix + "11007",
		Message: "Invalid merge strategy.",
	}

	UNKNOWN_FIELD = ErrorMessage{
		Code:    errorPrefix + "11008",
		Message: "Unknown patient record field.",
	}

	UNAUTHORIZED = ErrorMessage{
		Code:    errorPrefix + "11009",
		Message: "Request authentication failed.",
	}
)
