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

// Package match resolves normalized identity keys to at most one
// existing canonical record. Resolution is strictly deterministic:
// exact master-key equality first, exact external-reference equality
// second. There is no fuzzy or probabilistic matching.
package match

import (
	"fmt"

	"github.com/wso2/patient-data-service/internal/identity"
	"github.com/wso2/patient-data-service/internal/record/model"
	"github.com/wso2/patient-data-service/internal/record/store"
	"github.com/wso2/patient-data-service/internal/system/errors"
	"github.com/wso2/patient-data-service/internal/system/log"
)

// RecordFinder abstracts the record lookups the resolver needs.
type RecordFinder interface {
	GetRecordByMasterKey(masterKey string) (*model.CanonicalRecord, error)
	GetRecordsByExternalRef(externalRef string) ([]model.CanonicalRecord, error)
}

type storeFinder struct{}

func (storeFinder) GetRecordByMasterKey(masterKey string) (*model.CanonicalRecord, error) {
	return store.GetRecordByMasterKey(masterKey)
}

func (storeFinder) GetRecordsByExternalRef(externalRef string) ([]model.CanonicalRecord, error) {
	return store.GetRecordsByExternalRef(externalRef)
}

// Resolver locates the canonical record a fragment belongs to.
type Resolver struct {
	finder RecordFinder
}

// NewResolver returns a resolver backed by the canonical record store.
func NewResolver() *Resolver {
	return &Resolver{finder: storeFinder{}}
}

// NewResolverWithFinder returns a resolver over a custom lookup source.
func NewResolverWithFinder(finder RecordFinder) *Resolver {
	return &Resolver{finder: finder}
}

// Resolve returns the matching record, or nil when no record matches
// and a new one should be created. A master-key hit always wins; the
// external reference is consulted only when no master key is present
// or the master key matched nothing. More than one external-reference
// hit is an ambiguous match and aborts resolution.
func (r *Resolver) Resolve(keys identity.NormalizedKeys) (*model.CanonicalRecord, error) {

	logger := log.GetLogger()

	if keys.MasterKey != "" {
		record, err := r.finder.GetRecordByMasterKey(keys.MasterKey)
		if err != nil {
			return nil, err
		}
		if record != nil {
			return record, nil
		}
	}

	if keys.ExternalRef == "" {
		return nil, nil
	}

	candidates, err := r.finder.GetRecordsByExternalRef(keys.ExternalRef)
	if err != nil {
		return nil, err
	}

	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		return &candidates[0], nil
	default:
		logger.Debug("External reference matched multiple records.",
			log.String("externalRef", keys.ExternalRef), log.Int("candidates", len(candidates)))
		return nil, errors.NewClientError(errors.ErrorMessage{
			Code:        errors.AMBIGUOUS_MATCH.Code,
			Message:     errors.AMBIGUOUS_MATCH.Message,
			Description: fmt.Sprintf("External reference matched %d records.", len(candidates)),
		}, 409)
	}
}
