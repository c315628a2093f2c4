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

package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wso2/patient-data-service/internal/system/constants"
	"github.com/wso2/patient-data-service/internal/system/database/provider"
	errors2 "github.com/wso2/patient-data-service/internal/system/errors"
	"github.com/wso2/patient-data-service/internal/views/model"
)

func viewCollection() (*mongo.Collection, error) {
	db, err := provider.GetMongoDBInstance()
	if err != nil {
		return nil, errors2.NewServerError(errors2.VIEW_STORE, err)
	}
	return db.Database.Collection(constants.DerivedViewCollection), nil
}

// UpsertView stores the freshly computed view, keyed by (record_id,
// view_name). Concurrent recomputes simply overwrite each other;
// both were computed from at-least-as-fresh facts.
func UpsertView(ctx context.Context, view *model.DerivedView) error {

	collection, err := viewCollection()
	if err != nil {
		return err
	}

	filter := bson.M{"record_id": view.RecordId, "view_name": view.ViewName}
	update := bson.M{"$set": view}
	opts := options.Update().SetUpsert(true)

	if _, err := collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return errors2.NewServerError(errors2.VIEW_STORE, err)
	}
	return nil
}

// FindView fetches the stored view, or nil when never computed.
func FindView(ctx context.Context, recordId, viewName string) (*model.DerivedView, error) {

	collection, err := viewCollection()
	if err != nil {
		return nil, err
	}

	var view model.DerivedView
	err = collection.FindOne(ctx, bson.M{"record_id": recordId, "view_name": viewName}).Decode(&view)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors2.NewServerError(errors2.VIEW_STORE, err)
	}
	return &view, nil
}

// DeleteViewsForRecord drops every cached view of a record. Called on
// record deactivation.
func DeleteViewsForRecord(ctx context.Context, recordId string) error {

	collection, err := viewCollection()
	if err != nil {
		return err
	}

	if _, err := collection.DeleteMany(ctx, bson.M{"record_id": recordId}); err != nil {
		return errors2.NewServerError(errors2.VIEW_STORE, err)
	}
	return nil
}
