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

package provider

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wso2/patient-data-service/internal/system/config"
)

// MongoDB wraps the client and database handle for the document store
// backing derived-view caches.
type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

var (
	mongoInstance *MongoDB
	mongoOnce     sync.Once
	mongoErr      error
)

// GetMongoDBInstance returns the shared MongoDB handle, connecting on first use.
func GetMongoDBInstance() (*MongoDB, error) {

	mongoOnce.Do(func() {
		cfg := config.GetPDSRuntime().Config.ViewStore

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		clientOpts := options.Client().ApplyURI(cfg.URI)
		mongoClient, err := mongo.Connect(ctx, clientOpts)
		if err != nil {
			mongoErr = err
			return
		}
		if err := mongoClient.Ping(ctx, nil); err != nil {
			mongoErr = err
			return
		}

		mongoInstance = &MongoDB{
			Client:   mongoClient,
			Database: mongoClient.Database(cfg.Database),
		}
	})

	return mongoInstance, mongoErr
}

// OverrideMongoDBInstance replaces the shared handle. Test use only.
func OverrideMongoDBInstance(db *MongoDB) {
	mongoInstance = db
	mongoOnce.Do(func() {})
}
