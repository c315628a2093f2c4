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
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/wso2/patient-data-service/internal/system/config"
	"github.com/wso2/patient-data-service/internal/system/database/provider"
	"github.com/wso2/patient-data-service/internal/system/log"
	"github.com/wso2/patient-data-service/internal/system/workers"
	"github.com/wso2/patient-data-service/test/setup"
)

func TestMain(m *testing.M) {
	ctx := context.Background()
	os.Setenv("TEST_MODE", "true")

	conf := config.Config{
		Log: config.LogConfig{LogLevel: "debug"},
	}
	config.OverridePDSRuntime(conf)
	_ = log.Init("debug")

	pg, err := setup.SetupTestPostgres(ctx)
	if err != nil {
		fmt.Println("Failed to start test postgres:", err)
		os.Exit(1)
	}
	provider.SetTestDB(pg.DB)

	schemaFile := filepath.Join("..", "..", "dbscripts", "postgres.sql")
	schemaBytes, err := os.ReadFile(schemaFile)
	if err != nil {
		fmt.Println("Failed to read schema file:", err)
		os.Exit(1)
	}
	if _, err := pg.DB.Exec(string(schemaBytes)); err != nil {
		fmt.Println("Failed to apply schema:", err)
		os.Exit(1)
	}

	mg, err := setup.SetupTestMongo(ctx)
	if err != nil {
		fmt.Println("Failed to start test mongo:", err)
		os.Exit(1)
	}
	provider.OverrideMongoDBInstance(&provider.MongoDB{
		Client:   mg.Client,
		Database: mg.Client.Database("patient_views_test"),
	})

	workers.StartFactChangeWorker()

	code := m.Run()

	_ = pg.Container.Terminate(ctx)
	_ = mg.Container.Terminate(ctx)
	os.Exit(code)
}
