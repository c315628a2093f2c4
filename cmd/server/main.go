package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/wso2/patient-data-service/internal/events"
	"github.com/wso2/patient-data-service/internal/system/config"
	"github.com/wso2/patient-data-service/internal/system/constants"
	"github.com/wso2/patient-data-service/internal/system/database/provider"
	"github.com/wso2/patient-data-service/internal/system/log"
	"github.com/wso2/patient-data-service/internal/system/managers"
	"github.com/wso2/patient-data-service/internal/system/schedulers"
	"github.com/wso2/patient-data-service/internal/system/workers"
	viewservice "github.com/wso2/patient-data-service/internal/views/service"
)

const configFile = "repository/conf/deployment.yaml"
const schemaFile = "dbscripts/postgres.sql"

func main() {

	pdsHome := getPDSHome()

	if envFiles, err := filepath.Glob(filepath.Join(pdsHome, "repository/conf/*.env")); err == nil {
		_ = godotenv.Load(envFiles...)
	}

	pdsConfig, err := config.LoadConfig(pdsHome, configFile)
	if err != nil {
		stdlog.Fatalf("Failed to load configuration: %v", err)
	}

	if err := config.InitializePDSRuntime(pdsHome, pdsConfig); err != nil {
		stdlog.Fatalf("Failed to initialize runtime: %v", err)
	}

	if err := log.Init(pdsConfig.Log.LogLevel); err != nil {
		stdlog.Fatalf("Failed to initialize logger: %v", err)
	}
	logger := log.GetLogger()

	initDatabase(pdsHome)

	// Views of high-priority patients are refreshed as soon as their
	// facts change; everyone else recomputes lazily on read.
	workers.StartFactChangeWorker(func(event events.FactChangeEvent) {
		if event.HighPriority {
			viewservice.GetViewService().RefreshRecordViews(context.Background(), event.RecordId)
		}
	})

	schedulers.StartViewSweepScheduler()

	mux := http.NewServeMux()
	serviceManager := managers.NewServiceManager(mux)
	if err := serviceManager.RegisterServices(constants.ApiBasePath); err != nil {
		logger.Fatal("Failed to register the services.", log.Error(err))
	}

	serverAddr := fmt.Sprintf("%s:%d", pdsConfig.Addr.Host, pdsConfig.Addr.Port)
	ln, err := net.Listen("tcp", serverAddr)
	if err != nil {
		logger.Fatal("Failed to start listener.", log.Error(err))
	}

	logger.Info(fmt.Sprintf("Patient data service started on: %s", serverAddr))

	server := &http.Server{Handler: enableCORS(mux)}
	if err := server.Serve(ln); err != nil {
		logger.Fatal("Failed to serve requests.", log.Error(err))
	}
}

func initDatabase(pdsHome string) {

	dbClient, err := provider.NewDBProvider().GetDBClient()
	if err != nil {
		stdlog.Fatalf("Failed to connect to the database: %v", err)
	}
	defer dbClient.Close()

	if err := dbClient.InitDatabase(pdsHome, schemaFile); err != nil {
		stdlog.Fatalf("Failed to initialize the database schema: %v", err)
	}
}

func enableCORS(next http.Handler) http.Handler {

	allowed := config.GetPDSRuntime().Config.Auth.CORSAllowedOrigins
	origins := map[string]bool{}
	for _, origin := range allowed {
		origins[origin] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (origins["*"] || origins[origin]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func getPDSHome() string {

	projectHomeFlag := flag.String("pdsHome", "", "Path to the patient data service home directory")
	flag.Parse()

	if *projectHomeFlag != "" {
		return *projectHomeFlag
	}

	dir, err := os.Getwd()
	if err != nil {
		stdlog.Fatalf("Failed to get current working directory: %v", err)
	}
	return dir
}
