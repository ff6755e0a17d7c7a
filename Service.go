package main

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/bim-export/bim-export-service/client"
	"github.com/bim-export/bim-export-service/config"
	"github.com/bim-export/bim-export-service/controller"
	"github.com/bim-export/bim-export-service/middleware"
	"github.com/bim-export/bim-export-service/service"
	"github.com/bim-export/bim-export-service/utils"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"gopkg.in/natefinch/lumberjack.v2"
)

func init() {
	log.SetFormatter(&prefixed.TextFormatter{
		DisableColors:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	})
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %s", err.Error())
	}
	configureLogging(cfg.TechnicalParameters)
	utils.PrintConfig(cfg)

	apsClient := client.NewApsClient(cfg.Aps)
	manifestService := service.NewManifestService()
	treeService := service.NewTreeService(apsClient, manifestService, cfg.Aps)
	signedUrlService := service.NewSignedUrlService(apsClient)
	downloadService := service.NewDownloadService(signedUrlService, apsClient, cfg.Aps)

	treeController := controller.NewTreeController(treeService)
	downloadController := controller.NewDownloadController(downloadService)
	derivativeController := controller.NewDerivativeController(apsClient)

	r := mux.NewRouter()
	if cfg.Monitoring.Enabled {
		r.Use(middleware.PrometheusMiddleware)
		r.Path("/metrics").Handler(promhttp.Handler()).Methods(http.MethodGet)
	}

	base := strings.TrimSuffix(cfg.TechnicalParameters.BasePath, "/")

	// download responses are already compressed streams, keep them off the
	// gzip path
	r.HandleFunc(base+"/md/download", downloadController.GetDownload).Methods(http.MethodGet)
	r.HandleFunc(base+"/md/downloadAll", downloadController.PostDownloadAll).Methods(http.MethodPost)

	dm := r.PathPrefix(base + "/dm").Subrouter()
	dm.Use(handlers.CompressHandler)
	dm.HandleFunc("/treeNode", treeController.GetTreeNode).Methods(http.MethodGet)
	dm.HandleFunc("/projects", treeController.GetProjects).Methods(http.MethodGet)

	md := r.PathPrefix(base + "/md").Subrouter()
	md.Use(handlers.CompressHandler)
	md.HandleFunc("/formats", derivativeController.GetFormats).Methods(http.MethodGet)
	md.HandleFunc("/manifests/{urn}", derivativeController.GetManifest).Methods(http.MethodGet)
	md.HandleFunc("/manifests/{urn}", derivativeController.DeleteManifest).Methods(http.MethodDelete)
	md.HandleFunc("/metadatas/{urn}", derivativeController.GetMetadata).Methods(http.MethodGet)
	md.HandleFunc("/hierarchy", derivativeController.GetHierarchy).Methods(http.MethodGet)
	md.HandleFunc("/properties", derivativeController.GetProperties).Methods(http.MethodGet)
	md.HandleFunc("/export", derivativeController.PostExport).Methods(http.MethodPost)

	srv := &http.Server{
		Addr:         cfg.TechnicalParameters.ListenAddress,
		WriteTimeout: 600 * time.Second,
		ReadTimeout:  60 * time.Second,
		IdleTimeout:  60 * time.Second,
		Handler:      handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(r),
	}

	log.Infof("Listening on %s", cfg.TechnicalParameters.ListenAddress)
	log.Fatalf("Server stopped: %s", srv.ListenAndServe())
}

func configureLogging(params config.TechnicalParameters) {
	level, err := log.ParseLevel(params.LogLevel)
	if err != nil {
		log.Warnf("Unknown log level '%s', falling back to info", params.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if params.LogFile != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   params.LogFile,
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   false,
		})
	} else {
		log.SetOutput(os.Stdout)
	}
}
