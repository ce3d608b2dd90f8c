package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/timmy/gamedata/internal/api"
	"github.com/timmy/gamedata/internal/config"
	"github.com/timmy/gamedata/internal/logger"
	"github.com/timmy/gamedata/internal/repository"
	"github.com/timmy/gamedata/internal/service"
	"github.com/timmy/gamedata/internal/source"
	"github.com/timmy/gamedata/internal/storage"
	"gorm.io/gorm"
)

func main() {
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.GetDefault().WithError(err).Fatal("Failed to load config")
	}

	appLogger := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: cfg.Log.ServiceName,
		File:        cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
	})
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	fetcher, err := newFetcher(cfg)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize sources")
	}

	ingestService := service.NewIngestService(db, fetcher)
	taskService := service.NewTaskService(repository.NewTaskRepository(db), ingestService, &service.TaskConfig{
		Workers:   cfg.Ingest.Workers,
		QueueSize: cfg.Ingest.QueueSize,
	})
	catalogService := service.NewCatalogService(repository.NewGameRepository(db))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	taskService.Start(ctx)

	router := api.SetupRouter(&cfg.Server, api.Dependencies{
		Importer: ingestService,
		Tasks:    taskService,
		Catalog:  catalogService,
		PingDB:   func(ctx context.Context) error { return repository.Ping(ctx, db) },
		Logger:   appLogger,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}
	// Queued and running imports get whatever is left of the timeout.
	if err := taskService.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Warn("Import tasks did not finish before shutdown")
	}
	closeDB(db)

	appLogger.Info("Server exited")
}

// newFetcher registers http(s) and, when object storage is enabled, s3.
func newFetcher(cfg *config.Config) (*source.Router, error) {
	router := source.NewRouter().Register(source.NewHTTPFetcher(source.HTTPConfig{
		Timeout:      cfg.Ingest.FetchTimeout,
		MaxBodyBytes: cfg.Ingest.MaxBodyBytes,
	}), "http", "https")

	if !cfg.Storage.Enabled {
		return router, nil
	}
	store, err := storage.NewStorage(&cfg.Storage)
	if err != nil {
		return nil, err
	}
	logger.With(logger.Fields{"endpoint": cfg.Storage.Endpoint, "type": cfg.Storage.Type}).
		Info(context.Background(), "Object storage enabled for s3:// sources")
	return router.Register(source.NewObjectFetcher(store, cfg.Ingest.FetchTimeout, cfg.Ingest.MaxBodyBytes), "s3"), nil
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("Failed to close database: %v", err)
	}
}
