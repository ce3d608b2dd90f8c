package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/timmy/gamedata/internal/config"
	"github.com/timmy/gamedata/internal/domain"
	"github.com/timmy/gamedata/internal/logger"
	"github.com/timmy/gamedata/internal/repository"
	"github.com/timmy/gamedata/internal/service"
	"github.com/timmy/gamedata/internal/source"
	"github.com/timmy/gamedata/internal/storage"
	"gorm.io/gorm"
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "gamedata-ingest",
	})
	logger.SetDefaultLogger(appLogger)

	fileURL := flag.String("url", "", "CSV location: http(s)://, s3://bucket/key, file:// or a local path")
	configPath := flag.String("config", "", "Path to config file")
	showStats := flag.Bool("stats", false, "Print catalog and task statistics instead of importing")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	if *showStats {
		if err := printStats(ctx, db); err != nil {
			appLogger.WithError(err).Fatal("Failed to collect statistics")
		}
		return
	}

	if *fileURL == "" {
		appLogger.Fatal("-url is required")
	}

	router := source.NewRouter().
		Register(source.NewHTTPFetcher(source.HTTPConfig{
			Timeout:      cfg.Ingest.FetchTimeout,
			MaxBodyBytes: cfg.Ingest.MaxBodyBytes,
		}), "http", "https").
		Register(source.NewFileFetcher("", cfg.Ingest.MaxBodyBytes), "file", "")
	if cfg.Storage.Enabled {
		store, err := storage.NewStorage(&cfg.Storage)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize storage")
		}
		router.Register(source.NewObjectFetcher(store, cfg.Ingest.FetchTimeout, cfg.Ingest.MaxBodyBytes), "s3")
	}

	if u, err := url.Parse(*fileURL); err != nil || !router.Supports(u.Scheme) {
		appLogger.WithField("url", *fileURL).Fatal("Unsupported source location")
	}

	appLogger.WithField(logger.FieldSourceURL, *fileURL).Info("Starting import")

	outcome, err := service.NewIngestService(db, router).ImportFromURL(ctx, *fileURL)
	if err != nil {
		appLogger.WithError(err).Fatal("Import failed")
	}

	appLogger.WithFields(logger.Fields{
		"status":    outcome.Status(),
		"succeeded": outcome.SuccessCount,
		"failed":    outcome.FailureCount,
	}).Info(outcome.Message())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(outcome)

	if outcome.Status() == domain.TaskStateFailed {
		os.Exit(1)
	}
}

type stats struct {
	Games      int64                          `json:"games"`
	References map[domain.ReferenceKind]int64 `json:"references"`
	Tasks      map[domain.TaskState]int64     `json:"tasks"`
}

func printStats(ctx context.Context, db *gorm.DB) error {
	games, err := repository.NewGameRepository(db).Count(ctx)
	if err != nil {
		return err
	}

	refs := repository.NewReferenceRepository(db)
	out := stats{Games: games, References: make(map[domain.ReferenceKind]int64, len(domain.ReferenceKinds))}
	for _, kind := range domain.ReferenceKinds {
		n, err := refs.Count(ctx, kind)
		if err != nil {
			return err
		}
		out.References[kind] = n
	}

	if out.Tasks, err = repository.NewTaskRepository(db).CountByState(ctx); err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
