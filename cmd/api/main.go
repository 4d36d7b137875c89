package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"resource-locator/internal/config"
	"resource-locator/internal/geocode"
	"resource-locator/internal/logging"
	"resource-locator/internal/notify"
	"resource-locator/internal/routes"
	"resource-locator/internal/search"
	"resource-locator/internal/store"
	"resource-locator/pkg/graceful"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := graceful.Context(context.Background(), logger)
	defer cancel()

	// 2. Connect DB
	db, err := config.ConnectDB(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := config.CloseDB(db); err != nil {
			logger.Warn("Closing database failed", zap.Error(err))
		}
	}()
	if cfg.Database.AutoMigrate {
		if err := config.Migrate(db); err != nil {
			logger.Fatal("Migration failed", zap.Error(err))
		}
	}

	// 3. Geocoder, event sinks, services
	geocoder, err := geocode.New(cfg.Geocoder)
	if err != nil {
		logger.Fatal("Failed to set up geocoder", zap.Error(err))
	}
	if cfg.Geocoder.Provider == "google" && cfg.Geocoder.APIKey == "" {
		logger.Warn("GOOGLE_MAPS_API_KEY is empty; geocoding requests will be rejected upstream")
	}

	publisher, err := notify.FromConfig(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to set up event publishers", zap.Error(err))
	}
	notifier := notify.NewNotifier(publisher, logger)
	defer func() {
		if err := notifier.Close(); err != nil {
			logger.Warn("Closing event publishers failed", zap.Error(err))
		}
	}()

	resources := store.NewResourceStore(db)
	submissions := store.NewSubmissionStore(db)

	// 4. Router
	router := routes.NewRouter(ctx, routes.Deps{
		Config:      cfg,
		Logger:      logger,
		Resources:   resources,
		Submissions: submissions,
		Search:      search.NewService(resources, geocoder, cfg.Search.NearbyLimit),
		Notifier:    notifier,
	})

	// 5. Run server until a termination signal
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server stopped unexpectedly", zap.Error(err))
		}
	case <-ctx.Done():
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.RequestTimeout+5*time.Second)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", zap.Error(err))
		}
	}
	logger.Info("Server stopped")
}
