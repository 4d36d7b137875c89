package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"resource-locator/internal/config"
	"resource-locator/internal/logging"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "locatorctl",
		Short: "Maintenance commands for the resource locator",
		Long: `locatorctl manages the resource locator database.

Configuration is read from the same environment and .env files as the API
server (DB_DRIVER, DATABASE_URL, GEOCODER_PROVIDER, ...).`,
		SilenceUsage: true,
	}

	root.AddCommand(newMigrateCmd(), newBackfillCmd(), newHashPasswordCmd())
	return root
}

// env is the configuration, logger and database shared by commands that need
// the store.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
}

func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		return nil, err
	}
	db, err := config.ConnectDB(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, db: db}, nil
}

func (e *env) close() {
	_ = config.CloseDB(e.db)
	_ = e.logger.Sync()
}
