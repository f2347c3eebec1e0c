package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"casilleros-backend/internal/db"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			gormDB, err := db.Init(&cfg.Database, logger)
			if err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
			if sqlDB, err := gormDB.DB(); err == nil {
				sqlDB.Close()
			}
			logger.Info("schema up to date", zap.String("driver", cfg.Database.Driver))
			return nil
		},
	}
}
