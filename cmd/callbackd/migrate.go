package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-payment-callbacks/internal/config"
	"github.com/tbourn/go-payment-callbacks/internal/repo"
	"github.com/tbourn/go-payment-callbacks/internal/sysutil"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		Long: `Create or update the callback tables (unsolicited_transactions,
push_transactions, sales, callback_events) in the configured database.

Examples:
  callbackd migrate
  DB_DRIVER=postgres DATABASE_URL=postgres://... callbackd migrate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			lg := sysutil.SetupLogging(cfg.LogLevel, cfg.LogPretty, os.Stdout)

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			if err := repo.AutoMigrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
			lg.Info().Str("db_driver", cfg.DB.Driver).Msg("schema up to date")
			return nil
		},
	}
}
