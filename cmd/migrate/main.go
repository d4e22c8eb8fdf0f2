// cmd/migrate/main.go
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gurkanbulca/taskhub/internal/config"
	"github.com/gurkanbulca/taskhub/internal/database"
	"github.com/gurkanbulca/taskhub/internal/logger"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var timeout time.Duration

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the taskhub Postgres schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "time limit for the whole operation")

	root.AddCommand(
		newMigrationCommand("up", "Apply all pending migrations", &timeout, database.MigrateUp),
		newMigrationCommand("down", "Roll back the latest migration", &timeout, database.MigrateDown),
		newMigrationCommand("status", "Show the state of every migration", &timeout, database.MigrateStatus),
	)
	return root
}

type migrationFunc func(ctx context.Context, db *sql.DB) error

func newMigrationCommand(use, short string, timeout *time.Duration, fn migrationFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log, err := logger.New(cfg.Logging.Level, cfg.Server.Environment)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), *timeout)
			defer cancel()

			db, err := database.NewPostgres(ctx, database.Config{DSN: cfg.Database.DSN(), MaxOpenConns: 1}, log)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := fn(ctx, db.DB); err != nil {
				return err
			}
			log.Infow("migration finished", "command", use)
			return nil
		},
	}
}
