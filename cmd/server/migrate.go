package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/UkralStul/blog-api/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	Long: `Apply pending schema migrations to the configured SQL database.

Applied steps are recorded in the "migrations" table, so running the command
again is a no-op. The command waits for the database to come up first.

Examples:
  blog-api migrate
  blog-api migrate --storage sqlite`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Database.Driver == config.DriverMemory {
		return fmt.Errorf("nothing to migrate for %q storage", cfg.Database.Driver)
	}

	lg, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer lg.Sync()

	_, sqlStore, err := openStorage(cmd.Context(), cfg.Database, lg)
	if err != nil {
		return err
	}
	defer sqlStore.Close()

	applied, err := sqlStore.Migrate(cmd.Context(), lg)
	if err != nil {
		return err
	}
	lg.Info("database is up to date", zap.Strings("applied", applied))
	return nil
}
