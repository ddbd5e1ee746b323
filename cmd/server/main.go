package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/UkralStul/blog-api/internal/config"
)

var (
	// Глобальные флаги
	configPath  string
	storageType string
)

var rootCmd = &cobra.Command{
	Use:   "blog-api",
	Short: "Blog REST API with a WebSocket echo channel",
	Long: `Blog API serves users, blog posts and comments over REST (/api/...)
and an echo channel over WebSocket (/ws).

Without a subcommand the server is started, same as "blog-api serve".`,
	SilenceUsage: true,
	RunE:         runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&storageType, "storage", "", "Storage type: postgres, sqlite or memory (overrides STORAGE)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	addServeFlags(rootCmd)
	addServeFlags(serveCmd)
}

// loadConfig собирает конфигурацию и накладывает глобальные флаги поверх окружения.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("storage") {
		cfg.Database.Driver = storageType
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
