package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/UkralStul/blog-api/internal/api"
	"github.com/UkralStul/blog-api/internal/ws"
)

const shutdownTimeout = 10 * time.Second

var (
	// Флаги serve
	port      int
	echoDelay time.Duration
	seed      bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket server",
	Long: `Run the HTTP server: REST API under /api, echo channel on /ws.

SQL storages are migrated on start.

Examples:
  blog-api serve
  blog-api serve --storage memory --seed
  blog-api serve --port 9000 --echo-delay 250ms`,
	RunE: runServe,
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&port, "port", 0, "HTTP port (overrides PORT)")
	cmd.Flags().DurationVar(&echoDelay, "echo-delay", 0, "Delay before the echo reply (overrides ECHO_DELAY)")
	cmd.Flags().BoolVar(&seed, "seed", false, "Fill storage with demo data on start")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = port
	}
	if cmd.Flags().Changed("echo-delay") {
		cfg.Server.EchoDelay = echoDelay
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	lg, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lg.Info("starting server", zap.String("storage", cfg.Database.Driver))
	store, sqlStore, err := openStorage(ctx, cfg.Database, lg)
	if err != nil {
		return err
	}
	if sqlStore != nil {
		defer sqlStore.Close()
		if _, err := sqlStore.Migrate(ctx, lg); err != nil {
			return err
		}
	}
	if seed {
		if err := fillWithMockData(ctx, store, lg); err != nil {
			return err
		}
	}

	manager := ws.NewManager(lg)
	echo := ws.NewEcho(manager, cfg.Server.EchoDelay, lg)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           api.NewRouter(store, echo, lg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("listening", zap.String("addr", fmt.Sprintf("http://localhost:%d/", cfg.Server.Port)))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	lg.Info("shutting down")
	// WebSocket-соединения угнаны у net/http, Shutdown их не ждёт.
	manager.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
