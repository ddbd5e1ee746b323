package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/UkralStul/blog-api/internal/config"
	"github.com/UkralStul/blog-api/internal/storage"
	"github.com/UkralStul/blog-api/internal/storage/inmemory"
	"github.com/UkralStul/blog-api/internal/storage/sqlstore"
)

// openStorage открывает хранилище из конфигурации. Для SQL-хранилищ вызывающий
// получает и *sqlstore.Store, чтобы прогнать миграции и закрыть пул.
func openStorage(ctx context.Context, cfg config.DatabaseConfig, lg *zap.Logger) (storage.Storage, *sqlstore.Store, error) {
	opts := sqlstore.DefaultOptions()
	opts.LogLevel = cfg.LogLevel
	opts.Logger = lg

	var (
		store *sqlstore.Store
		err   error
	)
	switch cfg.Driver {
	case config.DriverMemory:
		return inmemory.New(), nil, nil
	case config.DriverSQLite:
		store, err = sqlstore.OpenSQLite(ctx, cfg.SQLitePath, opts)
	case config.DriverPostgres:
		store, err = sqlstore.OpenPostgres(ctx, cfg.DSN(), opts)
	default:
		return nil, nil, fmt.Errorf("unknown storage type %q", cfg.Driver)
	}
	if err != nil {
		return nil, nil, err
	}
	return store, store, nil
}
