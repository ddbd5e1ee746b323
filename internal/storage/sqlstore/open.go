package sqlstore

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options управляет подключением к базе.
type Options struct {
	// LogLevel - уровень логирования gorm: silent, error, warn или info.
	LogLevel string
	// ConnectAttempts - сколько раз проверить доступность базы перед тем, как сдаться.
	ConnectAttempts int
	// RetryDelay - пауза между попытками подключения.
	RetryDelay time.Duration
	// Logger получает сообщения о повторных попытках подключения.
	Logger *zap.Logger
}

// DefaultOptions - 30 попыток раз в секунду, как у раннера миграций в docker-compose окружении.
func DefaultOptions() Options {
	return Options{
		LogLevel:        "warn",
		ConnectAttempts: 30,
		RetryDelay:      time.Second,
		Logger:          zap.NewNop(),
	}
}

// OpenPostgres подключается к PostgreSQL по DSN и ждёт, пока база станет доступна.
func OpenPostgres(ctx context.Context, dsn string, opts Options) (*Store, error) {
	return open(ctx, postgres.Open(dsn), opts)
}

// OpenSQLite открывает файл SQLite (или ":memory:") с включёнными внешними ключами.
func OpenSQLite(ctx context.Context, path string, opts Options) (*Store, error) {
	dsn := path + "?_foreign_keys=on"
	if path == ":memory:" {
		dsn = "file::memory:?_foreign_keys=on"
	}
	s, err := open(ctx, sqlite.Open(dsn), opts)
	if err != nil {
		return nil, err
	}
	// Одно соединение: иначе каждая сессия :memory: видит свою пустую базу,
	// а файловая база ловит "database is locked" на параллельных записях.
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return s, nil
}

func open(ctx context.Context, dialector gorm.Dialector, opts Options) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel(opts.LogLevel)),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := waitForDatabase(ctx, db, opts); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// waitForDatabase пингует базу, пока она не ответит или не кончатся попытки.
func waitForDatabase(ctx context.Context, db *gorm.DB, opts Options) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}

	attempts := opts.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}
	lg := opts.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	for attempt := 1; ; attempt++ {
		err = sqlDB.PingContext(ctx)
		if err == nil {
			return nil
		}
		if attempt >= attempts {
			return fmt.Errorf("failed to connect to database after %d attempts: %w", attempts, err)
		}
		lg.Warn("database connection attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("retry_in", opts.RetryDelay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(opts.RetryDelay):
		}
	}
}

func logLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
