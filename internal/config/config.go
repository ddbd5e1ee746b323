package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Значения по умолчанию.
const (
	DefaultPort       = 8000
	DefaultEchoDelay  = time.Second
	DefaultDriver     = DriverPostgres
	DefaultSQLitePath = "blog.db"
)

// Поддерживаемые хранилища.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config - конфигурация сервиса целиком.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	// Port - порт HTTP-сервера (и REST, и WebSocket).
	Port int `yaml:"port"`
	// EchoDelay - задержка перед ответом эхо-канала.
	EchoDelay time.Duration `yaml:"echo_delay"`
}

// DatabaseConfig описывает хранилище. Для postgres либо URL, либо части DSN.
type DatabaseConfig struct {
	Driver     string `yaml:"driver"`
	URL        string `yaml:"url"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Name       string `yaml:"name"`
	SQLitePath string `yaml:"sqlite_path"`
	// LogLevel - уровень логов gorm: silent | error | warn | info.
	LogLevel string `yaml:"log_level"`
}

type LogConfig struct {
	// Level - debug | info | warn | error.
	Level string `yaml:"level"`
	// Format - json | console.
	Format string `yaml:"format"`
}

// DSN отдаёт строку подключения к PostgreSQL. URL, если задан, имеет приоритет.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	return u.String()
}

// Load собирает конфигурацию: значения по умолчанию, затем YAML-файл (если path
// не пустой), затем .env и переменные окружения. Флаги CLI накладываются вызывающим.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	// .env необязателен; уже выставленные переменные он не перетирает.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:      DefaultPort,
			EchoDelay: DefaultEchoDelay,
		},
		Database: DatabaseConfig{
			Driver:     DefaultDriver,
			Host:       "localhost",
			Port:       5432,
			User:       "postgres",
			Password:   "password",
			Name:       "blogdb",
			SQLitePath: DefaultSQLitePath,
			LogLevel:   "warn",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not a number", key, v)
		}
		*dst = n
		return nil
	}

	if err := num("PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("ECHO_DELAY"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ECHO_DELAY: %q is not a duration", v)
		}
		cfg.Server.EchoDelay = d
	}

	str("STORAGE", &cfg.Database.Driver)
	str("DATABASE_URL", &cfg.Database.URL)
	str("DB_HOST", &cfg.Database.Host)
	if err := num("DB_PORT", &cfg.Database.Port); err != nil {
		return err
	}
	str("DB_USER", &cfg.Database.User)
	str("DB_PASSWORD", &cfg.Database.Password)
	str("DB_NAME", &cfg.Database.Name)
	str("SQLITE_PATH", &cfg.Database.SQLitePath)
	str("DB_LOG_LEVEL", &cfg.Database.LogLevel)

	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	return nil
}

// Validate проверяет собранную конфигурацию. Вызывается повторно после флагов CLI.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	if c.Server.EchoDelay < 0 {
		return fmt.Errorf("server.echo_delay must not be negative")
	}
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" && (c.Database.Port <= 0 || c.Database.Port > 65535) {
			return fmt.Errorf("database.port %d is out of range [1, 65535]", c.Database.Port)
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("database.sqlite_path is required for sqlite storage")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver %q unknown: want postgres|sqlite|memory", c.Database.Driver)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format %q unknown: want json|console", c.Log.Format)
	}
	return nil
}
