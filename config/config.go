// Package config loads server settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/httplog/v3"
	"github.com/joho/godotenv"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	App     AppConfig
	Store   StoreConfig
	Payroll PayrollConfig
	CORS    CORSConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// StoreConfig selects the record store and its connection settings.
type StoreConfig struct {
	Driver        string
	SQLitePath    string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
	SnapshotPath  string
}

type PayrollConfig struct {
	RunConcurrency int
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads .env when present, then the environment. It does not
// validate; callers apply flag overrides first and then call Validate.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config := &Config{}

	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}
	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	config.Store = StoreConfig{
		Driver:        strings.ToLower(getEnv("STORE_DRIVER", DriverMemory)),
		SQLitePath:    getEnv("SQLITE_PATH", "payroll.db"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDatabase: getEnv("MONGO_DATABASE", "payroll"),
		SnapshotPath:  getEnv("SNAPSHOT_PATH", ""),
	}

	concurrency, err := strconv.Atoi(getEnv("PAYROLL_RUN_CONCURRENCY", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_RUN_CONCURRENCY: %w", err)
	}
	config.Payroll = PayrollConfig{RunConcurrency: concurrency}

	config.CORS = CORSConfig{AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS")}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("APP_PORT must be between 1 and 65535")
	}
	if _, err := c.App.Level(); err != nil {
		return err
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case DriverMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo store")
		}
		if c.Store.MongoDatabase == "" {
			return fmt.Errorf("MONGO_DATABASE is required for the mongo store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Payroll.RunConcurrency <= 0 {
		return fmt.Errorf("PAYROLL_RUN_CONCURRENCY must be positive")
	}
	return nil
}

func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}

// Level parses LogLevel (debug, info, warn, error).
func (a AppConfig) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", a.LogLevel)
	}
	return level, nil
}

// NewLogger builds the process logger: JSON in production, text otherwise,
// both with ECS attribute names so they line up with the request logs.
func (a AppConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := a.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: httplog.SchemaECS.Concise(!a.IsProduction()).ReplaceAttr,
	}
	if a.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
