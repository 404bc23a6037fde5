// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for now configuration.
	DefaultConfigDir = ".now"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultEnvFile is loaded into the process environment before overrides apply.
	DefaultEnvFile = ".env"
	// DefaultDatabaseFile is the SQLite file used when no path is configured.
	DefaultDatabaseFile = "now.db"
)

// Database drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	Environment string         `yaml:"environment,omitempty" env:"NOW_ENVIRONMENT"`
	Server      ServerConfig   `yaml:"server,omitempty"`
	Database    DatabaseConfig `yaml:"database,omitempty"`
	Log         LogConfig      `yaml:"log,omitempty"`
	Auth        AuthConfig     `yaml:"auth,omitempty"`
}

// ServerConfig holds configuration for the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr,omitempty" env:"NOW_SERVER_ADDR"`
	DefaultPageSize int           `yaml:"default_page_size,omitempty" env:"NOW_SERVER_DEFAULT_PAGE_SIZE"`
	MaxPageSize     int           `yaml:"max_page_size,omitempty" env:"NOW_SERVER_MAX_PAGE_SIZE"`
	ReadTimeout     time.Duration `yaml:"read_timeout,omitempty" env:"NOW_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout,omitempty" env:"NOW_SERVER_WRITE_TIMEOUT"`
}

// DatabaseConfig selects and configures the storage adapter.
type DatabaseConfig struct {
	// Driver is one of memory, sqlite or postgres.
	Driver string `yaml:"driver,omitempty" env:"NOW_DATABASE_DRIVER"`
	// Path is the SQLite file path. Relative paths resolve against the config dir.
	Path string `yaml:"path,omitempty" env:"NOW_DATABASE_PATH"`
	// DSN is the PostgreSQL connection string.
	DSN string `yaml:"dsn,omitempty" env:"NOW_DATABASE_DSN"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level,omitempty" env:"NOW_LOG_LEVEL"`
	Format string `yaml:"format,omitempty" env:"NOW_LOG_FORMAT"`
}

// AuthConfig holds API key settings.
type AuthConfig struct {
	KeyPrefix string `yaml:"key_prefix,omitempty" env:"NOW_AUTH_KEY_PREFIX"`
	// BootstrapKey is an admin key registered when the server starts.
	BootstrapKey string `yaml:"bootstrap_key,omitempty" env:"NOW_AUTH_BOOTSTRAP_KEY"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Addr:            ":8080",
			DefaultPageSize: 50,
			MaxPageSize:     200,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			Path:   DefaultDatabaseFile,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Auth: AuthConfig{
			KeyPrefix: "nw_live_sk_",
		},
	}
}

// Load loads configuration from the .now directory in the given path.
// A missing config file is not an error; defaults and environment apply.
func Load(basePath string) (*Config, error) {
	if err := loadEnvFile(filepath.Join(basePath, DefaultEnvFile)); err != nil {
		return nil, err
	}

	cfg := Default()

	data, err := os.ReadFile(ConfigFilePath(basePath))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Database.Driver == DriverSQLite && cfg.Database.Path != ":memory:" && !filepath.IsAbs(cfg.Database.Path) {
		cfg.Database.Path = filepath.Join(ConfigDir(basePath), cfg.Database.Path)
	}

	return cfg, nil
}

// loadEnvFile loads KEY=value pairs without overriding variables already set.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Validate checks values that have no safe fallback.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMemory, DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("invalid database driver %q (valid: memory, sqlite, postgres)", c.Database.Driver)
	}
	if c.Database.Driver == DriverPostgres && c.Database.DSN == "" {
		return errors.New("database dsn is required for the postgres driver")
	}
	if c.Database.Driver == DriverSQLite && c.Database.Path == "" {
		return errors.New("database path is required for the sqlite driver")
	}
	if c.Server.DefaultPageSize < 1 || c.Server.MaxPageSize < 1 {
		return errors.New("server page sizes must be positive")
	}
	if c.Server.DefaultPageSize > c.Server.MaxPageSize {
		return fmt.Errorf("default page size %d exceeds max page size %d", c.Server.DefaultPageSize, c.Server.MaxPageSize)
	}
	if c.Auth.KeyPrefix == "" {
		return errors.New("auth key prefix is required")
	}
	if c.Auth.BootstrapKey != "" && !strings.HasPrefix(c.Auth.BootstrapKey, c.Auth.KeyPrefix) {
		return fmt.Errorf("auth bootstrap key must start with %q", c.Auth.KeyPrefix)
	}
	return nil
}

// ConfigDir returns the path to the .now config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// Exists checks if a now config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}
