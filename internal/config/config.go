// Package config loads fitrack settings from YAML with FITRACK_ environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Server ServerConfig `yaml:"server"`
	Notify NotifyConfig `yaml:"notify"`
	Log    LogConfig    `yaml:"log"`
}

type StoreConfig struct {
	Backend  string         `yaml:"backend"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	// Path is the database file. Empty means the default data directory.
	Path         string        `yaml:"path"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type NotifyConfig struct {
	Duration time.Duration `yaml:"duration"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// DSN returns a PostgreSQL connection string.
func (d PostgresConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: BackendSQLite,
			SQLite:  SQLiteConfig{PollInterval: 2 * time.Second},
			Postgres: PostgresConfig{
				Host: "localhost",
				Port: 5432,
				Name: "fitrack",
				User: "fitrack",
			},
		},
		Server: ServerConfig{Addr: "127.0.0.1:8080"},
		Notify: NotifyConfig{Duration: 3 * time.Second},
		Log:    LogConfig{Level: "info"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/fitrack/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "fitrack", "config.yaml"), nil
}

// Load reads config from a YAML file layered over Default, then applies
// environment variable overrides. A missing file is not an error.
// Env vars use the prefix FITRACK_:
//
//	FITRACK_STORE_BACKEND, FITRACK_DB, FITRACK_SQLITE_POLL_INTERVAL,
//	FITRACK_PG_HOST, FITRACK_PG_PORT, FITRACK_PG_NAME,
//	FITRACK_PG_USER, FITRACK_PG_PASSWORD, FITRACK_PG_SSLMODE,
//	FITRACK_SERVER_ADDR, FITRACK_NOTIFY_DURATION, FITRACK_LOG_LEVEL
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("FITRACK_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("FITRACK_DB"); v != "" {
		cfg.Store.SQLite.Path = v
	}
	if v := os.Getenv("FITRACK_SQLITE_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FITRACK_SQLITE_POLL_INTERVAL: %w", err)
		}
		cfg.Store.SQLite.PollInterval = d
	}
	if v := os.Getenv("FITRACK_PG_HOST"); v != "" {
		cfg.Store.Postgres.Host = v
	}
	if v := os.Getenv("FITRACK_PG_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Store.Postgres.Port = port
		}
	}
	if v := os.Getenv("FITRACK_PG_NAME"); v != "" {
		cfg.Store.Postgres.Name = v
	}
	if v := os.Getenv("FITRACK_PG_USER"); v != "" {
		cfg.Store.Postgres.User = v
	}
	if v := os.Getenv("FITRACK_PG_PASSWORD"); v != "" {
		cfg.Store.Postgres.Password = v
	}
	if v := os.Getenv("FITRACK_PG_SSLMODE"); v != "" {
		cfg.Store.Postgres.SSLMode = v
	}
	if v := os.Getenv("FITRACK_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("FITRACK_NOTIFY_DURATION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FITRACK_NOTIFY_DURATION: %w", err)
		}
		cfg.Notify.Duration = d
	}
	if v := os.Getenv("FITRACK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

func (c *Config) validate() error {
	c.Store.Backend = strings.ToLower(c.Store.Backend)
	switch c.Store.Backend {
	case BackendSQLite:
		if c.Store.SQLite.PollInterval < 0 {
			return fmt.Errorf("store.sqlite.poll_interval must not be negative")
		}
	case BackendPostgres:
		if c.Store.Postgres.Host == "" {
			return fmt.Errorf("store.postgres.host is required")
		}
		if c.Store.Postgres.Port == 0 {
			return fmt.Errorf("store.postgres.port is required")
		}
		if c.Store.Postgres.Name == "" {
			return fmt.Errorf("store.postgres.name is required")
		}
		if c.Store.Postgres.User == "" {
			return fmt.Errorf("store.postgres.user is required")
		}
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", BackendSQLite, BackendPostgres, c.Store.Backend)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Notify.Duration <= 0 {
		return fmt.Errorf("notify.duration must be positive")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}
