// Package config loads engine configuration from config files, environment
// variables and .env files. Precedence, highest first: process environment,
// .env.local, .env, config file, defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// AppFs is the filesystem used for probing .env files; tests swap in a
// memory-backed one.
var AppFs = afero.NewOsFs()

const defaultConnectTimeout = 10 * time.Second

// Config holds the connection and engine settings.
type Config struct {
	// Provider selects the backend family: postgres, mysql or sqlite.
	Provider string
	// URL is the driver connection string (DSN).
	URL string
	// Driver optionally overrides the driver within a family, e.g. "pgx".
	Driver string

	MaxConnections int
	MaxIdleTime    int // seconds
	ConnectTimeout int // seconds

	// Debug enables the engine's debug logging.
	Debug bool
}

// ConnectTimeoutOrDefault returns the configured connect timeout, or a
// conservative default when unset.
func (c Config) ConnectTimeoutOrDefault() time.Duration {
	if c.ConnectTimeout > 0 {
		return time.Duration(c.ConnectTimeout) * time.Second
	}
	return defaultConnectTimeout
}

// Validate checks the fields every adapter needs.
func (c Config) Validate() error {
	switch c.Provider {
	case "postgres", "postgresql", "mysql", "sqlite", "sqlite3":
	case "":
		return fmt.Errorf("config: provider is required")
	default:
		return fmt.Errorf("config: unknown provider %q", c.Provider)
	}
	if c.URL == "" {
		return fmt.Errorf("config: database URL is required")
	}
	return nil
}

// Load reads configuration from .vesper.yaml (searched in the working
// directory, the home directory and ~/.config/vesper), the VESPER_
// environment, and .env/.env.local files.
func Load() (*Config, error) {
	v := viper.New()

	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	v.SetConfigName(".vesper")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(home)
	v.AddConfigPath(filepath.Join(home, ".config", "vesper"))

	v.SetEnvPrefix("VESPER")
	v.AutomaticEnv()

	v.SetDefault("provider", "")
	v.SetDefault("driver", "")
	v.SetDefault("max_connections", 0)
	v.SetDefault("max_idle_time", 0)
	v.SetDefault("connect_timeout", 0)
	v.SetDefault("debug", false)

	// A missing config file is fine; explicit settings cover everything.
	_ = v.ReadInConfig()

	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}

	cfg := &Config{
		Provider:       v.GetString("provider"),
		URL:            v.GetString("database_url"),
		Driver:         v.GetString("driver"),
		MaxConnections: v.GetInt("max_connections"),
		MaxIdleTime:    v.GetInt("max_idle_time"),
		ConnectTimeout: v.GetInt("connect_timeout"),
		Debug:          v.GetBool("debug"),
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.URL = url
	}
	return cfg, nil
}
