// Package config holds authctl settings: defaults overlaid with AUTHCTL_*
// environment variables. Command-line flags are applied by the cli package.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every variable name declared in Config tags.
const EnvPrefix = "AUTHCTL_"

// Config holds runtime settings for authctl.
//
// Fields:
//   - ServerURL: base URL of the gophauth HTTP API.
//   - DatabasePath: SQLite file that keeps the session between invocations.
//   - Timeout: per-request deadline.
type Config struct {
	ServerURL    string        `env:"SERVER_URL"`
	DatabasePath string        `env:"DB"`
	Timeout      time.Duration `env:"TIMEOUT"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.DatabasePath = defaultDatabasePath()
	c.Timeout = 10 * time.Second
}

func defaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "authctl.db"
	}
	return filepath.Join(dir, "gophauth", "authctl.db")
}

// LoadConfig applies defaults and then the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, err
	}
	return cfg, nil
}
