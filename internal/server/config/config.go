// Package config handles configuration for the authentication server:
// defaults, a JSON or YAML file overlay, dotenv and environment variables,
// and finally command-line flags. Later sources take precedence.
package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

// Config holds runtime settings for the gophauth server.
//
// Fields:
//   - HTTPAddr: bind address of the HTTP API.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory backend.
//   - SecretKey / Issuer / Audience: HS256 signing key and the iss/aud claims.
//   - AccessTokenMinutes / RefreshTokenDays / RememberMeTokenDays: static
//     token policy; runtime overrides are clamped by the policy store.
//   - RevokeFamilyOnReuse: revoke every session of a principal when a
//     consumed or revoked refresh secret is presented again.
//   - CleanupInterval: how often expired ledger rows are purged.
//   - RedisAddr: when set, the blacklist and login throttle use Redis.
//   - MaxLoginAttempts / LoginLockout: failed-login throttle.
//   - LogBackend / LogLevel: slog, zap or zerolog and its minimum level.
//   - RequestTimeout: per-request deadline of the HTTP API.
//   - CookieSecure: set the Secure attribute on auth cookies.
//   - SeedAdminUsername / SeedAdminPassword: when both are set, a SuperAdmin
//     with these credentials is created at startup unless it already exists.
type Config struct {
	HTTPAddr            string        `env:"HTTP_ADDR"`
	DatabaseDSN         string        `env:"DATABASE_DSN"`
	SecretKey           string        `env:"SECRET_KEY"`
	Issuer              string        `env:"JWT_ISSUER"`
	Audience            string        `env:"JWT_AUDIENCE"`
	AccessTokenMinutes  int           `env:"ACCESS_TOKEN_MINUTES"`
	RefreshTokenDays    float64       `env:"REFRESH_TOKEN_DAYS"`
	RememberMeTokenDays float64       `env:"REMEMBER_ME_TOKEN_DAYS"`
	RevokeFamilyOnReuse bool          `env:"REVOKE_FAMILY_ON_REUSE"`
	CleanupInterval     time.Duration `env:"CLEANUP_INTERVAL"`
	RedisAddr           string        `env:"REDIS_ADDR"`
	MaxLoginAttempts    int           `env:"MAX_LOGIN_ATTEMPTS"`
	LoginLockout        time.Duration `env:"LOGIN_LOCKOUT"`
	LogBackend          string        `env:"LOG_BACKEND"`
	LogLevel            string        `env:"LOG_LEVEL"`
	RequestTimeout      time.Duration `env:"REQUEST_TIMEOUT"`
	CookieSecure        bool          `env:"COOKIE_SECURE"`
	SeedAdminUsername   string        `env:"SEED_ADMIN_USERNAME"`
	SeedAdminPassword   string        `env:"SEED_ADMIN_PASSWORD"`
}

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey must be overridden in production.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey-change-me-secretKey-change-me"
	c.Issuer = "gophauth"
	c.Audience = "gophauth-clients"
	c.AccessTokenMinutes = 15
	c.RefreshTokenDays = 0.25
	c.RememberMeTokenDays = 1
	c.RevokeFamilyOnReuse = false
	c.CleanupInterval = 10 * time.Minute
	c.RedisAddr = ""
	c.MaxLoginAttempts = 5
	c.LoginLockout = 30 * time.Minute
	c.LogBackend = "slog"
	c.LogLevel = "info"
	c.RequestTimeout = 10 * time.Second
	c.CookieSecure = false
}

// LoadConfig builds a Config from defaults, the optional config file, the
// environment and the command line. Invalid input panics, as there is no
// sensible way to start with a half-parsed configuration.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()

	src := flagx.SourceFlags(os.Args[1:])
	parseFile(cfg, src.ConfigFile)
	parseEnv(cfg, src.EnvFile)
	parseFlags(cfg)
	return cfg
}
