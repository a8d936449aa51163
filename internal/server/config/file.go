package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk representation of Config. Durations use
// timex.Duration so files may say "30m" or give nanoseconds. Pointer fields
// distinguish "absent" from an explicit false or zero.
type FileConfig struct {
	HTTPAddr            string         `json:"http_addr" yaml:"http_addr"`
	DatabaseDSN         string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey           string         `json:"secret_key" yaml:"secret_key"`
	Issuer              string         `json:"issuer" yaml:"issuer"`
	Audience            string         `json:"audience" yaml:"audience"`
	AccessTokenMinutes  *int           `json:"access_token_minutes" yaml:"access_token_minutes"`
	RefreshTokenDays    *float64       `json:"refresh_token_days" yaml:"refresh_token_days"`
	RememberMeTokenDays *float64       `json:"remember_me_token_days" yaml:"remember_me_token_days"`
	RevokeFamilyOnReuse *bool          `json:"revoke_family_on_reuse" yaml:"revoke_family_on_reuse"`
	CleanupInterval     timex.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
	RedisAddr           string         `json:"redis_addr" yaml:"redis_addr"`
	MaxLoginAttempts    *int           `json:"max_login_attempts" yaml:"max_login_attempts"`
	LoginLockout        timex.Duration `json:"login_lockout" yaml:"login_lockout"`
	LogBackend          string         `json:"log_backend" yaml:"log_backend"`
	LogLevel            string         `json:"log_level" yaml:"log_level"`
	RequestTimeout      timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	CookieSecure        *bool          `json:"cookie_secure" yaml:"cookie_secure"`
	SeedAdminUsername   string         `json:"seed_admin_username" yaml:"seed_admin_username"`
	SeedAdminPassword   string         `json:"seed_admin_password" yaml:"seed_admin_password"`
}

// parseFile overlays values from path onto config. Files ending in .yaml or
// .yml are decoded as YAML, everything else as JSON. An empty path is a
// no-op; unreadable or malformed files panic.
func parseFile(config *Config, path string) {
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *FileConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.Issuer, c.Issuer)
	setString(&config.Audience, c.Audience)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.LogBackend, c.LogBackend)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.SeedAdminUsername, c.SeedAdminUsername)
	setString(&config.SeedAdminPassword, c.SeedAdminPassword)

	if c.AccessTokenMinutes != nil {
		config.AccessTokenMinutes = *c.AccessTokenMinutes
	}
	if c.RefreshTokenDays != nil {
		config.RefreshTokenDays = *c.RefreshTokenDays
	}
	if c.RememberMeTokenDays != nil {
		config.RememberMeTokenDays = *c.RememberMeTokenDays
	}
	if c.RevokeFamilyOnReuse != nil {
		config.RevokeFamilyOnReuse = *c.RevokeFamilyOnReuse
	}
	if c.MaxLoginAttempts != nil {
		config.MaxLoginAttempts = *c.MaxLoginAttempts
	}
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}

	if c.CleanupInterval.Duration > 0 {
		config.CleanupInterval = c.CleanupInterval.Duration
	}
	if c.LoginLockout.Duration > 0 {
		config.LoginLockout = c.LoginLockout.Duration
	}
	if c.RequestTimeout.Duration > 0 {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
