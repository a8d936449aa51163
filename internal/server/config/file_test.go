package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func Test_parseFile_JSON(t *testing.T) {
	path := writeTempFile(t, "cfg.json", `{
		"http_addr": "www.example:9000",
		"database_dsn": "postgres://u:p@db/auth",
		"secret_key": "my_secret_key",
		"access_token_minutes": 5,
		"refresh_token_days": 0.5,
		"remember_me_token_days": 14,
		"revoke_family_on_reuse": true,
		"cleanup_interval": "1m",
		"login_lockout": 60000000000,
		"request_timeout": "3s",
		"cookie_secure": true
	}`)

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg, path)

	assert.Equal(t, "www.example:9000", cfg.HTTPAddr)
	assert.Equal(t, "postgres://u:p@db/auth", cfg.DatabaseDSN)
	assert.Equal(t, "my_secret_key", cfg.SecretKey)
	assert.Equal(t, 5, cfg.AccessTokenMinutes)
	assert.Equal(t, 0.5, cfg.RefreshTokenDays)
	assert.Equal(t, 14.0, cfg.RememberMeTokenDays)
	assert.True(t, cfg.RevokeFamilyOnReuse)
	assert.Equal(t, time.Minute, cfg.CleanupInterval)
	assert.Equal(t, time.Minute, cfg.LoginLockout)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.CookieSecure)

	// absent keys keep previous values
	assert.Equal(t, "gophauth", cfg.Issuer)
	assert.Equal(t, 5, cfg.MaxLoginAttempts)
}

func Test_parseFile_YAML(t *testing.T) {
	path := writeTempFile(t, "cfg.yml", `
http_addr: ":7000"
log_backend: zerolog
log_level: debug
redis_addr: "redis:6379"
max_login_attempts: 3
revoke_family_on_reuse: false
`)

	cfg := &Config{RevokeFamilyOnReuse: true}
	parseFile(cfg, path)

	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Equal(t, "zerolog", cfg.LogBackend)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 3, cfg.MaxLoginAttempts)
	assert.False(t, cfg.RevokeFamilyOnReuse, "explicit false must override")
}

func Test_parseFile_EmptyPathIsNoop(t *testing.T) {
	cfg := &Config{HTTPAddr: "keep"}
	parseFile(cfg, "")
	assert.Equal(t, "keep", cfg.HTTPAddr)
}

func Test_parseFile_Panics(t *testing.T) {
	bad := writeTempFile(t, "bad.json", `{ this is not valid json`)
	require.Panics(t, func() { parseFile(&Config{}, bad) })

	badYAML := writeTempFile(t, "bad.yaml", "cleanup_interval: [1, 2]\n")
	require.Panics(t, func() { parseFile(&Config{}, badYAML) })

	require.Panics(t, func() { parseFile(&Config{}, filepath.Join(t.TempDir(), "missing.json")) })
}
