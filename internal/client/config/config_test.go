package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8080", cfg.ServerURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.NotEmpty(t, cfg.DatabasePath)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("AUTHCTL_SERVER_URL", "https://auth.example.com")
	t.Setenv("AUTHCTL_DB", "/tmp/a.db")
	t.Setenv("AUTHCTL_TIMEOUT", "3s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, &Config{ServerURL: "https://auth.example.com", DatabasePath: "/tmp/a.db", Timeout: 3 * time.Second}, cfg)
}

func TestLoadConfig_BadEnv(t *testing.T) {
	t.Setenv("AUTHCTL_TIMEOUT", "soon")

	_, err := LoadConfig()
	assert.Error(t, err)
}
