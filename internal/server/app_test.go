package server

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/throttle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func testConfig(t *testing.T) *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.HTTPAddr = freeAddr(t)
	c.LogLevel = "error"
	return c
}

func TestNewApp_MemoryBackendServes(t *testing.T) {
	c := testConfig(t)
	c.SeedAdminUsername = "root"
	c.SeedAdminPassword = "Admin@123"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := NewApp(ctx, c)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + c.HTTPAddr + "/healthz")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("app did not stop")
	}
}

func TestNewApp_Errors(t *testing.T) {
	ctx := context.Background()

	c := testConfig(t)
	c.LogBackend = "log4j"
	_, err := NewApp(ctx, c)
	assert.Error(t, err)

	c = testConfig(t)
	c.SeedAdminUsername = "root"
	c.SeedAdminPassword = "weak"
	_, err = NewApp(ctx, c)
	assert.Error(t, err)
}

func TestNewThrottle(t *testing.T) {
	c := testConfig(t)

	c.MaxLoginAttempts = 0
	assert.IsType(t, throttle.Disabled{}, newThrottle(c, nil))

	c.MaxLoginAttempts = 5
	assert.IsType(t, &throttle.Memory{}, newThrottle(c, nil))
}
