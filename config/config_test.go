package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "", cfg.RootPath)
	assert.Equal(t, 10*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 65536, cfg.BodyChunkSize)
	assert.False(t, cfg.EnableH2C)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("AUDRA_HOST", "127.0.0.1")
	t.Setenv("AUDRA_PORT", "9000")
	t.Setenv("AUDRA_ROOT_PATH", "/api/v1")
	t.Setenv("AUDRA_SHUTDOWN_TIMEOUT", "2s")
	t.Setenv("AUDRA_ENABLE_H2C", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.RootPath)
	assert.Equal(t, 2*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.EnableH2C)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("AUDRA_PORT", "not-a-port")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestAddr(t *testing.T) {
	t.Parallel()

	cfg := &Config{Host: "127.0.0.1", Port: 9000}
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr())

	cfg = &Config{Host: "::1", Port: 80}
	assert.Equal(t, "[::1]:80", cfg.Addr())
}
