package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_Defaults verifies that default values are used when env vars are missing.
func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("APP_ENV")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("SERVER_PORT")

	os.Setenv("TRACKING_API_URL", "https://api.default.test")
	os.Setenv("REALTIME_URL", "wss://rt.default.test/ws")
	defer func() {
		os.Unsetenv("TRACKING_API_URL")
		os.Unsetenv("REALTIME_URL")
	}()

	cfg, err := Load(".")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 60, cfg.Redis.SnapshotTTLSeconds)
	assert.False(t, cfg.Proxy.Enabled)
}

// TestLoad_EnvVars verifies that environment variables override defaults.
func TestLoad_EnvVars(t *testing.T) {
	os.Setenv("APP_ENV", "production")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("SERVER_PORT", "9090")
	os.Setenv("TRACKING_API_URL", "https://api.example.com")
	os.Setenv("TRACKING_AUTH_TOKEN", "tok_123")
	os.Setenv("REALTIME_URL", "wss://rt.example.com/ws")
	os.Setenv("REDIS_URL", "redis://localhost:6379")
	os.Setenv("SNAPSHOT_CACHE_TTL", "120")
	defer func() {
		os.Unsetenv("APP_ENV")
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("TRACKING_API_URL")
		os.Unsetenv("TRACKING_AUTH_TOKEN")
		os.Unsetenv("REALTIME_URL")
		os.Unsetenv("REDIS_URL")
		os.Unsetenv("SNAPSHOT_CACHE_TTL")
	}()

	cfg, err := Load(".")
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "https://api.example.com", cfg.Tracking.APIURL)
	assert.Equal(t, "tok_123", cfg.Tracking.AuthToken)
	assert.Equal(t, "wss://rt.example.com/ws", cfg.Realtime.URL)
	assert.Equal(t, "redis://localhost:6379", cfg.Redis.URL)
	assert.Equal(t, 120, cfg.Redis.SnapshotTTLSeconds)
}

// TestLoad_File verifies that values are loaded from a .env file.
func TestLoad_File(t *testing.T) {
	content := []byte(`
APP_ENV=staging
LOG_LEVEL=warn
SERVER_PORT=7070
TRACKING_API_URL=https://api.staging.example.com
REALTIME_URL=wss://rt.staging.example.com/ws
`)
	err := os.WriteFile(".env", content, 0644)
	require.NoError(t, err)
	defer os.Remove(".env")

	cfg, err := Load(".")
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 7070, cfg.ServerPort)
}

// TestLoad_ValidationFailure verifies that missing required fields return an error.
func TestLoad_ValidationFailure(t *testing.T) {
	os.Unsetenv("TRACKING_API_URL")
	os.Unsetenv("REALTIME_URL")

	cfg, err := Load(".")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "missing required configuration")
}
