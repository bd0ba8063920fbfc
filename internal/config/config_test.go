package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frontdesk/internal/config"
)

// clearEnv unsets every variable Load reads; t.Setenv restores them after the test.
func clearEnv(t *testing.T) {
	for _, key := range []string{
		"BACKEND_URL", "STORAGE_URL", "BACKEND_TIMEOUT", "AUTH_STORE", "AUTH_FILE",
		"REDIS_ADDR", "POSTGRES_URL", "HTTP_ADDR", "CAMERAS_DIR", "SCAN_TIMEOUT",
		"SCAN_POLL_INTERVAL", "NOTIFICATION_TTL", "CHECKIN_LOCK_TTL", "STATION",
		"JAEGER_ENDPOINT", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUTH_FILE", filepath.Join(t.TempDir(), "session.json"))

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, config.AuthStoreFile, cfg.AuthStore)
	assert.Equal(t, 10*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 30*time.Second, cfg.ScanTimeout)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.NotEmpty(t, cfg.Station)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), "frontdesk.env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"BACKEND_URL=https://backend.example.com/api\n"+
			"AUTH_STORE=redis\n"+
			"REDIS_ADDR=localhost:6379\n"+
			"SCAN_TIMEOUT=45s\n"+
			"STATION=gate-a\n"+
			"LOG_LEVEL=debug\n",
	), 0o600))

	// already set variables win over the file
	t.Setenv("STATION", "gate-b")

	cfg, err := config.Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "https://backend.example.com/api", cfg.BackendURL)
	assert.Equal(t, config.AuthStoreRedis, cfg.AuthStore)
	assert.Equal(t, 45*time.Second, cfg.ScanTimeout)
	assert.Equal(t, "gate-b", cfg.Station)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad duration", env: map[string]string{"SCAN_TIMEOUT": "soon"}},
		{name: "negative duration", env: map[string]string{"BACKEND_TIMEOUT": "-1s"}},
		{name: "bad log level", env: map[string]string{"LOG_LEVEL": "loud"}},
		{name: "unknown auth store", env: map[string]string{"AUTH_STORE": "cookie"}},
		{name: "redis store without redis", env: map[string]string{"AUTH_STORE": "redis"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("AUTH_FILE", "session.json")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}
