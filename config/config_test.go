package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultServiceURL, cfg.Collector.URL)
	assert.Equal(t, 60*time.Second, cfg.Collector.Interval)
	assert.Equal(t, 0, cfg.Collector.RequestTimeoutSeconds)
	assert.Equal(t, 500, cfg.Collector.BatchSize)
	assert.True(t, cfg.Collector.EagerLocationsEnabled())
	assert.Equal(t, QueryConfig{Radius: "50.0", Unit: "mile", Response: "json", Type: "all", Pricing: "yes"}, cfg.Collector.Query)
	assert.False(t, cfg.Server.Enabled)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "warn", cfg.Database.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
collector:
  url: http://localhost:9999/avl
  interval_seconds: 5
  eager_locations: false
  query:
    radius: "1.0"
server:
  enabled: true
  port: 9090
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999/avl", cfg.Collector.URL)
	assert.Equal(t, 5*time.Second, cfg.Collector.Interval)
	assert.False(t, cfg.Collector.EagerLocationsEnabled())
	assert.Equal(t, "1.0", cfg.Collector.Query.Radius)
	assert.Equal(t, "mile", cfg.Collector.Query.Unit, "unset query fields keep their defaults")
	assert.True(t, cfg.Server.Enabled)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, cfg.Collector.Interval)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "collector: [unterminated"))
	assert.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	assert.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "loud", Format: "json"}))
}
