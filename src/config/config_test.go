package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
name: smc-analysis
host: 127.0.0.1
port: 8000
log_level: INFO
storage:
  db_type: sqlite
  db_path: ./data/test.db
  retention_days: 7
media:
  root: ./data/media
static:
  root: ./data/static
feed:
  type: sim
  symbols: ["EURUSD", "GBPUSD"]
  tick_interval_seconds: 5
timeframes: ["5m", "15m", "1h"]
disk_quota_mb: 450
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// -----------------------------------------------------------------------------

func TestNewConfigValid(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "smc-analysis", cfg.Name)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "sqlite", cfg.Storage.DBType)
	assert.Equal(t, []string{"5m", "15m", "1h"}, cfg.Timeframes)
	assert.Equal(t, 450, cfg.DiskQuotaMB)
}

// -----------------------------------------------------------------------------

func TestNewConfigAppliesDefaults(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "/media", cfg.Media.URLPrefix)
	assert.Equal(t, "/static", cfg.Static.URLPrefix)
	assert.Equal(t, 10, cfg.Media.MaxUploadMB)
	assert.Equal(t, 200, cfg.Feed.HistoryCandles)
	assert.Contains(t, cfg.Media.AllowedExtensions, ".png")
}

// -----------------------------------------------------------------------------

func TestNewConfigMissingFile(t *testing.T) {
	_, err := NewConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

// -----------------------------------------------------------------------------

func TestNewConfigInvalidYAML(t *testing.T) {
	_, err := NewConfig(writeConfig(t, "{not yaml: ["))
	assert.Error(t, err)
}

// -----------------------------------------------------------------------------

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty name", func(c *Config) { c.Name = "" }},
		{"privileged port", func(c *Config) { c.Port = 80 }},
		{"missing db type", func(c *Config) { c.Storage.DBType = "" }},
		{"sqlite without path", func(c *Config) { c.Storage.DBPath = "" }},
		{"no media root", func(c *Config) { c.Media.Root = "" }},
		{"no static root", func(c *Config) { c.Static.Root = "" }},
		{"unknown feed type", func(c *Config) { c.Feed.Type = "csv" }},
		{"remote without endpoint", func(c *Config) { c.Feed.Type = "remote" }},
		{"no symbols", func(c *Config) { c.Feed.Symbols = nil }},
		{"zero tick interval", func(c *Config) { c.Feed.TickIntervalSeconds = 0 }},
		{"no timeframes", func(c *Config) { c.Timeframes = nil }},
		{"bad timeframe", func(c *Config) { c.Timeframes = []string{"5x"} }},
		{"negative quota", func(c *Config) { c.DiskQuotaMB = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(writeConfig(t, validYAML))
			require.NoError(t, err)

			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

// -----------------------------------------------------------------------------

func TestSaveRoundTrip(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, validYAML))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, cfg.Save(out))

	reloaded, err := NewConfig(out)
	require.NoError(t, err)
	assert.Equal(t, cfg.Name, reloaded.Name)
	assert.Equal(t, cfg.Timeframes, reloaded.Timeframes)
}
