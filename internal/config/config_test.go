package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "turbo"
	cfg.Matcher.MinScore = 1.5
	cfg.Redis.Addr = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
	assert.Contains(t, err.Error(), "min_score")
	assert.Contains(t, err.Error(), "redis: addr")
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
mode = "scan"
log_level = "debug"

[matcher]
min_score = 0.6

[scanner]
scan_interval = "5m"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "scan", cfg.Mode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.InDelta(t, 0.6, cfg.Matcher.MinScore, 1e-9)
	assert.Equal(t, "5m0s", cfg.Scanner.ScanInterval.String())
	// untouched sections keep defaults
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CROSSARB_MODE", "monitor")
	t.Setenv("CROSSARB_REDIS_ADDR", "redis:6380")
	t.Setenv("CROSSARB_MATCHER_MIN_SCORE", "0.7")
	t.Setenv("CROSSARB_SCANNER_PRICE_INTERVAL", "30s")
	t.Setenv("CROSSARB_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "monitor", cfg.Mode)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.InDelta(t, 0.7, cfg.Matcher.MinScore, 1e-9)
	assert.Equal(t, "30s", cfg.Scanner.PriceInterval.String())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}
