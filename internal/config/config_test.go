package config_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinemap/brinemap/internal/config"
)

var allKeys = []string{
	"APP_PORT", "APP_ENV", "LOG_LEVEL", "SITE_FEED_URL", "BOUNDARY_FEED_URL",
	"FETCH_TIMEOUT", "MIN_YEAR", "GRID_CELL_SIZE", "IDW_POWER", "SYNTHETIC_SEED",
	"NORTH_ARM_STATIONS", "FRAME_RATE_LIMIT", "OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT",
	"OTEL_TRACES_SAMPLER_ARG", "REFRESH_INTERVAL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Empty(t, cfg.SiteFeedURL)
	assert.Empty(t, cfg.BoundaryFeedURL)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 24*time.Hour, cfg.RefreshInterval)
	assert.Equal(t, 2000, cfg.MinYear)
	assert.Equal(t, 5.0, cfg.GridCellSize)
	assert.Equal(t, 2.0, cfg.IDWPower)
	assert.Zero(t, cfg.SyntheticSeed)
	assert.Equal(t, []string{"RD2", "LVG4", "CB1"}, cfg.NorthArm)
	assert.Equal(t, 120, cfg.FrameRateLimit)
	assert.False(t, cfg.OTelEnabled)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.Equal(t, 1.0, cfg.TraceSampleRatio)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_CustomEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SITE_FEED_URL", "https://feeds.example.org/sites.json")
	t.Setenv("BOUNDARY_FEED_URL", "https://feeds.example.org/arms.geojson")
	t.Setenv("FETCH_TIMEOUT", "2s")
	t.Setenv("REFRESH_INTERVAL", "0")
	t.Setenv("MIN_YEAR", "2005")
	t.Setenv("GRID_CELL_SIZE", "2.5")
	t.Setenv("IDW_POWER", "3")
	t.Setenv("SYNTHETIC_SEED", "42")
	t.Setenv("NORTH_ARM_STATIONS", " RD2 , LVG4,,CB1,RD3 ")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.Equal(t, "https://feeds.example.org/sites.json", cfg.SiteFeedURL)
	assert.Equal(t, 2*time.Second, cfg.FetchTimeout)
	assert.Zero(t, cfg.RefreshInterval)
	assert.Equal(t, 2005, cfg.MinYear)
	assert.Equal(t, 2.5, cfg.GridCellSize)
	assert.Equal(t, 3.0, cfg.IDWPower)
	assert.Equal(t, uint64(42), cfg.SyntheticSeed)
	assert.Equal(t, []string{"RD2", "LVG4", "CB1", "RD3"}, cfg.NorthArm)
	assert.True(t, cfg.OTelEnabled)
	assert.Equal(t, 0.25, cfg.TraceSampleRatio)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"LOG_LEVEL", "loud"},
		{"FETCH_TIMEOUT", "soon"},
		{"FETCH_TIMEOUT", "-1s"},
		{"REFRESH_INTERVAL", "-1h"},
		{"MIN_YEAR", "twenty"},
		{"MIN_YEAR", "1850"},
		{"GRID_CELL_SIZE", "0"},
		{"IDW_POWER", "-2"},
		{"IDW_POWER", "120"},
		{"SYNTHETIC_SEED", "-1"},
		{"FRAME_RATE_LIMIT", "0"},
		{"NORTH_ARM_STATIONS", " , "},
		{"OTEL_TRACES_SAMPLER_ARG", "1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := config.Load()
			require.Error(t, err)
			assert.ErrorIs(t, err, config.ErrInvalid)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
