// Package config reads process configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrInvalid wraps every rejected environment value.
var ErrInvalid = errors.New("invalid configuration")

// MaxIDWPower is the largest accepted IDW_POWER.
const MaxIDWPower = 10

// Config holds every setting of the API process.
type Config struct {
	Port     string
	Env      string
	LogLevel zerolog.Level

	// Feeds. An empty URL disables the feed and the fallback is used.
	SiteFeedURL     string
	BoundaryFeedURL string
	FetchTimeout    time.Duration

	// RefreshInterval is the period between feed reloads. Zero loads once.
	RefreshInterval time.Duration

	// Engine.
	MinYear       int
	GridCellSize  float64
	IDWPower      float64
	SyntheticSeed uint64
	NorthArm      []string

	// FrameRateLimit is the number of frame requests allowed per client and
	// minute.
	FrameRateLimit int

	OTelEnabled  bool
	OTLPEndpoint string

	// TraceSampleRatio is the fraction of root traces sampled, in [0, 1].
	TraceSampleRatio float64
}

// Load reads the configuration, applying defaults where a variable is unset.
func Load() (*Config, error) {
	var errs []error

	cfg := &Config{
		Port:            getEnvOrDefault("APP_PORT", "8080"),
		Env:             getEnvOrDefault("APP_ENV", "development"),
		SiteFeedURL:     os.Getenv("SITE_FEED_URL"),
		BoundaryFeedURL: os.Getenv("BOUNDARY_FEED_URL"),
		OTelEnabled:     os.Getenv("OTEL_ENABLED") == "true",
		OTLPEndpoint:    getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		NorthArm:        splitList(getEnvOrDefault("NORTH_ARM_STATIONS", "RD2,LVG4,CB1")),
	}

	level, err := zerolog.ParseLevel(getEnvOrDefault("LOG_LEVEL", "info"))
	if err != nil {
		errs = append(errs, invalid("LOG_LEVEL", err))
	}
	cfg.LogLevel = level

	cfg.FetchTimeout, err = time.ParseDuration(getEnvOrDefault("FETCH_TIMEOUT", "5s"))
	if err != nil || cfg.FetchTimeout <= 0 {
		errs = append(errs, invalid("FETCH_TIMEOUT", err))
	}

	cfg.RefreshInterval, err = time.ParseDuration(getEnvOrDefault("REFRESH_INTERVAL", "24h"))
	if err != nil || cfg.RefreshInterval < 0 {
		errs = append(errs, invalid("REFRESH_INTERVAL", err))
	}

	cfg.MinYear, err = strconv.Atoi(getEnvOrDefault("MIN_YEAR", "2000"))
	if err != nil || cfg.MinYear < 1900 {
		errs = append(errs, invalid("MIN_YEAR", err))
	}

	cfg.GridCellSize, err = strconv.ParseFloat(getEnvOrDefault("GRID_CELL_SIZE", "5"), 64)
	if err != nil || cfg.GridCellSize <= 0 {
		errs = append(errs, invalid("GRID_CELL_SIZE", err))
	}

	cfg.IDWPower, err = strconv.ParseFloat(getEnvOrDefault("IDW_POWER", "2"), 64)
	if err != nil || cfg.IDWPower <= 0 || cfg.IDWPower > MaxIDWPower {
		errs = append(errs, invalid("IDW_POWER", err))
	}

	cfg.SyntheticSeed, err = strconv.ParseUint(getEnvOrDefault("SYNTHETIC_SEED", "0"), 10, 64)
	if err != nil {
		errs = append(errs, invalid("SYNTHETIC_SEED", err))
	}

	cfg.FrameRateLimit, err = strconv.Atoi(getEnvOrDefault("FRAME_RATE_LIMIT", "120"))
	if err != nil || cfg.FrameRateLimit <= 0 {
		errs = append(errs, invalid("FRAME_RATE_LIMIT", err))
	}

	cfg.TraceSampleRatio, err = strconv.ParseFloat(getEnvOrDefault("OTEL_TRACES_SAMPLER_ARG", "1"), 64)
	if err != nil || cfg.TraceSampleRatio < 0 || cfg.TraceSampleRatio > 1 {
		errs = append(errs, invalid("OTEL_TRACES_SAMPLER_ARG", err))
	}

	if len(cfg.NorthArm) == 0 {
		errs = append(errs, invalid("NORTH_ARM_STATIONS", errors.New("empty list")))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// IsProduction reports whether the process runs in production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func invalid(key string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s out of range", ErrInvalid, key)
	}
	return fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
