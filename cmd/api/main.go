// Package main provides the entrypoint for the BrineMap API server.
package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"

	"github.com/brinemap/brinemap/internal/api"
	"github.com/brinemap/brinemap/internal/api/middleware"
	"github.com/brinemap/brinemap/internal/boundary"
	"github.com/brinemap/brinemap/internal/chemistry"
	"github.com/brinemap/brinemap/internal/chemistry/sitefeed"
	"github.com/brinemap/brinemap/internal/config"
	"github.com/brinemap/brinemap/internal/heatmap"
	"github.com/brinemap/brinemap/internal/lakedata"
	"github.com/brinemap/brinemap/internal/provider/resilience"
	"github.com/brinemap/brinemap/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "brinemap-api"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log = log.Level(cfg.LogLevel)
	if !cfg.IsProduction() {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Msg("starting BrineMap API")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
		SampleRatio:    cfg.TraceSampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Float64("sample_ratio", cfg.TraceSampleRatio).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	registry := resilience.NewRegistry()
	loader, err := newLoader(cfg, registry, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure lake data loader")
	}
	log.Info().
		Int("providers", registry.ProviderCount()).
		Bool("site_feed", cfg.SiteFeedURL != "").
		Bool("boundary_feed", cfg.BoundaryFeedURL != "").
		Msg("lake data loader configured")

	store := &lakedata.Store{}
	refresh := lakedata.NewRefreshJob(loader, store, lakedata.RefreshConfig{
		Interval: cfg.RefreshInterval,
		Logger:   log.With().Str("component", "refresh").Logger(),
	})
	go func() {
		if err := refresh.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("lake data refresh stopped")
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Version:        Version,
		BuildTime:      BuildTime,
		Logger:         log,
		ServiceName:    serviceName,
		Metrics:        metrics,
		Store:          store,
		Registry:       registry,
		FrameRateLimit: cfg.FrameRateLimit,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

// newLoader wires the feeds, reconciler and renderer settings. A feed whose
// URL is empty stays nil so its fallback is used.
func newLoader(cfg *config.Config, registry *resilience.Registry, log zerolog.Logger) (*lakedata.Loader, error) {
	historical, err := chemistry.LoadHistoricalTemperatures()
	if err != nil {
		return nil, err
	}

	var rng chemistry.Rand
	if cfg.SyntheticSeed != 0 {
		rng = rand.New(rand.NewPCG(cfg.SyntheticSeed, cfg.SyntheticSeed>>1))
	}

	reconciler := chemistry.NewReconciler(chemistry.ReconcilerConfig{
		MinYear:    cfg.MinYear,
		Rand:       rng,
		Historical: historical,
		Logger:     log.With().Str("component", "reconciler").Logger(),
	})

	var (
		sites  lakedata.SiteSource
		bounds lakedata.BoundarySource
	)
	if cfg.SiteFeedURL != "" {
		sites = sitefeed.NewClient(sitefeed.ClientConfig{
			URL:      cfg.SiteFeedURL,
			Timeout:  cfg.FetchTimeout,
			Registry: registry,
		})
	}
	if cfg.BoundaryFeedURL != "" {
		bounds = boundary.NewClient(boundary.ClientConfig{
			URL:      cfg.BoundaryFeedURL,
			Timeout:  cfg.FetchTimeout,
			Registry: registry,
		})
	}

	renderer := heatmap.DefaultRendererConfig()
	renderer.CellSize = cfg.GridCellSize
	renderer.Interpolation.Power = cfg.IDWPower
	renderer.Partitioner = heatmap.NewMembershipPartitioner(cfg.NorthArm...)
	renderer.Logger = log.With().Str("component", "heatmap").Logger()

	return lakedata.NewLoader(lakedata.LoaderConfig{
		Sites:        sites,
		Boundaries:   bounds,
		FetchTimeout: cfg.FetchTimeout,
		Reconciler:   reconciler,
		MinYear:      cfg.MinYear,
		Renderer:     renderer,
		Registry:     registry,
		Logger:       log.With().Str("component", "lakedata").Logger(),
	}), nil
}
