// Package api provides the HTTP API for BrineMap.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/brinemap/brinemap/internal/api/handler"
	"github.com/brinemap/brinemap/internal/api/middleware"
	"github.com/brinemap/brinemap/internal/lakedata"
	"github.com/brinemap/brinemap/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// Store holds the loaded lake data. Lake routes answer 503 until it is set.
	Store *lakedata.Store

	// Registry reports provider health on /v1/ops/status.
	Registry *resilience.Registry

	// FrameRateLimit is the per-IP limit on the frame endpoint, per minute.
	// Zero uses middleware.FrameRateLimit.
	FrameRateLimit int
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "brinemap-api"
	}
	store := cfg.Store
	if store == nil {
		store = &lakedata.Store{}
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, store, cfg.Registry)
	lakeHandler := handler.NewLakeHandler(store, cfg.Logger)

	frameLimit := middleware.FrameRateLimit
	if cfg.FrameRateLimit > 0 {
		frameLimit.RequestLimit = cfg.FrameRateLimit
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(middleware.StandardRateLimit))
			r.Get("/stations", lakeHandler.ListStations)
			r.Get("/timepoints", lakeHandler.ListTimePoints)
			r.Get("/series/{variable}", lakeHandler.GetSeries)
			r.Get("/ranges", lakeHandler.ListRanges)
			r.Get("/warnings", lakeHandler.GetDataSummary)
		})

		// Frames rasterize the whole grid on every call.
		r.With(middleware.RateLimitByIP(frameLimit)).
			Get("/frames/{variable}/{timePoint}", lakeHandler.GetFrame)
	})

	return r
}
