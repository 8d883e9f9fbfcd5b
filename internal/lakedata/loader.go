// Package lakedata loads the station and boundary feeds and builds the
// immutable data context every request reads from.
package lakedata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/brinemap/brinemap/internal/boundary"
	"github.com/brinemap/brinemap/internal/chemistry"
	"github.com/brinemap/brinemap/internal/fallback"
	"github.com/brinemap/brinemap/internal/heatmap"
	"github.com/brinemap/brinemap/internal/provider/resilience"
)

const tracerName = "github.com/brinemap/brinemap/internal/lakedata"

// Strategy names, in the order they are tried.
const (
	StrategySiteFeed          = "site-feed"
	StrategySynthetic         = "synthetic"
	StrategyBoundaryFeed      = "boundary-feed"
	StrategySimplifiedOutline = "simplified-outline"
)

// Warning sources.
const (
	SourceSites      = "sites"
	SourceBoundaries = "boundaries"
)

// ErrFeedDisabled is returned by a feed strategy without a configured source.
var ErrFeedDisabled = errors.New("feed not configured")

// SiteSource fetches raw monitoring sites.
type SiteSource interface {
	FetchSites(ctx context.Context) ([]chemistry.RawSite, error)
}

// BoundarySource fetches region boundaries.
type BoundarySource interface {
	FetchBoundaries(ctx context.Context) (*boundary.Set, error)
}

// Warning is a non-fatal problem met while loading.
type Warning struct {
	Source   string `json:"source"`
	Strategy string `json:"strategy,omitempty"`
	Message  string `json:"message"`
}

// Context is the read-only result of a load, shared by all readers.
type Context struct {
	Dataset    *chemistry.Dataset
	Boundaries *boundary.Set
	Renderer   *heatmap.Renderer
	Warnings   []Warning

	// SiteStrategy and BoundaryStrategy name the strategies that produced
	// the data.
	SiteStrategy     string
	BoundaryStrategy string

	LoadedAt time.Time
}

// LoaderConfig holds configuration for the loader.
type LoaderConfig struct {
	// Sites and Boundaries are the feeds. A nil source always falls back.
	Sites      SiteSource
	Boundaries BoundarySource

	// FetchTimeout bounds each feed attempt. Default: 5s.
	FetchTimeout time.Duration

	Reconciler *chemistry.Reconciler
	MinYear    int
	Renderer   heatmap.RendererConfig

	// Registry, when set, tracks the outcome of every strategy.
	Registry *resilience.Registry

	Clock  clockwork.Clock
	Logger zerolog.Logger
}

// Loader runs both feed loads concurrently and applies their fallbacks.
type Loader struct {
	config LoaderConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewLoader creates a loader.
func NewLoader(cfg LoaderConfig) *Loader {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 5 * time.Second
	}
	if cfg.MinYear <= 0 {
		cfg.MinYear = chemistry.DefaultReconcilerConfig().MinYear
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Reconciler == nil {
		cfg.Reconciler = chemistry.NewReconciler(chemistry.ReconcilerConfig{
			MinYear: cfg.MinYear,
			Clock:   cfg.Clock,
			Logger:  cfg.Logger,
		})
	}

	l := &Loader{
		config: cfg,
		tracer: otel.Tracer(tracerName),
		logger: cfg.Logger,
	}
	if cfg.Registry != nil {
		for _, name := range append(l.siteChain().Names(), l.boundaryChain().Names()...) {
			cfg.Registry.Track(name)
		}
	}
	return l
}

// Load fetches both feeds concurrently. Feed failures never fail the load;
// they become warnings and the fallback strategy's data is used instead.
// An error is returned only when ctx ends or the renderer cannot be built.
func (l *Loader) Load(ctx context.Context) (*Context, error) {
	ctx, span := l.tracer.Start(ctx, "lakedata.Load")
	defer span.End()

	var (
		dataset        *chemistry.Dataset
		boundaries     *boundary.Set
		siteOutcomes   []fallback.Outcome
		borderOutcomes []fallback.Outcome
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dataset, siteOutcomes, err = l.siteChain().Run(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		boundaries, borderOutcomes, err = l.boundaryChain().Run(gCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("load lake data: %w", err)
	}

	l.record(siteOutcomes)
	l.record(borderOutcomes)

	renderer, err := heatmap.NewRenderer(dataset, boundaries, l.config.Renderer)
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	lc := &Context{
		Dataset:          dataset,
		Boundaries:       boundaries,
		Renderer:         renderer,
		SiteStrategy:     winner(siteOutcomes),
		BoundaryStrategy: winner(borderOutcomes),
		LoadedAt:         l.config.Clock.Now(),
	}
	lc.Warnings = append(lc.Warnings, warnings(SourceSites, siteOutcomes)...)
	lc.Warnings = append(lc.Warnings, warnings(SourceBoundaries, borderOutcomes)...)
	if dataset.GenericSalinity > 0 {
		lc.Warnings = append(lc.Warnings, Warning{
			Source:  SourceSites,
			Message: fmt.Sprintf("%d salinity readings came from the unlabeled field and were used as g/L", dataset.GenericSalinity),
		})
	}

	span.SetAttributes(
		attribute.String("sites.strategy", lc.SiteStrategy),
		attribute.String("boundaries.strategy", lc.BoundaryStrategy),
		attribute.Int("warnings", len(lc.Warnings)),
	)

	for _, w := range lc.Warnings {
		l.logger.Warn().
			Str("source", w.Source).
			Str("strategy", w.Strategy).
			Msg(w.Message)
	}
	l.logger.Info().
		Str("sites", lc.SiteStrategy).
		Str("boundaries", lc.BoundaryStrategy).
		Int("stations", len(dataset.Stations())).
		Int("time_points", len(dataset.TimePoints())).
		Msg("lake data loaded")

	return lc, nil
}

func (l *Loader) siteChain() *fallback.Chain[*chemistry.Dataset] {
	return fallback.New(
		fallback.Strategy[*chemistry.Dataset]{
			Name: StrategySiteFeed,
			Run: func(ctx context.Context) (*chemistry.Dataset, error) {
				if l.config.Sites == nil {
					return nil, ErrFeedDisabled
				}
				ctx, cancel := context.WithTimeout(ctx, l.config.FetchTimeout)
				defer cancel()

				ctx, span := l.tracer.Start(ctx, "lakedata.FetchSites")
				defer span.End()

				raw, err := l.config.Sites.FetchSites(ctx)
				if err != nil {
					span.RecordError(err)
					return nil, err
				}
				sites := chemistry.PrepareSites(raw, l.config.MinYear)
				return l.config.Reconciler.Reconcile(sites)
			},
		},
		fallback.Strategy[*chemistry.Dataset]{
			Name: StrategySynthetic,
			Run: func(context.Context) (*chemistry.Dataset, error) {
				return l.config.Reconciler.Synthesize(), nil
			},
		},
	)
}

func (l *Loader) boundaryChain() *fallback.Chain[*boundary.Set] {
	return fallback.New(
		fallback.Strategy[*boundary.Set]{
			Name: StrategyBoundaryFeed,
			Run: func(ctx context.Context) (*boundary.Set, error) {
				if l.config.Boundaries == nil {
					return nil, ErrFeedDisabled
				}
				ctx, cancel := context.WithTimeout(ctx, l.config.FetchTimeout)
				defer cancel()

				ctx, span := l.tracer.Start(ctx, "lakedata.FetchBoundaries")
				defer span.End()

				set, err := l.config.Boundaries.FetchBoundaries(ctx)
				if err != nil {
					span.RecordError(err)
					return nil, err
				}
				return set, nil
			},
		},
		fallback.Strategy[*boundary.Set]{
			Name: StrategySimplifiedOutline,
			Run: func(context.Context) (*boundary.Set, error) {
				return boundary.Simplified(), nil
			},
		},
	)
}

func (l *Loader) record(outcomes []fallback.Outcome) {
	if l.config.Registry == nil {
		return
	}
	for _, o := range outcomes {
		if o.Succeeded() {
			l.config.Registry.RecordSuccess(o.Strategy)
		} else {
			l.config.Registry.RecordFailure(o.Strategy, o.Err)
		}
	}
}

func winner(outcomes []fallback.Outcome) string {
	for _, o := range outcomes {
		if o.Succeeded() {
			return o.Strategy
		}
	}
	return ""
}

func warnings(source string, outcomes []fallback.Outcome) []Warning {
	failed := fallback.Failures(outcomes)
	out := make([]Warning, 0, len(failed))
	for _, o := range failed {
		out = append(out, Warning{
			Source:   source,
			Strategy: o.Strategy,
			Message:  o.Err.Error(),
		})
	}
	return out
}
