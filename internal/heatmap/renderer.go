package heatmap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/brinemap/brinemap/internal/boundary"
	"github.com/brinemap/brinemap/internal/chemistry"
)

const instrumentationName = "github.com/brinemap/brinemap/internal/heatmap"

// ErrUnknownTimePoint is returned for a time point outside the dataset.
var ErrUnknownTimePoint = errors.New("unknown time point")

// Marker is a projected station position for point rendering.
type Marker struct {
	StationID string          `json:"stationId"`
	Name      string          `json:"name"`
	Region    boundary.Region `json:"region"`
	X         float64         `json:"x"`
	Y         float64         `json:"y"`
	Value     *float64        `json:"value,omitempty"`
}

// Frame is one rendered (variable, time point) selection.
type Frame struct {
	Variable  chemistry.Variable  `json:"variable"`
	TimePoint chemistry.TimePoint `json:"timePoint"`
	Range     chemistry.DataRange `json:"range"`
	North     *Raster             `json:"north"`
	South     *Raster             `json:"south"`
	Markers   []Marker            `json:"markers"`
}

// RendererConfig holds configuration for the renderer.
type RendererConfig struct {
	Viewport      Viewport
	CellSize      float64
	Interpolation InterpolationConfig

	// Partitioner assigns stations to regions. Default: MembershipPartitioner
	// with DefaultNorthArm.
	Partitioner Partitioner

	Logger zerolog.Logger
}

// DefaultRendererConfig returns the default configuration.
func DefaultRendererConfig() RendererConfig {
	return RendererConfig{
		Viewport:      DefaultViewport(),
		CellSize:      DefaultCellSize,
		Interpolation: DefaultInterpolationConfig(),
		Logger:        zerolog.Nop(),
	}
}

// Renderer produces frames from an immutable dataset and boundary set. It is
// safe for concurrent use.
type Renderer struct {
	dataset     *chemistry.Dataset
	boundaries  *boundary.Set
	viewport    Viewport
	partitioner Partitioner
	rasterizer  *Rasterizer
	projections ProjectionCache
	logger      zerolog.Logger

	tracer         trace.Tracer
	rasterDuration metric.Float64Histogram
}

// NewRenderer creates a renderer.
func NewRenderer(ds *chemistry.Dataset, set *boundary.Set, cfg RendererConfig) (*Renderer, error) {
	if cfg.Viewport == (Viewport{}) {
		cfg.Viewport = DefaultViewport()
	}
	if cfg.Partitioner == nil {
		cfg.Partitioner = NewMembershipPartitioner()
	}

	rasterDuration, err := otel.Meter(instrumentationName).Float64Histogram(
		"heatmap.raster.duration",
		metric.WithDescription("Duration of one full grid rasterization in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create raster histogram: %w", err)
	}

	r := &Renderer{
		dataset:        ds,
		boundaries:     set,
		viewport:       cfg.Viewport,
		partitioner:    cfg.Partitioner,
		rasterizer:     NewRasterizer(cfg.CellSize, NewInterpolator(cfg.Interpolation)),
		logger:         cfg.Logger,
		tracer:         otel.Tracer(instrumentationName),
		rasterDuration: rasterDuration,
	}
	r.checkMembership()
	return r, nil
}

// checkMembership logs stations whose position lies in the other region's
// outline. Membership still decides the region.
func (r *Renderer) checkMembership() {
	if r.boundaries.Simplified {
		return
	}
	for _, s := range r.dataset.Stations() {
		located, ok := r.boundaries.Locate(orb.Point{s.Lon, s.Lat})
		if !ok {
			continue
		}
		if assigned := r.partitioner.Region(s.ID); located != assigned {
			r.logger.Debug().
				Str("station", s.ID).
				Str("assigned", string(assigned)).
				Str("located", string(located)).
				Msg("station lies outside its region outline")
		}
	}
}

// Viewport returns the viewport frames are drawn into.
func (r *Renderer) Viewport() Viewport {
	return r.viewport
}

// Region returns the region a station is assigned to.
func (r *Renderer) Region(stationID string) boundary.Region {
	if r.boundaries.Simplified {
		return boundary.RegionSouth
	}
	return r.partitioner.Region(stationID)
}

// Render rasterizes one variable at one time point. Projection failures are
// returned as is; there is no substitute projection.
func (r *Renderer) Render(ctx context.Context, v chemistry.Variable, tp chemistry.TimePoint) (*Frame, error) {
	ctx, span := r.tracer.Start(ctx, "heatmap.Render", trace.WithAttributes(
		attribute.String("variable", string(v)),
		attribute.String("time_point", tp.String()),
	))
	defer span.End()

	if !r.dataset.HasTimePoint(tp) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTimePoint, tp)
	}

	proj, err := r.projections.Get(r.boundaries, r.viewport)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "projection")
		return nil, fmt.Errorf("build projection: %w", err)
	}

	samples := Samples(r.partitioner, r.dataset, v, tp, proj, r.boundaries.Simplified)

	start := time.Now()
	north, south, err := r.rasterizer.Rasterize(ctx, proj, r.boundaries, samples)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rasterize")
		return nil, err
	}
	r.rasterDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("variable", string(v)),
	))

	r.logger.Debug().
		Str("variable", string(v)).
		Stringer("time_point", tp).
		Int("north_cells", north.PaintedCount()).
		Int("south_cells", south.PaintedCount()).
		Dur("duration", elapsed).
		Msg("frame rendered")

	return &Frame{
		Variable:  v,
		TimePoint: tp,
		Range:     r.dataset.Range(v),
		North:     north,
		South:     south,
		Markers:   r.markers(v, tp, proj),
	}, nil
}

// markers projects every station, with its value when one exists.
func (r *Renderer) markers(v chemistry.Variable, tp chemistry.TimePoint, proj *Projection) []Marker {
	stations := r.dataset.Stations()
	out := make([]Marker, 0, len(stations))
	for _, s := range stations {
		x, y, ok := proj.Forward(orb.Point{s.Lon, s.Lat})
		if !ok {
			continue
		}
		m := Marker{
			StationID: s.ID,
			Name:      s.Name,
			Region:    r.Region(s.ID),
			X:         x,
			Y:         y,
		}
		if value, ok := r.dataset.Value(v, tp, s.ID); ok {
			m.Value = &value
		}
		out = append(out, m)
	}
	return out
}
