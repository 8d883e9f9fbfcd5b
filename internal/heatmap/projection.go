package heatmap

import (
	"errors"
	"math"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"github.com/brinemap/brinemap/internal/boundary"
)

// Projection errors.
var (
	ErrNoBoundary         = errors.New("no boundary geometry to fit")
	ErrDegenerateBoundary = errors.New("boundary geometry has no extent")
	ErrInvalidViewport    = errors.New("viewport leaves no drawable area")
)

// Viewport is the planar drawing area. Y grows downward.
type Viewport struct {
	Width  float64
	Height float64
	Margin float64
}

// DefaultViewport returns the default 800x600 viewport with a 20 unit margin.
func DefaultViewport() Viewport {
	return Viewport{Width: 800, Height: 600, Margin: 20}
}

func (v Viewport) inner() (w, h float64) {
	return v.Width - 2*v.Margin, v.Height - 2*v.Margin
}

// Projection maps longitude/latitude to viewport coordinates through Web
// Mercator, scaled uniformly so the fitted bound fills the viewport inside
// its margin.
type Projection struct {
	viewport Viewport
	scale    float64
	offsetX  float64
	offsetY  float64
	minX     float64 // mercator
	maxY     float64 // mercator
}

// BuildProjection fits a projection to the combined bound of both regions.
func BuildProjection(set *boundary.Set, viewport Viewport) (*Projection, error) {
	if set == nil {
		return nil, ErrNoBoundary
	}
	bound, ok := set.Bound()
	if !ok {
		return nil, ErrNoBoundary
	}
	return fitBound(bound, viewport)
}

func fitBound(bound orb.Bound, viewport Viewport) (*Projection, error) {
	innerW, innerH := viewport.inner()
	if !(innerW > 0) || !(innerH > 0) {
		return nil, ErrInvalidViewport
	}

	lo := project.WGS84.ToMercator(bound.Min)
	hi := project.WGS84.ToMercator(bound.Max)
	spanX, spanY := hi[0]-lo[0], hi[1]-lo[1]
	if !isFinite(spanX) || !isFinite(spanY) || spanX <= 0 || spanY <= 0 {
		return nil, ErrDegenerateBoundary
	}

	scale := math.Min(innerW/spanX, innerH/spanY)
	return &Projection{
		viewport: viewport,
		scale:    scale,
		offsetX:  viewport.Margin + (innerW-spanX*scale)/2,
		offsetY:  viewport.Margin + (innerH-spanY*scale)/2,
		minX:     lo[0],
		maxY:     hi[1],
	}, nil
}

// Viewport returns the viewport the projection was fitted to.
func (p *Projection) Viewport() Viewport {
	return p.viewport
}

// Forward maps a lon/lat point to viewport coordinates.
func (p *Projection) Forward(pt orb.Point) (x, y float64, ok bool) {
	if !isFinite(pt[0]) || !isFinite(pt[1]) {
		return 0, 0, false
	}
	m := project.WGS84.ToMercator(pt)
	x = p.offsetX + (m[0]-p.minX)*p.scale
	y = p.offsetY + (p.maxY-m[1])*p.scale
	if !isFinite(x) || !isFinite(y) {
		return 0, 0, false
	}
	return x, y, true
}

// Inverse maps viewport coordinates back to lon/lat.
func (p *Projection) Inverse(x, y float64) (orb.Point, bool) {
	if !isFinite(x) || !isFinite(y) {
		return orb.Point{}, false
	}
	m := orb.Point{
		p.minX + (x-p.offsetX)/p.scale,
		p.maxY - (y-p.offsetY)/p.scale,
	}
	pt := project.Mercator.ToWGS84(m)
	if !isFinite(pt[0]) || !isFinite(pt[1]) {
		return orb.Point{}, false
	}
	return pt, true
}

// ProjectionCache remembers the projection of the last boundary set and
// viewport it was asked for.
type ProjectionCache struct {
	mu       sync.Mutex
	set      *boundary.Set
	viewport Viewport
	proj     *Projection
}

// Get returns the cached projection or builds a new one. Build failures are
// not cached.
func (c *ProjectionCache) Get(set *boundary.Set, viewport Viewport) (*Projection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.proj != nil && c.set == set && c.viewport == viewport {
		return c.proj, nil
	}

	proj, err := BuildProjection(set, viewport)
	if err != nil {
		return nil, err
	}
	c.set, c.viewport, c.proj = set, viewport, proj
	return proj, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
