package heatmap_test

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinemap/brinemap/internal/boundary"
	"github.com/brinemap/brinemap/internal/heatmap"
)

func TestBuildProjection_FitsViewport(t *testing.T) {
	vp := heatmap.DefaultViewport()
	set := twoArms()
	proj, err := heatmap.BuildProjection(set, vp)
	require.NoError(t, err)

	bound, ok := set.Bound()
	require.True(t, ok)

	minX, maxY, ok := proj.Forward(bound.Min)
	require.True(t, ok)
	maxX, minY, ok := proj.Forward(bound.Max)
	require.True(t, ok)

	const tol = 1e-6
	assert.Less(t, minX, maxX)
	assert.Less(t, minY, maxY, "screen y grows downward")
	for _, v := range []float64{minX, maxX} {
		assert.GreaterOrEqual(t, v, vp.Margin-tol)
		assert.LessOrEqual(t, v, vp.Width-vp.Margin+tol)
	}
	for _, v := range []float64{minY, maxY} {
		assert.GreaterOrEqual(t, v, vp.Margin-tol)
		assert.LessOrEqual(t, v, vp.Height-vp.Margin+tol)
	}

	// One axis is tight against the margin.
	tightX := math.Abs((maxX-minX)-(vp.Width-2*vp.Margin)) < tol
	tightY := math.Abs((maxY-minY)-(vp.Height-2*vp.Margin)) < tol
	assert.True(t, tightX || tightY)
}

func TestProjection_RoundTrip(t *testing.T) {
	proj, err := heatmap.BuildProjection(twoArms(), heatmap.DefaultViewport())
	require.NoError(t, err)

	for _, p := range []orb.Point{{-112.5, 41.1}, {-113.0, 40.7}, {-112.2, 41.69}} {
		x, y, ok := proj.Forward(p)
		require.True(t, ok)
		back, ok := proj.Inverse(x, y)
		require.True(t, ok)
		assert.InDelta(t, p[0], back[0], 1e-7)
		assert.InDelta(t, p[1], back[1], 1e-7)
	}
}

func TestBuildProjection_Errors(t *testing.T) {
	_, err := heatmap.BuildProjection(nil, heatmap.DefaultViewport())
	assert.ErrorIs(t, err, heatmap.ErrNoBoundary)

	_, err = heatmap.BuildProjection(&boundary.Set{}, heatmap.DefaultViewport())
	assert.ErrorIs(t, err, heatmap.ErrNoBoundary)

	point := &boundary.Set{South: orb.Polygon{orb.Ring{{-112, 41}, {-112, 41}, {-112, 41}, {-112, 41}}}}
	_, err = heatmap.BuildProjection(point, heatmap.DefaultViewport())
	assert.ErrorIs(t, err, heatmap.ErrDegenerateBoundary)

	_, err = heatmap.BuildProjection(twoArms(), heatmap.Viewport{Width: 30, Height: 30, Margin: 20})
	assert.ErrorIs(t, err, heatmap.ErrInvalidViewport)
}

func TestProjection_RejectsNonFinite(t *testing.T) {
	proj, err := heatmap.BuildProjection(twoArms(), heatmap.DefaultViewport())
	require.NoError(t, err)

	_, _, ok := proj.Forward(orb.Point{math.NaN(), 41})
	assert.False(t, ok)
	_, ok = proj.Inverse(math.Inf(1), 10)
	assert.False(t, ok)
}

func TestProjectionCache(t *testing.T) {
	var cache heatmap.ProjectionCache
	set := twoArms()

	first, err := cache.Get(set, heatmap.DefaultViewport())
	require.NoError(t, err)
	second, err := cache.Get(set, heatmap.DefaultViewport())
	require.NoError(t, err)
	assert.Same(t, first, second)

	resized, err := cache.Get(set, heatmap.Viewport{Width: 400, Height: 300, Margin: 10})
	require.NoError(t, err)
	assert.NotSame(t, first, resized)

	_, err = cache.Get(&boundary.Set{}, heatmap.DefaultViewport())
	assert.ErrorIs(t, err, heatmap.ErrNoBoundary)
}
