package lakedata_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinemap/brinemap/internal/boundary"
	"github.com/brinemap/brinemap/internal/chemistry"
	"github.com/brinemap/brinemap/internal/lakedata"
	"github.com/brinemap/brinemap/internal/provider/resilience"
)

type siteFunc func(ctx context.Context) ([]chemistry.RawSite, error)

func (f siteFunc) FetchSites(ctx context.Context) ([]chemistry.RawSite, error) { return f(ctx) }

type boundaryFunc func(ctx context.Context) (*boundary.Set, error)

func (f boundaryFunc) FetchBoundaries(ctx context.Context) (*boundary.Set, error) { return f(ctx) }

var now = time.Date(2011, time.March, 15, 0, 0, 0, 0, time.UTC)

func newLoader(sites lakedata.SiteSource, bounds lakedata.BoundarySource, registry *resilience.Registry) *lakedata.Loader {
	clock := clockwork.NewFakeClockAt(now)
	return lakedata.NewLoader(lakedata.LoaderConfig{
		Sites:        sites,
		Boundaries:   bounds,
		FetchTimeout: 50 * time.Millisecond,
		Reconciler: chemistry.NewReconciler(chemistry.ReconcilerConfig{
			Clock: clock,
			Rand:  rand.New(rand.NewPCG(3, 5)),
		}),
		Registry: registry,
		Clock:    clock,
	})
}

// feedSites returns three stations with monthly readings through 2010.
func feedSites(salinityField string) []chemistry.RawSite {
	ids := []string{"AS2", "RD2", "SJ1"}
	sites := make([]chemistry.RawSite, 0, len(ids))
	for i, id := range ids {
		site := chemistry.RawSite{
			ID:       id,
			Geometry: []byte(fmt.Sprintf(`{"type":"Point","coordinates":[%f,41.1]}`, -112.7+float64(i)*0.1)),
		}
		for m := 1; m <= 12; m++ {
			site.Readings = append(site.Readings, chemistry.RawReading{
				"date":        fmt.Sprintf("2010-%02d-15", m),
				salinityField: fmt.Sprintf("%d", 120+m),
			})
		}
		sites = append(sites, site)
	}
	return sites
}

func arms() *boundary.Set {
	return &boundary.Set{
		North: orbRect(-113.0, 41.25, -112.2, 41.7),
		South: orbRect(-113.0, 40.7, -112.0, 41.25),
	}
}

func TestLoad_FeedsSucceed(t *testing.T) {
	registry := resilience.NewRegistry()
	loader := newLoader(
		siteFunc(func(context.Context) ([]chemistry.RawSite, error) { return feedSites("Salinity (g/L)"), nil }),
		boundaryFunc(func(context.Context) (*boundary.Set, error) { return arms(), nil }),
		registry,
	)

	lc, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, lakedata.StrategySiteFeed, lc.SiteStrategy)
	assert.Equal(t, lakedata.StrategyBoundaryFeed, lc.BoundaryStrategy)
	assert.Empty(t, lc.Warnings)
	assert.False(t, lc.Dataset.Synthetic)
	assert.True(t, lc.Dataset.HasRealSalinity)
	assert.False(t, lc.Boundaries.Simplified)
	assert.Equal(t, now, lc.LoadedAt)
	require.NotNil(t, lc.Renderer)

	v, ok := lc.Dataset.Value(chemistry.VariableSalinity, chemistry.TimePoint{Year: 2010, Month: 4}, "RD2")
	require.True(t, ok)
	assert.Equal(t, 124.0, v)

	health := registry.GetHealth(lakedata.StrategySiteFeed)
	require.NotNil(t, health)
	assert.NotNil(t, health.LastSuccessAt)
	assert.Nil(t, registry.GetHealth(lakedata.StrategySynthetic).LastSuccessAt, "fallback never ran")
}

func TestLoad_NoFeedsConfigured(t *testing.T) {
	lc, err := newLoader(nil, nil, nil).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, lakedata.StrategySynthetic, lc.SiteStrategy)
	assert.Equal(t, lakedata.StrategySimplifiedOutline, lc.BoundaryStrategy)
	assert.True(t, lc.Dataset.Synthetic)
	assert.True(t, lc.Boundaries.Simplified)
	require.Len(t, lc.Warnings, 2)
	assert.Equal(t, lakedata.SourceSites, lc.Warnings[0].Source)
	assert.Equal(t, lakedata.StrategySiteFeed, lc.Warnings[0].Strategy)
	assert.Equal(t, lakedata.SourceBoundaries, lc.Warnings[1].Source)

	tps := lc.Dataset.TimePoints()
	assert.Equal(t, chemistry.TimePoint{Year: 2000, Month: 1}, tps[0])
	assert.Equal(t, chemistry.TimePoint{Year: 2011, Month: 3}, tps[len(tps)-1])
}

func TestLoad_FeedTimeouts(t *testing.T) {
	blockSites := siteFunc(func(ctx context.Context) ([]chemistry.RawSite, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	blockBounds := boundaryFunc(func(ctx context.Context) (*boundary.Set, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	registry := resilience.NewRegistry()
	start := time.Now()
	lc, err := newLoader(blockSites, blockBounds, registry).Load(context.Background())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	assert.True(t, lc.Dataset.Synthetic)
	assert.True(t, lc.Boundaries.Simplified)
	require.Len(t, lc.Warnings, 2)
	for _, w := range lc.Warnings {
		assert.Contains(t, w.Message, context.DeadlineExceeded.Error())
	}

	health := registry.GetHealth(lakedata.StrategyBoundaryFeed)
	require.NotNil(t, health)
	assert.Equal(t, resilience.StatusDegraded, health.Status())

	frame, err := lc.Renderer.Render(context.Background(), chemistry.VariableDensity, chemistry.TimePoint{Year: 2005, Month: 5})
	require.NoError(t, err)
	assert.Positive(t, frame.South.PaintedCount())
}

func TestLoad_InsufficientDataFallsBack(t *testing.T) {
	sites := siteFunc(func(context.Context) ([]chemistry.RawSite, error) {
		return feedSites("Salinity (g/L)")[:2], nil
	})

	lc, err := newLoader(sites, nil, nil).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, lakedata.StrategySynthetic, lc.SiteStrategy)
	require.NotEmpty(t, lc.Warnings)
	assert.Contains(t, lc.Warnings[0].Message, "insufficient data")
}

func TestLoad_GenericSalinityWarning(t *testing.T) {
	sites := siteFunc(func(context.Context) ([]chemistry.RawSite, error) {
		return feedSites("salinity"), nil
	})
	bounds := boundaryFunc(func(context.Context) (*boundary.Set, error) { return arms(), nil })

	lc, err := newLoader(sites, bounds, nil).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, lakedata.StrategySiteFeed, lc.SiteStrategy)
	assert.Equal(t, 36, lc.Dataset.GenericSalinity)
	require.Len(t, lc.Warnings, 1)
	assert.Contains(t, lc.Warnings[0].Message, "36 salinity readings")
}

func TestLoad_FeedErrorBecomesWarning(t *testing.T) {
	errDown := errors.New("upstream unavailable")
	bounds := boundaryFunc(func(context.Context) (*boundary.Set, error) { return nil, errDown })

	lc, err := newLoader(nil, bounds, nil).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, lc.Warnings, 2)
	assert.Equal(t, "upstream unavailable", lc.Warnings[1].Message)
}

func TestLoad_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newLoader(nil, nil, nil).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore(t *testing.T) {
	var store lakedata.Store
	assert.False(t, store.Ready())
	assert.Nil(t, store.Get())

	lc, err := newLoader(nil, nil, nil).Load(context.Background())
	require.NoError(t, err)

	store.Set(lc)
	assert.True(t, store.Ready())
	assert.Same(t, lc, store.Get())
}
