package heatmap_test

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/brinemap/brinemap/internal/boundary"
	"github.com/brinemap/brinemap/internal/chemistry"
)

// syntheticDataset covers 2000-01 through 2001-02 for the fixed station set.
func syntheticDataset(t *testing.T) *chemistry.Dataset {
	t.Helper()
	historical, err := chemistry.LoadHistoricalTemperatures()
	require.NoError(t, err)

	r := chemistry.NewReconciler(chemistry.ReconcilerConfig{
		Clock:      clockwork.NewFakeClockAt(time.Date(2001, time.February, 3, 0, 0, 0, 0, time.UTC)),
		Rand:       rand.New(rand.NewPCG(7, 11)),
		Historical: historical,
	})
	return r.Synthesize()
}

func rect(minLon, minLat, maxLon, maxLat float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minLon, minLat}, {maxLon, minLat}, {maxLon, maxLat}, {minLon, maxLat}, {minLon, minLat},
	}}
}

// twoArms splits the lake at latitude 41.25.
func twoArms() *boundary.Set {
	return &boundary.Set{
		North: rect(-113.0, 41.25, -112.2, 41.7),
		South: rect(-113.0, 40.7, -112.0, 41.25),
	}
}
