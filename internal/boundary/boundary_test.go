package boundary_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinemap/brinemap/internal/boundary"
)

const twoArms = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"name": "Gunnison Bay (North Arm)"},
      "geometry": {"type": "Polygon", "coordinates": [[[-113.0,41.25],[-112.45,41.25],[-112.45,41.7],[-113.0,41.7],[-113.0,41.25]]]}
    },
    {
      "type": "Feature",
      "properties": {"name": "south arm"},
      "geometry": {"type": "MultiPolygon", "coordinates": [
        [[[-112.9,40.7],[-112.0,40.7],[-112.0,41.25],[-112.9,41.25],[-112.9,40.7]]],
        [[[-112.3,41.25],[-112.0,41.25],[-112.0,41.4],[-112.3,41.4],[-112.3,41.25]]]
      ]}
    },
    {
      "type": "Feature",
      "properties": {"name": "Farmington Bay"},
      "geometry": {"type": "Polygon", "coordinates": [[[-112.0,40.9],[-111.9,40.9],[-111.9,41.0],[-112.0,41.0],[-112.0,40.9]]]}
    }
  ]
}`

func TestParse_ClassifiesRegions(t *testing.T) {
	set, err := boundary.Parse([]byte(twoArms))
	require.NoError(t, err)

	assert.False(t, set.Simplified)
	assert.IsType(t, orb.Polygon{}, set.North)
	assert.IsType(t, orb.MultiPolygon{}, set.South)

	r, ok := set.Locate(orb.Point{-112.7, 41.5})
	require.True(t, ok)
	assert.Equal(t, boundary.RegionNorth, r)

	r, ok = set.Locate(orb.Point{-112.5, 41.0})
	require.True(t, ok)
	assert.Equal(t, boundary.RegionSouth, r)

	r, ok = set.Locate(orb.Point{-112.15, 41.3})
	require.True(t, ok)
	assert.Equal(t, boundary.RegionSouth, r)

	_, ok = set.Locate(orb.Point{-111.95, 40.95})
	assert.False(t, ok, "unclassified features are ignored")

	bound, ok := set.Bound()
	require.True(t, ok)
	assert.Equal(t, orb.Point{-113.0, 40.7}, bound.Min)
	assert.Equal(t, orb.Point{-112.0, 41.7}, bound.Max)
}

func TestParse_NoRegions(t *testing.T) {
	_, err := boundary.Parse([]byte(`{"type":"FeatureCollection","features":[]}`))
	assert.ErrorIs(t, err, boundary.ErrNoRegions)

	_, err = boundary.Parse([]byte(`not json`))
	assert.Error(t, err)
}

func TestClassifyName(t *testing.T) {
	tests := []struct {
		name string
		want boundary.Region
		ok   bool
	}{
		{name: "NORTH ARM", want: boundary.RegionNorth, ok: true},
		{name: "Gilbert Bay", want: boundary.RegionSouth, ok: true},
		{name: "South Arm", want: boundary.RegionSouth, ok: true},
		{name: "Bear River Bay", ok: false},
	}
	for _, tt := range tests {
		got, ok := boundary.ClassifyName(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestSimplified(t *testing.T) {
	set := boundary.Simplified()

	assert.True(t, set.Simplified)
	assert.Nil(t, set.North)
	require.NotNil(t, set.South)
	assert.True(t, set.Contains(boundary.RegionSouth, orb.Point{-112.5, 41.1}))
	assert.False(t, set.Contains(boundary.RegionNorth, orb.Point{-112.5, 41.1}))
}

func TestClient_FetchBoundaries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = w.Write([]byte(twoArms))
	}))
	defer server.Close()

	client := boundary.NewClient(boundary.ClientConfig{URL: server.URL, HTTPClient: http.DefaultClient})

	set, err := client.FetchBoundaries(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, set.North)
	assert.NotNil(t, set.South)
}

func TestClient_FetchBoundaries_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := boundary.NewClient(boundary.ClientConfig{URL: server.URL, HTTPClient: http.DefaultClient})

	_, err := client.FetchBoundaries(context.Background())
	assert.Error(t, err)
}
