// Package boundary holds the outlines of the lake's two hydrological regions.
package boundary

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Boundary errors.
var (
	ErrNoRegions = errors.New("no region boundaries recognised")
)

// Region is one of the two arms separated by the railroad causeway.
type Region string

const (
	RegionNorth Region = "north"
	RegionSouth Region = "south"
)

// Regions lists both regions in display order.
func Regions() []Region {
	return []Region{RegionNorth, RegionSouth}
}

// Set is the boundary geometry of both regions. Geometries are Polygon or
// MultiPolygon in longitude/latitude. A Set is immutable once built.
type Set struct {
	North orb.Geometry
	South orb.Geometry

	// Simplified marks the single-outline fallback, where the whole lake is
	// one region stored under South.
	Simplified bool
}

// Geometry returns the boundary of a region, or nil.
func (s *Set) Geometry(r Region) orb.Geometry {
	switch r {
	case RegionNorth:
		return s.North
	case RegionSouth:
		return s.South
	default:
		return nil
	}
}

// Bound returns the combined bounding box of both regions.
func (s *Set) Bound() (orb.Bound, bool) {
	var (
		bound orb.Bound
		found bool
	)
	for _, r := range Regions() {
		g := s.Geometry(r)
		if g == nil {
			continue
		}
		b := g.Bound()
		if !found {
			bound, found = b, true
			continue
		}
		bound = bound.Union(b)
	}
	return bound, found
}

// Contains reports whether p (lon, lat) lies inside the region boundary.
func (s *Set) Contains(r Region, p orb.Point) bool {
	switch g := s.Geometry(r).(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, p)
	default:
		return false
	}
}

// Locate returns the region containing p.
func (s *Set) Locate(p orb.Point) (Region, bool) {
	for _, r := range Regions() {
		if s.Contains(r, p) {
			return r, true
		}
	}
	return "", false
}

// ClassifyName maps a feature name to a region, case-insensitively by substring.
func ClassifyName(name string) (Region, bool) {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "north"), strings.Contains(n, "gunnison"):
		return RegionNorth, true
	case strings.Contains(n, "south"), strings.Contains(n, "gilbert"):
		return RegionSouth, true
	default:
		return "", false
	}
}

// Parse decodes a GeoJSON feature collection into a Set.
func Parse(data []byte) (*Set, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode boundary collection: %w", err)
	}
	return FromFeatureCollection(fc)
}

// FromFeatureCollection classifies features by their name property. Features
// that are not polygonal or whose name matches neither region are ignored;
// several features of one region are merged.
func FromFeatureCollection(fc *geojson.FeatureCollection) (*Set, error) {
	polygons := make(map[Region]orb.MultiPolygon)

	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		region, ok := ClassifyName(f.Properties.MustString("name", ""))
		if !ok {
			continue
		}
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			if len(g) > 0 {
				polygons[region] = append(polygons[region], g)
			}
		case orb.MultiPolygon:
			polygons[region] = append(polygons[region], g...)
		}
	}

	if len(polygons) == 0 {
		return nil, ErrNoRegions
	}

	set := &Set{}
	if mp, ok := polygons[RegionNorth]; ok {
		set.North = collapse(mp)
	}
	if mp, ok := polygons[RegionSouth]; ok {
		set.South = collapse(mp)
	}
	return set, nil
}

func collapse(mp orb.MultiPolygon) orb.Geometry {
	if len(mp) == 1 {
		return mp[0]
	}
	return mp
}

// simplifiedOutline is a coarse outline of the whole lake.
var simplifiedOutline = orb.Polygon{orb.Ring{
	{-112.20, 40.70},
	{-111.98, 41.05},
	{-112.22, 41.45},
	{-112.60, 41.72},
	{-113.08, 41.45},
	{-112.92, 40.85},
	{-112.20, 40.70},
}}

// Simplified returns the fallback boundary: the whole lake as one region.
func Simplified() *Set {
	return &Set{
		South:      simplifiedOutline.Clone(),
		Simplified: true,
	}
}
