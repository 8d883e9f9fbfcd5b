// Package heatmap turns a reconciled dataset into per-region raster buffers.
package heatmap

import (
	"github.com/paulmach/orb"

	"github.com/brinemap/brinemap/internal/boundary"
	"github.com/brinemap/brinemap/internal/chemistry"
)

// DefaultNorthArm lists the stations sampling Gunnison Bay.
var DefaultNorthArm = []string{"RD2", "LVG4", "CB1"}

// Sample is a station value at a planar viewport position.
type Sample struct {
	StationID string
	X         float64
	Y         float64
	Value     float64
}

// Partitioner assigns stations to regions.
type Partitioner interface {
	Region(stationID string) boundary.Region
}

// MembershipPartitioner assigns the listed stations to the North Arm and
// every other station to the South Arm.
type MembershipPartitioner struct {
	north map[string]struct{}
}

// NewMembershipPartitioner creates a partitioner from the North Arm list.
// With no IDs, DefaultNorthArm is used.
func NewMembershipPartitioner(northIDs ...string) *MembershipPartitioner {
	if len(northIDs) == 0 {
		northIDs = DefaultNorthArm
	}
	north := make(map[string]struct{}, len(northIDs))
	for _, id := range northIDs {
		north[id] = struct{}{}
	}
	return &MembershipPartitioner{north: north}
}

// Region returns the region of a station.
func (p *MembershipPartitioner) Region(stationID string) boundary.Region {
	if _, ok := p.north[stationID]; ok {
		return boundary.RegionNorth
	}
	return boundary.RegionSouth
}

// Partition groups stations by region. Every station appears exactly once.
func Partition(p Partitioner, stations []chemistry.Station) map[boundary.Region][]chemistry.Station {
	out := make(map[boundary.Region][]chemistry.Station, 2)
	for _, s := range stations {
		r := p.Region(s.ID)
		out[r] = append(out[r], s)
	}
	return out
}

// Samples projects the station values of one variable at one time point,
// grouped by region. Stations without a value or without a finite projected
// position are left out. When merge is set every sample goes to the South
// Arm, which then stands for the whole lake.
func Samples(
	p Partitioner,
	ds *chemistry.Dataset,
	v chemistry.Variable,
	tp chemistry.TimePoint,
	proj *Projection,
	merge bool,
) map[boundary.Region][]Sample {
	out := make(map[boundary.Region][]Sample, 2)
	for _, s := range ds.Stations() {
		value, ok := ds.Value(v, tp, s.ID)
		if !ok || !isFinite(value) {
			continue
		}
		x, y, ok := proj.Forward(orb.Point{s.Lon, s.Lat})
		if !ok {
			continue
		}

		r := p.Region(s.ID)
		if merge {
			r = boundary.RegionSouth
		}
		out[r] = append(out[r], Sample{StationID: s.ID, X: x, Y: y, Value: value})
	}
	return out
}
