package chemistry

import (
	"math"
)

// Rand is the source of the synthetic residual. *rand.Rand from math/rand/v2
// satisfies it; tests pass a seeded one.
type Rand interface {
	Float64() float64
}

// Synthetic value bounds.
const (
	SyntheticDensityMin  = 1.02
	SyntheticDensityMax  = 1.28
	SyntheticSalinityMin = 30.0
	SyntheticSalinityMax = 280.0
)

// SyntheticStations is the fixed station set used when the feed yields too
// little to visualize.
func SyntheticStations() []Station {
	return []Station{
		{ID: "AC3", Name: "Antelope Causeway 3", Lon: -112.62, Lat: 40.98, Source: CoordinateSourceGeometry},
		{ID: "AS2", Name: "Antelope South 2", Lon: -112.33, Lat: 41.10, Source: CoordinateSourceGeometry},
		{ID: "CB1", Name: "Carrington Bay 1", Lon: -112.55, Lat: 41.55, Source: CoordinateSourceGeometry},
		{ID: "FB2", Name: "Fremont Basin 2", Lon: -112.40, Lat: 41.18, Source: CoordinateSourceGeometry},
		{ID: "LVG4", Name: "Lakeside 4", Lon: -112.75, Lat: 41.32, Source: CoordinateSourceGeometry},
		{ID: "RD1", Name: "Rozel Deep 1", Lon: -112.55, Lat: 41.12, Source: CoordinateSourceGeometry},
		{ID: "RD2", Name: "Rozel Deep 2", Lon: -112.65, Lat: 41.40, Source: CoordinateSourceGeometry},
		{ID: "SJ1", Name: "Stansbury 1", Lon: -112.45, Lat: 40.92, Source: CoordinateSourceGeometry},
	}
}

// Generator produces plausible stand-in values. It reproduces the seasonal
// and secular shape of the record, not a physical model.
type Generator struct {
	rand Rand
}

// NewGenerator creates a generator drawing residuals from r.
func NewGenerator(r Rand) *Generator {
	return &Generator{rand: r}
}

// Density returns a synthetic density for station index of count at tp.
// temp is the reconciled lake temperature, ignored when hasTemp is false.
func (g *Generator) Density(tp TimePoint, index, count int, temp float64, hasTemp bool) float64 {
	var tempTerm float64
	if hasTemp {
		tempTerm = (temp - 30) / 50 * 0.03
	}
	v := 1.10 +
		tempTerm +
		float64(tp.Year-2000)*0.0005 +
		seasonal(tp)*0.01 +
		stationTerm(index, count)*0.05 +
		g.uniform(-0.0075, 0.0075)
	return clamp(v, SyntheticDensityMin, SyntheticDensityMax)
}

// Salinity returns a synthetic salinity (g/L) for station index of count at tp.
func (g *Generator) Salinity(tp TimePoint, index, count int, temp float64, hasTemp bool) float64 {
	var tempTerm float64
	if hasTemp {
		tempTerm = (temp - 50) / 50 * -10
	}
	v := 150 +
		tempTerm +
		float64(tp.Year-2000)*0.1 -
		seasonal(tp)*15 +
		stationTerm(index, count)*30 +
		g.uniform(-10, 10)
	return clamp(v, SyntheticSalinityMin, SyntheticSalinityMax)
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*g.rand.Float64()
}

func seasonal(tp TimePoint) float64 {
	return math.Sin(2 * math.Pi * float64(tp.Month-1) / 12)
}

func stationTerm(index, count int) float64 {
	if count <= 0 {
		return 0
	}
	return float64(index) / float64(count)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
