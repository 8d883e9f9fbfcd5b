package chemistry_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brinemap/brinemap/internal/chemistry"
)

// constRand always returns the same draw.
type constRand float64

func (c constRand) Float64() float64 { return float64(c) }

func TestGenerator_DensityFormula(t *testing.T) {
	// A draw of 0.5 makes the residual zero.
	g := chemistry.NewGenerator(constRand(0.5))

	// January: seasonal term is sin(0) = 0.
	got := g.Density(chemistry.TimePoint{Year: 2010, Month: 1}, 2, 4, 80, true)
	want := 1.10 + (80.0-30)/50*0.03 + 10*0.0005 + 0.5*0.05
	assert.InDelta(t, want, got, 1e-12)

	got = g.Density(chemistry.TimePoint{Year: 2010, Month: 1}, 0, 4, 0, false)
	assert.InDelta(t, 1.10+10*0.0005, got, 1e-12)
}

func TestGenerator_SalinityFormula(t *testing.T) {
	g := chemistry.NewGenerator(constRand(0.5))

	// April: sin(2π·3/12) = 1.
	got := g.Salinity(chemistry.TimePoint{Year: 2020, Month: 4}, 1, 2, 60, true)
	want := 150 + (60.0-50)/50*-10 + 20*0.1 - 15 + 0.5*30
	assert.InDelta(t, want, got, 1e-9)
}

func TestGenerator_Clamped(t *testing.T) {
	low := chemistry.NewGenerator(constRand(0))
	high := chemistry.NewGenerator(constRand(1))

	assert.Equal(t, chemistry.SyntheticDensityMin, low.Density(chemistry.TimePoint{Year: 2000, Month: 7}, 0, 1, -500, true))
	assert.Equal(t, chemistry.SyntheticDensityMax, high.Density(chemistry.TimePoint{Year: 2000, Month: 1}, 0, 1, 900, true))
	assert.Equal(t, chemistry.SyntheticSalinityMin, low.Salinity(chemistry.TimePoint{Year: 2000, Month: 4}, 0, 1, 900, true))
	assert.Equal(t, chemistry.SyntheticSalinityMax, high.Salinity(chemistry.TimePoint{Year: 2000, Month: 1}, 0, 1, -900, true))
}

func TestGenerator_WithinBounds(t *testing.T) {
	g := chemistry.NewGenerator(rand.New(rand.NewPCG(7, 11)))

	for year := 2000; year <= 2025; year++ {
		for month := 1; month <= 12; month++ {
			tp := chemistry.TimePoint{Year: year, Month: month}
			for i := 0; i < 8; i++ {
				d := g.Density(tp, i, 8, 55, true)
				assert.GreaterOrEqual(t, d, chemistry.SyntheticDensityMin)
				assert.LessOrEqual(t, d, chemistry.SyntheticDensityMax)

				s := g.Salinity(tp, i, 8, 55, true)
				assert.GreaterOrEqual(t, s, chemistry.SyntheticSalinityMin)
				assert.LessOrEqual(t, s, chemistry.SyntheticSalinityMax)
			}
		}
	}
}
