package chemistry_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinemap/brinemap/internal/chemistry"
)

func TestExtractReadings_LabDensityString(t *testing.T) {
	readings := chemistry.ExtractReadings([]chemistry.RawReading{
		{"date": "2010-06-14", "Lab Density (g/cm3)": "1.18"},
	}, 2000)

	require.Len(t, readings, 1)
	require.NotNil(t, readings[0].Density)
	assert.Equal(t, 1.18, *readings[0].Density)
	assert.False(t, readings[0].DensityDerived)
	assert.Equal(t, chemistry.TimePoint{Year: 2010, Month: 6}, readings[0].TimePoint)
}

func TestExtractReadings_DensityPriority(t *testing.T) {
	tests := []struct {
		name    string
		reading chemistry.RawReading
		want    float64
		derived bool
	}{
		{
			name:    "newline variant",
			reading: chemistry.RawReading{"date": "2012-01-05", "Lab Density\n(g/cm3)": 1.201, "density": 1.1},
			want:    1.201,
		},
		{
			name:    "substring match",
			reading: chemistry.RawReading{"date": "2012-01-05", "Field  LAB   Density reading": "1.15", "density": 1.1},
			want:    1.15,
		},
		{
			name:    "generic density",
			reading: chemistry.RawReading{"date": "2012-01-05", "density": 1.12, "salinity": 200.0},
			want:    1.12,
		},
		{
			name:    "derived from salinity",
			reading: chemistry.RawReading{"date": "2012-01-05", "salinity": 150.0},
			want:    1 + 0.0008*150,
			derived: true,
		},
		{
			name:    "non numeric lab density falls through",
			reading: chemistry.RawReading{"date": "2012-01-05", "Lab Density (g/cm3)": "n/a", "density": "1.09"},
			want:    1.09,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			readings := chemistry.ExtractReadings([]chemistry.RawReading{tt.reading}, 2000)
			require.Len(t, readings, 1)
			require.NotNil(t, readings[0].Density)
			assert.InDelta(t, tt.want, *readings[0].Density, 1e-12)
			assert.Equal(t, tt.derived, readings[0].DensityDerived)
		})
	}
}

func TestExtractReadings_Salinity(t *testing.T) {
	readings := chemistry.ExtractReadings([]chemistry.RawReading{
		{"date": "2015-03-01", "Salinity (g/L)": 160.0, "salinity": 99.0},
		{"date": "2015-04-01", "salinity": json.Number("140.5")},
		{"date": "2015-05-01", "Temperature (F)": 50.0},
	}, 2000)

	require.Len(t, readings, 3)

	require.NotNil(t, readings[0].Salinity)
	assert.Equal(t, 160.0, *readings[0].Salinity)
	assert.Equal(t, chemistry.SalinityLabeled, readings[0].SalinitySource)

	require.NotNil(t, readings[1].Salinity)
	assert.Equal(t, 140.5, *readings[1].Salinity)
	assert.Equal(t, chemistry.SalinityGeneric, readings[1].SalinitySource)

	assert.Nil(t, readings[2].Salinity)
	assert.Nil(t, readings[2].Density)
	require.NotNil(t, readings[2].Temperature)
	assert.Equal(t, 50.0, *readings[2].Temperature)
}

func TestExtractReadings_SkipsInvalidAndOldDates(t *testing.T) {
	readings := chemistry.ExtractReadings([]chemistry.RawReading{
		{"date": "not a date", "density": 1.1},
		{"date": "1998-07-01", "density": 1.1},
		{"density": 1.1},
		{"date": 20100101, "density": 1.1},
		{"Date": "7/14/2004", "density": 1.1},
	}, 2000)

	require.Len(t, readings, 1)
	assert.Equal(t, chemistry.TimePoint{Year: 2004, Month: 7}, readings[0].TimePoint)
}

func TestExtractReadings_AbsentIsNotZero(t *testing.T) {
	readings := chemistry.ExtractReadings([]chemistry.RawReading{
		{"date": "2020-02-02", "Temperature (F)": "", "density": "NaN", "salinity": nil},
	}, 2000)

	require.Len(t, readings, 1)
	assert.Nil(t, readings[0].Temperature)
	assert.Nil(t, readings[0].Density)
	assert.Nil(t, readings[0].Salinity)
}
