package chemistry_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinemap/brinemap/internal/chemistry"
)

func TestParseTimePoint(t *testing.T) {
	tp, err := chemistry.ParseTimePoint("2007-09")
	require.NoError(t, err)
	assert.Equal(t, chemistry.TimePoint{Year: 2007, Month: 9}, tp)
	assert.Equal(t, "2007-09", tp.String())

	_, err = chemistry.ParseTimePoint("2007-13")
	assert.ErrorIs(t, err, chemistry.ErrInvalidTimePoint)
}

func TestParseSampleDate(t *testing.T) {
	tests := []struct {
		in   string
		want chemistry.TimePoint
		ok   bool
	}{
		{in: "2012-05-17", want: chemistry.TimePoint{Year: 2012, Month: 5}, ok: true},
		{in: "2012-05-17T10:30:00Z", want: chemistry.TimePoint{Year: 2012, Month: 5}, ok: true},
		{in: "5/17/2012", want: chemistry.TimePoint{Year: 2012, Month: 5}, ok: true},
		{in: "5/17/2012 14:05", want: chemistry.TimePoint{Year: 2012, Month: 5}, ok: true},
		{in: "2012-05", want: chemistry.TimePoint{Year: 2012, Month: 5}, ok: true},
		{in: "", ok: false},
		{in: "yesterday", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := chemistry.ParseSampleDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestMonthRange(t *testing.T) {
	months := chemistry.MonthRange(chemistry.TimePoint{Year: 1999, Month: 11}, chemistry.TimePoint{Year: 2000, Month: 2})

	assert.Equal(t, []chemistry.TimePoint{
		{Year: 1999, Month: 11},
		{Year: 1999, Month: 12},
		{Year: 2000, Month: 1},
		{Year: 2000, Month: 2},
	}, months)

	assert.Empty(t, chemistry.MonthRange(chemistry.TimePoint{Year: 2000, Month: 2}, chemistry.TimePoint{Year: 2000, Month: 1}))
}

func TestTimePoint_JSONMapKey(t *testing.T) {
	in := map[chemistry.TimePoint]float64{{Year: 2001, Month: 3}: 1.5}

	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"2001-03":1.5}`, string(b))

	var out map[chemistry.TimePoint]float64
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)
}

func TestParseVariable(t *testing.T) {
	v, err := chemistry.ParseVariable(" Density ")
	require.NoError(t, err)
	assert.Equal(t, chemistry.VariableDensity, v)

	_, err = chemistry.ParseVariable("ph")
	assert.ErrorIs(t, err, chemistry.ErrUnknownVariable)
}

func TestLoadHistoricalTemperatures(t *testing.T) {
	table, err := chemistry.LoadHistoricalTemperatures()
	require.NoError(t, err)

	assert.Contains(t, table, chemistry.TimePoint{Year: 2000, Month: 1})
	assert.NotContains(t, table, chemistry.TimePoint{Year: 2002, Month: 2}, "null months are skipped")

	_, err = chemistry.ParseHistoricalTemperatures([]byte("2001: [1, 2, 3]\n"))
	assert.Error(t, err)
}
