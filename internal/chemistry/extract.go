package chemistry

import (
	"encoding/json"
	"strconv"
	"strings"
)

// densityPerSalinity is the linear approximation density ≈ 1 + k·salinity.
const densityPerSalinity = 0.0008

// RawReading is one dated record from the feed. Field names vary between
// vintages of the upstream schema, so it is kept as a loose property bag.
type RawReading map[string]any

// SalinitySource records which field a salinity value came from.
type SalinitySource string

const (
	SalinityLabeled SalinitySource = "labeled"
	SalinityGeneric SalinitySource = "generic"
)

// Reading is a canonical monthly observation. Nil fields were not present.
type Reading struct {
	TimePoint      TimePoint
	Temperature    *float64
	Density        *float64
	Salinity       *float64
	SalinitySource SalinitySource

	// DensityDerived is true when density was computed from salinity.
	DensityDerived bool
}

// Field name variants, in priority order. Some upstream exports embed newlines
// in column headers.
var (
	dateFields = []string{"date", "Date", "sample_date", "SampleDate", "ActivityStartDate"}

	labDensityFields = []string{
		"Lab Density (g/cm3)",
		"Lab Density\n(g/cm3)",
		"Lab\nDensity (g/cm3)",
		"Lab Density\r\n(g/cm3)",
		"Lab Density",
		"lab_density",
	}

	labeledSalinityFields = []string{
		"Salinity (g/L)",
		"Salinity\n(g/L)",
		"Salinity (g/l)",
		"salinity_gL",
	}

	temperatureFields = []string{
		"Temperature (F)",
		"Temperature\n(F)",
		"Water Temp (F)",
		"temp_f",
		"temperature",
	}
)

const labDensityMarker = "lab density"

// ExtractReadings converts raw records into monthly readings. Records with an
// unparseable date, or dated before minYear, are skipped.
func ExtractReadings(records []RawReading, minYear int) []Reading {
	readings := make([]Reading, 0, len(records))
	for _, rec := range records {
		r, ok := extractReading(rec, minYear)
		if !ok {
			continue
		}
		readings = append(readings, r)
	}
	return readings
}

func extractReading(rec RawReading, minYear int) (Reading, bool) {
	tp, ok := readingDate(rec)
	if !ok || tp.Year < minYear {
		return Reading{}, false
	}

	r := Reading{TimePoint: tp}

	if t, ok := firstNumber(rec, temperatureFields); ok {
		r.Temperature = &t
	}

	if s, ok := firstNumber(rec, labeledSalinityFields); ok {
		r.Salinity = &s
		r.SalinitySource = SalinityLabeled
	} else if s, ok := toFloat(rec["salinity"]); ok {
		r.Salinity = &s
		r.SalinitySource = SalinityGeneric
	}

	if d, ok := extractDensity(rec); ok {
		r.Density = &d
	} else if s, ok := toFloat(rec["salinity"]); ok {
		d := 1 + densityPerSalinity*s
		r.Density = &d
		r.DensityDerived = true
	}

	return r, true
}

func readingDate(rec RawReading) (TimePoint, bool) {
	for _, key := range dateFields {
		raw, ok := rec[key]
		if !ok {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			continue
		}
		if tp, ok := ParseSampleDate(s); ok {
			return tp, true
		}
	}
	return TimePoint{}, false
}

func extractDensity(rec RawReading) (float64, bool) {
	if d, ok := firstNumber(rec, labDensityFields); ok {
		return d, true
	}

	// Map iteration order is random; pick the lexically first matching key so
	// repeated runs agree.
	var match string
	for key := range rec {
		if strings.Contains(normalizeFieldName(key), labDensityMarker) {
			if _, ok := toFloat(rec[key]); ok && (match == "" || key < match) {
				match = key
			}
		}
	}
	if match != "" {
		return toFloat(rec[match])
	}

	return toFloat(rec["density"])
}

func firstNumber(rec RawReading, keys []string) (float64, bool) {
	for _, key := range keys {
		if v, ok := toFloat(rec[key]); ok {
			return v, true
		}
	}
	return 0, false
}

func normalizeFieldName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// toFloat accepts numbers and numeric strings. Anything else, including NaN
// and infinities, counts as absent.
func toFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if !isFinite(f) {
		return 0, false
	}
	return f, true
}
