// Package chemistry turns the Great Salt Lake monitoring feed into a complete,
// reconciled monthly dataset of density, salinity and temperature.
package chemistry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Dataset errors.
var (
	ErrInsufficientData = errors.New("insufficient data after extraction")
	ErrUnknownVariable  = errors.New("unknown variable")
)

// Variable identifies one of the visualized measurements.
type Variable string

const (
	VariableDensity     Variable = "density"
	VariableSalinity    Variable = "salinity"
	VariableTemperature Variable = "temperature"
)

// Variables lists every supported variable in display order.
func Variables() []Variable {
	return []Variable{VariableDensity, VariableSalinity, VariableTemperature}
}

// ParseVariable parses a variable name case-insensitively.
func ParseVariable(s string) (Variable, error) {
	switch Variable(strings.ToLower(strings.TrimSpace(s))) {
	case VariableDensity:
		return VariableDensity, nil
	case VariableSalinity:
		return VariableSalinity, nil
	case VariableTemperature:
		return VariableTemperature, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVariable, s)
	}
}

// Unit returns the display unit of the variable.
func (v Variable) Unit() string {
	switch v {
	case VariableDensity:
		return "g/cm³"
	case VariableSalinity:
		return "g/L"
	case VariableTemperature:
		return "°F"
	default:
		return ""
	}
}

// CoordinateSource records how a station position was resolved.
type CoordinateSource string

const (
	CoordinateSourceGeometry  CoordinateSource = "geometry"
	CoordinateSourceProjected CoordinateSource = "projected"
	CoordinateSourceDefault   CoordinateSource = "default"
)

// Station is a monitoring site with a resolved geographic position.
type Station struct {
	ID     string
	Name   string
	Lon    float64
	Lat    float64
	Source CoordinateSource
}

// Series maps a time point to per-station values of one variable.
type Series map[TimePoint]map[string]float64

// Value returns the value for a station at a time point.
func (s Series) Value(tp TimePoint, stationID string) (float64, bool) {
	byStation, ok := s[tp]
	if !ok {
		return 0, false
	}
	v, ok := byStation[stationID]
	return v, ok
}

func (s Series) set(tp TimePoint, stationID string, value float64) {
	byStation, ok := s[tp]
	if !ok {
		byStation = make(map[string]float64)
		s[tp] = byStation
	}
	byStation[stationID] = value
}

func (s Series) has(tp TimePoint, stationID string) bool {
	_, ok := s.Value(tp, stationID)
	return ok
}

// values flattens the series into a slice.
func (s Series) values() []float64 {
	var out []float64
	for _, byStation := range s {
		for _, v := range byStation {
			out = append(out, v)
		}
	}
	return out
}

// DataRange is a padded color-scale domain. It never clamps underlying values.
type DataRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Dataset is the reconciled, read-only source of truth for every frame.
type Dataset struct {
	stations    []Station
	stationByID map[string]int
	timePoints  []TimePoint
	density     Series
	salinity    Series
	temperature map[TimePoint]float64
	ranges      map[Variable]DataRange

	// HasRealDensity is true when at least one measured density survived extraction.
	HasRealDensity bool

	// HasRealSalinity is true when at least one measured salinity survived extraction.
	HasRealSalinity bool

	// Synthetic is true when the whole dataset was generated.
	Synthetic bool

	// GenericSalinity counts salinity values taken from the unlabeled field,
	// whose unit is never confirmed upstream.
	GenericSalinity int
}

func newDataset(stations []Station, timePoints []TimePoint) *Dataset {
	sorted := make([]Station, len(stations))
	copy(sorted, stations)
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].ID < sorted[b].ID })

	byID := make(map[string]int, len(sorted))
	for i, s := range sorted {
		byID[s.ID] = i
	}

	return &Dataset{
		stations:    sorted,
		stationByID: byID,
		timePoints:  timePoints,
		density:     make(Series),
		salinity:    make(Series),
		temperature: make(map[TimePoint]float64),
		ranges:      make(map[Variable]DataRange),
	}
}

// Stations returns a copy of the station list ordered by ID.
func (d *Dataset) Stations() []Station {
	out := make([]Station, len(d.stations))
	copy(out, d.stations)
	return out
}

// Station looks up a station by ID.
func (d *Dataset) Station(id string) (Station, bool) {
	i, ok := d.stationByID[id]
	if !ok {
		return Station{}, false
	}
	return d.stations[i], true
}

// TimePoints returns a copy of the sorted time points.
func (d *Dataset) TimePoints() []TimePoint {
	out := make([]TimePoint, len(d.timePoints))
	copy(out, d.timePoints)
	return out
}

// HasTimePoint reports whether tp is part of the dataset.
func (d *Dataset) HasTimePoint(tp TimePoint) bool {
	i := sort.Search(len(d.timePoints), func(i int) bool { return !d.timePoints[i].Before(tp) })
	return i < len(d.timePoints) && d.timePoints[i] == tp
}

// Value returns the value of a variable for a station at a time point.
// Temperature is lake-wide, so the station ID is ignored for it.
func (d *Dataset) Value(v Variable, tp TimePoint, stationID string) (float64, bool) {
	switch v {
	case VariableDensity:
		return d.density.Value(tp, stationID)
	case VariableSalinity:
		return d.salinity.Value(tp, stationID)
	case VariableTemperature:
		t, ok := d.temperature[tp]
		return t, ok
	default:
		return 0, false
	}
}

// Temperature returns the lake-wide temperature for a time point.
func (d *Dataset) Temperature(tp TimePoint) (float64, bool) {
	t, ok := d.temperature[tp]
	return t, ok
}

// Snapshot returns a copy of every station value of a variable at a time point.
func (d *Dataset) Snapshot(v Variable, tp TimePoint) map[string]float64 {
	out := make(map[string]float64, len(d.stations))
	for _, s := range d.stations {
		if value, ok := d.Value(v, tp, s.ID); ok {
			out[s.ID] = value
		}
	}
	return out
}

// Range returns the color-scale domain of a variable.
func (d *Dataset) Range(v Variable) DataRange {
	if r, ok := d.ranges[v]; ok {
		return r
	}
	return DefaultRange(v)
}

// Ranges returns a copy of every computed range.
func (d *Dataset) Ranges() map[Variable]DataRange {
	out := make(map[Variable]DataRange, len(d.ranges))
	for _, v := range Variables() {
		out[v] = d.Range(v)
	}
	return out
}

func (d *Dataset) computeRanges() {
	d.ranges[VariableDensity] = CalculateRange(VariableDensity, d.density.values())
	d.ranges[VariableSalinity] = CalculateRange(VariableSalinity, d.salinity.values())

	temps := make([]float64, 0, len(d.temperature))
	for _, t := range d.temperature {
		temps = append(temps, t)
	}
	d.ranges[VariableTemperature] = CalculateRange(VariableTemperature, temps)
}
