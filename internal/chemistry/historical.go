package chemistry

import (
	_ "embed"
	"fmt"

	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"
)

//go:embed historical_temperature.yaml
var historicalTemperatureYAML []byte

// HistoricalTemperatures is the long-run lake temperature record keyed by month.
type HistoricalTemperatures map[TimePoint]float64

// LoadHistoricalTemperatures decodes the embedded temperature table.
func LoadHistoricalTemperatures() (HistoricalTemperatures, error) {
	return ParseHistoricalTemperatures(historicalTemperatureYAML)
}

// ParseHistoricalTemperatures decodes a year -> twelve monthly values table.
// Null entries are skipped.
func ParseHistoricalTemperatures(data []byte) (HistoricalTemperatures, error) {
	var byYear map[int][]*float64
	if err := yaml.Unmarshal(data, &byYear); err != nil {
		return nil, fmt.Errorf("decode historical temperatures: %w", err)
	}

	table := make(HistoricalTemperatures)
	for year, months := range byYear {
		if len(months) != 12 {
			return nil, fmt.Errorf("historical temperatures for %d: expected 12 months, got %d", year, len(months))
		}
		for i, v := range months {
			if v == nil || !isFinite(*v) {
				continue
			}
			table[TimePoint{Year: year, Month: i + 1}] = *v
		}
	}
	return table, nil
}

// Climatology returns the mean of every recorded value for a calendar month.
func (h HistoricalTemperatures) Climatology(month int) (float64, bool) {
	var values []float64
	for tp, v := range h {
		if tp.Month == month {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return 0, false
	}
	return stat.Mean(values, nil), true
}
