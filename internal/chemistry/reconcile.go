package chemistry

import (
	"fmt"
	"math/rand/v2"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// SiteReadings pairs a normalized station with its extracted readings.
type SiteReadings struct {
	Station  Station
	Readings []Reading
}

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	// MinYear is the first year kept. Default: 2000.
	MinYear int

	// MinStations is the fewest stations with readings worth visualizing.
	// Default: 3.
	MinStations int

	// MinTimePoints is the fewest distinct months with readings worth
	// visualizing. Default: 12.
	MinTimePoints int

	// Clock defines the present month for fully synthetic datasets.
	Clock clockwork.Clock

	// Rand drives the synthetic residual. Default: time-seeded PCG.
	Rand Rand

	// Historical is the long-run temperature record. Nil means none.
	Historical HistoricalTemperatures

	Logger zerolog.Logger
}

// DefaultReconcilerConfig returns the default configuration.
func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{
		MinYear:       2000,
		MinStations:   3,
		MinTimePoints: 12,
		Clock:         clockwork.NewRealClock(),
		Logger:        zerolog.Nop(),
	}
}

// Reconciler merges sparse real readings with the historical temperature
// record and synthetic fill-in into a gap-free Dataset.
type Reconciler struct {
	config    ReconcilerConfig
	generator *Generator
}

// NewReconciler creates a reconciler, filling unset fields with defaults.
func NewReconciler(cfg ReconcilerConfig) *Reconciler {
	defaults := DefaultReconcilerConfig()
	if cfg.MinYear <= 0 {
		cfg.MinYear = defaults.MinYear
	}
	if cfg.MinStations <= 0 {
		cfg.MinStations = defaults.MinStations
	}
	if cfg.MinTimePoints <= 0 {
		cfg.MinTimePoints = defaults.MinTimePoints
	}
	if cfg.Clock == nil {
		cfg.Clock = defaults.Clock
	}
	if cfg.Rand == nil {
		now := uint64(cfg.Clock.Now().UnixNano())
		cfg.Rand = rand.New(rand.NewPCG(now, now>>1))
	}
	return &Reconciler{
		config:    cfg,
		generator: NewGenerator(cfg.Rand),
	}
}

// observations accumulates every real value of one variable per month and station.
type observations map[TimePoint]map[string][]float64

func (o observations) add(tp TimePoint, stationID string, v float64) {
	byStation, ok := o[tp]
	if !ok {
		byStation = make(map[string][]float64)
		o[tp] = byStation
	}
	byStation[stationID] = append(byStation[stationID], v)
}

// Reconcile builds a dataset from real readings. Every located station is
// kept; a station without readings gets a fully synthetic column. It returns
// ErrInsufficientData when too few stations with readings or too few months
// survive extraction; callers then fall back to Synthesize.
func (r *Reconciler) Reconcile(sites []SiteReadings) (*Dataset, error) {
	var (
		stations       []Station
		withReadings   int
		realMonths     = make(map[TimePoint]struct{})
		density        = make(observations)
		salinity       = make(observations)
		temperatures   = make(map[TimePoint][]float64)
		genericSalines int
	)

	seen := make(map[string]bool)
	for _, site := range sites {
		if site.Station.ID == "" || seen[site.Station.ID] {
			continue
		}
		seen[site.Station.ID] = true
		stations = append(stations, site.Station)

		kept := 0
		for _, reading := range site.Readings {
			tp := reading.TimePoint
			if tp.Year < r.config.MinYear {
				continue
			}
			kept++
			realMonths[tp] = struct{}{}

			if reading.Temperature != nil {
				temperatures[tp] = append(temperatures[tp], *reading.Temperature)
			}
			if reading.Density != nil {
				density.add(tp, site.Station.ID, *reading.Density)
			}
			if reading.Salinity != nil {
				salinity.add(tp, site.Station.ID, *reading.Salinity)
				if reading.SalinitySource == SalinityGeneric {
					genericSalines++
				}
			}
		}
		if kept > 0 {
			withReadings++
		}
	}

	if withReadings < r.config.MinStations || len(realMonths) < r.config.MinTimePoints {
		return nil, fmt.Errorf("%w: %d stations with readings, %d months", ErrInsufficientData, withReadings, len(realMonths))
	}

	months := make(map[TimePoint]struct{}, len(realMonths)+len(r.config.Historical))
	for tp := range realMonths {
		months[tp] = struct{}{}
	}
	for tp := range r.config.Historical {
		months[tp] = struct{}{}
	}

	ds := newDataset(stations, sortTimePoints(months, r.config.MinYear))
	ds.GenericSalinity = genericSalines

	for tp, values := range temperatures {
		ds.temperature[tp] = stat.Mean(values, nil)
	}
	r.applyHistorical(ds)

	ds.HasRealDensity = insertObservations(ds, ds.density, density)
	ds.HasRealSalinity = insertObservations(ds, ds.salinity, salinity)

	r.fill(ds)
	ds.computeRanges()

	r.config.Logger.Info().
		Int("stations", len(ds.stations)).
		Int("stations_with_readings", withReadings).
		Int("time_points", len(ds.timePoints)).
		Bool("real_density", ds.HasRealDensity).
		Bool("real_salinity", ds.HasRealSalinity).
		Int("generic_salinity", ds.GenericSalinity).
		Msg("readings reconciled")

	return ds, nil
}

// Synthesize builds a complete synthetic dataset for the fixed station set
// over every month from MinYear to the present.
func (r *Reconciler) Synthesize() *Dataset {
	first := TimePoint{Year: r.config.MinYear, Month: 1}
	last := NewTimePoint(r.config.Clock.Now())

	ds := newDataset(SyntheticStations(), MonthRange(first, last))
	ds.Synthetic = true
	r.applyHistorical(ds)
	r.applyClimatology(ds)
	r.fill(ds)
	ds.computeRanges()

	r.config.Logger.Info().
		Int("stations", len(ds.stations)).
		Int("time_points", len(ds.timePoints)).
		Msg("synthetic dataset generated")

	return ds
}

// applyHistorical writes the historical record into the temperature lookup.
// It overrides monthly means of real observations for the same month.
func (r *Reconciler) applyHistorical(ds *Dataset) {
	for _, tp := range ds.timePoints {
		if t, ok := r.config.Historical[tp]; ok {
			ds.temperature[tp] = t
		}
	}
}

// applyClimatology gives months the historical record does not cover, such
// as those after its last year, the long-run mean of their calendar month.
func (r *Reconciler) applyClimatology(ds *Dataset) {
	for _, tp := range ds.timePoints {
		if _, ok := ds.temperature[tp]; ok {
			continue
		}
		if t, ok := r.config.Historical.Climatology(tp.Month); ok {
			ds.temperature[tp] = t
		}
	}
}

// insertObservations stores the mean of each (month, station) group and
// reports whether anything was stored.
func insertObservations(ds *Dataset, dst Series, obs observations) bool {
	inserted := false
	for tp, byStation := range obs {
		if !ds.HasTimePoint(tp) {
			continue
		}
		for stationID, values := range byStation {
			if _, ok := ds.stationByID[stationID]; !ok || len(values) == 0 {
				continue
			}
			dst.set(tp, stationID, stat.Mean(values, nil))
			inserted = true
		}
	}
	return inserted
}

// fill synthesizes every (month, station) pair still missing. Real values are
// never overwritten.
func (r *Reconciler) fill(ds *Dataset) {
	count := len(ds.stations)
	for _, tp := range ds.timePoints {
		temp, hasTemp := ds.temperature[tp]
		for i, s := range ds.stations {
			if !ds.density.has(tp, s.ID) {
				ds.density.set(tp, s.ID, r.generator.Density(tp, i, count, temp, hasTemp))
			}
			if !ds.salinity.has(tp, s.ID) {
				ds.salinity.set(tp, s.ID, r.generator.Salinity(tp, i, count, temp, hasTemp))
			}
		}
	}
}

// PrepareSites normalizes coordinates and extracts readings for every raw site.
func PrepareSites(raw []RawSite, minYear int) []SiteReadings {
	sites := make([]SiteReadings, 0, len(raw))
	for _, r := range raw {
		if r.ID == "" {
			continue
		}
		sites = append(sites, SiteReadings{
			Station:  NormalizeCoordinates(r),
			Readings: ExtractReadings(r.Readings, minYear),
		})
	}
	return sites
}
