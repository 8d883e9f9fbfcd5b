package heatmap

import (
	"errors"
	"math"
)

// ErrNoSamples is returned when a region has nothing to interpolate from.
var ErrNoSamples = errors.New("no samples to interpolate")

// InterpolationConfig holds configuration for inverse distance weighting.
type InterpolationConfig struct {
	// Power is the distance exponent. Higher values favour nearer samples.
	// Default: 2.
	Power float64

	// Epsilon is the squared planar distance below which a target coincides
	// with a sample. Default: 1e-9.
	Epsilon float64
}

// DefaultInterpolationConfig returns the default configuration.
func DefaultInterpolationConfig() InterpolationConfig {
	return InterpolationConfig{
		Power:   2,
		Epsilon: 1e-9,
	}
}

// Interpolator estimates values between samples by inverse distance weighting.
type Interpolator struct {
	config InterpolationConfig
}

// NewInterpolator creates an Interpolator, filling unset fields with defaults.
func NewInterpolator(config InterpolationConfig) *Interpolator {
	if config.Power <= 0 {
		config.Power = DefaultInterpolationConfig().Power
	}
	if config.Epsilon <= 0 {
		config.Epsilon = DefaultInterpolationConfig().Epsilon
	}
	return &Interpolator{config: config}
}

// Config returns the effective configuration.
func (i *Interpolator) Config() InterpolationConfig {
	return i.config
}

// Estimate returns the weighted average of samples at (x, y). A target that
// coincides with a sample gets that sample's value; with several coincident
// samples the first one wins. When every sample carries the same value that
// value is returned unchanged.
func (i *Interpolator) Estimate(x, y float64, samples []Sample) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrNoSamples
	}

	uniform := true
	nearest := math.Inf(1)
	for _, s := range samples {
		d2 := distance2(x, y, s)
		if d2 < i.config.Epsilon {
			return s.Value, nil
		}
		nearest = math.Min(nearest, d2)
		uniform = uniform && s.Value == samples[0].Value
	}
	if uniform {
		return samples[0].Value, nil
	}

	// Distances are scaled by the nearest one so the largest weight is 1 and
	// high powers cannot overflow every weight to zero.
	half := i.config.Power / 2
	var weighted, total float64
	for _, s := range samples {
		// d^power == (d^2)^(power/2)
		w := 1 / math.Pow(distance2(x, y, s)/nearest, half)
		weighted += s.Value * w
		total += w
	}

	return weighted / total, nil
}

func distance2(x, y float64, s Sample) float64 {
	dx, dy := x-s.X, y-s.Y
	return dx*dx + dy*dy
}
