package chemistry

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// rangePadding is the relative margin added on both ends of a domain.
const rangePadding = 0.02

type rangeBounds struct {
	// floor is the lowest sane domain minimum.
	floor    float64
	hasFloor bool

	// minWidth is the half-width used to widen a degenerate domain.
	minWidth float64

	fallback DataRange
}

var variableRangeBounds = map[Variable]rangeBounds{
	VariableDensity: {
		floor:    1.0,
		hasFloor: true,
		minWidth: 0.005,
		fallback: DataRange{Min: 1.0, Max: 1.3},
	},
	VariableSalinity: {
		floor:    0,
		hasFloor: true,
		minWidth: 0.5,
		fallback: DataRange{Min: 0, Max: 300},
	},
	VariableTemperature: {
		minWidth: 0.5,
		fallback: DataRange{Min: 20, Max: 90},
	},
}

// DefaultRange returns the domain used when a variable has no values.
func DefaultRange(v Variable) DataRange {
	if b, ok := variableRangeBounds[v]; ok {
		return b.fallback
	}
	return DataRange{Min: 0, Max: 1}
}

// CalculateRange returns a padded color-scale domain for the values. The
// result always satisfies Min < Max.
func CalculateRange(v Variable, values []float64) DataRange {
	finite := make([]float64, 0, len(values))
	for _, x := range values {
		if isFinite(x) {
			finite = append(finite, x)
		}
	}
	if len(finite) == 0 {
		return DefaultRange(v)
	}

	bounds, ok := variableRangeBounds[v]
	if !ok {
		bounds = rangeBounds{minWidth: 0.5, fallback: DataRange{Min: 0, Max: 1}}
	}

	lo, hi := floats.Min(finite), floats.Max(finite)
	lo -= rangePadding * math.Abs(lo)
	hi += rangePadding * math.Abs(hi)

	if hi-lo < 2*bounds.minWidth {
		mid := (lo + hi) / 2
		half := math.Max(rangePadding*math.Abs(mid), bounds.minWidth)
		lo, hi = mid-half, mid+half
	}

	if bounds.hasFloor && lo < bounds.floor {
		lo = bounds.floor
	}
	if hi <= lo {
		hi = lo + 2*bounds.minWidth
	}

	return DataRange{Min: lo, Max: hi}
}
