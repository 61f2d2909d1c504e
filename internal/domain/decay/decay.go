// Package decay defines recency-weight strategies for risk scoring.
//
// A Strategy maps a signal's age in days to a weight in (0, 1]. Strategies
// must be pure and monotonically non-increasing in age so that scoring stays
// deterministic for a fixed reference date. Signals older than the window are
// never passed in; a signal exactly at the window boundary keeps the curve's
// minimum weight.
package decay

import "math"

// Default curve parameters.
const (
	DefaultMinWeight    = 0.1
	DefaultHalfLifeDays = 14.0
)

// Strategy computes the recency weight for a signal aged ageDays inside a
// window of windowDays.
type Strategy interface {
	Weight(ageDays, windowDays int) float64
}

// Func adapts a plain function to a Strategy.
type Func func(ageDays, windowDays int) float64

// Weight implements Strategy.
func (f Func) Weight(ageDays, windowDays int) float64 {
	return f(ageDays, windowDays)
}

// Linear ramps from 1.0 at age zero down to min at the window boundary.
func Linear(min float64) Strategy {
	if min <= 0 || min >= 1 {
		min = DefaultMinWeight
	}
	floor := min
	return Func(func(ageDays, windowDays int) float64 {
		if ageDays <= 0 {
			return 1.0
		}
		if windowDays <= 0 || ageDays >= windowDays {
			return floor
		}
		w := 1.0 - (1.0-floor)*(float64(ageDays)/float64(windowDays))
		return math.Max(floor, w)
	})
}

// Tiered uses fixed steps: a signal within a week counts fully, then drops in
// bands. The curve ignores the window size beyond the caller's own cutoff.
func Tiered() Strategy {
	return Func(func(ageDays, _ int) float64 {
		switch {
		case ageDays <= 7:
			return 1.0
		case ageDays <= 30:
			return 0.7
		case ageDays <= 60:
			return 0.4
		default:
			return 0.2
		}
	})
}

// Exponential halves the weight every halfLife days, floored at min.
func Exponential(halfLifeDays, min float64) Strategy {
	if halfLifeDays <= 0 {
		halfLifeDays = DefaultHalfLifeDays
	}
	if min <= 0 || min >= 1 {
		min = DefaultMinWeight
	}
	floor := min
	return Func(func(ageDays, _ int) float64 {
		if ageDays <= 0 {
			return 1.0
		}
		w := math.Pow(0.5, float64(ageDays)/halfLifeDays)
		return math.Max(floor, w)
	})
}
