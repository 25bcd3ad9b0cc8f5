// Package timeline builds the shared fixed-step clock and resamples
// competitor series onto it.
package timeline

import (
	"errors"
	"math"
)

// tolerance for float rounding when counting ticks
const tickEpsilon = 1e-9

var ErrInvalidBounds = errors.New("invalid timeline bounds")

// Timeline is the shared clock. Offsets are relative to Origin (seconds).
type Timeline struct {
	Origin  float64
	Step    float64
	Offsets []float64
}

// Build creates floor((tMax-tMin)/step) ticks 0, step, 2*step, ...
// All offsets are below tMax-tMin.
func Build(tMin, tMax float64, fps int) (*Timeline, error) {
	if fps <= 0 || math.IsNaN(tMin) || math.IsNaN(tMax) || tMax < tMin {
		return nil, ErrInvalidBounds
	}
	step := 1.0 / float64(fps)
	n := int(math.Floor((tMax-tMin)/step + tickEpsilon))
	return newTimeline(tMin, step, n), nil
}

// BuildCovering creates ticks like Build but includes tMax if the remaining
// span exceeds half a step. Used for single laps where the last sample must
// be reached.
func BuildCovering(tMin, tMax float64, fps int) (*Timeline, error) {
	if fps <= 0 || math.IsNaN(tMin) || math.IsNaN(tMax) || tMax < tMin {
		return nil, ErrInvalidBounds
	}
	step := 1.0 / float64(fps)
	n := int(math.Ceil((tMax-tMin+step/2)/step - tickEpsilon))
	return newTimeline(tMin, step, max(n, 1)), nil
}

func newTimeline(origin, step float64, n int) *Timeline {
	ret := &Timeline{Origin: origin, Step: step, Offsets: make([]float64, n)}
	for i := range n {
		// multiply instead of accumulating to avoid drift
		ret.Offsets[i] = float64(i) * step
	}
	return ret
}

func (t *Timeline) Len() int {
	return len(t.Offsets)
}

// At returns the absolute time of tick i.
func (t *Timeline) At(i int) float64 {
	return t.Origin + t.Offsets[i]
}
