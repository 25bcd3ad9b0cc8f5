package timeline

import (
	"fmt"

	"github.com/mpapenbr/racetelemetry/pkg/model"
)

// brake arrives as 0..1 fraction
const brakeScale = 100.0

// Track holds one value per tick per channel of a single competitor.
// Lap and Tyre are kept as float values, they are rounded when frames are
// assembled.
type Track struct {
	Code     string
	X        []float64
	Y        []float64
	Dist     []float64
	RelDist  []float64
	Lap      []float64
	Tyre     []float64
	Speed    []float64
	Throttle []float64
	Brake    []float64
	DRS      []float64
	Gear     []int
}

func (t *Track) Len() int {
	return len(t.Dist)
}

type (
	ResampleOption func(*resampleConfig)
	channel        struct {
		dst *[]float64
		src func(*model.CompetitorSample) float64
	}
)

type resampleConfig struct {
	stepHoldCategorical bool
	scaleBrake          bool
}

// WithStepHoldCategorical resamples lap and tyre like gear instead of
// interpolating them.
func WithStepHoldCategorical(b bool) ResampleOption {
	return func(c *resampleConfig) {
		c.stepHoldCategorical = b
	}
}

// WithBrakeScaling controls whether brake is rescaled to 0..100 (default).
func WithBrakeScaling(b bool) ResampleOption {
	return func(c *resampleConfig) {
		c.scaleBrake = b
	}
}

// Resample evaluates every channel of the series at the ticks of tl.
// Continuous channels are interpolated linearly and clamped at the
// boundaries of the series, gear is step-held.
//
//nolint:whitespace,funlen // can't make both editor and linter happy
func Resample(
	s *model.CompetitorSeries, tl *Timeline, opts ...ResampleOption,
) (*Track, error) {
	cfg := &resampleConfig{scaleBrake: true}
	for _, opt := range opts {
		opt(cfg)
	}
	n := len(s.Samples)
	if n == 0 {
		return nil, fmt.Errorf("resample %s: %w", s.Code, ErrNoPoints)
	}
	ts := make([]float64, n)
	col := func(f func(*model.CompetitorSample) float64) []float64 {
		ret := make([]float64, n)
		for i := range s.Samples {
			ret[i] = f(&s.Samples[i])
		}
		return ret
	}
	for i := range s.Samples {
		// shift onto the shared clock
		ts[i] = s.Samples[i].Time - tl.Origin
	}

	ret := &Track{Code: s.Code}
	linear := []channel{
		{&ret.X, func(c *model.CompetitorSample) float64 { return c.X }},
		{&ret.Y, func(c *model.CompetitorSample) float64 { return c.Y }},
		{&ret.Dist, func(c *model.CompetitorSample) float64 { return c.RaceDistance }},
		{&ret.RelDist, func(c *model.CompetitorSample) float64 { return c.RelDistance }},
		{&ret.Speed, func(c *model.CompetitorSample) float64 { return c.Speed }},
		{&ret.Throttle, func(c *model.CompetitorSample) float64 { return c.Throttle }},
		{&ret.Brake, func(c *model.CompetitorSample) float64 { return c.Brake }},
		{&ret.DRS, func(c *model.CompetitorSample) float64 { return float64(c.DRS) }},
	}
	categorical := []channel{
		{&ret.Lap, func(c *model.CompetitorSample) float64 { return float64(c.Lap) }},
		{&ret.Tyre, func(c *model.CompetitorSample) float64 { return float64(c.Tyre) }},
	}
	if !cfg.stepHoldCategorical {
		linear = append(linear, categorical...)
	} else {
		for _, c := range categorical {
			f, err := NewStep(ts, col(c.src))
			if err != nil {
				return nil, fmt.Errorf("resample %s: %w", s.Code, err)
			}
			*c.dst = evaluate(tl, f)
		}
	}

	for _, c := range linear {
		f, err := NewLinear(ts, col(c.src))
		if err != nil {
			return nil, fmt.Errorf("resample %s: %w", s.Code, err)
		}
		*c.dst = evaluate(tl, f)
	}

	gears := make([]int, n)
	for i := range s.Samples {
		gears[i] = s.Samples[i].Gear
	}
	gf, err := NewStep(ts, gears)
	if err != nil {
		return nil, fmt.Errorf("resample %s: %w", s.Code, err)
	}
	ret.Gear = evaluate(tl, gf)

	if cfg.scaleBrake {
		for i := range ret.Brake {
			ret.Brake[i] *= brakeScale
		}
	}
	return ret, nil
}

func evaluate[T any](tl *Timeline, f func(float64) T) []T {
	ret := make([]T, tl.Len())
	for i, o := range tl.Offsets {
		ret[i] = f(o)
	}
	return ret
}
