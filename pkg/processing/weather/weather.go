// Package weather resamples the sparse weather samples of a session onto the
// shared timeline.
package weather

import (
	"errors"
	"fmt"

	"github.com/mpapenbr/racetelemetry/pkg/model"
	"github.com/mpapenbr/racetelemetry/pkg/processing/timeline"
)

// ErrUnavailable is returned if the session has no usable weather data.
// Callers omit weather from the frames in this case.
var ErrUnavailable = errors.New("weather data unavailable")

// Track holds the weather per tick. Channels without source data are nil.
type Track struct {
	TrackTemp     []float64
	AirTemp       []float64
	Humidity      []float64
	WindSpeed     []float64
	WindDirection []float64
	Rainfall      []float64
	n             int
}

// Resample interpolates all present weather columns at the ticks of tl.
// Values outside the covered range are clamped.
//
//nolint:whitespace // can't make both editor and linter happy
func Resample(tbl *model.WeatherTable, tl *timeline.Timeline) (
	*Track, error,
) {
	if tbl == nil || len(tbl.Time) == 0 {
		return nil, ErrUnavailable
	}
	ts := make([]float64, len(tbl.Time))
	for i, t := range tbl.Time {
		ts[i] = t - tl.Origin
	}
	ret := &Track{n: tl.Len()}
	for _, c := range []struct {
		name string
		src  []float64
		dst  *[]float64
	}{
		{"trackTemp", tbl.TrackTemp, &ret.TrackTemp},
		{"airTemp", tbl.AirTemp, &ret.AirTemp},
		{"humidity", tbl.Humidity, &ret.Humidity},
		{"windSpeed", tbl.WindSpeed, &ret.WindSpeed},
		{"windDirection", tbl.WindDirection, &ret.WindDirection},
		{"rainfall", tbl.Rainfall, &ret.Rainfall},
	} {
		if c.src == nil {
			continue
		}
		if len(c.src) != len(ts) {
			return nil, fmt.Errorf("%w: column %s: %w",
				ErrUnavailable, c.name, model.ErrColumnLength)
		}
		f, err := timeline.NewLinear(ts, c.src)
		if err != nil {
			return nil, fmt.Errorf("%w: column %s: %w", ErrUnavailable, c.name, err)
		}
		vals := make([]float64, tl.Len())
		for i, o := range tl.Offsets {
			vals[i] = f(o)
		}
		*c.dst = vals
	}
	return ret, nil
}

func (t *Track) Len() int {
	return t.n
}

// Snapshot returns the weather at tick i. Without rainfall data the
// rain state is dry.
func (t *Track) Snapshot(i int) *model.WeatherSnapshot {
	ret := &model.WeatherSnapshot{
		TrackTemp:     at(t.TrackTemp, i),
		AirTemp:       at(t.AirTemp, i),
		Humidity:      at(t.Humidity, i),
		WindSpeed:     at(t.WindSpeed, i),
		WindDirection: at(t.WindDirection, i),
		Rainfall:      at(t.Rainfall, i),
		RainState:     model.RainStateDry,
	}
	if ret.Rainfall != nil {
		ret.RainState = model.RainState(*ret.Rainfall)
	}
	return ret
}

func at(vals []float64, i int) *float64 {
	if vals == nil || i < 0 || i >= len(vals) {
		return nil
	}
	v := vals[i]
	return &v
}
