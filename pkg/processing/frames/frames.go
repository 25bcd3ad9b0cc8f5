// Package frames merges the resampled tracks into ranked per tick frames.
package frames

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/mpapenbr/racetelemetry/pkg/model"
	"github.com/mpapenbr/racetelemetry/pkg/processing/timeline"
	"github.com/mpapenbr/racetelemetry/pkg/processing/weather"
	"github.com/mpapenbr/racetelemetry/pkg/utils"
)

const (
	timePlaces    = 3
	relDistPlaces = 4
)

var ErrTrackLength = errors.New("track length does not match timeline")

// Assemble builds one frame per tick. Within a frame competitors are
// ordered by race distance descending, ties keep the order of tracks.
// The lap of a frame is the lap of the leader. wt may be nil.
//
//nolint:whitespace // can't make both editor and linter happy
func Assemble(
	tl *timeline.Timeline, tracks []*timeline.Track, wt *weather.Track,
) ([]model.Frame, error) {
	for _, tr := range tracks {
		if tr.Len() != tl.Len() {
			return nil, fmt.Errorf("%s: %w", tr.Code, ErrTrackLength)
		}
	}
	if wt != nil && wt.Len() != tl.Len() {
		return nil, fmt.Errorf("weather: %w", ErrTrackLength)
	}
	ret := make([]model.Frame, 0, tl.Len())
	for i, offset := range tl.Offsets {
		drivers := make([]model.DriverState, 0, len(tracks))
		for _, tr := range tracks {
			drivers = append(drivers, driverState(tr, i))
		}
		if len(drivers) == 0 {
			continue
		}
		slices.SortStableFunc(drivers, func(a, b model.DriverState) int {
			return cmp.Compare(b.Dist, a.Dist)
		})
		for pos := range drivers {
			drivers[pos].Position = pos + 1
		}
		frame := model.Frame{
			T:       utils.Round(offset, timePlaces),
			Lap:     drivers[0].Lap,
			Drivers: drivers,
		}
		if wt != nil {
			frame.Weather = wt.Snapshot(i)
		}
		ret = append(ret, frame)
	}
	return ret, nil
}

func driverState(tr *timeline.Track, i int) model.DriverState {
	return model.DriverState{
		Code:     tr.Code,
		X:        tr.X[i],
		Y:        tr.Y[i],
		Dist:     tr.Dist[i],
		Lap:      int(math.Round(tr.Lap[i])),
		RelDist:  utils.Round(tr.RelDist[i], relDistPlaces),
		Tyre:     int(math.Round(tr.Tyre[i])),
		Speed:    tr.Speed[i],
		Gear:     tr.Gear[i],
		DRS:      int(tr.DRS[i]),
		Throttle: tr.Throttle[i],
		Brake:    tr.Brake[i],
	}
}
