// Package extract turns the per lap telemetry of one competitor into a single
// time sorted series on the race distance scale.
package extract

import (
	"errors"
	"fmt"
	"slices"

	"github.com/mpapenbr/racetelemetry/pkg/model"
)

// ErrNoTelemetry is returned when no lap of the competitor carries telemetry.
// Competitors with this result are excluded from the aggregation.
var ErrNoTelemetry = errors.New("no telemetry data")

// Extract concatenates the laps of a competitor.
// Within-lap distance is shifted by the sum of the distances covered in the
// previous laps so that race distance is monotonic across laps.
// Laps without telemetry are skipped, their lap number still counts for MaxLap.
//
//nolint:whitespace // can't make both editor and linter happy
func Extract(code string, laps []model.LapData) (
	*model.CompetitorSeries, error,
) {
	if len(laps) == 0 {
		return nil, ErrNoTelemetry
	}
	ret := &model.CompetitorSeries{Code: code}
	offset := 0.0
	for i := range laps {
		lap := &laps[i]
		ret.MaxLap = max(ret.MaxLap, lap.LapNumber)
		n, err := lap.Telemetry.Len()
		if err != nil {
			return nil, fmt.Errorf("lap %d: %w", lap.LapNumber, err)
		}
		if n == 0 {
			continue
		}
		tyre := model.CompoundCode(lap.Compound)
		tel := &lap.Telemetry
		lapSpan := 0.0
		for j := range n {
			ret.Samples = append(ret.Samples, model.CompetitorSample{
				Time:         tel.SessionTime[j],
				X:            tel.X[j],
				Y:            tel.Y[j],
				RaceDistance: offset + tel.Distance[j],
				RelDistance:  tel.RelativeDistance[j],
				Lap:          lap.LapNumber,
				Tyre:         tyre,
				Speed:        tel.Speed[j],
				Gear:         tel.Gear[j],
				DRS:          tel.DRS[j],
				Throttle:     tel.Throttle[j],
				Brake:        tel.Brake[j],
			})
			lapSpan = max(lapSpan, tel.Distance[j])
		}
		offset += lapSpan
	}
	if len(ret.Samples) == 0 {
		return nil, ErrNoTelemetry
	}
	// laps should already be in time order, but the source does not guarantee it
	slices.SortStableFunc(ret.Samples, func(a, b model.CompetitorSample) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		default:
			return 0
		}
	})
	ret.TMin = ret.Samples[0].Time
	ret.TMax = ret.Samples[len(ret.Samples)-1].Time
	return ret, nil
}
