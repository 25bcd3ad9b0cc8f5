package frames

import (
	"github.com/mpapenbr/racetelemetry/pkg/model"
	"github.com/mpapenbr/racetelemetry/pkg/processing/timeline"
	"github.com/mpapenbr/racetelemetry/pkg/processing/weather"
	"github.com/mpapenbr/racetelemetry/pkg/utils"
)

const channelPlaces = 1

// DetectDRSZones scans the DRS channel for threshold crossings.
// A zone starts at the race distance of the tick where DRS becomes active
// and ends at the tick where it becomes inactive again. A zone still open at
// the end keeps a nil end.
func DetectDRSZones(drs, dist []float64) []model.DRSZone {
	ret := []model.DRSZone{}
	for i := 1; i < min(len(drs), len(dist)); i++ {
		prev := drs[i-1] >= model.DRSActiveThreshold
		curr := drs[i] >= model.DRSActiveThreshold
		switch {
		case curr && !prev:
			ret = append(ret, model.DRSZone{Start: dist[i]})
		case !curr && prev:
			if len(ret) > 0 && ret[len(ret)-1].End == nil {
				end := dist[i]
				ret[len(ret)-1].End = &end
			}
		}
	}
	return ret
}

// AssembleLap builds the frames of a single competitor lap.
// Speed, throttle and brake are rounded to one decimal. If lapTime is > 0
// it replaces the time of the last frame.
//
//nolint:whitespace // can't make both editor and linter happy
func AssembleLap(
	tl *timeline.Timeline, tr *timeline.Track, wt *weather.Track, lapTime float64,
) ([]model.LapFrame, error) {
	if tr.Len() != tl.Len() {
		return nil, ErrTrackLength
	}
	ret := make([]model.LapFrame, tl.Len())
	for i, offset := range tl.Offsets {
		ret[i] = model.LapFrame{
			T: utils.Round(offset, timePlaces),
			Telemetry: model.LapTelemetry{
				X:        tr.X[i],
				Y:        tr.Y[i],
				Dist:     tr.Dist[i],
				RelDist:  tr.RelDist[i],
				Speed:    utils.Round(tr.Speed[i], channelPlaces),
				Gear:     tr.Gear[i],
				Throttle: utils.Round(tr.Throttle[i], channelPlaces),
				Brake:    utils.Round(tr.Brake[i], channelPlaces),
				DRS:      int(tr.DRS[i]),
			},
		}
		if wt != nil && i < wt.Len() {
			ret[i].Weather = wt.Snapshot(i)
		}
	}
	if len(ret) > 0 && lapTime > 0 {
		ret[len(ret)-1].T = utils.Round(lapTime, timePlaces)
	}
	return ret, nil
}
