// Package trackstatus converts punctual race control status events into
// contiguous intervals.
package trackstatus

import (
	"github.com/mpapenbr/racetelemetry/pkg/model"
)

// Segments turns the events into intervals relative to origin.
// Each interval ends where the next one starts, the last one stays open.
// Events are used in the given order.
func Segments(events []model.StatusEvent, origin float64) []model.TrackStatusSegment {
	ret := make([]model.TrackStatusSegment, len(events))
	for i, e := range events {
		ret[i] = model.TrackStatusSegment{Status: e.Status, Start: e.Time - origin}
		if i > 0 {
			end := ret[i].Start
			ret[i-1].End = &end
		}
	}
	return ret
}
