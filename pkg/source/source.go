package source

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/mpapenbr/racetelemetry/pkg/model"
)

var (
	ErrUnknownCompetitor = errors.New("unknown competitor")
	ErrNoQualifying      = errors.New("session has no qualifying data")
	ErrInvalidColor      = errors.New("invalid color")
)

// SessionSource supplies the raw data of one recorded session.
// Implementations must be safe for concurrent use, Laps is called from
// multiple goroutines.
type SessionSource interface {
	Identity() model.SessionIdentity
	Competitors(ctx context.Context) ([]model.Competitor, error)
	// Laps returns the laps of a competitor ordered by lap number.
	Laps(ctx context.Context, code string) ([]model.LapData, error)
	TrackStatus(ctx context.Context) ([]model.StatusEvent, error)
	// Weather returns nil if the session has no weather data.
	Weather(ctx context.Context) (*model.WeatherTable, error)
	// QualifyingSegments returns the laps per segment (Q1, Q2, Q3)
	QualifyingSegments(ctx context.Context) (map[string][]model.QualiLap, error)
	QualifyingResults(ctx context.Context) ([]model.QualiClassification, error)
}

// ParseColor converts "#RRGGBB" (or "RRGGBB") to RGB.
func ParseColor(hex string) (model.RGB, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) != 6 {
		return model.RGB{}, ErrInvalidColor
	}
	var ret model.RGB
	for i := range 3 {
		v, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return model.RGB{}, ErrInvalidColor
		}
		ret[i] = uint8(v)
	}
	return ret, nil
}
