// Package basedata provides synthetic sessions for tests.
package basedata

import (
	"context"
	"fmt"
	"slices"

	"github.com/mpapenbr/racetelemetry/pkg/model"
	"github.com/mpapenbr/racetelemetry/pkg/source"
)

const SampleLapLength = 1000.0

// SampleLap creates a lap with n equidistant samples starting at t0.
// The competitor drives from distance 0 to lapLength at constant speed.
// Gear cycles through 1..8, DRS is closed, throttle is 100, brake 0.
//
//nolint:whitespace // can't make both editor and linter happy
func SampleLap(
	lapNo int, compound string, t0, dt float64, n int, lapLength float64,
) model.LapData {
	tel := model.TelemetryTable{}
	for i := range n {
		frac := 0.0
		if n > 1 {
			frac = float64(i) / float64(n-1)
		}
		tel.SessionTime = append(tel.SessionTime, t0+float64(i)*dt)
		tel.X = append(tel.X, frac*lapLength)
		tel.Y = append(tel.Y, 0)
		tel.Distance = append(tel.Distance, frac*lapLength)
		tel.RelativeDistance = append(tel.RelativeDistance, frac)
		tel.Speed = append(tel.Speed, 200)
		tel.Gear = append(tel.Gear, 1+i%8)
		tel.DRS = append(tel.DRS, 0)
		tel.Throttle = append(tel.Throttle, 100)
		tel.Brake = append(tel.Brake, 0)
	}
	return model.LapData{
		LapNumber: lapNo,
		Compound:  compound,
		LapTime:   float64(n-1) * dt,
		Telemetry: tel,
	}
}

// SampleLaps creates numLaps consecutive laps of samplesPerLap samples each.
// Each lap takes lapTime seconds, the first lap starts at t0.
//
//nolint:whitespace // can't make both editor and linter happy
func SampleLaps(
	numLaps int, compound string, t0, lapTime float64, samplesPerLap int,
) []model.LapData {
	ret := make([]model.LapData, 0, numLaps)
	dt := lapTime / float64(samplesPerLap)
	for i := range numLaps {
		ret = append(ret, SampleLap(i+1, compound, t0+float64(i)*lapTime, dt,
			samplesPerLap, SampleLapLength))
	}
	return ret
}

// Session is an in-memory session source.
type Session struct {
	ID          model.SessionIdentity
	Drivers     []model.Competitor
	LapData     map[string][]model.LapData
	Status      []model.StatusEvent
	WeatherData *model.WeatherTable
	QualiLaps   map[string][]model.QualiLap
	QualiResult []model.QualiClassification
	// LapErr is returned by Laps for the given competitors
	LapErr map[string]error
}

var _ source.SessionSource = (*Session)(nil)

func (s *Session) Identity() model.SessionIdentity {
	return s.ID
}

//nolint:whitespace // can't make both editor and linter happy
func (s *Session) Competitors(ctx context.Context) (
	[]model.Competitor, error,
) {
	return slices.Clone(s.Drivers), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *Session) Laps(ctx context.Context, code string) (
	[]model.LapData, error,
) {
	if err, ok := s.LapErr[code]; ok {
		return nil, err
	}
	return s.LapData[code], nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *Session) TrackStatus(ctx context.Context) (
	[]model.StatusEvent, error,
) {
	return slices.Clone(s.Status), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *Session) Weather(ctx context.Context) (
	*model.WeatherTable, error,
) {
	return s.WeatherData, nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *Session) QualifyingSegments(ctx context.Context) (
	map[string][]model.QualiLap, error,
) {
	if s.QualiLaps == nil {
		return nil, source.ErrNoQualifying
	}
	return s.QualiLaps, nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *Session) QualifyingResults(ctx context.Context) (
	[]model.QualiClassification, error,
) {
	if s.QualiLaps == nil {
		return nil, source.ErrNoQualifying
	}
	return slices.Clone(s.QualiResult), nil
}

// SampleRace creates a race session with the given competitors.
// Competitor i starts i*gap seconds behind the first one, all drive the
// same number of laps.
func SampleRace(codes []string, numLaps int, gap float64) *Session {
	ret := &Session{
		ID: model.SessionIdentity{
			Year: 2024, Round: 1,
			Name: "2024 Test Grand Prix - Race",
			Type: model.SessionTypeRace,
		},
		LapData: map[string][]model.LapData{},
		Status: []model.StatusEvent{
			{Time: 0, Status: "1"},
			{Time: 50, Status: "4"},
			{Time: 60, Status: "1"},
		},
		WeatherData: &model.WeatherTable{
			Time:      []float64{0, 1000},
			TrackTemp: []float64{30, 40},
			AirTemp:   []float64{20, 22},
			Rainfall:  []float64{0, 0},
		},
	}
	for i, code := range codes {
		ret.Drivers = append(ret.Drivers, model.Competitor{
			Number: fmt.Sprintf("%d", i+1),
			Code:   code,
			Color:  fmt.Sprintf("#%02x%02x%02x", 10*i, 20*i, 30*i),
		})
		ret.LapData[code] = SampleLaps(numLaps, "SOFT", float64(i)*gap, 90, 90)
	}
	return ret
}

func SampleQualiLap(code string, lapNo int, lapTime float64) model.QualiLap {
	l := SampleLap(lapNo, "SOFT", 1000*float64(lapNo), lapTime/10, 11,
		SampleLapLength)
	return model.QualiLap{
		Code:      code,
		LapNumber: l.LapNumber,
		Compound:  l.Compound,
		LapTime:   lapTime,
		Telemetry: l.Telemetry,
	}
}
