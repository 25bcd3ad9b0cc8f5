package model

import "errors"

var ErrColumnLength = errors.New("column length mismatch")

type (
	// Competitor as delivered by the session source.
	// Color is a hex string like "#3671C6".
	Competitor struct {
		Number string `json:"number"`
		Code   string `json:"code"`
		Color  string `json:"color"`
	}

	// TelemetryTable holds the raw telemetry of one lap in columns.
	// SessionTime is in seconds, Brake is a 0..1 fraction (or 0/1 flag),
	// Distance is the distance driven within the lap.
	TelemetryTable struct {
		SessionTime      []float64 `json:"sessionTime"`
		X                []float64 `json:"x"`
		Y                []float64 `json:"y"`
		Distance         []float64 `json:"distance"`
		RelativeDistance []float64 `json:"relativeDistance"`
		Speed            []float64 `json:"speed"`
		Gear             []int     `json:"gear"`
		DRS              []int     `json:"drs"`
		Throttle         []float64 `json:"throttle"`
		Brake            []float64 `json:"brake"`
	}

	// LapData is one lap of a competitor with its telemetry.
	// LapTime is in seconds, 0 if unknown.
	LapData struct {
		LapNumber int            `json:"lap"`
		Compound  string         `json:"compound"`
		LapTime   float64        `json:"lapTime"`
		Telemetry TelemetryTable `json:"telemetry"`
	}

	// StatusEvent is a punctual race control status change.
	StatusEvent struct {
		Time   float64 `json:"time"`
		Status string  `json:"status"`
	}

	// WeatherTable holds sparse weather samples. Absent columns are nil.
	WeatherTable struct {
		Time          []float64 `json:"time"`
		TrackTemp     []float64 `json:"trackTemp,omitempty"`
		AirTemp       []float64 `json:"airTemp,omitempty"`
		Humidity      []float64 `json:"humidity,omitempty"`
		WindSpeed     []float64 `json:"windSpeed,omitempty"`
		WindDirection []float64 `json:"windDirection,omitempty"`
		Rainfall      []float64 `json:"rainfall,omitempty"`
	}

	// QualiLap is a lap driven in a qualifying segment.
	QualiLap struct {
		Code      string         `json:"code"`
		LapNumber int            `json:"lap"`
		Compound  string         `json:"compound"`
		LapTime   float64        `json:"lapTime"`
		Telemetry TelemetryTable `json:"telemetry"`
	}

	// QualiClassification is the official classification as delivered by
	// the source. Times are in seconds, nil if not set.
	QualiClassification struct {
		Code     string   `json:"code"`
		Position int      `json:"position"`
		Q1       *float64 `json:"q1,omitempty"`
		Q2       *float64 `json:"q2,omitempty"`
		Q3       *float64 `json:"q3,omitempty"`
	}
)

// Len returns the number of samples. It returns ErrColumnLength if the
// columns differ in length.
func (t *TelemetryTable) Len() (int, error) {
	n := len(t.SessionTime)
	for _, l := range []int{
		len(t.X), len(t.Y), len(t.Distance), len(t.RelativeDistance),
		len(t.Speed), len(t.Gear), len(t.DRS), len(t.Throttle), len(t.Brake),
	} {
		if l != n {
			return 0, ErrColumnLength
		}
	}
	return n, nil
}

func (q *QualiLap) Lap() LapData {
	return LapData{
		LapNumber: q.LapNumber,
		Compound:  q.Compound,
		LapTime:   q.LapTime,
		Telemetry: q.Telemetry,
	}
}
