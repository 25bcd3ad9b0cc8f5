package model

type (
	// CompetitorSample is one telemetry sample on the race distance scale.
	CompetitorSample struct {
		Time         float64
		X            float64
		Y            float64
		RaceDistance float64
		RelDistance  float64
		Lap          int
		Tyre         int
		Speed        float64
		Gear         int
		DRS          int
		Throttle     float64
		Brake        float64
	}

	// CompetitorSeries is the time sorted telemetry of one competitor.
	CompetitorSeries struct {
		Code    string
		Samples []CompetitorSample
		TMin    float64
		TMax    float64
		MaxLap  int
	}
)

// RGB color triple
type RGB [3]uint8
