package model

//nolint:lll // readability
type (
	// DriverState is the snapshot of one competitor at a tick.
	DriverState struct {
		Code     string  `json:"code"`
		Position int     `json:"position"`
		X        float64 `json:"x"`
		Y        float64 `json:"y"`
		Dist     float64 `json:"dist"`
		Lap      int     `json:"lap"`
		RelDist  float64 `json:"rel_dist"`
		Tyre     int     `json:"tyre"`
		Speed    float64 `json:"speed"`
		Gear     int     `json:"gear"`
		DRS      int     `json:"drs"`
		Throttle float64 `json:"throttle"`
		Brake    float64 `json:"brake"`
	}

	// WeatherSnapshot holds the interpolated weather at a tick.
	// Values are nil if the source did not provide the column.
	WeatherSnapshot struct {
		TrackTemp     *float64 `json:"track_temp"`
		AirTemp       *float64 `json:"air_temp"`
		Humidity      *float64 `json:"humidity"`
		WindSpeed     *float64 `json:"wind_speed"`
		WindDirection *float64 `json:"wind_direction"`
		Rainfall      *float64 `json:"rainfall"`
		RainState     string   `json:"rain_state"`
	}

	// Frame is the ranked snapshot of all competitors at one tick.
	// Drivers are ordered by position.
	Frame struct {
		T       float64          `json:"t"`
		Lap     int              `json:"lap"`
		Drivers []DriverState    `json:"drivers"`
		Weather *WeatherSnapshot `json:"weather,omitempty"`
	}

	// TrackStatusSegment is the interval [Start,End) in which Status was active.
	// End is nil for the last segment.
	TrackStatusSegment struct {
		Status string   `json:"status"`
		Start  float64  `json:"start_time"`
		End    *float64 `json:"end_time"`
	}

	RaceTelemetryArtifact struct {
		Frames        []Frame              `json:"frames"`
		TrackStatuses []TrackStatusSegment `json:"track_statuses"`
		TotalLaps     int                  `json:"total_laps"`
		DriverColors  map[string]RGB       `json:"driver_colors"`
	}

	// DRSZone is a race distance interval with active DRS. End is nil if
	// DRS was still active at the end of the lap.
	DRSZone struct {
		Start float64  `json:"zone_start"`
		End   *float64 `json:"zone_end"`
	}

	LapTelemetry struct {
		X        float64 `json:"x"`
		Y        float64 `json:"y"`
		Dist     float64 `json:"dist"`
		RelDist  float64 `json:"rel_dist"`
		Speed    float64 `json:"speed"`
		Gear     int     `json:"gear"`
		Throttle float64 `json:"throttle"`
		Brake    float64 `json:"brake"`
		DRS      int     `json:"drs"`
	}

	// LapFrame is one tick of a single competitor lap.
	LapFrame struct {
		T         float64          `json:"t"`
		Telemetry LapTelemetry     `json:"telemetry"`
		Weather   *WeatherSnapshot `json:"weather,omitempty"`
	}

	// SegmentTelemetry is the fastest lap of one competitor in one
	// qualifying segment. It is empty if the competitor has no valid lap.
	SegmentTelemetry struct {
		Frames        []LapFrame           `json:"frames"`
		TrackStatuses []TrackStatusSegment `json:"track_statuses"`
		DRSZones      []DRSZone            `json:"drs_zones,omitempty"`
		MaxSpeed      float64              `json:"max_speed,omitempty"`
		MinSpeed      float64              `json:"min_speed,omitempty"`
	}

	QualiResult struct {
		Code     string   `json:"code"`
		Position int      `json:"position"`
		Color    RGB      `json:"color"`
		Q1       *float64 `json:"Q1"`
		Q2       *float64 `json:"Q2"`
		Q3       *float64 `json:"Q3"`
	}

	QualiTelemetryArtifact struct {
		Results   []QualiResult                          `json:"results"`
		Telemetry map[string]map[string]SegmentTelemetry `json:"telemetry"`
		MaxSpeed  float64                                `json:"max_speed"`
		MinSpeed  float64                                `json:"min_speed"`
	}
)

// IsEmpty reports whether the segment has no frames.
func (s *SegmentTelemetry) IsEmpty() bool {
	return len(s.Frames) == 0
}
