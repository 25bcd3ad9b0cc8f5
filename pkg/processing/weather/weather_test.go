//nolint:funlen // ok for tests
package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/racetelemetry/pkg/model"
	"github.com/mpapenbr/racetelemetry/pkg/processing/timeline"
)

func TestResample(t *testing.T) {
	tl, err := timeline.Build(100, 105, 1)
	require.NoError(t, err)

	t.Run("interpolated and clamped", func(t *testing.T) {
		tr, err := Resample(&model.WeatherTable{
			Time:      []float64{101, 103},
			TrackTemp: []float64{30, 40},
			AirTemp:   []float64{20, 20},
		}, tl)
		require.NoError(t, err)
		assert.Equal(t, 5, tr.Len())
		assert.InDeltaSlice(t, []float64{30, 30, 35, 40, 40}, tr.TrackTemp, 1e-9)
		assert.Nil(t, tr.Humidity)
		assert.Nil(t, tr.Rainfall)

		s := tr.Snapshot(2)
		require.NotNil(t, s.TrackTemp)
		assert.InDelta(t, 35.0, *s.TrackTemp, 1e-9)
		assert.Nil(t, s.Humidity, "absent column stays null")
		assert.Nil(t, s.WindSpeed)
		assert.Equal(t, model.RainStateDry, s.RainState)
	})

	t.Run("rain threshold", func(t *testing.T) {
		tr, err := Resample(&model.WeatherTable{
			Time:     []float64{100, 104},
			Rainfall: []float64{0, 1},
		}, tl)
		require.NoError(t, err)
		states := []string{}
		for i := range tr.Len() {
			states = append(states, tr.Snapshot(i).RainState)
		}
		// rainfall 0, .25, .5, .75, 1
		assert.Equal(t, []string{
			model.RainStateDry, model.RainStateDry, model.RainStateRaining,
			model.RainStateRaining, model.RainStateRaining,
		}, states)
	})
}

func TestResampleUnavailable(t *testing.T) {
	tl, err := timeline.Build(0, 4, 1)
	require.NoError(t, err)
	tests := []struct {
		name string
		tbl  *model.WeatherTable
	}{
		{name: "nil", tbl: nil},
		{name: "empty", tbl: &model.WeatherTable{}},
		{name: "column length", tbl: &model.WeatherTable{
			Time:    []float64{0, 1},
			AirTemp: []float64{1},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Resample(tt.tbl, tl)
			assert.Nil(t, tr)
			assert.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestRainStateBoundary(t *testing.T) {
	assert.Equal(t, model.RainStateRaining, model.RainState(0.5))
	assert.Equal(t, model.RainStateDry, model.RainState(0.4999))
}
