//nolint:funlen // ok for tests
package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/racetelemetry/pkg/model"
	"github.com/mpapenbr/racetelemetry/testsupport/basedata"
)

func TestExtract(t *testing.T) {
	t.Run("race distance monotonic across laps", func(t *testing.T) {
		laps := basedata.SampleLaps(3, "SOFT", 10, 90, 10)
		res, err := Extract("AAA", laps)
		require.NoError(t, err)
		assert.Equal(t, "AAA", res.Code)
		assert.Len(t, res.Samples, 30)
		assert.Equal(t, 3, res.MaxLap)
		assert.InDelta(t, 10.0, res.TMin, 1e-9)
		assert.InDelta(t, 10.0+2*90+81, res.TMax, 1e-9)
		for i := 1; i < len(res.Samples); i++ {
			assert.GreaterOrEqual(t, res.Samples[i].RaceDistance,
				res.Samples[i-1].RaceDistance, "sample %d", i)
			assert.GreaterOrEqual(t, res.Samples[i].Time, res.Samples[i-1].Time)
		}
		// first sample of lap 2 starts at the end of lap 1
		assert.InDelta(t, basedata.SampleLapLength, res.Samples[10].RaceDistance, 1e-9)
		assert.Equal(t, 2, res.Samples[10].Lap)
		assert.InDelta(t, 3*basedata.SampleLapLength,
			res.Samples[29].RaceDistance, 1e-9)
	})

	t.Run("tyre and lap constant per lap", func(t *testing.T) {
		laps := []model.LapData{
			basedata.SampleLap(1, "SOFT", 0, 1, 3, 100),
			basedata.SampleLap(2, "hard", 3, 1, 3, 100),
			basedata.SampleLap(3, "UNKNOWN", 6, 1, 3, 100),
		}
		res, err := Extract("AAA", laps)
		require.NoError(t, err)
		tyres := []int{}
		for _, s := range res.Samples {
			tyres = append(tyres, s.Tyre)
		}
		assert.Equal(t, []int{0, 0, 0, 2, 2, 2, -1, -1, -1}, tyres)
	})

	t.Run("unsorted laps end up time sorted", func(t *testing.T) {
		laps := []model.LapData{
			basedata.SampleLap(2, "SOFT", 3, 1, 3, 100),
			basedata.SampleLap(1, "SOFT", 0, 1, 3, 100),
		}
		res, err := Extract("AAA", laps)
		require.NoError(t, err)
		assert.InDelta(t, 0.0, res.TMin, 1e-9)
		assert.InDelta(t, 5.0, res.TMax, 1e-9)
		assert.Equal(t, 1, res.Samples[0].Lap)
	})

	t.Run("laps without telemetry are skipped", func(t *testing.T) {
		laps := []model.LapData{
			basedata.SampleLap(1, "SOFT", 0, 1, 3, 100),
			{LapNumber: 2},
		}
		res, err := Extract("AAA", laps)
		require.NoError(t, err)
		assert.Len(t, res.Samples, 3)
		assert.Equal(t, 2, res.MaxLap)
	})
}

func TestExtractNoData(t *testing.T) {
	tests := []struct {
		name string
		laps []model.LapData
	}{
		{name: "nil laps", laps: nil},
		{name: "empty telemetry", laps: []model.LapData{{LapNumber: 1}, {LapNumber: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Extract("AAA", tt.laps)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, ErrNoTelemetry)
		})
	}
}

func TestExtractColumnMismatch(t *testing.T) {
	lap := basedata.SampleLap(1, "SOFT", 0, 1, 3, 100)
	lap.Telemetry.Speed = lap.Telemetry.Speed[:2]
	_, err := Extract("AAA", []model.LapData{lap})
	assert.True(t, errors.Is(err, model.ErrColumnLength))
	assert.False(t, errors.Is(err, ErrNoTelemetry))
}
