//nolint:funlen // ok for tests
package dispatch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/racetelemetry/log"
	"github.com/mpapenbr/racetelemetry/pkg/model"
	"github.com/mpapenbr/racetelemetry/pkg/processing/extract"
	"github.com/mpapenbr/racetelemetry/testsupport/basedata"
)

func TestPoolSize(t *testing.T) {
	p := NewPool(WithWorkers(2))
	assert.Equal(t, 1, p.Size(1))
	assert.LessOrEqual(t, p.Size(10), 2)
	assert.Equal(t, 1, NewPool().Size(0))
}

func TestRun(t *testing.T) {
	t.Run("results keep key order", func(t *testing.T) {
		keys := []string{"A", "B", "C", "D", "E"}
		var calls atomic.Int32
		res, err := Run(context.Background(), NewPool(WithWorkers(3)), keys,
			func(ctx context.Context, key string) (string, error) {
				calls.Add(1)
				return key + key, nil
			})
		require.NoError(t, err)
		assert.Equal(t, int32(5), calls.Load())
		for i, r := range res {
			assert.Equal(t, keys[i], r.Key)
			assert.Equal(t, keys[i]+keys[i], r.Value)
			assert.NoError(t, r.Err)
		}
	})

	t.Run("failures are isolated", func(t *testing.T) {
		errBoom := errors.New("boom")
		res, err := Run(context.Background(), NewPool(), []string{"A", "B", "C"},
			func(ctx context.Context, key string) (int, error) {
				switch key {
				case "A":
					return 0, errBoom
				case "B":
					panic("unexpected")
				}
				return 1, nil
			})
		require.NoError(t, err)
		var pe *PerCompetitorDataError
		require.ErrorAs(t, res[0].Err, &pe)
		assert.Equal(t, "A", pe.Competitor)
		assert.ErrorIs(t, res[0].Err, errBoom)
		require.ErrorAs(t, res[1].Err, &pe)
		assert.Equal(t, "B", pe.Competitor)
		assert.NoError(t, res[2].Err)
		assert.Equal(t, 1, res[2].Value)
	})

	t.Run("task timeout", func(t *testing.T) {
		p := NewPool(WithTaskTimeout(20 * time.Millisecond))
		res, err := Run(context.Background(), p, []string{"slow", "fast"},
			func(ctx context.Context, key string) (int, error) {
				if key == "slow" {
					select {
					case <-ctx.Done():
					case <-time.After(2 * time.Second):
					}
				}
				return 1, nil
			})
		require.NoError(t, err)
		var pe *PerCompetitorDataError
		require.ErrorAs(t, res[0].Err, &pe)
		assert.ErrorIs(t, res[0].Err, context.DeadlineExceeded)
		assert.NoError(t, res[1].Err)
	})

	t.Run("cancelled context fails dispatch", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		keys := make([]string, 100)
		for i := range keys {
			keys[i] = "X"
		}
		res, err := Run(ctx, NewPool(WithWorkers(1)), keys,
			func(ctx context.Context, key string) (int, error) {
				return 1, nil
			})
		var de *DispatchError
		require.ErrorAs(t, err, &de)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, res)
	})
}

func TestExtractAll(t *testing.T) {
	sess := basedata.SampleRace([]string{"AAA", "BBB", "CCC"}, 2, 5)
	sess.LapData["DDD"] = nil
	sess.LapErr = map[string]error{"EEE": errors.New("source failure")}

	agg, err := ExtractAll(context.Background(), NewPool(), sess,
		[]string{"AAA", "BBB", "DDD", "CCC", "EEE"})
	require.NoError(t, err)
	codes := []string{}
	for _, s := range agg.Series {
		codes = append(codes, s.Code)
	}
	assert.Equal(t, []string{"AAA", "BBB", "CCC"}, codes)
	assert.Equal(t, []string{"DDD", "EEE"}, agg.Skipped)
	assert.InDelta(t, 0.0, agg.TMin, 1e-9)
	// CCC starts 10s late and its last sample is at 10+90+89
	assert.InDelta(t, 189.0, agg.TMax, 1e-9)
	assert.Equal(t, 2, agg.MaxLap)
}

func TestAggregateResults(t *testing.T) {
	series := func(code string, tMin, tMax float64, maxLap int) *model.CompetitorSeries {
		return &model.CompetitorSeries{Code: code, TMin: tMin, TMax: tMax, MaxLap: maxLap}
	}
	l := log.Default()

	t.Run("bounds are global min and max", func(t *testing.T) {
		agg, err := AggregateResults(l, []Result[*model.CompetitorSeries]{
			{Key: "A", Value: series("A", 5, 100, 10)},
			{Key: "B", Value: series("B", 3, 90, 12)},
			{Key: "C", Err: &PerCompetitorDataError{Competitor: "C", Err: extract.ErrNoTelemetry}},
			{Key: "D", Value: series("D", 4, 110, 11)},
		})
		require.NoError(t, err)
		assert.Len(t, agg.Series, 3)
		assert.InDelta(t, 3.0, agg.TMin, 1e-9)
		assert.InDelta(t, 110.0, agg.TMax, 1e-9)
		assert.Equal(t, 12, agg.MaxLap)
		assert.Equal(t, []string{"C"}, agg.Skipped)
	})

	t.Run("no valid competitor", func(t *testing.T) {
		agg, err := AggregateResults(l, []Result[*model.CompetitorSeries]{
			{Key: "A", Err: &PerCompetitorDataError{Competitor: "A", Err: extract.ErrNoTelemetry}},
		})
		assert.Nil(t, agg)
		assert.ErrorIs(t, err, ErrNoValidData)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := AggregateResults(l, nil)
		assert.ErrorIs(t, err, ErrNoValidData)
	})
}
