package dispatch

import (
	"context"
	"errors"
	"math"

	"github.com/samber/lo"

	"github.com/mpapenbr/racetelemetry/log"
	"github.com/mpapenbr/racetelemetry/pkg/model"
	"github.com/mpapenbr/racetelemetry/pkg/processing/extract"
)

type (
	LapProvider interface {
		Laps(ctx context.Context, code string) ([]model.LapData, error)
	}

	// Aggregate is the joined result of all extraction tasks.
	Aggregate struct {
		Series  []*model.CompetitorSeries // valid competitors in input order
		Skipped []string                  // competitors without usable data
		TMin    float64
		TMax    float64
		MaxLap  int
	}
)

// ExtractAll extracts all competitors in parallel and aggregates the results.
//
//nolint:whitespace // can't make both editor and linter happy
func ExtractAll(
	ctx context.Context, p *Pool, src LapProvider, codes []string,
) (*Aggregate, error) {
	results, err := Run(ctx, p, codes,
		func(ctx context.Context, code string) (*model.CompetitorSeries, error) {
			p.log.Debug("processing telemetry", log.String("competitor", code))
			laps, err := src.Laps(ctx, code)
			if err != nil {
				return nil, err
			}
			return extract.Extract(code, laps)
		})
	if err != nil {
		return nil, err
	}
	return AggregateResults(p.log, results)
}

// AggregateResults skips failed competitors and reduces the time bounds of
// the valid ones. Returns ErrNoValidData if nothing remains.
//
//nolint:whitespace // can't make both editor and linter happy
func AggregateResults(
	l *log.Logger, results []Result[*model.CompetitorSeries],
) (*Aggregate, error) {
	ret := &Aggregate{TMin: math.Inf(1), TMax: math.Inf(-1)}
	for _, r := range results {
		if r.Err != nil {
			ret.Skipped = append(ret.Skipped, r.Key)
			if errors.Is(r.Err, extract.ErrNoTelemetry) {
				l.Warn("no telemetry for competitor", log.String("competitor", r.Key))
			} else {
				l.Error("error processing competitor",
					log.String("competitor", r.Key), log.ErrorField(r.Err))
			}
			continue
		}
		ret.Series = append(ret.Series, r.Value)
	}
	if len(ret.Series) == 0 {
		return nil, ErrNoValidData
	}
	ret.TMin = lo.MinBy(ret.Series, func(a, b *model.CompetitorSeries) bool {
		return a.TMin < b.TMin
	}).TMin
	ret.TMax = lo.MaxBy(ret.Series, func(a, b *model.CompetitorSeries) bool {
		return a.TMax > b.TMax
	}).TMax
	ret.MaxLap = lo.Max(lo.Map(ret.Series, func(s *model.CompetitorSeries, _ int) int {
		return s.MaxLap
	}))
	return ret, nil
}
