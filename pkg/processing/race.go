package processing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/racetelemetry/log"
	"github.com/mpapenbr/racetelemetry/pkg/cache"
	"github.com/mpapenbr/racetelemetry/pkg/model"
	"github.com/mpapenbr/racetelemetry/pkg/processing/dispatch"
	"github.com/mpapenbr/racetelemetry/pkg/processing/frames"
	"github.com/mpapenbr/racetelemetry/pkg/processing/timeline"
	"github.com/mpapenbr/racetelemetry/pkg/processing/trackstatus"
	"github.com/mpapenbr/racetelemetry/pkg/processing/weather"
	"github.com/mpapenbr/racetelemetry/pkg/source"
)

// RaceTelemetry returns the frame artifact of a race (or sprint) session.
// The artifact is served from the cache if possible and cached after
// computation.
//
//nolint:whitespace // can't make both editor and linter happy
func (p *Pipeline) RaceTelemetry(ctx context.Context, src source.SessionSource) (
	*model.RaceTelemetryArtifact, error,
) {
	id := src.Identity()
	key := cache.Key(id, cache.RaceSuffix(id.Type))
	ctx, span := p.tracer.Start(ctx, "race-telemetry",
		trace.WithAttributes(attribute.String("session", key)))
	defer span.End()

	layer := cache.NewLayer[model.RaceTelemetryArtifact](p.store, schemaRace,
		cache.WithLayerLogger(p.log.Named("cache")),
		cache.WithMinProducer(p.cfg.MinProducer))
	if ret, ok := fromCache(ctx, p, layer, key); ok {
		p.log.Info("loaded precomputed race telemetry", log.String("session", key))
		return ret, nil
	}

	runID := uuid.New().String()
	l := p.log.With(log.String("session", key), log.String("runId", runID))
	l.Info("computing race telemetry")
	ret, err := p.computeRace(ctx, src, l)
	if err != nil {
		failSpan(span, err)
		return nil, fmt.Errorf("session %s: %w", key, err)
	}
	toCache(ctx, p, layer, key, runID, ret)
	return ret, nil
}

//nolint:whitespace,funlen // can't make both editor and linter happy
func (p *Pipeline) computeRace(
	ctx context.Context, src source.SessionSource, l *log.Logger,
) (*model.RaceTelemetryArtifact, error) {
	competitors, err := src.Competitors(ctx)
	if err != nil {
		return nil, fmt.Errorf("competitors: %w", err)
	}
	codes := lo.Map(competitors, func(c model.Competitor, _ int) string {
		return c.Code
	})
	pool := p.pool()

	ectx, span := p.tracer.Start(ctx, "extract",
		trace.WithAttributes(attribute.Int("competitors", len(codes))))
	agg, err := dispatch.ExtractAll(ectx, pool, src, codes)
	if err != nil {
		failSpan(span, err)
		span.End()
		return nil, err
	}
	span.End()
	if len(agg.Skipped) > 0 {
		p.metrics.competitorsSkipped.Add(ctx, int64(len(agg.Skipped)))
		l.Info("skipped competitors", log.Strings("competitors", agg.Skipped))
	}

	tl, err := timeline.Build(agg.TMin, agg.TMax, p.cfg.FramesPerSecond())
	if err != nil {
		return nil, err
	}
	l.Debug("timeline created",
		log.Float64("tMin", agg.TMin),
		log.Float64("tMax", agg.TMax),
		log.Int("ticks", tl.Len()))

	tracks, err := p.resampleAll(ctx, pool, agg, tl, l)
	if err != nil {
		return nil, err
	}
	wt := p.resampleWeather(ctx, src, tl, l)

	events, err := src.TrackStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("track status: %w", err)
	}

	_, span = p.tracer.Start(ctx, "frames")
	frameList, err := frames.Assemble(tl, tracks, wt)
	span.End()
	if err != nil {
		return nil, err
	}
	p.metrics.framesProduced.Add(ctx, int64(len(frameList)),
		metric.WithAttributes(attribute.String("schema", schemaRace)))
	l.Info("completed telemetry extraction", log.Int("frames", len(frameList)))

	return &model.RaceTelemetryArtifact{
		Frames:        frameList,
		TrackStatuses: trackstatus.Segments(events, agg.TMin),
		TotalLaps:     agg.MaxLap,
		DriverColors:  driverColors(l, competitors),
	}, nil
}

// resampleAll resamples the series in parallel and joins them in the order
// of the aggregate.
//
//nolint:whitespace // can't make both editor and linter happy
func (p *Pipeline) resampleAll(
	ctx context.Context,
	pool *dispatch.Pool,
	agg *dispatch.Aggregate,
	tl *timeline.Timeline,
	l *log.Logger,
) ([]*timeline.Track, error) {
	ctx, span := p.tracer.Start(ctx, "resample")
	defer span.End()
	byCode := lo.KeyBy(agg.Series, func(s *model.CompetitorSeries) string {
		return s.Code
	})
	codes := lo.Map(agg.Series, func(s *model.CompetitorSeries, _ int) string {
		return s.Code
	})
	results, err := dispatch.Run(ctx, pool, codes,
		func(ctx context.Context, code string) (*timeline.Track, error) {
			return timeline.Resample(byCode[code], tl,
				timeline.WithStepHoldCategorical(p.cfg.StepHoldCategorical))
		})
	if err != nil {
		failSpan(span, err)
		return nil, err
	}
	ret := make([]*timeline.Track, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			l.Error("could not resample competitor",
				log.String("competitor", r.Key), log.ErrorField(r.Err))
			continue
		}
		ret = append(ret, r.Value)
	}
	if len(ret) == 0 {
		return nil, dispatch.ErrNoValidData
	}
	return ret, nil
}

// resampleWeather returns nil if weather is not available.
//
//nolint:whitespace // can't make both editor and linter happy
func (p *Pipeline) resampleWeather(
	ctx context.Context, src source.SessionSource, tl *timeline.Timeline, l *log.Logger,
) *weather.Track {
	tbl, err := src.Weather(ctx)
	if err != nil {
		l.Warn("could not read weather", log.ErrorField(err))
		return nil
	}
	wt, err := weather.Resample(tbl, tl)
	if err != nil {
		if errors.Is(err, weather.ErrUnavailable) && tbl == nil {
			l.Debug("session has no weather data")
		} else {
			l.Warn("weather data could not be processed", log.ErrorField(err))
		}
		return nil
	}
	return wt
}
