package processing

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/floats"

	"github.com/mpapenbr/racetelemetry/log"
	"github.com/mpapenbr/racetelemetry/pkg/cache"
	"github.com/mpapenbr/racetelemetry/pkg/model"
	"github.com/mpapenbr/racetelemetry/pkg/processing/dispatch"
	"github.com/mpapenbr/racetelemetry/pkg/processing/extract"
	"github.com/mpapenbr/racetelemetry/pkg/processing/frames"
	"github.com/mpapenbr/racetelemetry/pkg/processing/timeline"
	"github.com/mpapenbr/racetelemetry/pkg/processing/trackstatus"
	"github.com/mpapenbr/racetelemetry/pkg/processing/weather"
	"github.com/mpapenbr/racetelemetry/pkg/source"
)

type (
	// segments of one competitor, keyed by Q1..Q3
	competitorSegments map[string]model.SegmentTelemetry

	qualiInput struct {
		segments map[string][]model.QualiLap
		events   []model.StatusEvent
		weather  *model.WeatherTable
	}
)

// QualiTelemetry returns the fastest lap telemetry of every competitor in
// every qualifying segment.
//
//nolint:whitespace // can't make both editor and linter happy
func (p *Pipeline) QualiTelemetry(ctx context.Context, src source.SessionSource) (
	*model.QualiTelemetryArtifact, error,
) {
	id := src.Identity()
	key := cache.Key(id, cache.QualiSuffix(id.Type))
	ctx, span := p.tracer.Start(ctx, "quali-telemetry",
		trace.WithAttributes(attribute.String("session", key)))
	defer span.End()

	layer := cache.NewLayer[model.QualiTelemetryArtifact](p.store, schemaQuali,
		cache.WithLayerLogger(p.log.Named("cache")),
		cache.WithMinProducer(p.cfg.MinProducer))
	if ret, ok := fromCache(ctx, p, layer, key); ok {
		p.log.Info("loaded precomputed quali telemetry", log.String("session", key))
		return ret, nil
	}

	runID := uuid.New().String()
	l := p.log.With(log.String("session", key), log.String("runId", runID))
	l.Info("computing quali telemetry")
	ret, err := p.computeQuali(ctx, src, l)
	if err != nil {
		failSpan(span, err)
		return nil, fmt.Errorf("session %s: %w", key, err)
	}
	toCache(ctx, p, layer, key, runID, ret)
	return ret, nil
}

//nolint:whitespace // can't make both editor and linter happy
func (p *Pipeline) computeQuali(
	ctx context.Context, src source.SessionSource, l *log.Logger,
) (*model.QualiTelemetryArtifact, error) {
	in, err := readQualiInput(ctx, src, l)
	if err != nil {
		return nil, err
	}
	classification, err := src.QualifyingResults(ctx)
	if err != nil {
		return nil, fmt.Errorf("qualifying results: %w", err)
	}
	competitors, err := src.Competitors(ctx)
	if err != nil {
		return nil, fmt.Errorf("competitors: %w", err)
	}
	colors := driverColors(l, competitors)
	codes := lo.Map(competitors, func(c model.Competitor, _ int) string {
		return c.Code
	})

	results, err := dispatch.Run(ctx, p.pool(), codes,
		func(ctx context.Context, code string) (competitorSegments, error) {
			return p.competitorSegments(code, in)
		})
	if err != nil {
		return nil, err
	}

	ret := &model.QualiTelemetryArtifact{
		Results:   qualiResults(classification, colors),
		Telemetry: make(map[string]map[string]model.SegmentTelemetry, len(results)),
	}
	numFrames := 0
	for _, r := range results {
		segs := r.Value
		if r.Err != nil {
			l.Error("could not process competitor",
				log.String("competitor", r.Key), log.ErrorField(r.Err))
			p.metrics.competitorsSkipped.Add(ctx, 1)
			segs = emptySegments()
		}
		ret.Telemetry[r.Key] = segs
		for _, name := range model.QualiSegments {
			seg := segs[name]
			if seg.IsEmpty() {
				continue
			}
			numFrames += len(seg.Frames)
			ret.MaxSpeed = max(ret.MaxSpeed, seg.MaxSpeed)
			if ret.MinSpeed == 0 || seg.MinSpeed < ret.MinSpeed {
				ret.MinSpeed = seg.MinSpeed
			}
		}
	}
	p.metrics.framesProduced.Add(ctx, int64(numFrames),
		metric.WithAttributes(attribute.String("schema", schemaQuali)))
	l.Info("completed quali telemetry",
		log.Int("competitors", len(results)),
		log.Float64("maxSpeed", ret.MaxSpeed),
		log.Float64("minSpeed", ret.MinSpeed))
	return ret, nil
}

//nolint:whitespace // can't make both editor and linter happy
func readQualiInput(
	ctx context.Context, src source.SessionSource, l *log.Logger,
) (*qualiInput, error) {
	segments, err := src.QualifyingSegments(ctx)
	if err != nil {
		return nil, fmt.Errorf("qualifying segments: %w", err)
	}
	events, err := src.TrackStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("track status: %w", err)
	}
	wt, err := src.Weather(ctx)
	if err != nil {
		l.Warn("could not read weather", log.ErrorField(err))
		wt = nil
	}
	return &qualiInput{segments: segments, events: events, weather: wt}, nil
}

func emptySegments() competitorSegments {
	ret := make(competitorSegments, len(model.QualiSegments))
	for _, name := range model.QualiSegments {
		ret[name] = emptySegment()
	}
	return ret
}

func emptySegment() model.SegmentTelemetry {
	return model.SegmentTelemetry{
		Frames:        []model.LapFrame{},
		TrackStatuses: []model.TrackStatusSegment{},
	}
}

//nolint:whitespace // can't make both editor and linter happy
func (p *Pipeline) competitorSegments(code string, in *qualiInput) (
	competitorSegments, error,
) {
	ret := make(competitorSegments, len(model.QualiSegments))
	for _, name := range model.QualiSegments {
		lap, ok := fastestLap(in.segments[name], code)
		if !ok {
			ret[name] = emptySegment()
			continue
		}
		seg, err := p.lapTelemetry(code, lap, in)
		if errors.Is(err, extract.ErrNoTelemetry) {
			ret[name] = emptySegment()
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s lap %d: %w", name, lap.LapNumber, err)
		}
		ret[name] = *seg
	}
	return ret, nil
}

// fastestLap returns the lap of code with the lowest positive lap time.
func fastestLap(laps []model.QualiLap, code string) (*model.QualiLap, bool) {
	candidates := lo.Filter(laps, func(l model.QualiLap, _ int) bool {
		return l.Code == code && l.LapTime > 0
	})
	if len(candidates) == 0 {
		return nil, false
	}
	ret := lo.MinBy(candidates, func(a, b model.QualiLap) bool {
		return a.LapTime < b.LapTime
	})
	return &ret, true
}

//nolint:whitespace // can't make both editor and linter happy
func (p *Pipeline) lapTelemetry(code string, lap *model.QualiLap, in *qualiInput) (
	*model.SegmentTelemetry, error,
) {
	series, err := extract.Extract(code, []model.LapData{lap.Lap()})
	if err != nil {
		return nil, err
	}
	speeds := lo.Map(series.Samples, func(s model.CompetitorSample, _ int) float64 {
		return s.Speed
	})
	tl, err := timeline.BuildCovering(series.TMin, series.TMax, p.cfg.FramesPerSecond())
	if err != nil {
		return nil, err
	}
	tr, err := timeline.Resample(series, tl)
	if err != nil {
		return nil, err
	}
	var wt *weather.Track
	if in.weather != nil {
		if wt, err = weather.Resample(in.weather, tl); err != nil {
			wt = nil
		}
	}
	lapFrames, err := frames.AssembleLap(tl, tr, wt, lap.LapTime)
	if err != nil {
		return nil, err
	}
	return &model.SegmentTelemetry{
		Frames:        lapFrames,
		TrackStatuses: trackstatus.Segments(in.events, series.TMin),
		DRSZones:      frames.DetectDRSZones(tr.DRS, tr.Dist),
		MaxSpeed:      floats.Max(speeds),
		MinSpeed:      floats.Min(speeds),
	}, nil
}

// qualiResults joins the classification with the competitor colors,
// ordered by position.
//
//nolint:whitespace // can't make both editor and linter happy
func qualiResults(
	classification []model.QualiClassification, colors map[string]model.RGB,
) []model.QualiResult {
	ret := lo.Map(classification,
		func(c model.QualiClassification, _ int) model.QualiResult {
			color, ok := colors[c.Code]
			if !ok {
				color = defaultColor
			}
			return model.QualiResult{
				Code:     c.Code,
				Position: c.Position,
				Color:    color,
				Q1:       c.Q1,
				Q2:       c.Q2,
				Q3:       c.Q3,
			}
		})
	slices.SortStableFunc(ret, func(a, b model.QualiResult) int {
		return a.Position - b.Position
	})
	return ret
}
