// Package processing wires the stages into the race and qualifying
// pipelines.
package processing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/racetelemetry/log"
	"github.com/mpapenbr/racetelemetry/pkg/cache"
	"github.com/mpapenbr/racetelemetry/pkg/config"
	"github.com/mpapenbr/racetelemetry/pkg/model"
	"github.com/mpapenbr/racetelemetry/pkg/processing/dispatch"
	"github.com/mpapenbr/racetelemetry/pkg/source"
)

const (
	instrumentationName = "github.com/mpapenbr/racetelemetry/pkg/processing"
	schemaRace          = "race"
	schemaQuali         = "quali"
)

// fallback color for competitors without valid color
var defaultColor = model.RGB{128, 128, 128}

type (
	Option   func(*Pipeline)
	Pipeline struct {
		cfg     config.Pipeline
		store   cache.Store
		log     *log.Logger
		tracer  trace.Tracer
		meter   metric.Meter
		metrics pipelineMetrics
	}
	pipelineMetrics struct {
		framesProduced     metric.Int64Counter
		cacheHits          metric.Int64Counter
		cacheMisses        metric.Int64Counter
		competitorsSkipped metric.Int64Counter
	}
)

func WithConfig(cfg config.Pipeline) Option {
	return func(p *Pipeline) {
		p.cfg = cfg
	}
}

// WithStore sets the cache store. Without a store nothing is cached.
func WithStore(s cache.Store) Option {
	return func(p *Pipeline) {
		p.store = s
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = t
	}
}

func WithMeter(m metric.Meter) Option {
	return func(p *Pipeline) {
		p.meter = m
	}
}

func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) {
		p.log = l
	}
}

func NewPipeline(opts ...Option) *Pipeline {
	ret := &Pipeline{
		cfg:    config.DefaultPipeline(),
		log:    log.Default().Named("processing"),
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.metrics = ret.initMetrics()
	return ret
}

func (p *Pipeline) initMetrics() pipelineMetrics {
	counter := func(name, desc string) metric.Int64Counter {
		c, err := p.meter.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			p.log.Warn("could not create counter",
				log.String("name", name), log.ErrorField(err))
			c, _ = noop.NewMeterProvider().Meter(instrumentationName).
				Int64Counter(name)
		}
		return c
	}
	return pipelineMetrics{
		framesProduced: counter("rtm.frames.produced",
			"number of frames assembled"),
		cacheHits:   counter("rtm.cache.hits", "artifacts served from cache"),
		cacheMisses: counter("rtm.cache.misses", "artifacts computed"),
		competitorsSkipped: counter("rtm.competitors.skipped",
			"competitors without usable telemetry"),
	}
}

func (p *Pipeline) pool() *dispatch.Pool {
	return dispatch.NewPool(
		dispatch.WithWorkers(p.cfg.Workers),
		dispatch.WithTaskTimeout(p.cfg.TaskTimeout),
		dispatch.WithLogger(p.log.Named("dispatch")),
	)
}

// fromCache reads the artifact of key. Honors the refresh flag.
//
//nolint:whitespace // can't make both editor and linter happy
func fromCache[T any](
	ctx context.Context, p *Pipeline, layer *cache.Layer[T], key string,
) (*T, bool) {
	ctx, span := p.tracer.Start(ctx, "cache.get")
	defer span.End()
	ret, ok := layer.Get(ctx, key, p.cfg.Refresh)
	attrs := metric.WithAttributes(attribute.String("key", key))
	if ok {
		p.metrics.cacheHits.Add(ctx, 1, attrs)
	} else {
		p.metrics.cacheMisses.Add(ctx, 1, attrs)
	}
	span.SetAttributes(attribute.Bool("hit", ok))
	return ret, ok
}

//nolint:whitespace // can't make both editor and linter happy
func toCache[T any](
	ctx context.Context, p *Pipeline, layer *cache.Layer[T], key, runID string, v *T,
) {
	ctx, span := p.tracer.Start(ctx, "cache.put")
	defer span.End()
	if err := layer.Put(ctx, key, runID, v); err != nil {
		// not fatal, the artifact is still returned
		span.RecordError(err)
	}
}

func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// driverColors converts the competitor colors. Invalid colors are dropped.
func driverColors(l *log.Logger, competitors []model.Competitor) map[string]model.RGB {
	ret := make(map[string]model.RGB, len(competitors))
	for _, c := range competitors {
		rgb, err := source.ParseColor(c.Color)
		if err != nil {
			l.Warn("ignoring invalid color",
				log.String("competitor", c.Code),
				log.String("color", c.Color))
			continue
		}
		ret[c.Code] = rgb
	}
	return ret
}
