package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/mpapenbr/racetelemetry/log"
)

type (
	LayerOption func(*layerConfig)
	layerConfig struct {
		log         *log.Logger
		minProducer string
	}
	// Layer reads and writes artifacts of type T through a Store.
	// All failures are logged and reported as misses, nothing is fatal.
	Layer[T any] struct {
		store       Store
		schema      string
		minProducer string
		log         *log.Logger
	}
)

var ErrOutdated = errors.New("cached data written by outdated version")

func WithLayerLogger(l *log.Logger) LayerOption {
	return func(c *layerConfig) {
		c.log = l
	}
}

// WithMinProducer discards blobs written by a program version older than v
// (semver, for example "v0.2.0"). Blobs of non release builds are accepted.
func WithMinProducer(v string) LayerOption {
	return func(c *layerConfig) {
		c.minProducer = v
	}
}

// NewLayer creates a layer for artifacts of the given schema.
// A nil store disables caching.
func NewLayer[T any](store Store, schema string, opts ...LayerOption) *Layer[T] {
	cfg := &layerConfig{log: log.Default().Named("cache")}
	for _, o := range opts {
		o(cfg)
	}
	return &Layer[T]{
		store:       store,
		schema:      schema,
		minProducer: cfg.minProducer,
		log:         cfg.log,
	}
}

// Get returns the cached artifact for key. ok is false on a miss, on
// refresh, on store failures and on undecodable blobs.
func (l *Layer[T]) Get(ctx context.Context, key string, refresh bool) (*T, bool) {
	if l.store == nil {
		return nil, false
	}
	if refresh {
		l.log.Info("refresh requested, ignoring cache", log.String("key", key))
		return nil, false
	}
	data, err := l.store.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			l.log.Warn("could not read from cache",
				log.String("key", key), log.ErrorField(err))
		}
		return nil, false
	}
	var ret T
	meta, err := Decode(data, l.schema, &ret)
	if err != nil {
		l.log.Warn("discarding cached data",
			log.String("key", key), log.ErrorField(err))
		return nil, false
	}
	if err := l.checkProducer(meta); err != nil {
		l.log.Info("discarding cached data",
			log.String("key", key), log.ErrorField(err))
		return nil, false
	}
	l.log.Debug("loaded from cache",
		log.String("key", key),
		log.String("runId", meta.RunID),
		log.Time("created", meta.Created))
	return &ret, true
}

// Put stores v under key. Errors are logged and returned for information,
// callers are not expected to fail on them.
func (l *Layer[T]) Put(ctx context.Context, key, runID string, v *T) error {
	if l.store == nil {
		return nil
	}
	data, err := Encode(l.schema, runID, v)
	if err != nil {
		l.log.Error("could not encode artifact",
			log.String("key", key), log.ErrorField(err))
		return err
	}
	if err := l.store.Save(ctx, key, data); err != nil {
		l.log.Error("could not write to cache",
			log.String("key", key), log.ErrorField(err))
		return err
	}
	l.log.Info("saved to cache", log.String("key", key), log.Int("bytes", len(data)))
	return nil
}

func (l *Layer[T]) checkProducer(meta *Meta) error {
	if l.minProducer == "" {
		return nil
	}
	v := meta.Producer
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return nil
	}
	if semver.Compare(v, l.minProducer) < 0 {
		return fmt.Errorf("%w: %s < %s", ErrOutdated, meta.Producer, l.minProducer)
	}
	return nil
}
