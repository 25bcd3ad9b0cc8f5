// Package nats stores cache blobs in a NATS JetStream object store bucket.
package nats

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/mpapenbr/racetelemetry/log"
	"github.com/mpapenbr/racetelemetry/pkg/cache"
	"github.com/mpapenbr/racetelemetry/pkg/cache/factory"
)

var StoreTypeNats factory.StoreType = "nats"

var ErrNoConnection = errors.New("nats connection required")

type (
	Option          func(*natsStoreConfig)
	natsStoreConfig struct {
		nc *nats.Conn
	}
	natsStore struct {
		cfg    *cache.Config
		ownCfg *natsStoreConfig
		log    *log.Logger
		obj    jetstream.ObjectStore
	}
)

func WithNATS(nc *nats.Conn) Option {
	return func(c *natsStoreConfig) {
		c.nc = nc
	}
}

func New(common []cache.Option, specific []Option) (cache.Store, error) {
	ownCfg := &natsStoreConfig{}
	for _, o := range specific {
		o(ownCfg)
	}
	ret := &natsStore{
		cfg:    cache.NewConfig(common...),
		ownCfg: ownCfg,
		log:    log.Default().Named("cache.nats"),
	}
	if ownCfg.nc == nil {
		return nil, ErrNoConnection
	}
	ret.log.Debug("Initializing NATS object store", log.String("bucket", ret.cfg.Namespace))
	if err := ret.init(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *natsStore) init() error {
	js, err := jetstream.New(s.ownCfg.nc)
	if err != nil {
		return err
	}
	s.obj, err = js.CreateOrUpdateObjectStore(context.Background(),
		jetstream.ObjectStoreConfig{
			Bucket:      s.cfg.Namespace,
			Description: "computed race telemetry artifacts",
		})
	if err != nil {
		return fmt.Errorf("create object store %s: %w", s.cfg.Namespace, err)
	}
	return nil
}

func (s *natsStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.obj.GetBytes(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrObjectNotFound) {
			return nil, cache.ErrCacheMiss
		}
		return nil, &cache.IOError{Op: "load", Key: key, Err: err}
	}
	return data, nil
}

func (s *natsStore) Save(ctx context.Context, key string, data []byte) error {
	if _, err := s.obj.PutBytes(ctx, key, data); err != nil {
		return &cache.IOError{Op: "save", Key: key, Err: err}
	}
	return nil
}

// Close does not close the connection, it is owned by the caller.
func (s *natsStore) Close() error {
	return nil
}

func init() {
	factory.Register(StoreTypeNats, New)
}
