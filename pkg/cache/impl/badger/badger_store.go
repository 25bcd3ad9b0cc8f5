// Package badger stores cache blobs in an embedded badger database.
package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/mpapenbr/racetelemetry/log"
	"github.com/mpapenbr/racetelemetry/pkg/cache"
	"github.com/mpapenbr/racetelemetry/pkg/cache/factory"
)

var StoreTypeBadger factory.StoreType = "badger"

type (
	Option            func(*badgerStoreConfig)
	badgerStoreConfig struct {
		dir      string
		inMemory bool
	}
	badgerStore struct {
		prefix string
		db     *badger.DB
		log    *log.Logger
	}
	// zapAdapter routes badger log output into our logger
	zapAdapter struct {
		l *log.Logger
	}
)

func WithDir(dir string) Option {
	return func(c *badgerStoreConfig) {
		c.dir = dir
	}
}

// WithInMemory keeps the database in memory. The directory is ignored.
func WithInMemory(b bool) Option {
	return func(c *badgerStoreConfig) {
		c.inMemory = b
	}
}

func New(common []cache.Option, specific []Option) (cache.Store, error) {
	cfg := cache.NewConfig(common...)
	ownCfg := &badgerStoreConfig{dir: "computed_data/badger"}
	for _, o := range specific {
		o(ownCfg)
	}
	l := log.Default().Named("cache.badger")
	opts := badger.DefaultOptions(ownCfg.dir)
	if ownCfg.inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(&zapAdapter{l: l.Named("db")}).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	l.Debug("opened badger store",
		log.String("dir", ownCfg.dir),
		log.Bool("inMemory", ownCfg.inMemory))
	return &badgerStore{prefix: cfg.Namespace, db: db, log: l}, nil
}

func (s *badgerStore) buildKey(key string) []byte {
	return []byte(fmt.Sprintf("%s/%s", s.prefix, key))
}

func (s *badgerStore) Load(ctx context.Context, key string) ([]byte, error) {
	var ret []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.buildKey(key))
		if err != nil {
			return err
		}
		ret, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, cache.ErrCacheMiss
		}
		return nil, &cache.IOError{Op: "load", Key: key, Err: err}
	}
	return ret, nil
}

func (s *badgerStore) Save(ctx context.Context, key string, data []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.buildKey(key), data)
	})
	if err != nil {
		return &cache.IOError{Op: "save", Key: key, Err: err}
	}
	return nil
}

func (s *badgerStore) Close() error {
	return s.db.Close()
}

func (a *zapAdapter) Errorf(format string, args ...any) {
	a.l.Error(fmt.Sprintf(format, args...))
}

func (a *zapAdapter) Warningf(format string, args ...any) {
	a.l.Warn(fmt.Sprintf(format, args...))
}

func (a *zapAdapter) Infof(format string, args ...any) {
	a.l.Info(fmt.Sprintf(format, args...))
}

func (a *zapAdapter) Debugf(format string, args ...any) {
	a.l.Debug(fmt.Sprintf(format, args...))
}

func init() {
	factory.Register(StoreTypeBadger, New)
}
