// Package memory keeps cache blobs in process memory with an optional
// expiration. Mainly used for tests and one-shot runs.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/mpapenbr/racetelemetry/pkg/cache"
	"github.com/mpapenbr/racetelemetry/pkg/cache/factory"
)

var StoreTypeMemory factory.StoreType = "memory"

type (
	Option            func(*memoryStoreConfig)
	memoryStoreConfig struct {
		expiration time.Duration
	}
	item struct {
		data    []byte
		expires *time.Time
	}
	memoryStore struct {
		mutex  sync.Mutex
		items  map[string]item
		config *memoryStoreConfig
	}
)

// WithExpiration sets the lifetime of entries. 0 keeps them forever.
func WithExpiration(d time.Duration) Option {
	return func(c *memoryStoreConfig) {
		c.expiration = d
	}
}

func New(common []cache.Option, specific []Option) (cache.Store, error) {
	cfg := &memoryStoreConfig{}
	for _, o := range specific {
		o(cfg)
	}
	return &memoryStore{
		items:  make(map[string]item),
		config: cfg,
	}, nil
}

func (s *memoryStore) Load(ctx context.Context, key string) ([]byte, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	it, ok := s.items[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	if it.expires != nil && time.Now().After(*it.expires) {
		delete(s.items, key)
		return nil, cache.ErrCacheMiss
	}
	return slices.Clone(it.data), nil
}

func (s *memoryStore) Save(ctx context.Context, key string, data []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	it := item{data: slices.Clone(data)}
	if s.config.expiration > 0 {
		exp := time.Now().Add(s.config.expiration)
		it.expires = &exp
	}
	s.items[key] = it
	return nil
}

func (s *memoryStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	clear(s.items)
	return nil
}

func init() {
	factory.Register(StoreTypeMemory, New)
}
