// Package cache persists computed telemetry artifacts keyed by session.
package cache

import (
	"context"
	"errors"
	"fmt"
)

var ErrCacheMiss = errors.New("cache miss")

// Store persists opaque blobs. Load returns ErrCacheMiss for unknown keys.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Close() error
}

// IOError wraps a failure of the underlying store.
type IOError struct {
	Op  string
	Key string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

type (
	Config struct {
		// Namespace is a backend specific prefix (directory, bucket, key prefix)
		Namespace string
	}
	Option func(*Config)
)

func WithNamespace(ns string) Option {
	return func(c *Config) {
		c.Namespace = ns
	}
}

// NewConfig applies opts on top of the default configuration.
func NewConfig(opts ...Option) *Config {
	ret := &Config{Namespace: "rtm_telemetry"}
	for _, o := range opts {
		o(ret)
	}
	return ret
}
