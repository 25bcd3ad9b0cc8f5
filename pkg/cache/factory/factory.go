// Package factory creates cache stores by backend type.
// Backends register themselves in init().
package factory

import (
	"errors"

	"github.com/mpapenbr/racetelemetry/pkg/cache"
)

type StoreType string

var (
	ErrTypeNotSupported = errors.New("cache store type not supported")
	ErrWrongCreator     = errors.New("cache store wrong creator")
)

type Creator[S cache.Store, ImplOpt any] func([]cache.Option, []ImplOpt) (S, error)

var registry = map[StoreType]any{}

// Register a new implementation generically
//
//nolint:whitespace //editor/linter issue
func Register[S cache.Store, ImplOpt any](
	key StoreType, creator Creator[S, ImplOpt],
) {
	registry[key] = creator
}

// Create a new instance
//
//nolint:whitespace //editor/linter issue
func New[S cache.Store, ImplOpt any](
	key StoreType,
	common []cache.Option,
	specific []ImplOpt,
) (S, error) {
	entry, ok := registry[key]
	if !ok {
		var zero S
		return zero, ErrTypeNotSupported
	}
	creator, ok := entry.(Creator[S, ImplOpt])
	if !ok {
		var zero S
		return zero, ErrWrongCreator
	}
	return creator(common, specific)
}

// Supported returns true if a backend is registered for key.
func Supported(key StoreType) bool {
	_, ok := registry[key]
	return ok
}
