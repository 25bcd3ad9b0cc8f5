// Package file stores cache blobs as files in a directory.
package file

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mpapenbr/racetelemetry/log"
	"github.com/mpapenbr/racetelemetry/pkg/cache"
	"github.com/mpapenbr/racetelemetry/pkg/cache/factory"
)

const fileExt = ".rtmc"

var StoreTypeFile factory.StoreType = "file"

type (
	Option          func(*fileStoreConfig)
	fileStoreConfig struct {
		dir string
	}
	fileStore struct {
		dir string
		log *log.Logger
	}
)

func WithDir(dir string) Option {
	return func(c *fileStoreConfig) {
		c.dir = dir
	}
}

func New(common []cache.Option, specific []Option) (cache.Store, error) {
	cfg := &fileStoreConfig{dir: "computed_data"}
	for _, o := range specific {
		o(cfg)
	}
	return &fileStore{
		dir: cfg.dir,
		log: log.Default().Named("cache.file"),
	}, nil
}

func (s *fileStore) path(key string) string {
	return filepath.Join(s.dir, key+fileExt)
}

func (s *fileStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, cache.ErrCacheMiss
		}
		return nil, &cache.IOError{Op: "load", Key: key, Err: err}
	}
	return data, nil
}

// Save writes into a temp file first and renames it, readers never see
// partial content.
func (s *fileStore) Save(ctx context.Context, key string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return &cache.IOError{Op: "save", Key: key, Err: err}
	}
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return &cache.IOError{Op: "save", Key: key, Err: err}
	}
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if err = errors.Join(werr, cerr); err == nil {
		err = os.Rename(tmp.Name(), s.path(key))
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return &cache.IOError{Op: "save", Key: key, Err: err}
	}
	s.log.Debug("saved", log.String("file", s.path(key)))
	return nil
}

func (s *fileStore) Close() error {
	return nil
}

func init() {
	factory.Register(StoreTypeFile, New)
}
