package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/fs"

	"github.com/mpapenbr/racetelemetry/pkg/cache"
	"github.com/mpapenbr/racetelemetry/pkg/cache/factory"
)

func TestFileStore(t *testing.T) {
	dir := fs.NewDir(t, "rtm-cache")
	ctx := context.Background()
	s, err := factory.New[cache.Store, Option](StoreTypeFile, nil,
		[]Option{WithDir(filepath.Join(dir.Path(), "nested"))})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Load(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	require.NoError(t, s.Save(ctx, "k", []byte("first")))
	require.NoError(t, s.Save(ctx, "k", []byte("second")))
	got, err := s.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)

	entries, err := os.ReadDir(filepath.Join(dir.Path(), "nested"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")
	assert.Equal(t, "k.rtmc", entries[0].Name())
}

func TestFileStoreReadError(t *testing.T) {
	// a directory in place of the cache file cannot be read
	dir := fs.NewDir(t, "rtm-cache", fs.WithDir("k.rtmc"))
	s, err := New(nil, []Option{WithDir(dir.Path())})
	require.NoError(t, err)
	_, err = s.Load(context.Background(), "k")
	var ioErr *cache.IOError
	assert.ErrorAs(t, err, &ioErr)
	assert.NotErrorIs(t, err, cache.ErrCacheMiss)
}
