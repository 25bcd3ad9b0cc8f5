package util

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/fs"

	"github.com/mpapenbr/racetelemetry/pkg/cache"
	"github.com/mpapenbr/racetelemetry/pkg/cache/factory"
	"github.com/mpapenbr/racetelemetry/pkg/config"
)

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, map[string]int{"a": 1}, false))
	assert.Equal(t, "{\"a\":1}\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, map[string]int{"a": 1}, true))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestNewStore(t *testing.T) {
	dir := fs.NewDir(t, "rtm-store")
	config.CacheBackend = "file"
	config.CacheDir = dir.Path()
	t.Cleanup(func() {
		config.CacheBackend = ""
		config.CacheDir = ""
	})

	store, closeStore, err := NewStore()
	require.NoError(t, err)
	defer closeStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "k", []byte("v")))
	got, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	config.CacheBackend = "unknown"
	_, _, err = NewStore()
	assert.ErrorIs(t, err, factory.ErrTypeNotSupported)
}

func TestNewStoreBadger(t *testing.T) {
	dir := fs.NewDir(t, "rtm-store")
	config.CacheBackend = "badger"
	config.CacheDir = dir.Path()
	t.Cleanup(func() {
		config.CacheBackend = ""
		config.CacheDir = ""
	})
	store, closeStore, err := NewStore()
	require.NoError(t, err)
	defer closeStore()
	_, err = store.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestSetupLoggerConfigFile(t *testing.T) {
	dir := fs.NewDir(t, "rtm-log",
		fs.WithFile("log.yml", "level: debug\nformat: json\nfilter: \"debug:processing.* info:*\"\n"),
	)
	t.Cleanup(func() { config.LogConfig = "" })

	config.LogConfig = dir.Join("log.yml")
	assert.NoError(t, SetupLogger())

	config.LogConfig = dir.Join("missing.yml")
	assert.Error(t, SetupLogger())
}

func TestWaitForService(t *testing.T) {
	assert.Error(t, WaitForService("postgres", ""))
}

func TestWatchFile(t *testing.T) {
	dir := fs.NewDir(t, "rtm-watch", fs.WithFile("session.json", "{}"))
	file := dir.Join("session.json")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	changed := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- WatchFile(ctx, file, func() { changed <- struct{}{} })
	}()

	// the watcher is registered asynchronously, write until it reports
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	detected := false
	for !detected {
		select {
		case <-changed:
			detected = true
		case <-ticker.C:
			require.NoError(t, os.WriteFile(file, []byte(`{"a":1}`), 0o600))
		case <-ctx.Done():
			t.Fatal("change not detected")
		}
	}
	cancel()
	assert.NoError(t, <-done)
}
