package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/racetelemetry/pkg/cache"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s, err := New(nil, nil)
	require.NoError(t, err)

	_, err = s.Load(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	data := []byte("value")
	require.NoError(t, s.Save(ctx, "k", data))
	data[0] = 'X'
	got, err := s.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got, "stored data is a copy")

	require.NoError(t, s.Close())
	_, err = s.Load(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestMemoryStoreExpiration(t *testing.T) {
	ctx := context.Background()
	s, err := New(nil, []Option{WithExpiration(10 * time.Millisecond)})
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "k", []byte("v")))
	_, err = s.Load(ctx, "k")
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	_, err = s.Load(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}
