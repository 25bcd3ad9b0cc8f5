package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/fs"

	"github.com/mpapenbr/racetelemetry/pkg/cache"
)

func TestBadgerStore(t *testing.T) {
	tests := []struct {
		name string
		opts func(t *testing.T) []Option
	}{
		{
			name: "in memory",
			opts: func(t *testing.T) []Option { return []Option{WithInMemory(true)} },
		},
		{
			name: "on disk",
			opts: func(t *testing.T) []Option {
				return []Option{WithDir(fs.NewDir(t, "rtm-badger").Path())}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s, err := New([]cache.Option{cache.WithNamespace("test")}, tt.opts(t))
			require.NoError(t, err)
			defer s.Close()

			_, err = s.Load(ctx, "k")
			assert.ErrorIs(t, err, cache.ErrCacheMiss)

			require.NoError(t, s.Save(ctx, "k", []byte("v1")))
			require.NoError(t, s.Save(ctx, "k", []byte("v2")))
			got, err := s.Load(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, []byte("v2"), got)
		})
	}
}
