package nats

import (
	"context"
	"fmt"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mpapenbr/racetelemetry/pkg/cache"
)

func startNats(t *testing.T) *nats.Conn {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "nats:2.11",
				Cmd:          []string{"-js"},
				ExposedPorts: []string{"4222/tcp"},
				WaitingFor:   wait.ForLog("Server is ready"),
			},
			Started: true,
		})
	require.NoError(t, err)
	testcontainers.CleanupContainer(t, container)
	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "4222/tcp")
	require.NoError(t, err)
	nc, err := nats.Connect(fmt.Sprintf("nats://%s:%s", host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	return nc
}

func TestNatsStore(t *testing.T) {
	nc := startNats(t)
	ctx := context.Background()
	s, err := New([]cache.Option{cache.WithNamespace("rtm_test")}, []Option{WithNATS(nc)})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Load(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	require.NoError(t, s.Save(ctx, "k", []byte("v1")))
	require.NoError(t, s.Save(ctx, "k", []byte("v2")))
	got, err := s.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}

func TestNewWithoutConnection(t *testing.T) {
	_, err := New(nil, nil)
	assert.ErrorIs(t, err, ErrNoConnection)
}
