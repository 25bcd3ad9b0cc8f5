package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPipelineDefaults(t *testing.T) {
	p := Pipeline{}
	assert.Equal(t, DefaultFPS, p.FramesPerSecond())
	assert.InDelta(t, 0.04, p.Step(), 1e-12)

	p.FPS = 10
	assert.Equal(t, 10, p.FramesPerSecond())
	assert.InDelta(t, 0.1, p.Step(), 1e-12)
}

func TestPipelineFromFlags(t *testing.T) {
	FPS, Workers, TaskTimeout, RefreshData = 0, 4, "2s", true
	t.Cleanup(func() {
		FPS, Workers, TaskTimeout, RefreshData = 0, 0, "", false
	})
	p := PipelineFromFlags()
	assert.Equal(t, Pipeline{
		FPS:         DefaultFPS,
		Workers:     4,
		TaskTimeout: 2 * time.Second,
		Refresh:     true,
	}, p)

	TaskTimeout = "invalid"
	assert.Equal(t, time.Duration(0), PipelineFromFlags().TaskTimeout)
}
