package config

import "time"

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	DB                string // connection string for the postgres cache backend
	NatsURL           string // URL of the NATS server (nats cache backend)
	WaitForServices   string // duration to wait for other services to be ready
	LogLevel          string // sets the log level (zap log level values)
	SQLLogLevel       string // sets the log level for the postgres backend queries
	LogFormat         string // text vs json
	LogConfig         string // path to log config file
	EnableTelemetry   bool   // enable telemetry
	TelemetryEndpoint string // endpoint for telemetry
	CacheBackend      string // file, badger, nats, postgres
	CacheDir          string // base directory for file and badger cache backends
	CacheNamespace    string // bucket/prefix used by the cache backends
	FPS               int    // ticks per second of the output timeline
	Workers           int    // upper bound of parallel competitor tasks (0: number of CPUs)
	TaskTimeout       string // per competitor task timeout (0 disables it)
	RefreshData       bool   // ignore cached artifacts and recompute
	CacheMinVersion   string // cached artifacts of older program versions are ignored
)

const (
	DefaultFPS      = 25
	DefaultCacheDir = "computed_data"
	DefaultBackend  = "file"
)

// Pipeline holds the values the processing pipeline needs.
// It is passed explicitly into the pipeline, processing code never reads the
// package level vars above.
type Pipeline struct {
	FPS         int
	Workers     int
	TaskTimeout time.Duration
	Refresh     bool
	// if true, lap number and tire code are step-held like gear instead of
	// being interpolated and rounded
	StepHoldCategorical bool
	// cached artifacts written by versions before this one are recomputed
	MinProducer string
}

func DefaultPipeline() Pipeline {
	return Pipeline{FPS: DefaultFPS}
}

// FramesPerSecond returns FPS or DefaultFPS if unset.
func (p Pipeline) FramesPerSecond() int {
	if p.FPS <= 0 {
		return DefaultFPS
	}
	return p.FPS
}

// Step returns the timeline step in seconds.
func (p Pipeline) Step() float64 {
	return 1.0 / float64(p.FramesPerSecond())
}

// PipelineFromFlags collects the resolved CLI values.
func PipelineFromFlags() Pipeline {
	ret := DefaultPipeline()
	if FPS > 0 {
		ret.FPS = FPS
	}
	ret.Workers = Workers
	ret.Refresh = RefreshData
	ret.MinProducer = CacheMinVersion
	if d, err := time.ParseDuration(TaskTimeout); err == nil {
		ret.TaskTimeout = d
	}
	return ret
}
