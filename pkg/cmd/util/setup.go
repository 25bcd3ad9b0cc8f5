// Package util holds the setup shared by the commands.
package util

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pgx-contrib/pgxtrace"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/mpapenbr/racetelemetry/log"
	"github.com/mpapenbr/racetelemetry/pkg/cache"
	"github.com/mpapenbr/racetelemetry/pkg/cache/factory"
	badgerStore "github.com/mpapenbr/racetelemetry/pkg/cache/impl/badger"
	fileStore "github.com/mpapenbr/racetelemetry/pkg/cache/impl/file"
	natsStore "github.com/mpapenbr/racetelemetry/pkg/cache/impl/nats"
	postgresStore "github.com/mpapenbr/racetelemetry/pkg/cache/impl/postgres"
	"github.com/mpapenbr/racetelemetry/pkg/config"
	"github.com/mpapenbr/racetelemetry/pkg/db/postgres"
	"github.com/mpapenbr/racetelemetry/pkg/utils"
)

const defaultWaitForServices = 60 * time.Second

func parseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

// SetupLogger replaces the default logger according to the log flags.
// Values from the --log-config file take precedence.
func SetupLogger() error {
	level, format, filter := config.LogLevel, config.LogFormat, ""
	if config.LogConfig != "" {
		fc, err := log.LoadConfig(config.LogConfig)
		if err != nil {
			return fmt.Errorf("log config %s: %w", config.LogConfig, err)
		}
		if fc.Level != "" {
			level = fc.Level
		}
		if fc.Format != "" {
			format = fc.Format
		}
		filter = fc.Filter
	}
	opts := []log.Option{log.WithCaller(true), log.AddCallerSkip(1)}
	if filter != "" {
		opt, err := log.WithFilter(filter)
		if err != nil {
			return fmt.Errorf("log filter: %w", err)
		}
		opts = append(opts, opt)
	}
	var logger *log.Logger
	switch format {
	case "json":
		logger = log.New(os.Stderr, parseLogLevel(level, log.InfoLevel), opts...)
	default:
		logger = log.DevLogger(os.Stderr, parseLogLevel(level, log.DebugLevel), opts...)
	}
	log.ResetDefault(logger)
	return nil
}

// SetupTelemetry starts the telemetry providers if enabled.
// The returned value is nil if telemetry is disabled or could not be set up.
func SetupTelemetry(ctx context.Context) *config.Telemetry {
	if !config.EnableTelemetry {
		return nil
	}
	log.Info("Enabling telemetry")
	telemetry, err := config.SetupTelemetry(ctx)
	if err != nil {
		log.Warn("Could not setup telemetry", log.ErrorField(err))
		return nil
	}
	err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
	if err != nil {
		log.Warn("Could not start runtime metrics", log.ErrorField(err))
	}
	return telemetry
}

func waitForServicesTimeout() time.Duration {
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
		timeout = defaultWaitForServices
	}
	return timeout
}

// WaitForService waits until addr accepts tcp connections.
func WaitForService(name, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s: no address found", name)
	}
	if err := utils.WaitForTCP(addr, waitForServicesTimeout()); err != nil {
		return fmt.Errorf("%s not ready: %w", name, err)
	}
	return nil
}

// NewStore creates the cache store selected by --cache-backend.
// The returned func releases the store and its connections.
//
//nolint:funlen // by design
func NewStore() (cache.Store, func(), error) {
	common := []cache.Option{}
	if config.CacheNamespace != "" {
		common = append(common, cache.WithNamespace(config.CacheNamespace))
	}
	dir := config.CacheDir
	if dir == "" {
		dir = config.DefaultCacheDir
	}
	backend := config.CacheBackend
	if backend == "" {
		backend = config.DefaultBackend
	}
	log.Debug("creating cache store", log.String("backend", backend))

	var store cache.Store
	var err error
	cleanup := []func(){}
	switch factory.StoreType(backend) {
	case fileStore.StoreTypeFile:
		store, err = factory.New[cache.Store, fileStore.Option](
			fileStore.StoreTypeFile, common,
			[]fileStore.Option{fileStore.WithDir(dir)})
	case badgerStore.StoreTypeBadger:
		store, err = factory.New[cache.Store, badgerStore.Option](
			badgerStore.StoreTypeBadger, common,
			[]badgerStore.Option{badgerStore.WithDir(dir)})
	case natsStore.StoreTypeNats:
		if err = WaitForService("nats", utils.ExtractFromNatsURL(config.NatsURL)); err != nil {
			return nil, nil, err
		}
		var nc *nats.Conn
		if nc, err = nats.Connect(config.NatsURL); err != nil {
			return nil, nil, err
		}
		cleanup = append(cleanup, nc.Close)
		store, err = factory.New[cache.Store, natsStore.Option](
			natsStore.StoreTypeNats, common,
			[]natsStore.Option{natsStore.WithNATS(nc)})
	case postgresStore.StoreTypePostgres:
		if err = WaitForService("postgres", utils.ExtractFromDBURL(config.DB)); err != nil {
			return nil, nil, err
		}
		tracer := pgxtrace.CompositeQueryTracer{
			postgres.NewMyTracer(log.Default().Named("sql"),
				parseLogLevel(config.SQLLogLevel, log.DebugLevel)),
		}
		if config.EnableTelemetry {
			tracer = append(tracer, postgres.NewOtlpTracer())
		}
		pool, perr := postgres.InitWithURL(config.DB, postgres.WithTracer(tracer))
		if perr != nil {
			return nil, nil, perr
		}
		cleanup = append(cleanup, pool.Close)
		store, err = factory.New[cache.Store, postgresStore.Option](
			postgresStore.StoreTypePostgres, common,
			[]postgresStore.Option{postgresStore.WithPool(pool)})
	default:
		err = fmt.Errorf("%w: %s", factory.ErrTypeNotSupported, backend)
	}
	release := func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}
	if err != nil {
		release()
		return nil, nil, err
	}
	return store, func() {
		if cerr := store.Close(); cerr != nil {
			log.Warn("could not close cache store", log.ErrorField(cerr))
		}
		release()
	}, nil
}
