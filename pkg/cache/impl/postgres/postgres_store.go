// Package postgres stores cache blobs in the telemetry_cache table.
// The schema is created by the migrate command.
package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/racetelemetry/log"
	"github.com/mpapenbr/racetelemetry/pkg/cache"
	"github.com/mpapenbr/racetelemetry/pkg/cache/factory"
)

var StoreTypePostgres factory.StoreType = "postgres"

var ErrNoPool = errors.New("postgres pool required")

type (
	Option              func(*postgresStoreConfig)
	postgresStoreConfig struct {
		pool *pgxpool.Pool
	}
	postgresStore struct {
		pool *pgxpool.Pool
		log  *log.Logger
	}
)

func WithPool(pool *pgxpool.Pool) Option {
	return func(c *postgresStoreConfig) {
		c.pool = pool
	}
}

func New(common []cache.Option, specific []Option) (cache.Store, error) {
	cfg := &postgresStoreConfig{}
	for _, o := range specific {
		o(cfg)
	}
	if cfg.pool == nil {
		return nil, ErrNoPool
	}
	return &postgresStore{
		pool: cfg.pool,
		log:  log.Default().Named("cache.postgres"),
	}, nil
}

func (s *postgresStore) Load(ctx context.Context, key string) ([]byte, error) {
	row := s.pool.QueryRow(ctx,
		"select data from telemetry_cache where key=$1", key)
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cache.ErrCacheMiss
		}
		return nil, &cache.IOError{Op: "load", Key: key, Err: err}
	}
	return data, nil
}

// Save upserts the blob. Schema, version and run id are taken from the
// blob metadata so they can be queried without decoding.
func (s *postgresStore) Save(ctx context.Context, key string, data []byte) error {
	meta, err := cache.ReadMeta(data)
	if err != nil {
		return &cache.IOError{Op: "save", Key: key, Err: err}
	}
	var runID *uuid.UUID
	if id, err := uuid.FromString(meta.RunID); err == nil {
		runID = &id
	} else {
		s.log.Debug("run id is not a uuid", log.String("runId", meta.RunID))
	}
	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
insert into telemetry_cache (key, schema, version, run_id, data, created_at)
values ($1, $2, $3, $4, $5, now())
on conflict (key) do update set
	schema = excluded.schema,
	version = excluded.version,
	run_id = excluded.run_id,
	data = excluded.data,
	created_at = excluded.created_at`,
			key, meta.Schema, meta.Version, runID, data)
		return err
	})
	if err != nil {
		return &cache.IOError{Op: "save", Key: key, Err: err}
	}
	return nil
}

// Close does not close the pool, it is owned by the caller.
func (s *postgresStore) Close() error {
	return nil
}

func init() {
	factory.Register(StoreTypePostgres, New)
}
