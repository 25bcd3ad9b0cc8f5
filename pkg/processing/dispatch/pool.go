// Package dispatch runs per competitor tasks on a bounded worker pool and
// joins them before anything downstream continues.
package dispatch

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/mpapenbr/racetelemetry/log"
)

type (
	Option func(*Pool)
	Pool   struct {
		workers int
		timeout time.Duration
		log     *log.Logger
	}
	// Result holds the outcome of the task for Key.
	// Err is always a *PerCompetitorDataError if set.
	Result[R any] struct {
		Key   string
		Value R
		Err   error
	}
	TaskFunc[R any] func(ctx context.Context, key string) (R, error)
)

// WithWorkers caps the pool size. Values <= 0 use the available parallelism.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		p.workers = n
	}
}

// WithTaskTimeout sets a deadline for each task. A task exceeding it is
// reported as PerCompetitorDataError. 0 disables the deadline.
func WithTaskTimeout(d time.Duration) Option {
	return func(p *Pool) {
		p.timeout = d
	}
}

func WithLogger(l *log.Logger) Option {
	return func(p *Pool) {
		p.log = l
	}
}

func NewPool(opts ...Option) *Pool {
	ret := &Pool{log: log.Default().Named("processing.dispatch")}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Size returns the number of workers used for numTasks tasks.
func (p *Pool) Size(numTasks int) int {
	n := runtime.GOMAXPROCS(0)
	if p.workers > 0 {
		n = min(n, p.workers)
	}
	return max(1, min(n, numTasks))
}

// Run executes fn for every key and blocks until all tasks returned.
// Results keep the order of keys. Task failures are reported per result,
// the returned error is only set if the dispatch itself failed.
//
//nolint:whitespace // can't make both editor and linter happy
func Run[R any](
	ctx context.Context, p *Pool, keys []string, fn TaskFunc[R],
) ([]Result[R], error) {
	results := make([]Result[R], len(keys))
	if len(keys) == 0 {
		return results, nil
	}
	workers := p.Size(len(keys))
	p.log.Debug("dispatching tasks",
		log.Int("tasks", len(keys)),
		log.Int("workers", workers))

	jobs := make(chan int)
	wg := sync.WaitGroup{}
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = runTask(ctx, p, keys[idx], fn)
			}
		}()
	}

	var dispatchErr error
feed:
	for i := range keys {
		select {
		case jobs <- i:
		case <-ctx.Done():
			dispatchErr = &DispatchError{Err: ctx.Err()}
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	if dispatchErr != nil {
		return nil, dispatchErr
	}
	return results, nil
}

//nolint:whitespace // can't make both editor and linter happy
func runTask[R any](
	ctx context.Context, p *Pool, key string, fn TaskFunc[R],
) Result[R] {
	if p.timeout <= 0 {
		v, err := safeCall(ctx, key, fn)
		return newResult(key, v, err)
	}

	tctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	type outcome struct {
		v   R
		err error
	}
	// buffered, a task ignoring the deadline must not block forever on send
	done := make(chan outcome, 1)
	go func() {
		v, err := safeCall(tctx, key, fn)
		done <- outcome{v: v, err: err}
	}()
	select {
	case o := <-done:
		return newResult(key, o.v, o.err)
	case <-tctx.Done():
		p.log.Warn("task deadline exceeded",
			log.String("competitor", key),
			log.Duration("timeout", p.timeout))
		var zero R
		return newResult(key, zero,
			fmt.Errorf("timeout after %v: %w", p.timeout, tctx.Err()))
	}
}

//nolint:whitespace // can't make both editor and linter happy
func safeCall[R any](ctx context.Context, key string, fn TaskFunc[R]) (
	ret R, err error,
) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, key)
}

func newResult[R any](key string, v R, err error) Result[R] {
	if err != nil {
		return Result[R]{Key: key, Err: &PerCompetitorDataError{Competitor: key, Err: err}}
	}
	return Result[R]{Key: key, Value: v}
}
