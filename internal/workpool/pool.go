// Package workpool runs a fixed batch of tasks with one goroutine per task
// and hands back the results in task order once every worker has finished.
//
// Each worker owns exactly one slot of the result slice and writes it once;
// the slice is only read after the join barrier, so no locking is needed
// around the results.
package workpool

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/utkarsh5026/quadpool/internal/cpu"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ProcessFunc processes the task owned by worker. worker is the task's
// index in the batch.
type ProcessFunc[T any, R any] func(ctx context.Context, worker int, task T) (R, error)

// Option is a functional option for configuring the pool.
type Option func(*config)

type config struct {
	pin         bool
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

// WithPinning locks every worker goroutine to its own OS thread and pins
// that thread to CPU worker mod NumCPU.
func WithPinning(enabled bool) Option {
	return func(cfg *config) {
		cfg.pin = enabled
	}
}

// WithRateLimit throttles how fast workers may start.
// tasksPerSecond is the sustained start rate and burst the number of
// workers that may start at once. Non-positive values disable throttling.
//
// Example:
//
//	WithRateLimit(20, 4) // 4 immediately, then 20 starts/sec
func WithRateLimit(tasksPerSecond float64, burst int) Option {
	return func(cfg *config) {
		if tasksPerSecond > 0 && burst > 0 {
			cfg.rateLimiter = rate.NewLimiter(rate.Limit(tasksPerSecond), burst)
		}
	}
}

// WithLogger sets the logger used for worker diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Pool is a one-shot, fork-join worker pool.
//
// Type parameters:
//   - T: The input task type
//   - R: The result type
type Pool[T any, R any] struct {
	pin         bool
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

// New creates a pool with the given options.
// Default configuration: no pinning, no rate limit, discard logging.
func New[T any, R any](opts ...Option) *Pool[T, R] {
	cfg := &config{
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &Pool[T, R]{
		pin:         cfg.pin,
		rateLimiter: cfg.rateLimiter,
		logger:      cfg.logger,
	}
}

// Process runs every task on its own worker and blocks until all of them
// have returned.
//
// Parameters:
//   - ctx: Context for cancellation; cancelled for the remaining workers as soon as one fails
//   - tasks: Slice of tasks, one per worker
//   - processFn: Function to process each task
//
// Returns:
//   - results: Slice of results in task order, nil if any worker failed
//   - error: First error encountered, if any
func (p *Pool[T, R]) Process(
	ctx context.Context,
	tasks []T,
	processFn ProcessFunc[T, R],
) ([]R, error) {
	if len(tasks) == 0 {
		return []R{}, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	results := make([]R, len(tasks))

	for i, task := range tasks {
		g.Go(func() error {
			if p.rateLimiter != nil {
				if err := p.rateLimiter.Wait(ctx); err != nil {
					return err
				}
			}

			if p.pin {
				release, err := cpu.Pin(i)
				defer release()
				if err != nil {
					p.logger.Warn("cpu pinning failed", "worker", i, "error", err)
				}
			}

			result, err := p.processWithRecovery(ctx, i, task, processFn)
			if err != nil {
				return err
			}

			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// processWithRecovery executes a task with panic recovery.
// If a panic occurs, it's converted to an error to prevent crashing the process.
func (p *Pool[T, R]) processWithRecovery(
	ctx context.Context,
	worker int,
	task T,
	processFn ProcessFunc[T, R],
) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			err = fmt.Errorf("worker %d panic: %v\nstack trace:\n%s", worker, r, buf[:n])
		}
	}()

	return processFn(ctx, worker, task)
}
