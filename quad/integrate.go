package quad

import (
	"context"
	"fmt"
	"time"

	"github.com/utkarsh5026/quadpool/internal/gil"
	"github.com/utkarsh5026/quadpool/internal/procpool"
	"github.com/utkarsh5026/quadpool/internal/workpool"
)

// executionLock is shared by every threaded integration in this process.
var executionLock = gil.New(gil.DefaultInterval)

// Sequential integrates f over [a, b] with n trapezoids on the calling
// goroutine. It is the baseline every other strategy is compared against.
func Sequential(f Integrand, a, b float64, n int) (float64, error) {
	if f.Fn == nil {
		return 0, fmt.Errorf("%w: nil function", ErrUnknownIntegrand)
	}

	ranges, err := Partition(a, b, n, 1)
	if err != nil {
		return 0, err
	}

	return Aggregate([]PartialResult{Kernel(ranges[0], f)}, 1)
}

// Threaded integrates f over [a, b] on k goroutines that evaluate under the
// process-wide execution lock. The goroutines take turns on the lock, so
// this strategy runs no faster than Sequential: it models threads in a
// runtime with an interpreter lock.
func Threaded(ctx context.Context, f Integrand, a, b float64, n, k int, opts ...Option) (float64, error) {
	req := Request{Integrand: f, Lower: a, Upper: b, Samples: n, Workers: k}
	return threaded(ctx, req, newConfig(opts...))
}

// NativeParallel integrates f over [a, b] on k goroutines running the
// lock-free NativeKernel, each on its own OS thread (pinned to a CPU unless
// disabled with WithCPUPinning).
func NativeParallel(ctx context.Context, f Integrand, a, b float64, n, k int, opts ...Option) (float64, error) {
	req := Request{Integrand: f, Lower: a, Upper: b, Samples: n, Workers: k}
	return nativeParallel(ctx, req, newConfig(opts...))
}

// Multiprocess integrates f over [a, b] in k worker processes. f must be
// registered; the workers look it up by name. The call fails as a whole
// with ErrWorkerSpawn or ErrWorkerCrash if any worker does.
func Multiprocess(ctx context.Context, f Integrand, a, b float64, n, k int, opts ...Option) (float64, error) {
	req := Request{Integrand: f, Lower: a, Upper: b, Samples: n, Workers: k}
	return multiprocess(ctx, req, newConfig(opts...))
}

// Run executes req with strategy s and reports the wall-clock time it
// took, validation included. Sequential ignores req.Workers.
func Run(ctx context.Context, req Request, s Strategy, opts ...Option) (Result, error) {
	cfg := newConfig(opts...)

	var (
		value float64
		err   error
	)

	start := time.Now()
	switch s {
	case StrategySequential:
		value, err = Sequential(req.Integrand, req.Lower, req.Upper, req.Samples)
	case StrategyThreaded:
		value, err = threaded(ctx, req, cfg)
	case StrategyMultiprocess:
		value, err = multiprocess(ctx, req, cfg)
	case StrategyNativeParallel:
		value, err = nativeParallel(ctx, req, cfg)
	default:
		err = fmt.Errorf("run: unknown strategy %v", s)
	}
	elapsed := time.Since(start)

	if err != nil {
		return Result{}, err
	}

	return Result{Value: value, Elapsed: elapsed, Strategy: s}, nil
}

func threaded(ctx context.Context, req Request, cfg *config) (float64, error) {
	ranges, err := prepare(req)
	if err != nil {
		return 0, err
	}

	cfg.logger.Debug("dispatching",
		"strategy", StrategyThreaded,
		"workers", req.Workers,
		"samples", req.Samples,
		"switch_interval", executionLock.Interval())

	pool := workpool.New[SubRange, PartialResult](workpool.WithLogger(cfg.logger))
	parts, err := pool.Process(ctx, ranges, func(ctx context.Context, worker int, r SubRange) (PartialResult, error) {
		return LockedKernel(executionLock, r, req.Integrand), nil
	})
	if err != nil {
		return 0, err
	}

	return Aggregate(parts, req.Workers)
}

func nativeParallel(ctx context.Context, req Request, cfg *config) (float64, error) {
	ranges, err := prepare(req)
	if err != nil {
		return 0, err
	}

	cfg.logger.Debug("dispatching",
		"strategy", StrategyNativeParallel,
		"workers", req.Workers,
		"samples", req.Samples,
		"pinning", cfg.pinning)

	pool := workpool.New[SubRange, PartialResult](
		workpool.WithPinning(cfg.pinning),
		workpool.WithLogger(cfg.logger),
	)
	parts, err := pool.Process(ctx, ranges, func(ctx context.Context, worker int, r SubRange) (PartialResult, error) {
		return NativeKernel(r, req.Integrand), nil
	})
	if err != nil {
		return 0, err
	}

	return Aggregate(parts, req.Workers)
}

func multiprocess(ctx context.Context, req Request, cfg *config) (float64, error) {
	ranges, err := prepare(req)
	if err != nil {
		return 0, err
	}

	// fail before spawning anything if the workers could not rebuild f
	if req.Integrand.Name == "" {
		return 0, fmt.Errorf("%w: multiprocess needs a registered integrand", ErrUnknownIntegrand)
	}
	if _, err := Lookup(req.Integrand.Name); err != nil {
		return 0, err
	}

	procOpts := []procpool.Option{
		procpool.WithLogger(cfg.logger),
		procpool.WithEnv(cfg.workerEnv...),
	}
	if cfg.workerPath != "" {
		procOpts = append(procOpts, procpool.WithExecutable(cfg.workerPath, cfg.workerArgs...))
	}
	if cfg.spawnRate > 0 {
		procOpts = append(procOpts, procpool.WithSpawnRate(cfg.spawnRate, cfg.spawnBurst))
	}

	pool, err := procpool.New(procOpts...)
	if err != nil {
		return 0, err
	}

	jobs := make([]procpool.Job, len(ranges))
	for i, r := range ranges {
		jobs[i] = toJob(req.Integrand.Name, r)
	}

	cfg.logger.Debug("dispatching",
		"strategy", StrategyMultiprocess,
		"workers", req.Workers,
		"samples", req.Samples,
		"integrand", req.Integrand.Name)

	replies, err := pool.Dispatch(ctx, jobs)
	if err != nil {
		return 0, err
	}

	parts := make([]PartialResult, len(replies))
	for i, reply := range replies {
		parts[i] = PartialResult{Index: reply.Index, Value: reply.Value()}
	}

	return Aggregate(parts, req.Workers)
}

func prepare(req Request) ([]SubRange, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return Partition(req.Lower, req.Upper, req.Samples, req.Workers)
}
