package quad

import (
	"log/slog"
)

// Option is a functional option for the parallel strategies.
type Option func(*config)

type config struct {
	logger     *slog.Logger
	pinning    bool
	spawnRate  float64
	spawnBurst int
	workerPath string
	workerArgs []string
	workerEnv  []string
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		logger:  slog.New(slog.DiscardHandler),
		pinning: true,
	}

	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithLogger sets the logger for dispatch diagnostics.
// If not specified, nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithCPUPinning controls whether NativeParallel pins each worker to its
// own OS thread and logical CPU. Enabled by default.
func WithCPUPinning(enabled bool) Option {
	return func(cfg *config) {
		cfg.pinning = enabled
	}
}

// WithSpawnRate throttles Multiprocess to perSecond process launches with
// the given burst. If not specified, all workers are launched at once.
//
// Example:
//
//	WithSpawnRate(50, 8) // 8 right away, then 50 launches/sec
func WithSpawnRate(perSecond float64, burst int) Option {
	return func(cfg *config) {
		if perSecond > 0 && burst > 0 {
			cfg.spawnRate = perSecond
			cfg.spawnBurst = burst
		}
	}
}

// WithWorkerExecutable sets the binary Multiprocess launches for each
// worker. The binary must call ServeWorkerProcess at startup and register
// the same integrands as the parent. If not specified, the running
// executable is used.
func WithWorkerExecutable(path string, args ...string) Option {
	return func(cfg *config) {
		cfg.workerPath = path
		cfg.workerArgs = args
	}
}

// WithWorkerEnv adds KEY=VALUE entries to the environment of every worker
// process.
func WithWorkerEnv(kv ...string) Option {
	return func(cfg *config) {
		cfg.workerEnv = append(cfg.workerEnv, kv...)
	}
}
