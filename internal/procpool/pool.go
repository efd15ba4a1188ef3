// Package procpool runs jobs in isolated worker processes. Each job gets
// its own child process; the job goes in on stdin as JSON and the reply
// comes back on stdout. Nothing is shared between parent and child except
// those two messages.
//
// The child is by default the running executable itself, so programs that
// use this package must divert to Serve early in main when IsWorker
// reports true.
package procpool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/utkarsh5026/quadpool/internal/workpool"
)

// waitDelay bounds how long Wait keeps draining pipes after a child has
// been killed.
const waitDelay = time.Second

// maxStderr caps the amount of child stderr kept in a WorkerError.
const maxStderr = 2048

// Option is a functional option for configuring the pool.
type Option func(*config)

type config struct {
	path       string
	args       []string
	env        []string
	spawnRate  float64
	spawnBurst int
	logger     *slog.Logger
}

// WithExecutable sets the worker binary and its arguments.
// If not specified, the running executable is re-executed without arguments.
func WithExecutable(path string, args ...string) Option {
	return func(cfg *config) {
		if path != "" {
			cfg.path = path
			cfg.args = args
		}
	}
}

// WithEnv adds KEY=VALUE entries to every worker's environment.
func WithEnv(kv ...string) Option {
	return func(cfg *config) {
		cfg.env = append(cfg.env, kv...)
	}
}

// WithSpawnRate limits how many worker processes may be started per second.
// burst is the number spawned back to back before throttling kicks in.
// If not specified, all workers are spawned at once.
func WithSpawnRate(perSecond float64, burst int) Option {
	return func(cfg *config) {
		if perSecond > 0 && burst > 0 {
			cfg.spawnRate = perSecond
			cfg.spawnBurst = burst
		}
	}
}

// WithLogger sets the logger for spawn/exit diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Pool dispatches jobs to worker processes.
type Pool struct {
	path       string
	args       []string
	env        []string
	spawnRate  float64
	spawnBurst int
	logger     *slog.Logger
}

// New creates a pool. It fails when no executable was configured and the
// running executable cannot be located.
func New(opts ...Option) (*Pool, error) {
	cfg := &config{
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.path == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("%w: locate executable: %v", ErrSpawn, err)
		}
		cfg.path = exe
	}

	return &Pool{
		path:       cfg.path,
		args:       cfg.args,
		env:        cfg.env,
		spawnRate:  cfg.spawnRate,
		spawnBurst: cfg.spawnBurst,
		logger:     cfg.logger,
	}, nil
}

// Dispatch runs every job in its own process and blocks until all of them
// have exited. Replies are returned sorted by job index. If any worker
// fails the remaining ones are killed and no replies are returned.
func (p *Pool) Dispatch(ctx context.Context, jobs []Job) ([]Reply, error) {
	opts := []workpool.Option{workpool.WithLogger(p.logger)}
	if p.spawnRate > 0 {
		opts = append(opts, workpool.WithRateLimit(p.spawnRate, p.spawnBurst))
	}

	supervisors := workpool.New[Job, Reply](opts...)
	replies, err := supervisors.Process(ctx, jobs, p.run)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(replies, func(a, b Reply) int {
		return a.Index - b.Index
	})
	return replies, nil
}

// run supervises one worker process from spawn to reply.
func (p *Pool) run(ctx context.Context, worker int, job Job) (Reply, error) {
	var stdin, stdout, stderr bytes.Buffer
	if err := writeJob(&stdin, job); err != nil {
		return Reply{}, &WorkerError{Index: job.Index, Phase: "send", Kind: ErrSpawn, Err: err}
	}

	cmd := exec.CommandContext(ctx, p.path, p.args...)
	cmd.Env = append(os.Environ(), EnvWorker+"=1")
	cmd.Env = append(cmd.Env, p.env...)
	cmd.Stdin = &stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Reply{}, &WorkerError{Index: job.Index, Phase: "spawn", Kind: ErrSpawn, Err: err}
	}
	p.logger.Debug("worker spawned", "worker", worker, "index", job.Index, "pid", cmd.Process.Pid)

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Reply{}, fmt.Errorf("worker %d: %w", job.Index, ctxErr)
		}
		return Reply{}, &WorkerError{
			Index:  job.Index,
			Phase:  "wait",
			Kind:   ErrCrash,
			Stderr: trimStderr(stderr.String()),
			Err:    err,
		}
	}

	reply, err := readReply(bytes.TrimSpace(stdout.Bytes()))
	if err != nil {
		return Reply{}, &WorkerError{
			Index:  job.Index,
			Phase:  "reply",
			Kind:   ErrCrash,
			Stderr: trimStderr(stderr.String()),
			Err:    err,
		}
	}
	if reply.Error != "" {
		return Reply{}, &WorkerError{Index: job.Index, Phase: "reply", Kind: ErrCrash, Err: errors.New(reply.Error)}
	}
	if reply.Index != job.Index {
		return Reply{}, &WorkerError{
			Index: job.Index,
			Phase: "reply",
			Kind:  ErrCrash,
			Err:   fmt.Errorf("reply for index %d", reply.Index),
		}
	}

	p.logger.Debug("worker exited",
		"worker", worker,
		"index", job.Index,
		"pid", cmd.Process.Pid,
		"elapsed", time.Since(start))
	return reply, nil
}

func trimStderr(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderr {
		s = s[len(s)-maxStderr:]
	}
	return s
}
