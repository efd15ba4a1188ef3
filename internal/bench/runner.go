package bench

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"runtime"
	"slices"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/utkarsh5026/quadpool/quad"
)

// Option configures a Runner.
type Option func(*Runner)

// WithOutput sets where tables and JSON output go. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.out = w
		}
	}
}

// WithProgressOutput sets where the progress bar is drawn. Defaults to
// os.Stderr.
func WithProgressOutput(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.progress = w
		}
	}
}

// WithLogger sets the logger handed to the integration strategies.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithPause sets how long the runner settles (after a GC) between runs.
func WithPause(d time.Duration) Option {
	return func(r *Runner) {
		if d >= 0 {
			r.pause = d
		}
	}
}

// Runner executes the selected strategies and reports their timings.
type Runner struct {
	flags    *Flags
	out      io.Writer
	progress io.Writer
	logger   *slog.Logger
	pause    time.Duration
}

// New creates a runner for already parsed flags.
func New(flags *Flags, opts ...Option) *Runner {
	r := &Runner{
		flags:    flags,
		out:      os.Stdout,
		progress: os.Stderr,
		logger:   slog.New(slog.DiscardHandler),
		pause:    100 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run benchmarks every selected strategy, prints the comparison and writes
// the report file when one was requested. A strategy that fails is reported
// as failed and does not stop the others; Run itself only fails on invalid
// configuration or when the output cannot be written.
func (r *Runner) Run(ctx context.Context) ([]StrategyResult, error) {
	if err := r.flags.Validate(); err != nil {
		return nil, err
	}

	f, err := quad.Lookup(r.flags.Integrand)
	if err != nil {
		return nil, err
	}
	strategies, _ := r.flags.Strategies()

	req := quad.Request{
		Integrand: f,
		Lower:     r.flags.Lower,
		Upper:     r.flags.Upper,
		Samples:   r.flags.Samples,
		Workers:   r.flags.WorkerCount(),
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	table := r.flags.OutputFormat == "table"
	if table {
		printHeader(r.out, "QUADRATURE STRATEGY BENCHMARK")
		printConfig(r.out, req, r.flags)
	}

	var bar *progressbar.ProgressBar
	if table {
		bar = r.makeProgressBar(len(strategies) * r.flags.Iterations)
	}

	results := make([]StrategyResult, 0, len(strategies))
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, r.runStrategy(ctx, req, s, bar))
	}

	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(r.out)
	}

	rank(results)
	exact, hasExact := analytic(f, req.Lower, req.Upper)
	for i := range results {
		results[i].AbsError = math.NaN()
		if hasExact && results[i].Success {
			results[i].AbsError = math.Abs(results[i].Value - exact)
		}
	}

	if table {
		RenderTable(r.out, results)
	} else if err := WriteJSON(r.out, NewReport(req, r.flags, results)); err != nil {
		return nil, err
	}

	if r.flags.Report != "" {
		if err := WriteReportFile(r.flags.Report, NewReport(req, r.flags, results)); err != nil {
			return nil, err
		}
		if table {
			colorFprintf(r.out, Blue, "Report written to %s\n", r.flags.Report)
		}
	}

	return results, nil
}

func (r *Runner) runStrategy(ctx context.Context, req quad.Request, s quad.Strategy, bar *progressbar.ProgressBar) StrategyResult {
	res := StrategyResult{Strategy: s.String(), Success: true}
	opts := r.quadOptions()

	for range r.flags.Warmup {
		if _, err := quad.Run(ctx, req, s, opts...); err != nil {
			r.logger.Warn("warmup failed", "strategy", s, "error", err)
			break
		}
		r.settle()
	}

	for i := range r.flags.Iterations {
		if bar != nil {
			bar.Describe(fmt.Sprintf("Testing: %s", s))
		}

		out, err := quad.Run(ctx, req, s, opts...)
		if err != nil {
			r.logger.Error("strategy failed", "strategy", s, "iteration", i, "error", err)
			res.Success = false
			res.ErrorMsg = err.Error()
			if bar != nil {
				_ = bar.Add(r.flags.Iterations - i)
			}
			return res
		}

		res.Value = out.Value
		res.Times = append(res.Times, out.Elapsed)
		if bar != nil {
			_ = bar.Add(1)
		}

		if i < r.flags.Iterations-1 {
			r.settle()
		}
	}

	res.Stats = Summarize(res.Times)
	if r.flags.OutputFormat == "table" && len(res.Times) > 1 {
		printIterationStats(r.out, res.Stats)
	}
	return res
}

func (r *Runner) quadOptions() []quad.Option {
	opts := []quad.Option{
		quad.WithLogger(r.logger),
		quad.WithCPUPinning(!r.flags.NoPinning),
	}
	if r.flags.SpawnRate > 0 {
		opts = append(opts, quad.WithSpawnRate(r.flags.SpawnRate, 1))
	}
	return opts
}

func (r *Runner) settle() {
	if r.pause <= 0 {
		return
	}
	runtime.GC()
	time.Sleep(r.pause)
}

func (r *Runner) makeProgressBar(steps int) *progressbar.ProgressBar {
	return progressbar.NewOptions(steps,
		progressbar.OptionSetDescription("Testing strategies"),
		progressbar.OptionSetWidth(50),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(r.progress),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// rank orders successful results by median time and fills in Rank and
// Speedup against the sequential baseline. results keeps its order.
func rank(results []StrategyResult) {
	ok := make([]int, 0, len(results))
	var baseline time.Duration
	for i, res := range results {
		if !res.Success {
			continue
		}
		ok = append(ok, i)
		if res.Strategy == quad.StrategySequential.String() {
			baseline = res.Stats.Median
		}
	}

	slices.SortStableFunc(ok, func(a, b int) int {
		return cmp.Compare(results[a].Stats.Median, results[b].Stats.Median)
	})

	for pos, i := range ok {
		results[i].Rank = pos + 1
		if baseline > 0 && results[i].Stats.Median > 0 {
			results[i].Speedup = float64(baseline) / float64(results[i].Stats.Median)
		}
	}
}

func analytic(f quad.Integrand, a, b float64) (float64, bool) {
	if f.Exact == nil {
		return 0, false
	}
	return f.Exact(a, b)
}
