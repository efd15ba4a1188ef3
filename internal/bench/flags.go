package bench

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/utkarsh5026/quadpool/internal/cpu"
	"github.com/utkarsh5026/quadpool/quad"
)

// Flags holds the command-line configuration of a benchmark run.
type Flags struct {
	Integrand    string
	Lower        float64
	Upper        float64
	Samples      int
	Workers      int
	Strategy     string
	Iterations   int
	Warmup       int
	OutputFormat string
	Report       string
	CPUProfile   string
	MemProfile   string
	LogLevel     string
	SpawnRate    float64
	NoPinning    bool
	List         bool
}

// DefineFlags registers the benchmark flags on fs (but doesn't parse yet).
func DefineFlags(fs *flag.FlagSet) *Flags {
	flags := &Flags{}

	fs.StringVar(&flags.Integrand, "integrand", "sin(x)", "Registered integrand to integrate (see -list)")
	fs.Float64Var(&flags.Lower, "lower", 0, "Lower bound of the interval")
	fs.Float64Var(&flags.Upper, "upper", math.Pi, "Upper bound of the interval")
	fs.IntVar(&flags.Samples, "samples", 10_000_000, "Number of trapezoids")
	fs.IntVar(&flags.Workers, "workers", 0, "Number of workers (0 = one per allowed CPU)")
	fs.StringVar(&flags.Strategy, "strategy", "", "Run a single strategy; if empty, runs all of them")
	fs.IntVar(&flags.Iterations, "iterations", 1, "Number of measured iterations per strategy")
	fs.IntVar(&flags.Warmup, "warmup", 0, "Number of warmup runs per strategy")
	fs.StringVar(&flags.OutputFormat, "output-format", "table", "Output format: 'table' or 'json'")
	fs.StringVar(&flags.Report, "report", "", "Write a JSON timing report to this file")
	fs.StringVar(&flags.CPUProfile, "cpuprofile", "", "Write CPU profile to file")
	fs.StringVar(&flags.MemProfile, "memprofile", "", "Write memory profile to file")
	fs.StringVar(&flags.LogLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	fs.Float64Var(&flags.SpawnRate, "spawn-rate", 0, "Max worker processes started per second (0 = unlimited)")
	fs.BoolVar(&flags.NoPinning, "no-pinning", false, "Do not pin native workers to CPUs")
	fs.BoolVar(&flags.List, "list", false, "List registered integrands and exit")

	return flags
}

// Validate checks the values that flag parsing cannot.
func (f *Flags) Validate() error {
	if f.Iterations < 1 {
		return fmt.Errorf("iterations must be at least 1, got %d", f.Iterations)
	}
	if f.Warmup < 0 {
		return fmt.Errorf("warmup must not be negative, got %d", f.Warmup)
	}
	if f.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", f.Workers)
	}
	if f.Workers > f.Samples {
		return fmt.Errorf("%w: %d workers for %d samples", quad.ErrInvalidRange, f.Workers, f.Samples)
	}
	switch f.OutputFormat {
	case "table", "json":
	default:
		return fmt.Errorf("unknown output format %q", f.OutputFormat)
	}
	if _, err := f.Level(); err != nil {
		return err
	}
	if _, err := f.Strategies(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (f *Flags) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(f.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", f.LogLevel, err)
	}
	return level, nil
}

// Strategies returns the strategies selected by -strategy, all of them when
// it is empty.
func (f *Flags) Strategies() ([]quad.Strategy, error) {
	if f.Strategy == "" {
		return quad.Strategies, nil
	}
	s, err := quad.ParseStrategy(f.Strategy)
	if err != nil {
		return nil, err
	}
	return []quad.Strategy{s}, nil
}

// WorkerCount resolves -workers. An explicit count is returned as given;
// 0 picks one worker per CPU the process may run on, capped at the number
// of samples.
func (f *Flags) WorkerCount() int {
	if f.Workers > 0 {
		return f.Workers
	}
	k := cpu.Allowed()
	if f.Samples > 0 && k > f.Samples {
		k = f.Samples
	}
	return k
}
