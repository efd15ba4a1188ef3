package bench

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/utkarsh5026/quadpool/internal/cpu"
	"github.com/utkarsh5026/quadpool/internal/procpool"
	"github.com/utkarsh5026/quadpool/quad"
)

const crashIntegrand = "bench-test/crash-in-worker"

func init() {
	quad.MustRegister(quad.Integrand{
		Name: crashIntegrand,
		Fn: func(x float64) float64 {
			if procpool.IsWorker() {
				os.Exit(5)
			}
			return x
		},
	})
}

func TestMain(m *testing.M) {
	quad.ServeWorkerProcess()
	os.Exit(m.Run())
}

func parseFlags(t *testing.T, args ...string) *Flags {
	t.Helper()
	fs := flag.NewFlagSet("quadbench", flag.ContinueOnError)
	flags := DefineFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return flags
}

func TestDefineFlags_Defaults(t *testing.T) {
	flags := parseFlags(t)

	if flags.Integrand != "sin(x)" || flags.Lower != 0 || flags.Upper != math.Pi {
		t.Errorf("unexpected default problem: %+v", flags)
	}
	if flags.Iterations != 1 || flags.OutputFormat != "table" {
		t.Errorf("unexpected defaults: %+v", flags)
	}
	if err := flags.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestFlags_Validate(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero iterations", []string{"-iterations", "0"}},
		{"negative warmup", []string{"-warmup", "-1"}},
		{"negative workers", []string{"-workers", "-2"}},
		{"bad format", []string{"-output-format", "xml"}},
		{"bad level", []string{"-log-level", "loud"}},
		{"bad strategy", []string{"-strategy", "gpu"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := parseFlags(t, tt.args...).Validate(); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestFlags_Level(t *testing.T) {
	level, err := parseFlags(t, "-log-level", "DEBUG").Level()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if level.String() != "DEBUG" {
		t.Errorf("expected DEBUG, got %v", level)
	}
}

func TestFlags_Strategies(t *testing.T) {
	all, err := parseFlags(t).Strategies()
	if err != nil || len(all) != len(quad.Strategies) {
		t.Fatalf("expected every strategy, got %v (%v)", all, err)
	}

	one, err := parseFlags(t, "-strategy", "native").Strategies()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(one) != 1 || one[0] != quad.StrategyNativeParallel {
		t.Errorf("expected native-parallel only, got %v", one)
	}
}

func TestFlags_WorkerCount(t *testing.T) {
	if got := parseFlags(t, "-workers", "3").WorkerCount(); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	if got := parseFlags(t, "-workers", "16", "-samples", "5").WorkerCount(); got != 16 {
		t.Errorf("expected an explicit count to be kept, got %d", got)
	}
	if got := parseFlags(t, "-samples", "1").WorkerCount(); got != 1 {
		t.Errorf("expected the automatic count capped at samples, got %d", got)
	}
	if got := parseFlags(t).WorkerCount(); got < 1 || got > cpu.Allowed() {
		t.Errorf("expected one worker per allowed CPU, got %d", got)
	}
}

func TestFlags_MoreWorkersThanSamples(t *testing.T) {
	flags := parseFlags(t, "-workers", "16", "-samples", "5")

	if err := flags.Validate(); !errors.Is(err, quad.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}

	var out bytes.Buffer
	if _, err := New(flags, WithOutput(&out), WithPause(0)).Run(context.Background()); !errors.Is(err, quad.ErrInvalidRange) {
		t.Fatalf("expected Run to reject the request, got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("expected nothing written for a rejected request, got %q", out.String())
	}
}

func TestSummarize(t *testing.T) {
	times := []time.Duration{4 * time.Millisecond, time.Millisecond, 3 * time.Millisecond, 2 * time.Millisecond}
	s := Summarize(times)

	if s.Min != time.Millisecond || s.Max != 4*time.Millisecond {
		t.Errorf("unexpected min/max: %+v", s)
	}
	if s.Median != 2500*time.Microsecond {
		t.Errorf("expected median 2.5ms, got %v", s.Median)
	}
	if s.Mean != 2500*time.Microsecond {
		t.Errorf("expected mean 2.5ms, got %v", s.Mean)
	}
	if s.StdDev <= 0 {
		t.Errorf("expected positive stddev, got %v", s.StdDev)
	}
	if times[0] != 4*time.Millisecond {
		t.Error("input was reordered")
	}

	if got := Summarize(nil); got != (Stats{}) {
		t.Errorf("expected zero stats, got %+v", got)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := map[int]string{
		0:          "0",
		999:        "999",
		1000:       "1,000",
		10_000_000: "10,000,000",
		-1234:      "-1,234",
	}
	for in, want := range tests {
		if got := FormatNumber(in); got != want {
			t.Errorf("FormatNumber(%d): expected %q, got %q", in, want, got)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0"},
		{500 * time.Nanosecond, "500ns"},
		{3 * time.Microsecond, "3µs"},
		{1500 * time.Nanosecond, "1.5µs"},
		{12 * time.Millisecond, "12ms"},
		{2500 * time.Millisecond, "2.50s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestRank(t *testing.T) {
	results := []StrategyResult{
		{Strategy: "sequential", Success: true, Stats: Stats{Median: 400 * time.Millisecond}},
		{Strategy: "threaded", Success: true, Stats: Stats{Median: 500 * time.Millisecond}},
		{Strategy: "multiprocess", Success: false},
		{Strategy: "native-parallel", Success: true, Stats: Stats{Median: 100 * time.Millisecond}},
	}

	rank(results)

	wantRank := []int{2, 3, 0, 1}
	for i, want := range wantRank {
		if results[i].Rank != want {
			t.Errorf("%s: expected rank %d, got %d", results[i].Strategy, want, results[i].Rank)
		}
	}
	if results[3].Speedup != 4 {
		t.Errorf("expected native speedup 4, got %v", results[3].Speedup)
	}
	if results[0].Speedup != 1 {
		t.Errorf("expected baseline speedup 1, got %v", results[0].Speedup)
	}
}

func newTestRunner(t *testing.T, out *bytes.Buffer, args ...string) *Runner {
	t.Helper()
	base := []string{"-samples", "20000", "-workers", "4", "-log-level", "error"}
	return New(parseFlags(t, append(base, args...)...),
		WithOutput(out),
		WithProgressOutput(&bytes.Buffer{}),
		WithPause(0))
}

func TestRunner_JSONOutput(t *testing.T) {
	var out bytes.Buffer
	results, err := newTestRunner(t, &out, "-output-format", "json", "-iterations", "2").Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != len(quad.Strategies) {
		t.Fatalf("expected %d results, got %d", len(quad.Strategies), len(results))
	}

	var report Report
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("output is not a JSON report: %v\n%s", err, out.String())
	}
	if report.Integrand != "sin(x)" || report.Samples != 20000 || report.Workers != 4 {
		t.Errorf("unexpected report header: %+v", report)
	}

	for _, e := range report.Results {
		if !e.Success {
			t.Errorf("%s failed: %s", e.Strategy, e.Error)
			continue
		}
		if len(e.TimesNS) != 2 {
			t.Errorf("%s: expected 2 timings, got %d", e.Strategy, len(e.TimesNS))
		}
		if e.Value == nil || math.Abs(*e.Value-2) > 1e-6 {
			t.Errorf("%s: expected value ~2, got %v", e.Strategy, e.Value)
		}
		if e.AbsError == nil || *e.AbsError > 1e-6 {
			t.Errorf("%s: expected small abs error, got %v", e.Strategy, e.AbsError)
		}
	}
}

func TestRunner_TableOutput(t *testing.T) {
	var out bytes.Buffer
	if _, err := newTestRunner(t, &out).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := out.String()
	for _, want := range []string{"sequential", "threaded", "multiprocess", "native-parallel", "baseline", "4/4"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected output to contain %q:\n%s", want, text)
		}
	}
}

func TestRunner_FailedStrategyIsReported(t *testing.T) {
	var out bytes.Buffer
	results, err := newTestRunner(t, &out, "-integrand", crashIntegrand, "-lower", "0", "-upper", "1").Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, r := range results {
		wantOK := r.Strategy != quad.StrategyMultiprocess.String()
		if r.Success != wantOK {
			t.Errorf("%s: expected success=%v, got %v (%s)", r.Strategy, wantOK, r.Success, r.ErrorMsg)
		}
	}
	if !strings.Contains(out.String(), "Failed Strategies") {
		t.Errorf("expected failed strategies section:\n%s", out.String())
	}
}

func TestRunner_WritesReportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")

	var out bytes.Buffer
	if _, err := newTestRunner(t, &out, "-strategy", "sequential", "-report", path).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("invalid report: %v", err)
	}
	if len(report.Results) != 1 || report.Results[0].Strategy != "sequential" {
		t.Errorf("unexpected results: %+v", report.Results)
	}
}

func TestRunner_InvalidConfiguration(t *testing.T) {
	var out bytes.Buffer

	if _, err := newTestRunner(t, &out, "-integrand", "tan(x)").Run(context.Background()); err == nil {
		t.Error("expected error for unknown integrand")
	}
	if _, err := newTestRunner(t, &out, "-lower", "2", "-upper", "1").Run(context.Background()); err == nil {
		t.Error("expected error for reversed interval")
	}
}

func TestRunner_NoAnalyticValue(t *testing.T) {
	var out bytes.Buffer
	results, err := newTestRunner(t, &out, "-integrand", "exp(x) / (1 + x^2)", "-strategy", "native").Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsNaN(results[0].AbsError) {
		t.Errorf("expected NaN abs error, got %v", results[0].AbsError)
	}
	if !strings.Contains(out.String(), "n/a") {
		t.Errorf("expected n/a in table:\n%s", out.String())
	}
}

func TestPrintIntegrands(t *testing.T) {
	var out bytes.Buffer
	if err := PrintIntegrands(&out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range []string{"x^2", "exp(x) / (1 + x^2)"} {
		if !strings.Contains(out.String(), name) {
			t.Errorf("expected %q in listing", name)
		}
	}
}

func TestSetupProfiling(t *testing.T) {
	dir := t.TempDir()
	cpuProf := filepath.Join(dir, "cpu.prof")
	mem := filepath.Join(dir, "mem.prof")

	var out bytes.Buffer
	cleanup, err := SetupProfiling(&out, cpuProf, mem)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cleanup()

	for _, path := range []string{cpuProf, mem} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s to exist: %v", path, err)
		}
	}

	if _, err := SetupProfiling(&out, filepath.Join(dir, "missing", "cpu.prof"), ""); err == nil {
		t.Error("expected error for unwritable CPU profile path")
	}
}
