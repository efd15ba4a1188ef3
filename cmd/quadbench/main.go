// Command quadbench integrates one function with every execution strategy
// and compares their wall-clock times.
//
//	quadbench -integrand "exp(-x^2)" -lower -3 -upper 3 -samples 50000000 -iterations 5
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"

	"github.com/utkarsh5026/quadpool/internal/bench"
	"github.com/utkarsh5026/quadpool/quad"
)

func main() {
	// worker processes spawned by the multiprocess strategy stop here
	quad.ServeWorkerProcess()

	flags := bench.DefineFlags(flag.CommandLine)
	flag.Parse()

	if err := run(flags); err != nil {
		_, _ = bench.Red.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(flags *bench.Flags) error {
	if flags.List {
		return bench.PrintIntegrands(os.Stdout)
	}

	if err := flags.Validate(); err != nil {
		return err
	}
	level, _ := flags.Level()

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
	}))
	slog.SetDefault(logger)

	cleanup, err := bench.SetupProfiling(os.Stderr, flags.CPUProfile, flags.MemProfile)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := bench.New(flags, bench.WithLogger(logger))
	if _, err := runner.Run(ctx); err != nil {
		return fmt.Errorf("benchmark: %w", err)
	}
	return nil
}
