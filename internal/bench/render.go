package bench

import (
	"fmt"
	"io"
	"math"
	"slices"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/utkarsh5026/quadpool/quad"
)

// RenderTable prints the ranked comparison of successful strategies followed
// by the list of failed ones.
func RenderTable(w io.Writer, results []StrategyResult) {
	ranked := successful(results)

	printSectionHeader(w, "INTEGRATION RESULTS",
		"Median wall-clock time per strategy (lower is better)",
		"  • Speedup: sequential median divided by this median",
		"  • Abs Error: distance from the analytic value, when one is known")

	if len(ranked) == 0 {
		colorFprintln(w, Red, "No strategies completed successfully!")
	} else {
		table := tablewriter.NewWriter(w)
		table.Header("Rank", "Strategy", "Median", "Min", "Max", "Speedup", "Value", "Abs Error")

		for _, r := range ranked {
			_ = table.Append(
				getRankIcon(r.Rank),
				r.Strategy,
				FormatDuration(r.Stats.Median),
				FormatDuration(r.Stats.Min),
				FormatDuration(r.Stats.Max),
				formatSpeedup(r),
				fmt.Sprintf("%.12g", r.Value),
				formatAbsError(r.AbsError),
			)
		}

		if err := table.Render(); err != nil {
			colorFprintln(w, Red, "Error rendering results table")
		}
	}

	printFailedStrategies(w, results)
	fmt.Fprintln(w)
	colorFprintf(w, Green, "✅ Successfully tested %d/%d strategies\n", len(ranked), len(results))
	fmt.Fprintln(w)
}

func successful(results []StrategyResult) []StrategyResult {
	ok := make([]StrategyResult, 0, len(results))
	for _, r := range results {
		if r.Success {
			ok = append(ok, r)
		}
	}
	slices.SortStableFunc(ok, func(a, b StrategyResult) int {
		return a.Rank - b.Rank
	})
	return ok
}

func getRankIcon(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return fmt.Sprintf("%d", rank)
	}
}

func formatSpeedup(r StrategyResult) string {
	if r.Strategy == quad.StrategySequential.String() {
		return "baseline"
	}
	if r.Speedup == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2fx", r.Speedup)
}

func formatAbsError(e float64) string {
	if math.IsNaN(e) {
		return "n/a"
	}
	return fmt.Sprintf("%.3e", e)
}

func printHeader(w io.Writer, name string) {
	colorFprintln(w, Bold, "╔════════════════════════════════════════════════════════════╗")
	colorFprintf(w, Bold, "║       %-52s ║\n", name)
	colorFprintln(w, Bold, "╚════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(w)
}

func printConfig(w io.Writer, req quad.Request, flags *Flags) {
	colorFprintln(w, Bold, "Configuration:")
	fmt.Fprintf(w, "  Integrand:  %s\n", req.Integrand.Name)
	fmt.Fprintf(w, "  Interval:   [%g, %g]\n", req.Lower, req.Upper)
	fmt.Fprintf(w, "  Samples:    %s\n", FormatNumber(req.Samples))
	fmt.Fprintf(w, "  Workers:    %d\n", req.Workers)
	fmt.Fprintf(w, "  Iterations: %d (warmup %d)\n", flags.Iterations, flags.Warmup)
	fmt.Fprintln(w)

	if flags.Strategy != "" {
		colorFprintf(w, Yellow, "🔬 SINGLE STRATEGY MODE: testing %q only\n", flags.Strategy)
		fmt.Fprintln(w)
	}
}

func printSectionHeader(w io.Writer, title string, descriptions ...string) {
	fmt.Fprintln(w)
	colorFprintln(w, Bold, "═══════════════════════════════════════════════════════════")
	colorFprintln(w, Bold, title)
	colorFprintln(w, Bold, "═══════════════════════════════════════════════════════════")
	for _, desc := range descriptions {
		fmt.Fprintln(w, desc)
	}
	fmt.Fprintln(w)
}

func printFailedStrategies(w io.Writer, results []StrategyResult) {
	var failed []StrategyResult
	for _, r := range results {
		if !r.Success {
			failed = append(failed, r)
		}
	}

	if len(failed) > 0 {
		fmt.Fprintln(w)
		colorFprintln(w, Red, "⚠️  Failed Strategies:")
		for _, r := range failed {
			colorFprintf(w, Red, "  • %s: %s\n", r.Strategy, r.ErrorMsg)
		}
	}
}

func printIterationStats(w io.Writer, s Stats) {
	fmt.Fprintf(w, "    Min: %v | Median: %v | Mean: %v | Max: %v | StdDev: %v\n",
		s.Min.Round(time.Microsecond),
		s.Median.Round(time.Microsecond),
		s.Mean.Round(time.Microsecond),
		s.Max.Round(time.Microsecond),
		s.StdDev.Round(time.Microsecond))
}

// PrintIntegrands lists the registered integrands and whether an analytic
// value is available for each.
func PrintIntegrands(w io.Writer) error {
	table := tablewriter.NewWriter(w)
	table.Header("Integrand", "Analytic")

	for _, name := range quad.Names() {
		f, err := quad.Lookup(name)
		if err != nil {
			return err
		}
		analytic := "no"
		if f.Exact != nil {
			analytic = "yes"
		}
		if err := table.Append(name, analytic); err != nil {
			return err
		}
	}
	return table.Render()
}
