package bench

import (
	"time"

	"github.com/fatih/color"
)

// Color helpers
var (
	Bold   = color.New(color.Bold)
	Green  = color.New(color.FgGreen)
	Red    = color.New(color.FgRed)
	Yellow = color.New(color.FgYellow)
	Blue   = color.New(color.FgBlue)
)

// StrategyResult holds the measurements of one strategy across iterations.
type StrategyResult struct {
	Strategy string
	Rank     int
	Success  bool
	ErrorMsg string

	Value    float64
	AbsError float64 // NaN when no analytic value is known
	Speedup  float64 // sequential median / this median, 0 without a baseline

	Times []time.Duration
	Stats Stats
}
