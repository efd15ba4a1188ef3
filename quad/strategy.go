package quad

import (
	"fmt"
	"strings"
)

// Strategy selects how an integration is executed.
type Strategy int

const (
	StrategySequential Strategy = iota
	StrategyThreaded
	StrategyMultiprocess
	StrategyNativeParallel
)

// Strategies lists every strategy in a stable order, baseline first.
var Strategies = []Strategy{
	StrategySequential,
	StrategyThreaded,
	StrategyMultiprocess,
	StrategyNativeParallel,
}

func (s Strategy) String() string {
	switch s {
	case StrategySequential:
		return "sequential"
	case StrategyThreaded:
		return "threaded"
	case StrategyMultiprocess:
		return "multiprocess"
	case StrategyNativeParallel:
		return "native-parallel"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy converts a strategy name back into a Strategy.
// Matching is case-insensitive and also accepts "native" and "process".
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sequential", "serial":
		return StrategySequential, nil
	case "threaded", "threads":
		return StrategyThreaded, nil
	case "multiprocess", "process":
		return StrategyMultiprocess, nil
	case "native-parallel", "native":
		return StrategyNativeParallel, nil
	}
	return 0, fmt.Errorf("unknown strategy %q", name)
}
