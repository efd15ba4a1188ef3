package bench

import (
	"math"
	"slices"
	"time"
)

// Stats summarizes the wall-clock times of repeated runs.
type Stats struct {
	Min    time.Duration
	Median time.Duration
	Mean   time.Duration
	Max    time.Duration
	StdDev time.Duration
}

// Summarize computes Stats over times. The input is not modified.
func Summarize(times []time.Duration) Stats {
	if len(times) == 0 {
		return Stats{}
	}

	sorted := slices.Clone(times)
	slices.Sort(sorted)

	var sum time.Duration
	for _, t := range sorted {
		sum += t
	}
	mean := sum / time.Duration(len(sorted))

	var variance float64
	for _, t := range sorted {
		diff := float64(t - mean)
		variance += diff * diff
	}

	return Stats{
		Min:    sorted[0],
		Median: median(sorted),
		Mean:   mean,
		Max:    sorted[len(sorted)-1],
		StdDev: time.Duration(math.Sqrt(variance / float64(len(sorted)))),
	}
}

func median(sorted []time.Duration) time.Duration {
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
