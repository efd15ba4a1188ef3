// Package cpu binds worker goroutines to OS threads and, where the
// platform allows it, to individual logical CPUs.
package cpu

import "runtime"

// Count returns the number of logical CPUs.
func Count() int {
	return runtime.NumCPU()
}

// normalize maps slot onto [0, n). n must be positive.
func normalize(slot, n int) int {
	slot %= n
	if slot < 0 {
		slot += n
	}
	return slot
}
