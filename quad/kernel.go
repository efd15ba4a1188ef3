package quad

import "github.com/utkarsh5026/quadpool/internal/gil"

// Kernel computes the trapezoidal partial sum of f over r.
//
// Owned points are visited in ascending order into a single accumulator and
// the total is scaled by the grid step once, so a given SubRange always
// produces the same bits.
func Kernel(r SubRange, f Integrand) PartialResult {
	g := r.Grid
	lo, hi := r.points()

	var acc float64
	for j := lo; j < hi; j++ {
		acc += float64(g.Weight(j) * f.Fn(g.Point(j)))
	}

	return PartialResult{Index: r.Index, Value: acc * g.Step}
}

// LockedKernel is Kernel evaluated under an execution lock: the loop holds
// l for one switch interval at a time, so concurrent callers sharing l
// take turns instead of running in parallel. The arithmetic is identical
// to Kernel.
func LockedKernel(l *gil.Lock, r SubRange, f Integrand) PartialResult {
	g := r.Grid
	lo, hi := r.points()

	var acc float64
	l.Run(lo, hi, func(j int) {
		acc += float64(g.Weight(j) * f.Fn(g.Point(j)))
	})

	return PartialResult{Index: r.Index, Value: acc * g.Step}
}
