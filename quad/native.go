package quad

// NativeKernel is the lock-free kernel used by NativeParallel. It never
// touches the execution lock and keeps the interior of the loop free of
// per-point weight lookups. Its output is bit-identical to Kernel: the
// endpoint terms are the same products and interior weights are exactly 1.
func NativeKernel(r SubRange, f Integrand) PartialResult {
	g := r.Grid
	fn := f.Fn
	lo, hi := r.points()

	var acc float64
	j := lo
	if j == 0 && j < hi {
		acc += float64(0.5 * fn(g.Point(0)))
		j++
	}

	last := hi
	closes := hi == g.Samples+1
	if closes {
		last--
	}

	lower, step := g.Lower, g.Step
	for ; j < last; j++ {
		acc += fn(lower + float64(float64(j)*step))
	}

	if closes {
		acc += float64(0.5 * fn(g.Upper))
	}

	return PartialResult{Index: r.Index, Value: acc * step}
}
