package quad

import (
	"fmt"
	"math"
	"time"
)

// Request describes one integration. It is a value type; copying it is
// the intended way to share it.
type Request struct {
	Integrand Integrand
	Lower     float64
	Upper     float64
	Samples   int // number of trapezoids over [Lower, Upper]
	Workers   int // number of sub-ranges for the parallel strategies
}

// Validate checks the request invariants.
func (r Request) Validate() error {
	if err := validateBounds(r.Lower, r.Upper, r.Samples); err != nil {
		return err
	}
	if r.Workers < 1 {
		return fmt.Errorf("%w: worker count %d, need at least 1", ErrInvalidRange, r.Workers)
	}
	if r.Workers > r.Samples {
		return fmt.Errorf("%w: %d workers for %d samples", ErrInvalidRange, r.Workers, r.Samples)
	}
	if r.Integrand.Fn == nil {
		return fmt.Errorf("%w: nil function", ErrUnknownIntegrand)
	}
	return nil
}

func validateBounds(lower, upper float64, samples int) error {
	switch {
	case math.IsNaN(lower) || math.IsNaN(upper) || math.IsInf(lower, 0) || math.IsInf(upper, 0):
		return fmt.Errorf("%w: bounds must be finite, got [%v, %v]", ErrInvalidRange, lower, upper)
	case lower > upper:
		return fmt.Errorf("%w: lower bound %v above upper bound %v", ErrInvalidRange, lower, upper)
	case samples < 1:
		return fmt.Errorf("%w: sample count %d, need at least 1", ErrInvalidRange, samples)
	}
	return nil
}

// Grid is the global sampling grid of a request. All sub-ranges of one
// request share it, so every worker steps by the same Step.
type Grid struct {
	Lower   float64
	Upper   float64
	Samples int
	Step    float64
}

func newGrid(lower, upper float64, samples int) Grid {
	return Grid{
		Lower:   lower,
		Upper:   upper,
		Samples: samples,
		Step:    (upper - lower) / float64(samples),
	}
}

// Point returns grid point j. The last point is exactly Upper.
func (g Grid) Point(j int) float64 {
	if j >= g.Samples {
		return g.Upper
	}
	// explicit conversion keeps the product from being fused into an FMA
	return g.Lower + float64(float64(j)*g.Step)
}

// Weight returns the trapezoidal weight of grid point j.
func (g Grid) Weight(j int) float64 {
	if j == 0 || j == g.Samples {
		return 0.5
	}
	return 1
}

// SubRange is the share of the grid owned by one worker: grid points
// [Offset, Offset+Samples), plus the closing point Grid.Samples for the
// last sub-range. Adjacent sub-ranges meet at a point owned by the right
// one only.
type SubRange struct {
	Index   int
	Lower   float64
	Upper   float64
	Samples int
	Offset  int
	Grid    Grid
}

// points returns the half-open range of grid indices owned by r.
func (r SubRange) points() (lo, hi int) {
	lo, hi = r.Offset, r.Offset+r.Samples
	if hi == r.Grid.Samples {
		hi++
	}
	return lo, hi
}

// PartialResult is the contribution of one sub-range.
type PartialResult struct {
	Index int
	Value float64
}

// Result is the outcome of Run.
type Result struct {
	Value    float64
	Elapsed  time.Duration
	Strategy Strategy
}
