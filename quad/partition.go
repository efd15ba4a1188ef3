package quad

import "fmt"

// Partition splits [lower, upper] into workers contiguous sub-ranges that
// together own every one of the samples+1 grid points exactly once.
//
// Sample counts differ by at most one: the first samples%workers ranges
// get the extra sample. Boundaries are read off the shared grid, so the
// step size is the same for every range however the work is split.
func Partition(lower, upper float64, samples, workers int) ([]SubRange, error) {
	if err := validateBounds(lower, upper, samples); err != nil {
		return nil, err
	}
	if workers < 1 {
		return nil, fmt.Errorf("%w: worker count %d, need at least 1", ErrInvalidRange, workers)
	}
	if workers > samples {
		return nil, fmt.Errorf("%w: %d workers for %d samples", ErrInvalidRange, workers, samples)
	}

	grid := newGrid(lower, upper, samples)
	base, extra := samples/workers, samples%workers

	ranges := make([]SubRange, workers)
	offset := 0
	for i := range ranges {
		n := base
		if i < extra {
			n++
		}

		ranges[i] = SubRange{
			Index:   i,
			Lower:   grid.Point(offset),
			Upper:   grid.Point(offset + n),
			Samples: n,
			Offset:  offset,
			Grid:    grid,
		}
		offset += n
	}

	return ranges, nil
}
