package quad

import (
	"fmt"
	"slices"
)

// Aggregate sums the partial results of one request in ascending index
// order. want is the number of sub-ranges the request was split into;
// the input must hold exactly one partial for each index in [0, want).
// The input slice is not modified.
func Aggregate(parts []PartialResult, want int) (float64, error) {
	if len(parts) != want {
		return 0, fmt.Errorf("%w: got %d of %d partials", ErrIncompleteResult, len(parts), want)
	}

	sorted := slices.Clone(parts)
	slices.SortFunc(sorted, func(a, b PartialResult) int {
		return a.Index - b.Index
	})

	var total float64
	for i, p := range sorted {
		if p.Index != i {
			return 0, fmt.Errorf("%w: missing partial %d", ErrIncompleteResult, i)
		}
		total += p.Value
	}

	return total, nil
}
