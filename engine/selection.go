package engine

import (
	"math/rand/v2"

	chaos "github.com/marben/chaos_ifs"
)

const (
	// NoSelection is the last-index sentinel before the first vertex is chosen.
	NoSelection = -1

	// MaxSelectionAttempts bounds resampling in SelectNext.
	MaxSelectionAttempts = 100
)

// Valid reports whether candidate may follow last under constraint c
// for a vertex sequence of length n. Only one prior choice is consulted.
func Valid(c chaos.Constraint, candidate, last, n int) bool {
	if last == NoSelection {
		return true
	}
	switch c {
	case chaos.SkipRepeat:
		return candidate != last
	case chaos.SkipAdjacent:
		diff := candidate - last
		if diff < 0 {
			diff = -diff
		}
		return diff > 1 && diff < n-1
	case chaos.SkipOpposite:
		return candidate != (last+n/2)%n
	default:
		return true
	}
}

// SelectNext draws a uniformly random index in [0, n) that satisfies c.
// After MaxSelectionAttempts rejected draws the last sample is returned as is,
// so constraint sets admitting no valid index (2 vertices with SkipAdjacent) still terminate.
func SelectNext(c chaos.Constraint, last, n int, rng *rand.Rand) int {
	idx := rng.IntN(n)
	for attempt := 1; attempt < MaxSelectionAttempts && !Valid(c, idx, last, n); attempt++ {
		idx = rng.IntN(n)
	}
	return idx
}
