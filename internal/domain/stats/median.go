// Package stats provides the pure statistics primitives used by the
// analytics engine.
package stats

import (
	"math"
	"sort"
)

// Median returns the median of the given scores.
//
// An empty input yields 0, the deliberate "no data" sentinel rather than an
// error. The input slice is copied before sorting so the caller's ordering
// is never mutated.
func Median(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}

	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 != 0 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// Round2 rounds to two decimal places for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// MedianInts is a convenience wrapper over Median for integer scores.
func MedianInts(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	converted := make([]float64, len(scores))
	for i, s := range scores {
		converted[i] = float64(s)
	}
	return Median(converted)
}
