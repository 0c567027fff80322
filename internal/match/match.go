// Package match finds the telemetry sample nearest to a frame's capture timestamp.
package match

import (
	"errors"
	"sort"
)

// ErrEmptyStream is returned when matching against a stream without samples.
var ErrEmptyStream = errors.New("match: empty stream")

// Nearest returns the index of the element of the ascending list closest to cts.
// On an exact tie between the samples before and after cts the earlier one wins.
// Targets outside the list clamp to its first or last element. The search is a
// bisection, O(log n).
func Nearest(cts float64, list []float64) (int, error) {
	if len(list) == 0 {
		return -1, ErrEmptyStream
	}

	pos := sort.SearchFloat64s(list, cts)
	if pos == 0 {
		return 0, nil
	}
	if pos == len(list) {
		return len(list) - 1, nil
	}

	before, after := list[pos-1], list[pos]
	if after-cts < cts-before {
		return pos, nil
	}
	return pos - 1, nil
}

// NearestValue is Nearest returning the matched list value instead of its index.
func NearestValue(cts float64, list []float64) (float64, error) {
	i, err := Nearest(cts, list)
	if err != nil {
		return 0, err
	}
	return list[i], nil
}
