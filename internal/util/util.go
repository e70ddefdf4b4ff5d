// Package util holds small generic numeric helpers shared by the mapping packages.
package util

import (
	"golang.org/x/exp/constraints"
)

// Clamp limits v to the closed range [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampNote limits a note number to the valid MIDI range 0..127.
func ClampNote[T constraints.Integer](n T) T {
	return Clamp(n, 0, 127)
}

// Abs returns the absolute value of v.
func Abs[T constraints.Signed | constraints.Float](v T) T {
	if v < 0 {
		return -v
	}
	return v
}
