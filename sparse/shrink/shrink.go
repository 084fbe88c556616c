// Package shrink implements the soft-threshold (shrinkage) operator, the
// proximal map of the l1 penalty used by sparse reconstruction solvers.
package shrink

import (
	"errors"

	"gonum.org/v1/gonum/floats"
)

// Errors returned by shrinkage functions.
var (
	ErrNegativeThreshold = errors.New("shrink: threshold must be non-negative")
)

// Soft applies the soft-threshold operator element-wise and returns the
// result as a new slice:
//
//	soft(v, t) = sign(v) * max(|v| - t, 0)
//
// Entries with |v| <= t collapse to exactly zero, which is the mechanism
// that induces sparsity. A threshold of zero returns an unmodified copy.
func Soft(x []float64, t float64) ([]float64, error) {
	if t < 0 {
		return nil, ErrNegativeThreshold
	}

	out := make([]float64, len(x))
	SoftTo(out, x, t)
	return out, nil
}

// SoftTo applies the soft-threshold operator, writing to a pre-allocated
// destination. dst must have the same length as x and may alias it.
// The threshold must be non-negative.
func SoftTo(dst, x []float64, t float64) {
	for i, v := range x {
		switch {
		case v > t:
			dst[i] = v - t
		case v < -t:
			dst[i] = v + t
		default:
			dst[i] = 0
		}
	}
}

// SoftInPlace applies the soft-threshold operator to x directly.
func SoftInPlace(x []float64, t float64) {
	SoftTo(x, x, t)
}

// Nonzeros returns the number of entries that are not exactly zero.
// Shrinkage produces exact zeros, so for a thresholded iterate this is the
// support size.
func Nonzeros(x []float64) int {
	return floats.Count(func(v float64) bool { return v != 0 }, x)
}
