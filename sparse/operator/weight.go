package operator

import (
	"errors"

	"github.com/cwbudde/algo-vecmath"
)

// Weight errors.
var (
	ErrEmptyWeights = errors.New("operator: empty weight vector")
)

// Weight is a diagonal operator scaling each entry by a fixed weight.
// Typical uses are sampling masks (zero/one weights) and per-measurement
// confidence weighting. A real diagonal is self-adjoint.
type Weight struct {
	w []float64
}

// NewWeight copies w and returns the diagonal operator diag(w).
func NewWeight(w []float64) (*Weight, error) {
	if len(w) == 0 {
		return nil, ErrEmptyWeights
	}

	cw := make([]float64, len(w))
	copy(cw, w)
	return &Weight{w: cw}, nil
}

// Forward computes dst[i] = w[i] * x[i].
func (op *Weight) Forward(dst, x []float64) {
	vecmath.MulBlock(dst, x, op.w)
}

// Adjoint computes dst[i] = w[i] * y[i]. The diagonal is its own adjoint.
func (op *Weight) Adjoint(dst, y []float64) {
	vecmath.MulBlock(dst, y, op.w)
}

// Dims returns the diagonal length for both spaces.
func (op *Weight) Dims() (m, n int) {
	return len(op.w), len(op.w)
}
