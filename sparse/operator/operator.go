// Package operator defines the forward/adjoint linear operator pair used by
// sparse reconstruction solvers, together with adapters for common
// measurement models.
//
// A measurement model is a linear map A from a length-n solution space to a
// length-m measurement space. Solvers form gradients through the adjoint
// map At, which must satisfy the identity <A(u), v> = <u, At(v)> for all
// u, v. The identity is assumed, not enforced; AdjointGap estimates how
// badly a candidate pair violates it.
//
// Ready-made adapters cover the usual cases:
//
//	id, _ := operator.NewIdentity(n)             // denoising
//	op, _ := operator.NewDense(matrix)           // explicit matrix
//	op, _ := operator.NewFunc(m, n, fwd, adj)    // caller callables
//	op, _ := operator.NewWeight(mask)            // diagonal weighting
//	op, _ := operator.NewConvolution(kernel, n)  // blur / deconvolution
//	op, _ := operator.NewPartialFourier(n, bins) // compressed sensing
//	op, _ := operator.NewCompose(mask, blur)     // chained models
package operator

import (
	"errors"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Errors returned by operator constructors.
var (
	ErrInvalidLength     = errors.New("operator: length must be positive")
	ErrNilOperator       = errors.New("operator: operator is nil")
	ErrDimensionMismatch = errors.New("operator: operator dimensions do not match")
)

// Operator is a linear measurement map together with its adjoint.
//
// Forward writes A(x) into dst; Adjoint writes At(y) into dst. Dims reports
// the measurement dimension m (the length of A(x)) and the solution
// dimension n (the length of x). Implementations are deterministic and do
// not retain dst, x, or y across calls.
//
// Per-call length validation is left to the concrete operator: the shipped
// adapters index their arguments directly and panic on short slices, the
// same contract gonum's mat package uses.
type Operator interface {
	Forward(dst, x []float64)
	Adjoint(dst, y []float64)
	Dims() (m, n int)
}

// Identity is the identity map on vectors of length n, the measurement
// model of plain denoising.
type Identity struct {
	n int
}

// NewIdentity returns the identity operator on length-n vectors.
func NewIdentity(n int) (*Identity, error) {
	if n <= 0 {
		return nil, ErrInvalidLength
	}

	return &Identity{n: n}, nil
}

// Forward copies x into dst.
func (op *Identity) Forward(dst, x []float64) {
	copy(dst, x)
}

// Adjoint copies y into dst.
func (op *Identity) Adjoint(dst, y []float64) {
	copy(dst, y)
}

// Dims returns n for both spaces.
func (op *Identity) Dims() (m, n int) {
	return op.n, op.n
}

// AdjointGap estimates the worst relative violation of the adjoint identity
// <A(u), v> = <u, At(v)> over a number of Gaussian probe pairs. A correct
// pair stays within a few ulps of zero; a mismatched pair is off by orders
// of magnitude. A nil rng falls back to a fixed-seed source.
func AdjointGap(op Operator, rng *rand.Rand, probes int) float64 {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	m, n := op.Dims()
	u := make([]float64, n)
	v := make([]float64, m)
	au := make([]float64, m)
	atv := make([]float64, n)

	gap := 0.0
	for range probes {
		for i := range u {
			u[i] = rng.NormFloat64()
		}
		for i := range v {
			v[i] = rng.NormFloat64()
		}

		op.Forward(au, u)
		op.Adjoint(atv, v)

		lhs := floats.Dot(au, v)
		rhs := floats.Dot(u, atv)

		scale := math.Max(math.Abs(lhs), math.Abs(rhs))
		if scale == 0 {
			scale = 1
		}

		if g := math.Abs(lhs-rhs) / scale; g > gap {
			gap = g
		}
	}

	return gap
}
