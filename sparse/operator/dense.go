package operator

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// Dense adapter errors.
var (
	ErrNilMatrix   = errors.New("operator: matrix is nil")
	ErrEmptyMatrix = errors.New("operator: matrix has a zero dimension")
)

// Dense adapts a gonum matrix to the Operator interface. The adjoint is the
// matrix transpose, so callers supplying an explicit matrix never have to
// provide a separate adjoint.
type Dense struct {
	a  mat.Matrix
	at mat.Matrix
	m  int
	n  int
}

// NewDense wraps a gonum matrix as an Operator. The matrix is referenced,
// not copied; it must not be mutated while the operator is in use.
func NewDense(a mat.Matrix) (*Dense, error) {
	if a == nil {
		return nil, ErrNilMatrix
	}

	m, n := a.Dims()
	if m == 0 || n == 0 {
		return nil, ErrEmptyMatrix
	}

	return &Dense{a: a, at: a.T(), m: m, n: n}, nil
}

// Forward computes dst = A*x.
func (d *Dense) Forward(dst, x []float64) {
	mulVec(dst, d.a, x)
}

// Adjoint computes dst = At*y.
func (d *Dense) Adjoint(dst, y []float64) {
	mulVec(dst, d.at, y)
}

// Dims returns the matrix dimensions.
func (d *Dense) Dims() (m, n int) {
	return d.m, d.n
}

func mulVec(dst []float64, a mat.Matrix, x []float64) {
	out := mat.NewVecDense(len(dst), dst)
	out.MulVec(a, mat.NewVecDense(len(x), x))
}
