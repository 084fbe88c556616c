package operator

import "fmt"

// Compose chains two operators into outer(inner(x)), with the adjoint
// applied in reverse order. Typical use: a sampling mask over a blur.
type Compose struct {
	outer Operator
	inner Operator
	mid   []float64
}

// NewCompose checks that inner's measurement space matches outer's input
// space and returns the chained operator.
func NewCompose(outer, inner Operator) (*Compose, error) {
	if outer == nil || inner == nil {
		return nil, ErrNilOperator
	}

	im, _ := inner.Dims()
	_, on := outer.Dims()
	if im != on {
		return nil, fmt.Errorf("%w: inner produces %d, outer consumes %d", ErrDimensionMismatch, im, on)
	}

	return &Compose{outer: outer, inner: inner, mid: make([]float64, im)}, nil
}

// Forward computes dst = outer(inner(x)).
func (c *Compose) Forward(dst, x []float64) {
	c.inner.Forward(c.mid, x)
	c.outer.Forward(dst, c.mid)
}

// Adjoint computes dst = innerAdj(outerAdj(y)).
func (c *Compose) Adjoint(dst, y []float64) {
	c.outer.Adjoint(c.mid, y)
	c.inner.Adjoint(dst, c.mid)
}

// Dims returns outer's measurement dimension by inner's solution dimension.
func (c *Compose) Dims() (m, n int) {
	m, _ = c.outer.Dims()
	_, n = c.inner.Dims()
	return m, n
}
