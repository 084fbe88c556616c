package operator

import "errors"

// Func adapter errors.
var (
	ErrNilForward = errors.New("operator: forward callable is nil")
	ErrNilAdjoint = errors.New("operator: adjoint callable is nil")
)

// Func adapts caller-supplied callables to the Operator interface, for
// measurement models with no explicit matrix (fast transforms, implicit
// physics models). Each callable writes its result into dst.
type Func struct {
	m       int
	n       int
	forward func(dst, x []float64)
	adjoint func(dst, y []float64)
}

// NewFunc builds an Operator from a forward callable mapping length-n
// vectors to length-m vectors and the matching adjoint mapping back.
// Solvers always form gradients through the adjoint, so it is required.
func NewFunc(m, n int, forward, adjoint func(dst, x []float64)) (*Func, error) {
	if m <= 0 || n <= 0 {
		return nil, ErrInvalidLength
	}
	if forward == nil {
		return nil, ErrNilForward
	}
	if adjoint == nil {
		return nil, ErrNilAdjoint
	}

	return &Func{m: m, n: n, forward: forward, adjoint: adjoint}, nil
}

func (f *Func) Forward(dst, x []float64) { f.forward(dst, x) }

func (f *Func) Adjoint(dst, y []float64) { f.adjoint(dst, y) }

func (f *Func) Dims() (m, n int) { return f.m, f.n }
