package ist

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/cwbudde/algo-sparse/sparse/operator"
	"github.com/cwbudde/algo-sparse/sparse/shrink"
	"gonum.org/v1/gonum/floats"
)

// Errors returned by Solve before iteration begins.
var (
	ErrNilOperator         = errors.New("ist: operator is nil")
	ErrLengthMismatch      = errors.New("ist: length mismatch")
	ErrNegativeTau         = errors.New("ist: regularization weight must be non-negative")
	ErrInvalidTolerance    = errors.New("ist: tolerance must be positive")
	ErrInvalidIterations   = errors.New("ist: invalid iteration bounds")
	ErrInvalidStepSize     = errors.New("ist: step size must be positive")
	ErrMissingInitialGuess = errors.New("ist: initialization mode InitGiven requires X0")
	ErrUnknownInit         = errors.New("ist: unknown initialization mode")
)

// Result holds the final iterate, the per-iteration traces, and summary
// statistics of one solve.
type Result struct {
	// X is the final iterate.
	X []float64

	// Objective records the objective value per iteration, starting with
	// the evaluation of the initial iterate. Its length is always
	// Stats.Iterations+1.
	Objective []float64

	// Times records the cumulative elapsed time at each iteration,
	// parallel to Objective.
	Times []time.Duration

	// MSE records the squared error of each iterate against Options.TrueX
	// divided by the total element count. Parallel to Objective when
	// ground truth was given, empty otherwise.
	MSE []float64

	// Stats summarizes the run.
	Stats Stats
}

// Stats summarizes a finished solve.
type Stats struct {
	// Iterations is the number of update steps performed, not counting
	// the initial evaluation.
	Iterations int

	// Converged reports whether the stopping criterion ended the run;
	// false means the iteration budget did.
	Converged bool

	// FinalObjective is the last entry of the objective trace.
	FinalObjective float64

	// ResidualNorm is the l2 norm of y - A(x) at exit.
	ResidualNorm float64

	// L1Norm is the l1 norm of the final iterate.
	L1Norm float64

	// Nonzeros is the support size of the final iterate.
	Nonzeros int

	// Runtime is the total elapsed time.
	Runtime time.Duration
}

// Solve minimizes 0.5*||y - A(x)||^2 + tau*||x||_1 over x by iterative
// soft-thresholding, where A is the given operator and y the observations.
//
// The returned Result holds the final iterate, the objective and timing
// traces with one entry per iteration including the initial evaluation,
// the optional MSE trace, and summary statistics. Solve validates the
// configuration up front and returns an error before any iteration runs;
// once iteration starts the run always completes.
func Solve(op operator.Operator, y []float64, tau float64, opts Options) (*Result, error) {
	if err := validate(op, y, tau, &opts); err != nil {
		return nil, err
	}

	m, n := op.Dims()

	x := initialize(op, y, &opts, n)
	ax := make([]float64, m)
	r := make([]float64, m)
	g := make([]float64, n)

	res := &Result{
		X:         x,
		Objective: make([]float64, 0, opts.MaxIterations+1),
		Times:     make([]time.Duration, 0, opts.MaxIterations+1),
	}
	if opts.TrueX != nil {
		res.MSE = make([]float64, 0, opts.MaxIterations+1)
	}

	start := time.Now()

	obj := evaluate(op, y, x, tau, ax, r)
	op.Adjoint(g, r)
	res.record(&opts, obj, start)

	if opts.Progress != nil {
		res.progressLine(opts.Progress, 0, obj, shrink.Nonzeros(x))
	}

	conv := newConverger(opts.Criterion, opts.Tolerance, n)
	conv.init(obj, x)

	iter := 0
	converged := false

	for iter < opts.MaxIterations {
		// x <- soft(x + step*At(r), step*tau)
		floats.AddScaled(x, opts.StepSize, g)
		shrink.SoftInPlace(x, opts.StepSize*tau)

		obj = evaluate(op, y, x, tau, ax, r)
		op.Adjoint(g, r)

		iter++
		res.record(&opts, obj, start)

		done := conv.converged(obj, x)

		if opts.Progress != nil {
			res.progressLine(opts.Progress, iter, obj, shrink.Nonzeros(x))
		}

		if done && iter >= opts.MinIterations {
			converged = true
			break
		}
	}

	res.Stats = Stats{
		Iterations:     iter,
		Converged:      converged,
		FinalObjective: obj,
		ResidualNorm:   floats.Norm(r, 2),
		L1Norm:         floats.Norm(x, 1),
		Nonzeros:       shrink.Nonzeros(x),
		Runtime:        time.Since(start),
	}

	if opts.Progress != nil {
		res.summary(opts.Progress)
	}

	return res, nil
}

func validate(op operator.Operator, y []float64, tau float64, opts *Options) error {
	if op == nil {
		return ErrNilOperator
	}

	m, n := op.Dims()
	if len(y) != m {
		return fmt.Errorf("%w: observation has length %d, operator produces %d", ErrLengthMismatch, len(y), m)
	}
	if tau < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeTau, tau)
	}
	if opts.Tolerance <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTolerance, opts.Tolerance)
	}
	if opts.MinIterations < 0 {
		return fmt.Errorf("%w: min %d", ErrInvalidIterations, opts.MinIterations)
	}
	if opts.MaxIterations < 1 || opts.MaxIterations < opts.MinIterations {
		return fmt.Errorf("%w: max %d, min %d", ErrInvalidIterations, opts.MaxIterations, opts.MinIterations)
	}
	if opts.StepSize <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidStepSize, opts.StepSize)
	}
	if opts.Init < InitZero || opts.Init > InitGiven {
		return fmt.Errorf("%w: %d", ErrUnknownInit, opts.Init)
	}
	if opts.Init == InitGiven && opts.X0 == nil {
		return ErrMissingInitialGuess
	}
	if opts.X0 != nil && len(opts.X0) != n {
		return fmt.Errorf("%w: initial guess has length %d, operator expects %d", ErrLengthMismatch, len(opts.X0), n)
	}
	if opts.TrueX != nil && len(opts.TrueX) != n {
		return fmt.Errorf("%w: ground truth has length %d, operator expects %d", ErrLengthMismatch, len(opts.TrueX), n)
	}

	return nil
}

// initialize builds the starting iterate. The returned slice is owned by
// the solver; caller-supplied vectors are copied, never aliased.
func initialize(op operator.Operator, y []float64, opts *Options, n int) []float64 {
	x := make([]float64, n)

	switch opts.Init {
	case InitRandom:
		rng := opts.Rand
		if rng == nil {
			rng = rand.New(rand.NewSource(1))
		}
		for i := range x {
			x[i] = rng.Float64()*2 - 1
		}
	case InitAdjoint:
		op.Adjoint(x, y)
	case InitGiven:
		copy(x, opts.X0)
	case InitZero:
		// x is already zero.
	}

	return x
}

// evaluate computes the residual r = y - A(x) and returns the objective
// 0.5*<r, r> + tau*||x||_1. ax is scratch for the forward application.
func evaluate(op operator.Operator, y, x []float64, tau float64, ax, r []float64) float64 {
	op.Forward(ax, x)
	floats.AddScaledTo(r, y, -1, ax)

	return 0.5*floats.Dot(r, r) + tau*floats.Norm(x, 1)
}

// record appends one entry to every trace. Result.X aliases the working
// iterate, so the MSE entry reflects the iterate the objective was
// evaluated at.
func (res *Result) record(opts *Options, obj float64, start time.Time) {
	res.Objective = append(res.Objective, obj)
	res.Times = append(res.Times, time.Since(start))

	if opts.TrueX != nil {
		d := floats.Distance(res.X, opts.TrueX, 2)
		res.MSE = append(res.MSE, d*d/float64(len(opts.TrueX)))
	}
}

func (res *Result) progressLine(w io.Writer, iter int, obj float64, nonzeros int) {
	if len(res.MSE) > 0 {
		_, _ = fmt.Fprintf(w, "iter %4d  obj %.6e  mse %.6e  nonzeros %d\n",
			iter, obj, res.MSE[len(res.MSE)-1], nonzeros)
		return
	}

	_, _ = fmt.Fprintf(w, "iter %4d  obj %.6e  nonzeros %d\n", iter, obj, nonzeros)
}

func (res *Result) summary(w io.Writer) {
	s := &res.Stats
	_, _ = fmt.Fprintf(w, "done: %d iterations in %v\n", s.Iterations, s.Runtime)
	_, _ = fmt.Fprintf(w, "objective %.6e  residual %.6e  l1 norm %.6e  nonzeros %d\n",
		s.FinalObjective, s.ResidualNorm, s.L1Norm, s.Nonzeros)
}
