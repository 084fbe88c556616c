package ist

import (
	"io"
	"math/rand"
)

// InitMode selects how the starting iterate is built.
type InitMode int

const (
	// InitZero starts from the all-zero vector.
	InitZero InitMode = iota

	// InitRandom starts from uniform random entries in [-1, 1).
	InitRandom

	// InitAdjoint starts from At(y), the adjoint applied to the
	// observations.
	InitAdjoint

	// InitGiven starts from a copy of Options.X0.
	InitGiven
)

// Options configures a Solve run. The zero value is not a valid
// configuration; start from DefaultOptions and override fields as needed.
type Options struct {
	// Criterion selects the stopping policy evaluated after each update
	// step.
	Criterion StopCriterion

	// Tolerance is the stopping threshold. Its meaning depends on the
	// criterion: relative objective change, changed support fraction, or
	// absolute objective value. Must be positive.
	Tolerance float64

	// MaxIterations caps the number of update steps. Must be at least 1
	// and at least MinIterations.
	MaxIterations int

	// MinIterations is the number of update steps that must complete
	// before any stopping criterion is honored.
	MinIterations int

	// StepSize scales the gradient step before shrinkage. The default of
	// 1 is the classical iterative soft-thresholding update; a general
	// operator needs StepSize < 2/||A||^2 for guaranteed convergence.
	StepSize float64

	// Init selects the starting iterate.
	Init InitMode

	// X0 is the starting iterate for InitGiven. It is copied at the start
	// of the run and never mutated.
	X0 []float64

	// TrueX is an optional ground truth. When set, Result.MSE records the
	// normalized squared error of every iterate against it.
	TrueX []float64

	// Rand is the source for InitRandom. A nil source falls back to a
	// fixed seed so repeated runs agree.
	Rand *rand.Rand

	// Progress receives one line per iteration and a final summary when
	// non-nil. Reporting never changes the numerical results.
	Progress io.Writer
}

// DefaultOptions returns the solver defaults: stop on relative objective
// change below 0.01, at most 10000 and at least 5 update steps, unit step
// size, zero initialization, no progress output.
func DefaultOptions() Options {
	return Options{
		Criterion:     StopObjectiveChange,
		Tolerance:     0.01,
		MaxIterations: 10000,
		MinIterations: 5,
		StepSize:      1,
		Init:          InitZero,
	}
}
