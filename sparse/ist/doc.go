// Package ist solves l1-regularized least-squares problems by iterative
// soft-thresholding.
//
// Given observations y, a linear operator A with adjoint At, and a
// regularization weight tau >= 0, Solve minimizes
//
//	0.5*||y - A(x)||^2 + tau*||x||_1
//
// by repeating the shrinkage update
//
//	x <- soft(x + step*At(y - A(x)), step*tau)
//
// where soft is the soft-threshold operator from the shrink package. The
// l1 penalty drives small coefficients to exactly zero, so the minimizer
// is sparse. Typical applications are compressed sensing, deconvolution,
// and denoising.
//
// # Usage
//
// Wrap the measurement model as an operator.Operator, then call Solve:
//
//	op, err := operator.NewConvolution(kernel, n)
//	if err != nil {
//		return err
//	}
//	res, err := ist.Solve(op, y, 0.1, ist.DefaultOptions())
//	if err != nil {
//		return err
//	}
//	fmt.Println(res.Stats.Iterations, res.Stats.Nonzeros)
//
// Options controls tolerance, iteration bounds, step size, initialization,
// and progress reporting. A run is deterministic for a given
// configuration; only InitRandom draws random numbers, and a nil
// Options.Rand pins those to a fixed seed.
//
// # Stopping
//
// Four stopping policies are available behind StopCriterion:
//
//   - StopObjectiveChange: relative change of the objective (the default)
//   - StopSupportChange: stability of the nonzero pattern
//   - StopObjectiveTarget: absolute objective threshold
//   - StopIterationBudget: run the full iteration budget
//
// Every policy waits out MinIterations update steps before it may stop the
// run and is capped by MaxIterations.
//
// # Traces
//
// Result carries one entry per iteration, starting with the evaluation of
// the initial iterate: the objective value, the cumulative elapsed time,
// and, when Options.TrueX is set, the mean squared error against the
// ground truth. Objective and time traces always have equal length; the
// MSE trace matches them when ground truth is present and is empty
// otherwise.
//
// # Choosing the step size
//
// The default step size 1 is the classical update and behaves well when
// the operator has roughly unit spectral norm (orthonormal measurements,
// masks, unit-sum kernels). Convergence theory wants
// step < 2/||A||^2 for a general operator; if the objective trace grows,
// lower StepSize.
package ist
