package ist

import (
	"bytes"
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/cwbudde/algo-sparse/internal/testutil"
	"github.com/cwbudde/algo-sparse/sparse/operator"
	"github.com/cwbudde/algo-sparse/sparse/shrink"
)

// The identity problem y = [1 1 1 1], tau = 0.5 has the closed-form
// minimizer soft(y, tau) = [0.5 0.5 0.5 0.5], reached after a single
// update step and a fixed point of every later one.

func TestSolveIdentityFixedPoint(t *testing.T) {
	op := identityOp(t, 4)
	y := []float64{1, 1, 1, 1}

	opts := DefaultOptions()
	opts.Criterion = StopIterationBudget
	opts.MinIterations = 0

	for _, budget := range []int{1, 2, 10} {
		opts.MaxIterations = budget

		res, err := Solve(op, y, 0.5, opts)
		if err != nil {
			t.Fatalf("budget %d: unexpected error: %v", budget, err)
		}
		if len(res.X) != 4 {
			t.Fatalf("budget %d: iterate has length %d, want 4", budget, len(res.X))
		}
		testutil.RequireSliceNearlyEqual(t, res.X, []float64{0.5, 0.5, 0.5, 0.5}, 1e-12)
	}
}

func TestSolveIdentityStopsAtMinIterations(t *testing.T) {
	op := identityOp(t, 4)
	y := []float64{1, 1, 1, 1}

	res, err := Solve(op, y, 0.5, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The objective is stationary from the first update on, but the
	// stopping rule is honored only once MinIterations steps have run.
	if res.Stats.Iterations != 5 {
		t.Fatalf("Iterations = %d, want 5", res.Stats.Iterations)
	}
	if !res.Stats.Converged {
		t.Fatal("Converged = false, want true")
	}
	if len(res.Objective) != 6 {
		t.Fatalf("objective trace has %d entries, want 6", len(res.Objective))
	}
	if math.Abs(res.Objective[0]-2.0) > 1e-12 {
		t.Fatalf("initial objective = %v, want 2", res.Objective[0])
	}
	for i := 1; i < len(res.Objective); i++ {
		if math.Abs(res.Objective[i]-1.5) > 1e-12 {
			t.Fatalf("objective[%d] = %v, want 1.5", i, res.Objective[i])
		}
	}
}

func TestSolveZeroObservations(t *testing.T) {
	op := identityOp(t, 4)
	y := make([]float64, 4)

	res, err := Solve(op, y, 0.5, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Stats.Iterations != 5 {
		t.Fatalf("Iterations = %d, want 5", res.Stats.Iterations)
	}
	if !res.Stats.Converged {
		t.Fatal("Converged = false, want true")
	}
	for i, v := range res.X {
		if v != 0 {
			t.Fatalf("x[%d] = %v, want 0", i, v)
		}
	}
	for i, v := range res.Objective {
		if v != 0 {
			t.Fatalf("objective[%d] = %v, want 0", i, v)
		}
	}
}

func TestSolveIterationBudget(t *testing.T) {
	op := identityOp(t, 4)
	y := []float64{1, 1, 1, 1}

	opts := DefaultOptions()
	opts.Criterion = StopIterationBudget
	opts.MinIterations = 0
	opts.MaxIterations = 7

	res, err := Solve(op, y, 0.5, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Stats.Iterations != 7 {
		t.Fatalf("Iterations = %d, want 7", res.Stats.Iterations)
	}
	if res.Stats.Converged {
		t.Fatal("Converged = true, want false")
	}
	if len(res.Objective) != 8 || len(res.Times) != 8 {
		t.Fatalf("trace lengths %d/%d, want 8/8", len(res.Objective), len(res.Times))
	}
}

func TestSolveTraceShapes(t *testing.T) {
	op := identityOp(t, 4)
	y := []float64{1, 1, 1, 1}

	opts := DefaultOptions()
	opts.TrueX = []float64{0.5, 0.5, 0.5, 0.5}

	res, err := Solve(op, y, 0.5, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n := res.Stats.Iterations + 1
	if len(res.Objective) != n || len(res.Times) != n || len(res.MSE) != n {
		t.Fatalf("trace lengths %d/%d/%d, want %d each",
			len(res.Objective), len(res.Times), len(res.MSE), n)
	}
	for i := 1; i < len(res.Times); i++ {
		if res.Times[i] < res.Times[i-1] {
			t.Fatalf("cumulative times decrease at %d: %v after %v", i, res.Times[i], res.Times[i-1])
		}
	}
	testutil.RequireFinite(t, res.Objective)
	testutil.RequireFinite(t, res.MSE)
}

func TestSolveMSENormalization(t *testing.T) {
	op := identityOp(t, 4)
	y := []float64{1, 1, 1, 1}

	opts := DefaultOptions()
	opts.TrueX = []float64{0.5, 0.5, 0.5, 0.5}

	res, err := Solve(op, y, 0.5, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Zero start against truth [0.5 0.5 0.5 0.5]: 4*0.25/4 elements.
	if math.Abs(res.MSE[0]-0.25) > 1e-12 {
		t.Fatalf("initial MSE = %v, want 0.25", res.MSE[0])
	}
	if last := res.MSE[len(res.MSE)-1]; last > 1e-12 {
		t.Fatalf("final MSE = %v, want 0", last)
	}
}

func TestSolveObjectiveTargetCriterion(t *testing.T) {
	op := identityOp(t, 4)
	y := []float64{1, 1, 1, 1}

	opts := DefaultOptions()
	opts.Criterion = StopObjectiveTarget
	opts.Tolerance = 1.6
	opts.MinIterations = 0

	res, err := Solve(op, y, 0.5, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The first update already reaches objective 1.5 <= 1.6.
	if res.Stats.Iterations != 1 {
		t.Fatalf("Iterations = %d, want 1", res.Stats.Iterations)
	}
	if !res.Stats.Converged {
		t.Fatal("Converged = false, want true")
	}
}

func TestSolveSupportChangeCriterion(t *testing.T) {
	op := identityOp(t, 4)
	y := []float64{1, 1, 1, 1}

	opts := DefaultOptions()
	opts.Criterion = StopSupportChange
	opts.MinIterations = 0
	opts.MaxIterations = 100

	res, err := Solve(op, y, 0.5, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Step 1 flips every entry from zero to nonzero, step 2 changes
	// nothing.
	if res.Stats.Iterations != 2 {
		t.Fatalf("Iterations = %d, want 2", res.Stats.Iterations)
	}
	if !res.Stats.Converged {
		t.Fatal("Converged = false, want true")
	}
}

func TestSolveUnknownCriterionFallsBack(t *testing.T) {
	op := identityOp(t, 4)
	y := []float64{1, 1, 1, 1}

	opts := DefaultOptions()
	opts.Criterion = StopCriterion(42)

	res, err := Solve(op, y, 0.5, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Stats.Iterations != 5 {
		t.Fatalf("Iterations = %d, want 5", res.Stats.Iterations)
	}
	if !res.Stats.Converged {
		t.Fatal("Converged = false, want true")
	}
}

func TestSolveMinIterationsZeroAllowsEarlyStop(t *testing.T) {
	op := identityOp(t, 4)
	y := []float64{1, 1, 1, 1}

	opts := DefaultOptions()
	opts.MinIterations = 0

	res, err := Solve(op, y, 0.5, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Relative change is 0.25 after the first step and 0 after the
	// second, so without a minimum the run stops at two.
	if res.Stats.Iterations != 2 {
		t.Fatalf("Iterations = %d, want 2", res.Stats.Iterations)
	}
}

func TestSolveStepSizeScalesUpdate(t *testing.T) {
	op := identityOp(t, 4)
	y := []float64{1, 1, 1, 1}

	opts := DefaultOptions()
	opts.Criterion = StopIterationBudget
	opts.MinIterations = 0
	opts.MaxIterations = 1
	opts.StepSize = 0.5

	res, err := Solve(op, y, 0.5, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// One step of size 0.5 lands on 0.5 and shrinks by 0.5*0.5.
	testutil.RequireSliceNearlyEqual(t, res.X, []float64{0.25, 0.25, 0.25, 0.25}, 1e-12)
}

func TestSolveInitModes(t *testing.T) {
	op := identityOp(t, 4)
	y := []float64{1, 2, 3, 4}

	opts := DefaultOptions()
	opts.Criterion = StopIterationBudget
	opts.MinIterations = 0
	opts.MaxIterations = 1

	tests := []struct {
		name    string
		init    InitMode
		x0      []float64
		wantObj float64
	}{
		{name: "zero", init: InitZero, wantObj: 15},
		{name: "adjoint", init: InitAdjoint, wantObj: 5},
		{name: "given", init: InitGiven, x0: []float64{2, -2, 0, 1}, wantObj: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := opts
			o.Init = tt.init
			o.X0 = tt.x0

			res, err := Solve(op, y, 0.5, o)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(res.Objective[0]-tt.wantObj) > 1e-12 {
				t.Fatalf("initial objective = %v, want %v", res.Objective[0], tt.wantObj)
			}
		})
	}
}

func TestSolveRandomInitDeterministic(t *testing.T) {
	op := identityOp(t, 4)
	y := []float64{1, 2, 3, 4}

	opts := DefaultOptions()
	opts.Criterion = StopIterationBudget
	opts.MinIterations = 0
	opts.MaxIterations = 1
	opts.Init = InitRandom

	first, err := Solve(op, y, 0.5, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Solve(op, y, 0.5, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, first.Objective, second.Objective, 0)

	opts.Rand = rand.New(rand.NewSource(7))
	third, err := Solve(op, y, 0.5, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opts.Rand = rand.New(rand.NewSource(7))
	fourth, err := Solve(op, y, 0.5, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, third.Objective, fourth.Objective, 0)
}

func TestSolveGivenInitDoesNotMutateX0(t *testing.T) {
	op := identityOp(t, 4)
	y := []float64{1, 1, 1, 1}

	x0 := []float64{2, -2, 0, 1}
	orig := []float64{2, -2, 0, 1}

	opts := DefaultOptions()
	opts.Init = InitGiven
	opts.X0 = x0

	res, err := Solve(op, y, 0.5, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, x0, orig, 0)

	res.X[0] = 99
	testutil.RequireSliceNearlyEqual(t, x0, orig, 0)
}

func TestSolveValidationErrors(t *testing.T) {
	id := identityOp(t, 4)
	y := []float64{1, 1, 1, 1}

	tests := []struct {
		name    string
		op      operator.Operator
		y       []float64
		tau     float64
		mutate  func(*Options)
		wantErr error
	}{
		{
			name:    "nil operator",
			op:      nil,
			y:       y,
			wantErr: ErrNilOperator,
		},
		{
			name:    "observation length",
			op:      id,
			y:       []float64{1, 2, 3},
			wantErr: ErrLengthMismatch,
		},
		{
			name:    "negative tau",
			op:      id,
			y:       y,
			tau:     -0.1,
			wantErr: ErrNegativeTau,
		},
		{
			name:    "zero tolerance",
			op:      id,
			y:       y,
			mutate:  func(o *Options) { o.Tolerance = 0 },
			wantErr: ErrInvalidTolerance,
		},
		{
			name:    "negative min iterations",
			op:      id,
			y:       y,
			mutate:  func(o *Options) { o.MinIterations = -1 },
			wantErr: ErrInvalidIterations,
		},
		{
			name:    "zero max iterations",
			op:      id,
			y:       y,
			mutate:  func(o *Options) { o.MaxIterations = 0 },
			wantErr: ErrInvalidIterations,
		},
		{
			name:    "max below min",
			op:      id,
			y:       y,
			mutate:  func(o *Options) { o.MaxIterations = 3; o.MinIterations = 5 },
			wantErr: ErrInvalidIterations,
		},
		{
			name:    "zero step size",
			op:      id,
			y:       y,
			mutate:  func(o *Options) { o.StepSize = 0 },
			wantErr: ErrInvalidStepSize,
		},
		{
			name:    "given init without guess",
			op:      id,
			y:       y,
			mutate:  func(o *Options) { o.Init = InitGiven },
			wantErr: ErrMissingInitialGuess,
		},
		{
			name:    "unknown init mode",
			op:      id,
			y:       y,
			mutate:  func(o *Options) { o.Init = InitMode(42) },
			wantErr: ErrUnknownInit,
		},
		{
			name: "initial guess length",
			op:   id,
			y:    y,
			mutate: func(o *Options) {
				o.Init = InitGiven
				o.X0 = []float64{1, 2}
			},
			wantErr: ErrLengthMismatch,
		},
		{
			name:    "ground truth length",
			op:      id,
			y:       y,
			mutate:  func(o *Options) { o.TrueX = []float64{1, 2, 3, 4, 5} },
			wantErr: ErrLengthMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			if tt.mutate != nil {
				tt.mutate(&opts)
			}

			res, err := Solve(tt.op, tt.y, tt.tau, opts)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if res != nil {
				t.Fatal("result should be nil on validation error")
			}
		})
	}
}

func TestSolveProgressOutput(t *testing.T) {
	op := identityOp(t, 4)
	y := []float64{1, 1, 1, 1}

	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Progress = &buf

	res, err := Solve(op, y, 0.5, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	want := res.Stats.Iterations + 3
	if len(lines) != want {
		t.Fatalf("got %d progress lines, want %d:\n%s", len(lines), want, buf.String())
	}
	if lines[0] != "iter    0  obj 2.000000e+00  nonzeros 0" {
		t.Fatalf("unexpected first line: %q", lines[0])
	}
	if !strings.HasPrefix(lines[len(lines)-2], "done: 5 iterations") {
		t.Fatalf("unexpected summary line: %q", lines[len(lines)-2])
	}

	// Reporting must not perturb the numerical results.
	silent, err := Solve(op, y, 0.5, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, res.Objective, silent.Objective, 0)
}

func TestSolveSparseRecovery(t *testing.T) {
	const n = 64

	xTrue := testutil.SparseSpikes(3, n, 4, 1)
	kernel := testutil.GaussianKernel(9, 2.0)

	conv, err := operator.NewConvolution(kernel, n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m, _ := conv.Dims()
	y := make([]float64, m)
	conv.Forward(y, xTrue)

	opts := DefaultOptions()
	opts.Criterion = StopIterationBudget
	opts.MinIterations = 0
	opts.MaxIterations = 500
	opts.TrueX = xTrue

	res, err := Solve(conv, y, 0.01, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Stats.Iterations != 500 || res.Stats.Converged {
		t.Fatalf("Iterations = %d, Converged = %v, want 500 and false",
			res.Stats.Iterations, res.Stats.Converged)
	}

	testutil.RequireFinite(t, res.Objective)
	testutil.RequireFinite(t, res.MSE)

	// A unit-sum kernel keeps the operator norm at most 1, so the unit
	// step descends monotonically.
	for i := 1; i < len(res.Objective); i++ {
		if res.Objective[i] > res.Objective[i-1]+1e-9 {
			t.Fatalf("objective rises at %d: %v after %v", i, res.Objective[i], res.Objective[i-1])
		}
	}
	for i, v := range res.Objective {
		if v < 0 {
			t.Fatalf("objective[%d] = %v, want non-negative", i, v)
		}
	}

	if last := res.MSE[len(res.MSE)-1]; last >= res.MSE[0] {
		t.Fatalf("MSE did not improve: %v -> %v", res.MSE[0], last)
	}
}

func TestSolvePartialFourierRecovery(t *testing.T) {
	const n = 16

	xTrue := testutil.SparseSpikes(9, n, 3, 1)

	bins := make([]int, n)
	for i := range bins {
		bins[i] = i
	}
	pf, err := operator.NewPartialFourier(n, bins)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m, _ := pf.Dims()
	y := make([]float64, m)
	pf.Forward(y, xTrue)

	opts := DefaultOptions()
	opts.TrueX = xTrue

	// Measuring every bin makes the adjoint a left inverse, so the first
	// step lands on the soft-thresholded truth and stays there.
	const tau = 0.25
	res, err := Solve(pf, y, tau, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Stats.Iterations != 5 || !res.Stats.Converged {
		t.Fatalf("Iterations = %d, Converged = %v, want 5 and true",
			res.Stats.Iterations, res.Stats.Converged)
	}
	if got := res.Objective[0]; math.Abs(got-1.5) > 1e-9 {
		t.Fatalf("Objective[0] = %v, want 1.5", got)
	}
	if got := res.Stats.FinalObjective; math.Abs(got-0.65625) > 1e-9 {
		t.Fatalf("FinalObjective = %v, want 0.65625", got)
	}
	if got := res.MSE[len(res.MSE)-1]; math.Abs(got-0.01171875) > 1e-9 {
		t.Fatalf("final MSE = %v, want 0.01171875", got)
	}

	want := make([]float64, n)
	for i, v := range xTrue {
		want[i] = 0.75 * v
	}
	testutil.RequireSliceNearlyEqual(t, res.X, want, 1e-9)

	if res.Stats.Nonzeros != 3 {
		t.Fatalf("Nonzeros = %d, want 3", res.Stats.Nonzeros)
	}
}

func TestSolveStatsConsistency(t *testing.T) {
	const n = 32

	xTrue := testutil.SparseSpikes(5, n, 3, 2)
	kernel := testutil.GaussianKernel(7, 1.5)

	conv, err := operator.NewConvolution(kernel, n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m, _ := conv.Dims()
	y := make([]float64, m)
	conv.Forward(y, xTrue)

	const tau = 0.05
	res, err := Solve(conv, y, tau, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.Stats.Converged {
		t.Fatal("Converged = false, want true")
	}
	if res.Stats.Iterations >= DefaultOptions().MaxIterations {
		t.Fatalf("Iterations = %d, want fewer than the budget", res.Stats.Iterations)
	}
	if got := res.Objective[len(res.Objective)-1]; got != res.Stats.FinalObjective {
		t.Fatalf("FinalObjective = %v, trace ends at %v", res.Stats.FinalObjective, got)
	}

	assembled := 0.5*res.Stats.ResidualNorm*res.Stats.ResidualNorm + tau*res.Stats.L1Norm
	if math.Abs(assembled-res.Stats.FinalObjective) > 1e-9 {
		t.Fatalf("stats disagree with objective: %v vs %v", assembled, res.Stats.FinalObjective)
	}
	if got := shrink.Nonzeros(res.X); got != res.Stats.Nonzeros {
		t.Fatalf("Nonzeros = %d, iterate has %d", res.Stats.Nonzeros, got)
	}
	if res.Stats.Runtime <= 0 {
		t.Fatalf("Runtime = %v, want positive", res.Stats.Runtime)
	}
}

func identityOp(t *testing.T, n int) *operator.Identity {
	t.Helper()

	op, err := operator.NewIdentity(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return op
}
