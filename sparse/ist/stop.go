package ist

import "math"

// StopCriterion selects the rule deciding when iteration halts.
type StopCriterion int

const (
	// StopObjectiveChange stops once the relative change of the objective
	// between consecutive iterations is at most Tolerance.
	StopObjectiveChange StopCriterion = iota

	// StopSupportChange stops once the fraction of entries whose
	// zero/nonzero status changed between consecutive iterates is at most
	// Tolerance.
	StopSupportChange

	// StopObjectiveTarget stops once the objective itself is at most
	// Tolerance.
	StopObjectiveTarget

	// StopIterationBudget never stops early; the run uses the full
	// MaxIterations budget.
	StopIterationBudget
)

// converger evaluates the stopping rule. It carries the cross-iteration
// state the criteria need: the previous objective value and the previous
// support pattern.
type converger struct {
	criterion StopCriterion
	tolerance float64

	prevObjective float64
	prevSupport   []bool
}

func newConverger(criterion StopCriterion, tolerance float64, n int) *converger {
	return &converger{
		criterion:   criterion,
		tolerance:   tolerance,
		prevSupport: make([]bool, n),
	}
}

// init records the state of the starting iterate.
func (c *converger) init(objective float64, x []float64) {
	c.prevObjective = objective
	for i, v := range x {
		c.prevSupport[i] = v != 0
	}
}

// converged reports whether the stopping rule is satisfied by the new
// iterate and updates the carried state either way. Unknown criterion
// values behave like the default.
func (c *converger) converged(objective float64, x []float64) bool {
	var done bool

	switch c.criterion {
	case StopSupportChange:
		done = c.supportChange(x) <= c.tolerance
	case StopObjectiveTarget:
		done = objective <= c.tolerance
	case StopIterationBudget:
		done = false
	case StopObjectiveChange:
		done = relativeChange(objective, c.prevObjective) <= c.tolerance
	default:
		done = relativeChange(objective, c.prevObjective) <= c.tolerance
	}

	c.prevObjective = objective
	for i, v := range x {
		c.prevSupport[i] = v != 0
	}

	return done
}

// supportChange returns the fraction of entries whose zero/nonzero status
// differs from the previous iterate.
func (c *converger) supportChange(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	changed := 0
	for i, v := range x {
		if (v != 0) != c.prevSupport[i] {
			changed++
		}
	}

	return float64(changed) / float64(len(x))
}

// relativeChange returns |curr-prev|/prev. The objective is non-negative,
// so a previous value of zero means the minimum was already reached: the
// change is 0 when curr is also zero and +Inf otherwise. NaN is never
// produced.
func relativeChange(curr, prev float64) float64 {
	if prev == 0 {
		if curr == 0 {
			return 0
		}
		return math.Inf(1)
	}

	return math.Abs(curr-prev) / prev
}
