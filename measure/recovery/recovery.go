package recovery

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Errors returned by the recovery metrics.
var (
	ErrLengthMismatch    = errors.New("recovery: length mismatch")
	ErrEmptyInput        = errors.New("recovery: input is empty")
	ErrNegativeTolerance = errors.New("recovery: tolerance must be non-negative")
)

// MSE returns the mean squared error between a reconstruction and its
// reference.
func MSE(x, ref []float64) (float64, error) {
	if len(x) != len(ref) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(x), len(ref))
	}
	if len(x) == 0 {
		return 0, ErrEmptyInput
	}

	d := floats.Distance(x, ref, 2)

	return d * d / float64(len(x)), nil
}

// RelativeError returns ||x-ref|| / ||ref|| in the euclidean norm. A zero
// reference yields 0 for an exact match and +Inf otherwise.
func RelativeError(x, ref []float64) (float64, error) {
	if len(x) != len(ref) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(x), len(ref))
	}
	if len(x) == 0 {
		return 0, ErrEmptyInput
	}

	d := floats.Distance(x, ref, 2)
	norm := floats.Norm(ref, 2)

	if norm == 0 {
		if d == 0 {
			return 0, nil
		}
		return math.Inf(1), nil
	}

	return d / norm, nil
}

// SNR returns the signal-to-noise ratio in dB of a recovered signal
// against the reference, with the noise taken as ref-x.
//
// Mismatched or empty inputs yield -Inf; an exact match yields +Inf.
func SNR(ref, x []float64) float64 {
	if len(ref) != len(x) || len(ref) == 0 {
		return math.Inf(-1)
	}

	signal := floats.Dot(ref, ref)
	d := floats.Distance(ref, x, 2)
	noise := d * d

	if noise == 0 {
		return math.Inf(1)
	}

	return 10 * math.Log10(signal/noise)
}

// SupportMetrics describes how the active set of a reconstruction relates
// to the reference support.
type SupportMetrics struct {
	// TruePositives counts entries active in both signals.
	TruePositives int

	// FalsePositives counts entries active in the reconstruction only.
	FalsePositives int

	// FalseNegatives counts entries active in the reference only.
	FalseNegatives int

	// Precision is the fraction of recovered entries that are genuine.
	Precision float64

	// Recall is the fraction of reference entries that were recovered.
	Recall float64
}

// Support compares the active sets of a reconstruction and its reference.
// Entries with magnitude above tol count as active. When both supports
// are empty, Precision and Recall are 1; an empty denominator otherwise
// yields 0.
func Support(x, ref []float64, tol float64) (SupportMetrics, error) {
	if len(x) != len(ref) {
		return SupportMetrics{}, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(x), len(ref))
	}
	if tol < 0 {
		return SupportMetrics{}, fmt.Errorf("%w: %v", ErrNegativeTolerance, tol)
	}

	var m SupportMetrics
	for i := range x {
		got := math.Abs(x[i]) > tol
		want := math.Abs(ref[i]) > tol

		switch {
		case got && want:
			m.TruePositives++
		case got:
			m.FalsePositives++
		case want:
			m.FalseNegatives++
		}
	}

	detected := m.TruePositives + m.FalsePositives
	actual := m.TruePositives + m.FalseNegatives

	if detected == 0 && actual == 0 {
		m.Precision, m.Recall = 1, 1
		return m, nil
	}
	if detected > 0 {
		m.Precision = float64(m.TruePositives) / float64(detected)
	}
	if actual > 0 {
		m.Recall = float64(m.TruePositives) / float64(actual)
	}

	return m, nil
}
