package operator

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// Partial Fourier errors.
var (
	ErrNotPowerOfTwo       = errors.New("operator: transform length must be a power of two")
	ErrEmptyFrequencies    = errors.New("operator: no frequency indices given")
	ErrFrequencyOutOfRange = errors.New("operator: frequency index out of range")
)

// PartialFourier measures a length-n signal by a subset of its unitary DFT
// coefficients, the standard compressed-sensing acquisition model. Each
// selected bin contributes its real and imaginary part, so the measurement
// vector has length 2*len(freqs).
//
// Like Convolution, a PartialFourier holds scratch buffers and is not safe
// for concurrent use.
type PartialFourier struct {
	n       int
	freqs   []int
	plan    *algofft.Plan[complex128]
	scale   float64
	scratch []complex128
	freq    []complex128
}

// NewPartialFourier builds the operator selecting the given DFT bins of a
// length-n signal. n must be a power of two; bin indices must lie in
// [0, n). Duplicate bins are allowed and accumulate in the adjoint.
func NewPartialFourier(n int, freqs []int) (*PartialFourier, error) {
	if n <= 0 {
		return nil, ErrInvalidLength
	}
	if !isPowerOf2(n) {
		return nil, fmt.Errorf("%w: %d", ErrNotPowerOfTwo, n)
	}
	if len(freqs) == 0 {
		return nil, ErrEmptyFrequencies
	}
	for _, f := range freqs {
		if f < 0 || f >= n {
			return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrFrequencyOutOfRange, f, n)
		}
	}

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("operator: failed to create FFT plan: %w", err)
	}

	cf := make([]int, len(freqs))
	copy(cf, freqs)

	return &PartialFourier{
		n:       n,
		freqs:   cf,
		plan:    plan,
		scale:   1 / math.Sqrt(float64(n)),
		scratch: make([]complex128, n),
		freq:    make([]complex128, n),
	}, nil
}

// Forward computes the selected unitary-DFT coefficients of x, stacking
// real and imaginary parts pairwise into dst.
func (p *PartialFourier) Forward(dst, x []float64) {
	for i := range p.n {
		p.scratch[i] = complex(x[i], 0)
	}
	_ = p.plan.Forward(p.freq, p.scratch)

	for i, f := range p.freqs {
		dst[2*i] = real(p.freq[f]) * p.scale
		dst[2*i+1] = imag(p.freq[f]) * p.scale
	}
}

// Adjoint embeds the stacked coefficients at their bins, inverse
// transforms, and keeps the real part.
func (p *PartialFourier) Adjoint(dst, y []float64) {
	for i := range p.freq {
		p.freq[i] = 0
	}
	for i, f := range p.freqs {
		p.freq[f] += complex(y[2*i], y[2*i+1])
	}
	_ = p.plan.Inverse(p.scratch, p.freq)

	// Inverse carries a 1/n factor; the unitary adjoint needs 1/sqrt(n) in
	// total, so scale back up by sqrt(n).
	s := float64(p.n) * p.scale
	for i := range dst {
		dst[i] = real(p.scratch[i]) * s
	}
}

// Dims returns 2*len(freqs) measurements by n unknowns.
func (p *PartialFourier) Dims() (m, n int) {
	return 2 * len(p.freqs), p.n
}
