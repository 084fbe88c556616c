package operator

import (
	"errors"
	"fmt"
	"math/cmplx"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// Convolution errors.
var (
	ErrEmptyKernel = errors.New("operator: empty kernel")
)

// Convolution is the linear-convolution measurement model y = x * h for a
// fixed kernel h: the forward map blurs a length-n signal into the full
// convolution of length n+len(h)-1, and the adjoint is correlation with
// the kernel. Both directions share one FFT plan with a precomputed kernel
// spectrum.
//
// The internal scratch buffers make a Convolution unsafe for concurrent
// use; solvers call operators sequentially.
type Convolution struct {
	n          int
	k          int
	plan       *algofft.Plan[complex128]
	kernelFreq []complex128
	scratch    []complex128
	freq       []complex128
}

// NewConvolution builds the convolution operator for length-n inputs and
// the given kernel.
func NewConvolution(kernel []float64, n int) (*Convolution, error) {
	if len(kernel) == 0 {
		return nil, ErrEmptyKernel
	}
	if n <= 0 {
		return nil, ErrInvalidLength
	}

	k := len(kernel)
	fftSize := nextPowerOf2(n + k - 1)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("operator: failed to create FFT plan: %w", err)
	}

	kernelPadded := make([]complex128, fftSize)
	for i := range k {
		kernelPadded[i] = complex(kernel[i], 0)
	}

	kernelFreq := make([]complex128, fftSize)
	if err := plan.Forward(kernelFreq, kernelPadded); err != nil {
		return nil, fmt.Errorf("operator: forward FFT failed: %w", err)
	}

	return &Convolution{
		n:          n,
		k:          k,
		plan:       plan,
		kernelFreq: kernelFreq,
		scratch:    make([]complex128, fftSize),
		freq:       make([]complex128, fftSize),
	}, nil
}

// Forward convolves x with the kernel, writing the full linear convolution
// of length n+len(kernel)-1 into dst.
func (c *Convolution) Forward(dst, x []float64) {
	for i := range c.scratch {
		c.scratch[i] = 0
	}
	for i := range c.n {
		c.scratch[i] = complex(x[i], 0)
	}

	// The sized plan fails only on length mismatches, which the
	// preallocated buffers rule out.
	_ = c.plan.Forward(c.freq, c.scratch)
	for i := range c.freq {
		c.freq[i] *= c.kernelFreq[i]
	}
	_ = c.plan.Inverse(c.scratch, c.freq)

	for i := range dst {
		dst[i] = real(c.scratch[i])
	}
}

// Adjoint correlates y with the kernel, writing the length-n result into
// dst. Correlation is the transpose of the zero-padded convolution matrix.
func (c *Convolution) Adjoint(dst, y []float64) {
	m := c.n + c.k - 1

	for i := range c.scratch {
		c.scratch[i] = 0
	}
	for i := range m {
		c.scratch[i] = complex(y[i], 0)
	}

	_ = c.plan.Forward(c.freq, c.scratch)
	for i := range c.freq {
		c.freq[i] *= cmplx.Conj(c.kernelFreq[i])
	}
	_ = c.plan.Inverse(c.scratch, c.freq)

	for i := range dst {
		dst[i] = real(c.scratch[i])
	}
}

// Dims returns n+len(kernel)-1 measurements by n unknowns.
func (c *Convolution) Dims() (m, n int) {
	return c.n + c.k - 1, c.n
}

// nextPowerOf2 returns the next power of 2 >= n.
func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

// isPowerOf2 returns true if n is a power of 2.
func isPowerOf2(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
