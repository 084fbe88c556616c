package testutil

import (
	"math"
	"math/rand"
)

// SparseSpikes generates a length-n signal with k random ±amplitude spikes
// and zeros elsewhere, using a fixed seed for reproducibility.
func SparseSpikes(seed int64, n, k int, amplitude float64) []float64 {
	out := make([]float64, n)
	rng := rand.New(rand.NewSource(seed))
	for _, pos := range rng.Perm(n)[:k] {
		if rng.Float64() < 0.5 {
			out[pos] = amplitude
		} else {
			out[pos] = -amplitude
		}
	}
	return out
}

// GaussianKernel generates a unit-sum Gaussian blur kernel centered on the
// middle tap.
func GaussianKernel(length int, sigma float64) []float64 {
	out := make([]float64, length)
	center := float64(length-1) / 2
	sum := 0.0
	for i := range out {
		d := (float64(i) - center) / sigma
		out[i] = math.Exp(-0.5 * d * d)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Ones returns a slice of length n filled with 1.0.
func Ones(n int) []float64 {
	return DC(1.0, n)
}
