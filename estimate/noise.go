package estimate

import (
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/stat"
)

// NoiseSigma estimates the standard deviation of the point noise in a
// signal from the mean power of the top-quarter frequency band of its FFT.
// The resonance structure is smooth and concentrates at low frequencies,
// so the high band is essentially pure noise.
func NoiseSigma(signal []float64) float64 {
	n := len(signal)
	if n < 8 {
		return diffSigma(signal)
	}

	fftSize := nextPowerOf2(n)

	mean := stat.Mean(signal, nil)

	in := make([]complex128, fftSize)
	for i, v := range signal {
		in[i] = complex(v-mean, 0)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return diffSigma(signal)
	}

	out := make([]complex128, fftSize)
	if err := plan.Forward(out, in); err != nil {
		return diffSigma(signal)
	}

	// Non-negative frequency bins only.
	binCount := fftSize/2 + 1

	re := make([]float64, binCount)
	im := make([]float64, binCount)

	for i := 0; i < binCount; i++ {
		re[i] = real(out[i])
		im[i] = imag(out[i])
	}

	mag := make([]float64, binCount)
	vecmath.Magnitude(mag, re, im)

	lo := 3 * binCount / 4
	if lo >= binCount-1 {
		return diffSigma(signal)
	}

	var power float64
	for _, m := range mag[lo:] {
		power += m * m
	}

	power /= float64(binCount - lo)

	// For white noise of variance σ², E|X_k|² = n·σ² per bin regardless of
	// zero padding.
	sigma := math.Sqrt(power / float64(n))
	if sigma <= 0 || math.IsNaN(sigma) {
		return diffSigma(signal)
	}

	return sigma
}

// diffSigma estimates noise from successive differences, which cancel the
// smooth resonance structure: Var(x[i+1]−x[i]) = 2σ² for white noise.
func diffSigma(signal []float64) float64 {
	if len(signal) < 2 {
		return 0
	}

	diffs := make([]float64, len(signal)-1)
	for i := range diffs {
		diffs[i] = signal[i+1] - signal[i]
	}

	return stat.StdDev(diffs, nil) / math.Sqrt2
}

func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}

	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
