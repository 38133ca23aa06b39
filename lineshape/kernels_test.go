package lineshape

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-mossbauer/internal/testutil"
)

func TestLorentzian(t *testing.T) {
	const (
		center = 0.3
		fwhm   = 0.25
		amp    = 0.8
	)

	testutil.RequireNearlyEqual(t, Lorentzian(center, center, fwhm, amp), amp, 1e-14)

	// Half maximum exactly one half-width from the center.
	testutil.RequireNearlyEqual(t, Lorentzian(center+fwhm/2, center, fwhm, amp), amp/2, 1e-14)
	testutil.RequireNearlyEqual(t, Lorentzian(center-fwhm/2, center, fwhm, amp), amp/2, 1e-14)

	// Symmetry.
	testutil.RequireNearlyEqual(t,
		Lorentzian(center+1.7, center, fwhm, amp),
		Lorentzian(center-1.7, center, fwhm, amp), 1e-14)
}

func TestGaussian(t *testing.T) {
	const (
		center = -0.4
		fwhm   = 0.3
		amp    = 1.2
	)

	testutil.RequireNearlyEqual(t, Gaussian(center, center, fwhm, amp), amp, 1e-14)
	testutil.RequireNearlyEqual(t, Gaussian(center+fwhm/2, center, fwhm, amp), amp/2, 1e-12)
	testutil.RequireNearlyEqual(t, Gaussian(center-fwhm/2, center, fwhm, amp), amp/2, 1e-12)

	// The Gaussian falls off much faster than the Lorentzian in the wings.
	if g, l := Gaussian(center+2, center, fwhm, amp), Lorentzian(center+2, center, fwhm, amp); g >= l {
		t.Fatalf("wing: Gaussian %g not below Lorentzian %g", g, l)
	}
}

func TestPseudoVoigtMixes(t *testing.T) {
	const (
		v      = 0.45
		center = 0.3
		fwhm   = 0.25
		amp    = 0.8
	)

	lor := Lorentzian(v, center, fwhm, amp)
	gau := Gaussian(v, center, fwhm, amp)

	testutil.RequireNearlyEqual(t, PseudoVoigt(v, center, fwhm, amp, 1), lor, 1e-14)
	testutil.RequireNearlyEqual(t, PseudoVoigt(v, center, fwhm, amp, 0), gau, 1e-14)
	testutil.RequireNearlyEqual(t, PseudoVoigt(v, center, fwhm, amp, 0.5), (lor+gau)/2, 1e-14)

	// Mixing fractions outside [0, 1] clamp.
	testutil.RequireNearlyEqual(t, PseudoVoigt(v, center, fwhm, amp, -0.5), gau, 1e-14)
	testutil.RequireNearlyEqual(t, PseudoVoigt(v, center, fwhm, amp, 1.5), lor, 1e-14)
}

func TestVoigtDegeneratesToLorentzian(t *testing.T) {
	const (
		center = 0.1
		fwhm   = 0.3
		amp    = 1.0
	)

	for _, v := range []float64{center, center + 0.1, center - 0.4, center + 2} {
		testutil.RequireNearlyEqual(t,
			Voigt(v, center, 0, fwhm, amp),
			Lorentzian(v, center, fwhm, amp), 1e-14)
	}

	// A tiny Gaussian width changes almost nothing.
	for _, v := range []float64{center, center + 0.2, center - 0.7} {
		got := Voigt(v, center, 0.01, fwhm, amp)
		want := Lorentzian(v, center, fwhm, amp)

		testutil.RequireNearlyEqual(t, got, want, 0.01)
	}
}

func TestVoigtPeakAndSymmetry(t *testing.T) {
	const (
		center = 0.3
		gauss  = 0.3
		lor    = 0.25
		amp    = 0.7
	)

	testutil.RequireNearlyEqual(t, Voigt(center, center, gauss, lor, amp), amp, 1e-9)

	for _, d := range []float64{0.1, 0.4, 1.3, 3.0} {
		testutil.RequireNearlyEqual(t,
			Voigt(center+d, center, gauss, lor, amp),
			Voigt(center-d, center, gauss, lor, amp), 1e-9)
	}
}

func TestVoigtHalfMaximumMatchesFWHM(t *testing.T) {
	const (
		center = 0.0
		gauss  = 0.3
		lor    = 0.3
		amp    = 1.0
	)

	half := VoigtFWHM(gauss, lor) / 2

	testutil.RequireNearlyEqual(t, Voigt(center+half, center, gauss, lor, amp), 0.5, 0.01)
	testutil.RequireNearlyEqual(t, Voigt(center-half, center, gauss, lor, amp), 0.5, 0.01)
}

func TestVoigtFWHMLimits(t *testing.T) {
	// Pure Lorentzian and pure Gaussian limits.
	testutil.RequireNearlyEqual(t, VoigtFWHM(0, 0.3), 0.3, 1e-3)
	testutil.RequireNearlyEqual(t, VoigtFWHM(0.3, 0), 0.3, 1e-12)

	// The combined width exceeds either component.
	if w := VoigtFWHM(0.3, 0.3); w <= 0.3 {
		t.Fatalf("combined width %g not above component widths", w)
	}
}

func TestFaddeevaReferenceValues(t *testing.T) {
	// w(0) = 1.
	testutil.RequireNearlyEqual(t, real(faddeeva(0)), 1, 1e-6)
	testutil.RequireNearlyEqual(t, imag(faddeeva(0)), 0, 1e-6)

	// w(i) = e·erfc(1).
	want := math.E * math.Erfc(1)
	testutil.RequireNearlyEqual(t, real(faddeeva(complex(0, 1))), want, 1e-3)

	// On the real axis Re w(x) = exp(−x²).
	for _, x := range []float64{0.3, 0.5, 0.8} {
		testutil.RequireNearlyEqual(t, real(faddeeva(complex(x, 0))), math.Exp(-x*x), 1e-3)
	}

	// Far up the imaginary axis w(iy) → 1/(y·√π).
	got := real(faddeeva(complex(0, 20)))
	asym := 1 / (20 * math.Sqrt(math.Pi))

	testutil.RequireNearlyEqual(t, got/asym, 1, 2e-3)
}

func TestKernelString(t *testing.T) {
	tests := []struct {
		kernel Kernel
		want   string
	}{
		{KernelLorentzian, "lorentzian"},
		{KernelVoigt, "voigt"},
		{KernelPseudoVoigt, "pseudo_voigt"},
		{Kernel(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kernel.String(); got != tt.want {
			t.Fatalf("Kernel(%d).String() = %q, want %q", tt.kernel, got, tt.want)
		}
	}
}
