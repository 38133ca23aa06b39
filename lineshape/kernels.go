package lineshape

import (
	"math"
	"math/cmplx"
)

// Kernel selects the analytic line profile. It is a closed set; there is no
// runtime registration of additional profiles.
type Kernel int

const (
	// KernelLorentzian is the pure Lorentzian profile.
	KernelLorentzian Kernel = iota
	// KernelVoigt is the Lorentzian⊗Gaussian convolution.
	KernelVoigt
	// KernelPseudoVoigt is the linear Lorentzian/Gaussian mixture.
	KernelPseudoVoigt
)

// String returns the canonical option tag for the kernel.
func (k Kernel) String() string {
	switch k {
	case KernelLorentzian:
		return "lorentzian"
	case KernelVoigt:
		return "voigt"
	case KernelPseudoVoigt:
		return "pseudo_voigt"
	default:
		return "unknown"
	}
}

// fourLn2 converts between FWHM and Gaussian exponent scaling.
const fourLn2 = 2.7725887222397812 // 4·ln 2

// Lorentzian evaluates a peak-normalized Lorentzian:
//
//	L(v) = amp · (fwhm/2)² / ((v−center)² + (fwhm/2)²)
func Lorentzian(v, center, fwhm, amp float64) float64 {
	hw := fwhm / 2
	d := v - center

	return amp * hw * hw / (d*d + hw*hw)
}

// Gaussian evaluates a peak-normalized Gaussian:
//
//	G(v) = amp · exp(−4·ln2·(v−center)²/fwhm²)
func Gaussian(v, center, fwhm, amp float64) float64 {
	d := v - center

	return amp * math.Exp(-fourLn2*d*d/(fwhm*fwhm))
}

// PseudoVoigt evaluates the mixture η·Lorentzian + (1−η)·Gaussian with
// shared center and width. eta is clamped to [0, 1].
func PseudoVoigt(v, center, fwhm, amp, eta float64) float64 {
	if eta < 0 {
		eta = 0
	} else if eta > 1 {
		eta = 1
	}

	return eta*Lorentzian(v, center, fwhm, amp) + (1-eta)*Gaussian(v, center, fwhm, amp)
}

// Voigt evaluates a peak-normalized Voigt profile, the convolution of a
// Lorentzian of width lorentzFWHM with a Gaussian of width gaussFWHM.
// The profile is scaled so that its value at the center equals amp.
//
// A vanishing Gaussian width degenerates to the pure Lorentzian.
func Voigt(v, center, gaussFWHM, lorentzFWHM, amp float64) float64 {
	if gaussFWHM <= 0 {
		return Lorentzian(v, center, lorentzFWHM, amp)
	}

	sqrtLn2 := math.Sqrt(math.Ln2)
	x := 2 * sqrtLn2 * (v - center) / gaussFWHM
	y := sqrtLn2 * lorentzFWHM / gaussFWHM

	peak := real(faddeeva(complex(0, y)))
	if peak <= 0 {
		return 0
	}

	return amp * real(faddeeva(complex(x, y))) / peak
}

// VoigtFWHM approximates the full width at half maximum of a Voigt profile
// from its Gaussian and Lorentzian component widths (Olivero–Longbothum,
// accurate to ~0.02%).
func VoigtFWHM(gaussFWHM, lorentzFWHM float64) float64 {
	return 0.5346*lorentzFWHM + math.Sqrt(0.2166*lorentzFWHM*lorentzFWHM+gaussFWHM*gaussFWHM)
}

// faddeeva computes w(z) = exp(−z²)·erfc(−iz) for Im(z) ≥ 0 using the
// Humlíček (1982) four-region rational approximation. Relative error stays
// below 1e-4 over the fitting domain, which is well inside the optimizer
// tolerances. Substituting a higher-order approximation only requires
// replacing this function.
func faddeeva(z complex128) complex128 {
	x := real(z)
	y := imag(z)

	t := complex(y, -x)
	s := math.Abs(x) + y

	switch {
	case s >= 15:
		// Region I: single-pole approximation.
		return t * 0.5641896 / (0.5 + t*t)

	case s >= 5.5:
		// Region II.
		u := t * t

		return t * (1.410474 + u*0.5641896) / (0.75 + u*(3+u))

	case y >= 0.195*math.Abs(x)-0.176:
		// Region III.
		return (16.4955 + t*(20.20933+t*(11.96482+t*(3.778987+t*0.5642236)))) /
			(16.4955 + t*(38.82363+t*(39.27121+t*(21.69274+t*(6.699398+t)))))

	default:
		// Region IV, close to the real axis.
		u := t * t
		num := 36183.31 - u*(3321.9905-u*(1540.787-u*(219.0313-u*(35.76683-u*(1.320522-u*0.56419)))))
		den := 32066.6 - u*(24322.84-u*(9022.228-u*(2186.181-u*(364.2191-u*(61.57037-u*(1.841439-u))))))

		return cmplx.Exp(u) - t*num/den
	}
}
