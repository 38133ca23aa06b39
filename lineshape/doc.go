// Package lineshape provides the analytic absorption line profiles used in
// Mössbauer spectrum fitting and their composition into per-site models.
//
// All kernels share the (velocity, center, width, amplitude)
// parameterization where width is the full width at half maximum and
// amplitude is the peak height at the line center:
//
//   - [Lorentzian]:  natural absorption profile of the 14.4 keV transition
//   - [Gaussian]:    inhomogeneous broadening profile
//   - [PseudoVoigt]: η·Lorentzian + (1−η)·Gaussian with shared center/width
//   - [Voigt]:       true Lorentzian⊗Gaussian convolution via the Faddeeva
//     function (Humlíček four-region rational approximation)
//
// A [Site] composes one singlet or one symmetric 1:1 doublet whose line
// centers sit at isomer shift ∓ quadrupole splitting / 2 with equal widths.
// A [Model] sums all sites plus a constant offset.
package lineshape
