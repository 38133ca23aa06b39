// Package mossbauer extracts hyperfine parameters (isomer shift,
// quadrupole splitting, line width, relative area) from a measured ⁵⁷Fe
// Mössbauer absorption spectrum by fitting a superposition of analytic
// lineshapes.
//
// The pipeline normalizes the raw samples, estimates the number of iron
// sites from the peak structure when the caller does not fix it, seeds a
// bounded least-squares problem, solves it with a Levenberg–Marquardt
// engine, and assembles the per-site result table with χ² statistics and
// plottable curves:
//
//	outcome, err := mossbauer.Analyze(samples,
//	    mossbauer.WithModel(lineshape.KernelLorentzian),
//	    mossbauer.WithSites(2),
//	)
//
// Every analysis is a self-contained, synchronous computation over
// immutable request-scoped data; concurrent analyses of different spectra
// are fully independent. [AnalyzeAll] runs a batch on a bounded worker
// pool. This package never logs; failures surface as typed errors
// (see [ErrInvalidSpectrum] and friends).
//
// This is not a general curve-fitting library: the model encodes
// Mössbauer-specific physics — symmetric 1:1 doublets, width equality
// within a doublet, relative areas normalized to 100%.
package mossbauer
