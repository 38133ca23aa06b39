// Package estimate infers the number of iron sites in a normalized
// Mössbauer spectrum from its peak structure.
//
// The estimator smooths the absorption curve, detects local maxima above a
// noise-adaptive threshold (the noise floor comes from the high-frequency
// band of the spectrum's FFT), pairs peaks of matching height into
// symmetric 1:1 doublets, and treats unpaired peaks as singlets. The
// estimated site count is doublets + singlets clamped to [1, MaxSites].
//
// Estimation never fails: when no structure is found it falls back to a
// single-doublet default, reported via [Estimate].Fallback.
//
// All detection thresholds are named configuration fields so estimator
// behavior is independently verifiable.
package estimate
