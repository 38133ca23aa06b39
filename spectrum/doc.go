// Package spectrum converts raw (velocity, signal) samples into a canonical
// absorption spectrum for ⁵⁷Fe Mössbauer analysis.
//
// Raw data arrives in several conventions: transmission near 1.0 with
// absorption dips, absorption near 0 with positive peaks, percent scales,
// or raw detector counts. [Normalize] sorts and validates the samples,
// rescales large-magnitude signals, optionally divides out a baseline
// estimated from the flat wings of the spectrum, and converts
// transmission-like input so that the result always has positive
// absorption peaks over a near-zero background.
//
// A normalized [Spectrum] is treated as immutable: no stage of the
// analysis pipeline modifies it after construction.
package spectrum
