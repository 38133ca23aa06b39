package mossbauer

import (
	"errors"

	"github.com/cwbudde/algo-mossbauer/fit"
	"github.com/cwbudde/algo-mossbauer/spectrum"
)

// The analysis error taxonomy. Every failure returned by [Analyze] wraps
// exactly one of these; all of them are local to a single analysis and
// leave the engine ready for the next request.
var (
	// ErrInvalidSpectrum reports malformed or insufficient input data.
	ErrInvalidSpectrum = spectrum.ErrInvalidSpectrum

	// ErrInvalidOptions reports conflicting or out-of-range configuration,
	// raised before optimization starts.
	ErrInvalidOptions = fit.ErrInvalidOptions

	// ErrFitDidNotConverge reports an exhausted iteration budget. The
	// accompanying Outcome still holds the best-effort fit with
	// Result.Converged == false.
	ErrFitDidNotConverge = fit.ErrFitDidNotConverge

	// ErrSingularJacobian reports a structurally degenerate
	// parameterization; reducing the site count usually resolves it.
	ErrSingularJacobian = fit.ErrSingularJacobian

	// ErrFitTimeout reports that the caller's wall-clock budget expired
	// mid-analysis. No partial result accompanies it.
	ErrFitTimeout = errors.New("mossbauer: wall-clock budget exceeded")
)
