package fit

import "errors"

// Errors returned by problem construction and solving.
var (
	// ErrInvalidOptions reports conflicting or out-of-range configuration,
	// surfaced before optimization starts.
	ErrInvalidOptions = errors.New("fit: invalid options")

	// ErrFitDidNotConverge reports an exhausted iteration budget. The
	// best-effort solution is still returned alongside it.
	ErrFitDidNotConverge = errors.New("fit: did not converge within iteration budget")

	// ErrSingularJacobian reports a structurally degenerate
	// parameterization, typically two sites collapsed onto the same
	// position. Reducing the site count usually resolves it.
	ErrSingularJacobian = errors.New("fit: singular jacobian")
)
