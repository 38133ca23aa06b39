// Package fit seeds and solves the constrained nonlinear least-squares
// problem behind a Mössbauer spectrum analysis.
//
// A [Problem] carries the normalized spectrum, the lineshape kernel, the
// per-site parameter seeds and box bounds produced by [BuildProblem], and
// the solver configuration. [Solve] minimizes the weighted sum of squared
// residuals with the Levenberg–Marquardt implementation from
// github.com/maorshutman/lm, driven in bounded chunks so that convergence
// and cancellation can be checked between iteration blocks.
//
// The solver is unconstrained, so every parameter is mapped through a
// MINUIT-style sine transform onto its finite box bounds; standard errors
// from the SVD-based covariance are mapped back through the transform
// derivative. Structural constraints — equal widths within a doublet and
// the fixed 1:1 doublet intensity ratio — are encoded in the
// parameterization itself rather than as penalty terms.
//
// Solving is deterministic: identical inputs produce identical results,
// with no randomized restarts.
package fit
