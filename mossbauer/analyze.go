package mossbauer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cwbudde/algo-mossbauer/estimate"
	"github.com/cwbudde/algo-mossbauer/fit"
	"github.com/cwbudde/algo-mossbauer/lineshape"
	"github.com/cwbudde/algo-mossbauer/spectrum"
)

// minPointSigma floors the estimated noise so weighting never divides by
// zero on synthetic noise-free spectra.
const minPointSigma = 1e-12

// Analyze fits a superposition of analytic lineshapes to the measured
// spectrum and extracts the hyperfine parameters per iron site.
//
// It is a pure function of its inputs: no state survives between calls,
// and concurrent analyses of different spectra are fully independent.
func Analyze(samples []spectrum.Sample, opts ...Option) (*Outcome, error) {
	return AnalyzeContext(context.Background(), samples, opts...)
}

// AnalyzeContext is [Analyze] with best-effort cancellation: the context
// is checked between pipeline stages and between optimizer iteration
// chunks, never inside one. A context whose deadline expired maps to
// [ErrFitTimeout]; plain cancellation propagates the context error.
//
// When the optimizer exhausts its iteration budget the returned error
// wraps [ErrFitDidNotConverge] and the Outcome still carries the
// best-effort fit, flagged with Result.Converged == false.
func AnalyzeContext(ctx context.Context, samples []spectrum.Sample, opts ...Option) (*Outcome, error) {
	o := ApplyOptions(opts...)

	if err := o.validate(); err != nil {
		return nil, err
	}

	sp, err := spectrum.Normalize(samples, spectrum.Config{
		BaselineCorrection: o.BaselineCorrection,
		Baseline:           o.Baseline,
	})
	if err != nil {
		return nil, err
	}

	if err := stageErr(ctx); err != nil {
		return nil, err
	}

	est := estimate.Analyze(sp, o.Estimate)

	nSites := o.Sites

	estimated := false
	if nSites == 0 {
		nSites = est.Sites
		estimated = true
	}

	sigma := o.PointSigma
	if sigma == 0 {
		sigma = est.NoiseSigma
		if sigma < minPointSigma {
			sigma = minPointSigma
		}
	}

	if err := stageErr(ctx); err != nil {
		return nil, err
	}

	prob, err := fit.BuildProblem(sp, o.Model, est, nSites, o.CustomParams, sigma, o.Fit)
	if err != nil {
		return nil, err
	}

	sol, solveErr := fit.Solve(ctx, prob)
	if solveErr != nil && !errors.Is(solveErr, ErrFitDidNotConverge) {
		return nil, mapContextErr(solveErr)
	}

	outcome := assembleOutcome(sp, prob, sol, o, estimated, sigma)

	return outcome, solveErr
}

// stageErr checks for cancellation at a pipeline stage boundary.
func stageErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return mapContextErr(err)
	}

	return nil
}

// mapContextErr translates a deadline expiry into the timeout taxonomy;
// plain cancellation passes through.
func mapContextErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrFitTimeout, err)
	}

	return err
}

// assembleOutcome converts optimizer state into the public result model.
func assembleOutcome(
	sp spectrum.Spectrum,
	prob *fit.Problem,
	sol *fit.Solution,
	o Options,
	estimated bool,
	sigma float64,
) *Outcome {
	model := prob.Model(sol.Values)

	fitted := model.Curve(sp.Velocity)

	residuals := make([]float64, sp.Len())
	for i := range residuals {
		residuals[i] = sp.Absorption[i] - fitted[i]
	}

	nSites := len(model.Sites)

	components := make([][]float64, nSites)
	areas := make([]float64, nSites)

	var totalArea float64

	for i := 0; i < nSites; i++ {
		components[i] = model.SiteCurve(i, sp.Velocity)
		areas[i] = integrate.Trapezoidal(sp.Velocity, components[i])
		totalArea += areas[i]
	}

	sites := make([]Site, nSites)

	for i, ms := range model.Sites {
		relative := 100.0 / float64(nSites)
		if totalArea > 0 {
			relative = 100 * areas[i] / totalArea
		}

		width := ms.LineWidth
		if model.Kernel == lineshape.KernelVoigt {
			width = lineshape.VoigtFWHM(model.GaussWidth, ms.LineWidth)
		}

		sites[i] = Site{
			IsomerShift:               ms.IsomerShift,
			IsomerShiftStdErr:         finiteOrZero(sol.ParamStdErr(fit.SiteParamName(i+1, fit.ParamIsomerShift))),
			QuadrupoleSplitting:       ms.QuadrupoleSplitting,
			QuadrupoleSplittingStdErr: finiteOrZero(sol.ParamStdErr(fit.SiteParamName(i+1, fit.ParamQuadrupoleSplitting))),
			LineWidth:                 width,
			LineWidthStdErr:           finiteOrZero(sol.ParamStdErr(fit.SiteParamName(i+1, fit.ParamLineWidth))),
			RelativeArea:              relative,
			SiteType:                  ClassifySite(ms.IsomerShift, ms.QuadrupoleSplitting),
			Singlet:                   ms.Singlet,
		}
	}

	// Present strongest sites first; keep component curves aligned.
	order := make([]int, nSites)
	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		return sites[order[a]].RelativeArea > sites[order[b]].RelativeArea
	})

	sortedSites := make([]Site, nSites)
	sortedComponents := make([][]float64, nSites)

	for i, idx := range order {
		sortedSites[i] = sites[idx]
		sortedComponents[i] = components[idx]
	}

	curves := Curves{
		Velocity:   sp.Velocity,
		Observed:   sp.Absorption,
		Fitted:     fitted,
		Residuals:  residuals,
		Components: sortedComponents,
	}

	if o.Oversample >= 2 {
		curves.SmoothVelocity = linspace(sp.Velocity[0], sp.Velocity[sp.Len()-1], o.Oversample)
		curves.SmoothFitted = model.Curve(curves.SmoothVelocity)
	}

	result := FitResult{
		ChiSquared:        sol.ChiSquared,
		ReducedChiSquared: sol.ReducedChiSquared,
		NDataPoints:       sol.NDataPoints,
		NVariables:        sol.NVariables,
		ModelType:         model.Kernel.String(),
		Converged:         sol.Converged,
		EstimatedSites:    estimated,
		PointSigma:        sigma,
		Sites:             sortedSites,
	}

	if sol.DegreesOfFreedom > 0 {
		dist := distuv.ChiSquared{K: float64(sol.DegreesOfFreedom)}
		result.PValue = dist.Survival(sol.ChiSquared)
	}

	return &Outcome{Result: result, Curves: curves}
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	return v
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)

	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}

	return out
}
