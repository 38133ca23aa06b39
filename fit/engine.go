package fit

import (
	"context"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
	"github.com/maorshutman/lm"
	"gonum.org/v1/gonum/mat"
)

// Solution holds the optimized parameter state of one solve.
type Solution struct {
	// Names and Values list every model parameter in canonical order,
	// including fixed ones.
	Names  []string
	Values []float64

	// StdErr holds the covariance-derived standard error per parameter;
	// NaN for fixed parameters.
	StdErr []float64

	// ChiSquared is Σ(residual_i/σ)² at the optimum.
	ChiSquared float64

	// ReducedChiSquared is ChiSquared divided by the degrees of freedom.
	ReducedChiSquared float64

	NDataPoints      int
	NVariables       int // free fitted parameters
	DegreesOfFreedom int

	// Iterations is the number of LM iterations granted to the solver.
	Iterations int

	// Converged is false when the iteration budget ran out first.
	Converged bool
}

// Solve minimizes the weighted squared residuals of the problem with a
// chunked Levenberg–Marquardt driver. Cancellation is checked between
// iteration chunks, never inside one.
//
// On an exhausted iteration budget the best-effort solution is returned
// together with [ErrFitDidNotConverge]. A degenerate Jacobian at the
// optimum yields [ErrSingularJacobian] and no solution.
func Solve(ctx context.Context, prob *Problem) (*Solution, error) {
	cfg := prob.Config

	n := prob.Spectrum.Len()
	dim := prob.NFree()

	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1 / prob.Sigma
	}

	resFunc := func(dst, z []float64) {
		model := prob.Model(prob.merge(z))

		for i, v := range prob.Spectrum.Velocity {
			dst[i] = model.Eval(v) - prob.Spectrum.Absorption[i]
		}

		vecmath.MulBlockInPlace(dst, weights)
	}

	scratch := make([]float64, n)

	cost := func(z []float64) float64 {
		resFunc(scratch, z)

		var sum float64
		for _, r := range scratch {
			sum += r * r
		}

		return sum
	}

	z := prob.seedInternal()

	if dim == 0 {
		// Everything pinned: nothing to optimize, just report the state.
		return prob.assemble(z, nil, cost(z), 0, true), nil
	}

	nj := &lm.NumJac{Func: resFunc}

	prevCost := cost(z)
	converged := false
	iters := 0

	for iters < cfg.MaxIterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		chunk := cfg.ChunkIterations
		if rest := cfg.MaxIterations - iters; chunk > rest {
			chunk = rest
		}

		problem := lm.LMProblem{
			Dim:        dim,
			Size:       n,
			Func:       resFunc,
			Jac:        nj.Jac,
			InitParams: append([]float64(nil), z...),
			Tau:        cfg.Tau,
			Eps1:       cfg.Eps1,
			Eps2:       cfg.Eps2,
		}

		results, err := lm.LM(problem, &lm.Settings{Iterations: chunk, ObjectiveTol: 1e-16})
		if err != nil {
			return nil, fmt.Errorf("%w: %v (try reducing the site count)", ErrSingularJacobian, err)
		}

		z = results.X
		iters += chunk

		c := cost(z)
		if prevCost-c <= cfg.CostTol*(prevCost+1e-300) {
			converged = true
			prevCost = c

			break
		}

		prevCost = c
	}

	stderr, err := prob.internalStdErr(nj, z, prevCost, n, dim)
	if err != nil {
		return nil, err
	}

	sol := prob.assemble(z, stderr, prevCost, iters, converged)
	if !converged {
		return sol, fmt.Errorf("%w after %d iterations", ErrFitDidNotConverge, iters)
	}

	return sol, nil
}

// internalStdErr computes per-free-parameter standard errors in internal
// coordinates from the SVD of the weighted Jacobian at the solution,
// scaled by the reduced χ².
func (p *Problem) internalStdErr(nj *lm.NumJac, z []float64, chi2 float64, n, dim int) ([]float64, error) {
	jac := mat.NewDense(n, dim, nil)
	nj.Jac(jac, append([]float64(nil), z...))

	var svd mat.SVD
	if !svd.Factorize(jac, mat.SVDThin) {
		return nil, fmt.Errorf("%w: jacobian factorization failed (try reducing the site count)",
			ErrSingularJacobian)
	}

	s := svd.Values(nil)
	if len(s) == 0 || s[0] <= 0 || s[len(s)-1] < p.Config.SingularRatio*s[0] {
		return nil, fmt.Errorf("%w: condition ratio %.3g (try reducing the site count)",
			ErrSingularJacobian, conditionRatio(s))
	}

	var v mat.Dense
	svd.VTo(&v)

	dof := n - dim

	scale := 1.0
	if dof > 0 {
		scale = chi2 / float64(dof)
	}

	stderr := make([]float64, dim)

	for i := 0; i < dim; i++ {
		var diag float64
		for k := 0; k < dim; k++ {
			vik := v.At(i, k)
			diag += vik * vik / (s[k] * s[k])
		}

		stderr[i] = math.Sqrt(diag * scale)
	}

	return stderr, nil
}

// assemble maps the internal solver state back to external values and
// standard errors.
func (p *Problem) assemble(z, internalStdErr []float64, chi2 float64, iters int, converged bool) *Solution {
	values := p.merge(z)

	stderr := make([]float64, len(p.params))
	for i := range stderr {
		stderr[i] = math.NaN()
	}

	for i, idx := range p.free {
		if internalStdErr == nil {
			continue
		}

		prm := p.params[idx]
		stderr[idx] = internalStdErr[i] * externalDeriv(z[i], prm.min, prm.max)
	}

	n := p.Spectrum.Len()
	dim := p.NFree()
	dof := n - dim

	sol := &Solution{
		Names:            p.ParamNames(),
		Values:           values,
		StdErr:           stderr,
		ChiSquared:       chi2,
		NDataPoints:      n,
		NVariables:       dim,
		DegreesOfFreedom: dof,
		Iterations:       iters,
		Converged:        converged,
	}

	if dof > 0 {
		sol.ReducedChiSquared = chi2 / float64(dof)
	} else {
		sol.ReducedChiSquared = math.NaN()
	}

	return sol
}

// ParamValue returns the optimized value of the named parameter. The
// second return is false for unknown names.
func (s *Solution) ParamValue(name string) (float64, bool) {
	for i, n := range s.Names {
		if n == name {
			return s.Values[i], true
		}
	}

	return 0, false
}

// ParamStdErr returns the standard error of the named parameter, NaN for
// fixed parameters and unknown names.
func (s *Solution) ParamStdErr(name string) float64 {
	for i, n := range s.Names {
		if n == name {
			return s.StdErr[i]
		}
	}

	return math.NaN()
}

func conditionRatio(s []float64) float64 {
	if len(s) == 0 || s[0] <= 0 {
		return 0
	}

	return s[len(s)-1] / s[0]
}
