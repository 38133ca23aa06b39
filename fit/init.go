package fit

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-mossbauer/estimate"
	"github.com/cwbudde/algo-mossbauer/lineshape"
	"github.com/cwbudde/algo-mossbauer/spectrum"
)

// seedSite is one site's starting point derived from detected peaks.
type seedSite struct {
	isomerShift         float64
	quadrupoleSplitting float64
	lineWidth           float64
	amplitude           float64
	singlet             bool
	strength            float64 // for ordering, strongest first
}

// BuildProblem seeds a bounded least-squares problem from detected peak
// structure. nSites fixes the site count; overrides adjust named
// parameters; sigma is the per-point uncertainty (> 0).
//
// Construction fails with an error wrapping [ErrInvalidOptions] on
// conflicting bounds, unknown parameter names, an unsupported site count,
// or a model with no remaining degrees of freedom.
func BuildProblem(
	sp spectrum.Spectrum,
	kernel lineshape.Kernel,
	est estimate.Estimate,
	nSites int,
	overrides map[string]Override,
	sigma float64,
	cfg Config,
) (*Problem, error) {
	cfg = normalizeConfig(cfg)

	if nSites < 1 || nSites > estimate.MaxSites {
		return nil, fmt.Errorf("%w: n_sites %d outside [1, %d]",
			ErrInvalidOptions, nSites, estimate.MaxSites)
	}

	if sigma <= 0 || math.IsNaN(sigma) {
		return nil, fmt.Errorf("%w: point sigma must be positive", ErrInvalidOptions)
	}

	lo, hi := sp.Span()
	span := hi - lo
	rng := floats.Max(sp.Absorption) - floats.Min(sp.Absorption)

	seeds := seedSites(sp, est, nSites, cfg)

	prob := &Problem{
		Spectrum: sp,
		Kernel:   kernel,
		Sites:    nSites,
		Singlet:  make([]bool, nSites),
		Sigma:    sigma,
		Config:   cfg,
	}

	for k, s := range seeds {
		prob.Singlet[k] = s.singlet

		name := k + 1

		prob.params = append(prob.params,
			parameter{
				name:  SiteParamName(name, ParamIsomerShift),
				value: clamp(s.isomerShift, lo, hi),
				min:   lo,
				max:   hi,
			},
			parameter{
				name:  SiteParamName(name, ParamQuadrupoleSplitting),
				value: clamp(s.quadrupoleSplitting, 0, span),
				min:   0,
				max:   span,
				fixed: s.singlet, // a singlet has no splitting by definition
			},
			parameter{
				name:  SiteParamName(name, ParamLineWidth),
				value: clamp(s.lineWidth, cfg.MinLineWidth, cfg.MaxLineWidth),
				min:   cfg.MinLineWidth,
				max:   cfg.MaxLineWidth,
			},
			parameter{
				name:  SiteParamName(name, ParamAmplitude),
				value: clamp(s.amplitude, 0, cfg.AmplitudeCeiling*rng),
				min:   0,
				max:   cfg.AmplitudeCeiling * rng,
			},
		)
	}

	prob.params = append(prob.params, parameter{
		name:  ParamOffset,
		value: 0,
		min:   -rng,
		max:   rng,
	})

	switch kernel {
	case lineshape.KernelPseudoVoigt:
		prob.params = append(prob.params, parameter{
			name:  ParamEta,
			value: 0.5,
			min:   0,
			max:   1,
		})
	case lineshape.KernelVoigt:
		prob.params = append(prob.params, parameter{
			name:  ParamGaussWidth,
			value: cfg.DefaultLineWidth,
			min:   cfg.MinLineWidth,
			max:   cfg.MaxLineWidth,
		})
	}

	if err := applyOverrides(prob, overrides); err != nil {
		return nil, err
	}

	for i, prm := range prob.params {
		if !prm.fixed && prm.max > prm.min {
			prob.free = append(prob.free, i)
		}
	}

	if dof := sp.Len() - len(prob.free); dof <= 0 {
		return nil, fmt.Errorf("%w: %d data points for %d free parameters leaves no degrees of freedom",
			ErrInvalidOptions, sp.Len(), len(prob.free))
	}

	return prob, nil
}

// seedSites turns the detected peak structure into exactly nSites seeds:
// strongest detected doublets and singlets first, then synthetic doublets
// distributed evenly across the velocity range.
func seedSites(sp spectrum.Spectrum, est estimate.Estimate, nSites int, cfg Config) []seedSite {
	lo, hi := sp.Span()
	span := hi - lo
	rng := floats.Max(sp.Absorption) - floats.Min(sp.Absorption)

	var seeds []seedSite

	for _, d := range est.Doublets {
		left, right := d[0], d[1]

		width := (left.FWHM + right.FWHM) / 2
		if width <= 0 {
			width = cfg.DefaultLineWidth
		}

		seeds = append(seeds, seedSite{
			isomerShift:         (left.Velocity + right.Velocity) / 2,
			quadrupoleSplitting: math.Abs(right.Velocity - left.Velocity),
			lineWidth:           width,
			amplitude:           (left.Height + right.Height) / 2,
			strength:            left.Height + right.Height,
		})
	}

	for _, p := range est.Singlets {
		width := p.FWHM
		if width <= 0 {
			width = cfg.DefaultLineWidth
		}

		seeds = append(seeds, seedSite{
			isomerShift: p.Velocity,
			lineWidth:   width,
			amplitude:   p.Height,
			singlet:     true,
			strength:    p.Height,
		})
	}

	sort.SliceStable(seeds, func(i, j int) bool { return seeds[i].strength > seeds[j].strength })

	if len(seeds) > nSites {
		seeds = seeds[:nSites]
	}

	// Fill the remainder with evenly distributed synthetic doublets, the
	// same fallback the seeding uses when detection finds nothing at all.
	missing := nSites - len(seeds)
	for i := 0; i < missing; i++ {
		seeds = append(seeds, seedSite{
			isomerShift:         lo + (float64(i)+0.5)*span/float64(missing),
			quadrupoleSplitting: cfg.DefaultQuadrupoleSplitting,
			lineWidth:           cfg.DefaultLineWidth,
			amplitude:           rng / float64(2*nSites),
		})
	}

	return seeds
}

// applyOverrides merges caller-supplied parameter adjustments into the
// seeded problem.
func applyOverrides(prob *Problem, overrides map[string]Override) error {
	if len(overrides) == 0 {
		return nil
	}

	index := make(map[string]int, len(prob.params))
	for i, prm := range prob.params {
		index[prm.name] = i
	}

	for name, ov := range overrides {
		i, ok := index[name]
		if !ok {
			return fmt.Errorf("%w: unknown parameter %q", ErrInvalidOptions, name)
		}

		prm := &prob.params[i]

		if !math.IsNaN(ov.Min) {
			prm.min = ov.Min
		}

		if !math.IsNaN(ov.Max) {
			prm.max = ov.Max
		}

		if prm.min > prm.max {
			return fmt.Errorf("%w: parameter %q bounds [%g, %g] are inverted",
				ErrInvalidOptions, name, prm.min, prm.max)
		}

		if !math.IsNaN(ov.Value) {
			if ov.Value < prm.min || ov.Value > prm.max {
				return fmt.Errorf("%w: parameter %q seed %g outside bounds [%g, %g]",
					ErrInvalidOptions, name, ov.Value, prm.min, prm.max)
			}

			prm.value = ov.Value
		}

		if ov.Fixed {
			prm.fixed = true
		}
	}

	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
