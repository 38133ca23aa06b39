package fit

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-mossbauer/lineshape"
	"github.com/cwbudde/algo-mossbauer/spectrum"
)

// Parameter names follow the site<k>_<quantity> convention, k starting
// at 1. Global parameters use bare names.
const (
	ParamIsomerShift         = "isomer_shift"
	ParamQuadrupoleSplitting = "quadrupole_splitting"
	ParamLineWidth           = "line_width"
	ParamAmplitude           = "amplitude"
	ParamOffset              = "offset"
	ParamEta                 = "eta"
	ParamGaussWidth          = "gauss_width"
)

// paramsPerSite is the number of lineshape parameters owned by one site.
const paramsPerSite = 4

// SiteParamName returns the canonical name of a per-site parameter, e.g.
// SiteParamName(1, ParamIsomerShift) == "site1_isomer_shift".
func SiteParamName(site int, quantity string) string {
	return fmt.Sprintf("site%d_%s", site, quantity)
}

// Override adjusts one named parameter before optimization. NaN fields
// keep the initializer's choice.
type Override struct {
	Value float64 // seed value; NaN keeps the initializer's seed
	Min   float64 // lower bound; NaN keeps the default bound
	Max   float64 // upper bound; NaN keeps the default bound
	Fixed bool    // pin the parameter at its seed value
}

// NewOverride returns an Override that changes nothing until fields are
// set.
func NewOverride() Override {
	return Override{Value: math.NaN(), Min: math.NaN(), Max: math.NaN()}
}

// parameter is one entry of the full parameter vector.
type parameter struct {
	name  string
	value float64 // external (physical) value
	min   float64
	max   float64
	fixed bool
}

// Problem is a fully seeded, bounded least-squares problem over one
// spectrum. Build it with [BuildProblem]; it is scoped to a single solve
// and never shared.
type Problem struct {
	Spectrum spectrum.Spectrum
	Kernel   lineshape.Kernel
	Sites    int
	Singlet  []bool // per-site singlet flags

	// Sigma is the per-point uncertainty used for residual weighting and
	// the χ² statistic.
	Sigma float64

	Config Config

	params []parameter
	free   []int // indices of non-fixed parameters
}

// NFree returns the number of free (fitted) parameters.
func (p *Problem) NFree() int { return len(p.free) }

// ParamNames returns the canonical names of all parameters in vector
// order.
func (p *Problem) ParamNames() []string {
	names := make([]string, len(p.params))
	for i, prm := range p.params {
		names[i] = prm.name
	}

	return names
}

// Model assembles the lineshape model for a full external parameter
// vector.
func (p *Problem) Model(values []float64) lineshape.Model {
	sites := make([]lineshape.Site, p.Sites)

	for k := 0; k < p.Sites; k++ {
		base := k * paramsPerSite
		sites[k] = lineshape.Site{
			IsomerShift:         values[base],
			QuadrupoleSplitting: values[base+1],
			LineWidth:           values[base+2],
			Amplitude:           values[base+3],
			Singlet:             p.Singlet[k],
		}
	}

	m := lineshape.Model{
		Kernel: p.Kernel,
		Sites:  sites,
		Offset: values[p.offsetIndex()],
	}

	switch p.Kernel {
	case lineshape.KernelPseudoVoigt:
		m.Eta = values[p.offsetIndex()+1]
	case lineshape.KernelVoigt:
		m.GaussWidth = values[p.offsetIndex()+1]
	}

	return m
}

func (p *Problem) offsetIndex() int { return p.Sites * paramsPerSite }

// seedValues returns the full external seed vector.
func (p *Problem) seedValues() []float64 {
	values := make([]float64, len(p.params))
	for i, prm := range p.params {
		values[i] = prm.value
	}

	return values
}

// merge overlays the free internal vector z onto the full external vector.
func (p *Problem) merge(z []float64) []float64 {
	values := p.seedValues()
	for i, idx := range p.free {
		values[idx] = toExternal(z[i], p.params[idx].min, p.params[idx].max)
	}

	return values
}

// seedInternal maps the free parameter seeds into unbounded space.
func (p *Problem) seedInternal() []float64 {
	z := make([]float64, len(p.free))
	for i, idx := range p.free {
		prm := p.params[idx]
		z[i] = toInternal(prm.value, prm.min, prm.max)
	}

	return z
}

// MINUIT-style sine transform between an unbounded internal variable z and
// an external value confined to [lo, hi]:
//
//	x = lo + (hi−lo)·(sin z + 1)/2

func toExternal(z, lo, hi float64) float64 {
	return lo + (hi-lo)*(math.Sin(z)+1)/2
}

func toInternal(x, lo, hi float64) float64 {
	// Keep the seed strictly inside the box so the transform has a
	// nonzero derivative at the starting point.
	span := hi - lo

	u := (x - lo) / span
	if u < 1e-6 {
		u = 1e-6
	} else if u > 1-1e-6 {
		u = 1 - 1e-6
	}

	return math.Asin(2*u - 1)
}

// externalDeriv is dx/dz, used to map internal standard errors back to
// physical units.
func externalDeriv(z, lo, hi float64) float64 {
	return (hi - lo) / 2 * math.Abs(math.Cos(z))
}
