package mossbauer

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-mossbauer/estimate"
	"github.com/cwbudde/algo-mossbauer/fit"
	"github.com/cwbudde/algo-mossbauer/lineshape"
	"github.com/cwbudde/algo-mossbauer/spectrum"
)

// defaultOversample is the point count of the smooth display curve.
const defaultOversample = 1000

// Options collects the recognized analysis options.
type Options struct {
	// Model selects the lineshape kernel. Defaults to Lorentzian.
	Model lineshape.Kernel

	// Sites fixes the iron site count, bypassing estimation. Zero lets
	// the estimator decide.
	Sites int

	// BaselineCorrection enables the baseline normalization stage.
	BaselineCorrection bool

	// Baseline overrides the baseline estimator used when
	// BaselineCorrection is set.
	Baseline spectrum.BaselineFunc

	// CustomParams overrides seeds and bounds of named fit parameters.
	CustomParams map[string]fit.Override

	// PointSigma is the per-point uncertainty for residual weighting and
	// χ². Zero selects the spectrum's estimated noise level.
	PointSigma float64

	// Oversample is the point count of the smooth display fit curve.
	Oversample int

	// Fit and Estimate expose the stage configurations for callers that
	// need to tune thresholds or budgets.
	Fit      fit.Config
	Estimate estimate.Config
}

// Option mutates an Options value.
type Option func(*Options)

// DefaultOptions returns the analysis defaults.
func DefaultOptions() Options {
	return Options{
		Model:      lineshape.KernelLorentzian,
		Oversample: defaultOversample,
		Fit:        fit.DefaultConfig(),
		Estimate:   estimate.DefaultConfig(),
	}
}

// WithModel selects the lineshape kernel.
func WithModel(kernel lineshape.Kernel) Option {
	return func(o *Options) { o.Model = kernel }
}

// WithSites fixes the site count, bypassing estimation.
func WithSites(n int) Option {
	return func(o *Options) { o.Sites = n }
}

// WithBaselineCorrection enables baseline normalization.
func WithBaselineCorrection() Option {
	return func(o *Options) { o.BaselineCorrection = true }
}

// WithBaseline sets a custom baseline estimator and enables correction.
func WithBaseline(fn spectrum.BaselineFunc) Option {
	return func(o *Options) {
		o.BaselineCorrection = true
		o.Baseline = fn
	}
}

// WithCustomParam overrides the named fit parameter. See
// [fit.SiteParamName] for the naming convention.
func WithCustomParam(name string, ov fit.Override) Option {
	return func(o *Options) {
		if o.CustomParams == nil {
			o.CustomParams = make(map[string]fit.Override)
		}

		o.CustomParams[name] = ov
	}
}

// WithPointSigma sets the per-point uncertainty used for weighting and χ².
func WithPointSigma(sigma float64) Option {
	return func(o *Options) { o.PointSigma = sigma }
}

// WithOversample sets the point count of the smooth display curve.
func WithOversample(n int) Option {
	return func(o *Options) { o.Oversample = n }
}

// WithFitConfig replaces the solver configuration.
func WithFitConfig(cfg fit.Config) Option {
	return func(o *Options) { o.Fit = cfg }
}

// WithEstimateConfig replaces the estimator configuration.
func WithEstimateConfig(cfg estimate.Config) Option {
	return func(o *Options) { o.Estimate = cfg }
}

// ApplyOptions applies zero or more options to the defaults.
func ApplyOptions(opts ...Option) Options {
	o := DefaultOptions()

	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return o
}

// validate fails fast on conflicting or out-of-range configuration.
func (o Options) validate() error {
	if o.Sites < 0 || o.Sites > estimate.MaxSites {
		return fmt.Errorf("%w: n_sites %d outside [1, %d]",
			ErrInvalidOptions, o.Sites, estimate.MaxSites)
	}

	if o.PointSigma < 0 || math.IsNaN(o.PointSigma) {
		return fmt.Errorf("%w: point sigma must be non-negative", ErrInvalidOptions)
	}

	if o.Oversample < 0 {
		return fmt.Errorf("%w: oversample count must be non-negative", ErrInvalidOptions)
	}

	switch o.Model {
	case lineshape.KernelLorentzian, lineshape.KernelVoigt, lineshape.KernelPseudoVoigt:
	default:
		return fmt.Errorf("%w: unknown model kernel %d", ErrInvalidOptions, o.Model)
	}

	return nil
}

// ParseModel maps an option tag to its kernel: "lorentzian", "voigt" or
// "pseudo_voigt".
func ParseModel(tag string) (lineshape.Kernel, error) {
	switch tag {
	case "lorentzian", "":
		return lineshape.KernelLorentzian, nil
	case "voigt":
		return lineshape.KernelVoigt, nil
	case "pseudo_voigt":
		return lineshape.KernelPseudoVoigt, nil
	default:
		return 0, fmt.Errorf("%w: unknown model_type %q", ErrInvalidOptions, tag)
	}
}

// Pin returns an override that fixes a parameter at the given value.
func Pin(value float64) fit.Override {
	ov := fit.NewOverride()
	ov.Value = value
	ov.Fixed = true

	return ov
}

// Seed returns an override that only replaces a parameter's starting
// value.
func Seed(value float64) fit.Override {
	ov := fit.NewOverride()
	ov.Value = value

	return ov
}

// Bound returns an override that narrows a parameter's box bounds.
func Bound(minVal, maxVal float64) fit.Override {
	ov := fit.NewOverride()
	ov.Min = minVal
	ov.Max = maxVal

	return ov
}
