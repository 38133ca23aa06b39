package spectrum

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrInvalidSpectrum reports malformed or unfittable input data.
// All validation failures wrap this error.
var ErrInvalidSpectrum = errors.New("spectrum: invalid spectrum")

const (
	// MinPoints is the minimum number of samples required for fitting.
	MinPoints = 10

	// ScaleDetectionLimit separates fractional signals from percent or
	// raw-count scales. Signals whose maximum exceeds this limit are
	// rescaled toward unity.
	ScaleDetectionLimit = 10.0

	// ScaleQuantile is the quantile used as the off-resonance reference
	// level when rescaling. The 95th percentile sits on the flat
	// background for any spectrum whose absorption dips cover less than
	// half the velocity range.
	ScaleQuantile = 0.95

	// TransmissionThreshold classifies the sign convention: a mean
	// normalized signal above it means transmission-like data (dips),
	// below it absorption-like data (peaks).
	TransmissionThreshold = 0.5

	// WingFraction is the fraction of points taken from each end of the
	// velocity axis for the baseline wing fit.
	WingFraction = 0.15
)

// Sample is one raw (velocity, signal) measurement.
type Sample struct {
	Velocity float64 // mm/s
	Signal   float64 // transmission or absorption, any scale
}

// Spectrum is a normalized absorption spectrum: positive peaks over a
// near-zero background, velocities strictly increasing. Immutable once
// returned by [Normalize].
type Spectrum struct {
	Velocity   []float64 // mm/s, strictly increasing
	Absorption []float64 // dimensionless, peaks positive
}

// Len returns the number of points.
func (s Spectrum) Len() int { return len(s.Velocity) }

// Span returns the lowest and highest velocity.
func (s Spectrum) Span() (lo, hi float64) {
	if len(s.Velocity) == 0 {
		return 0, 0
	}

	return s.Velocity[0], s.Velocity[len(s.Velocity)-1]
}

// BaselineFunc estimates the baseline of a signal over the given velocity
// axis. It must return one baseline value per input point.
type BaselineFunc func(velocity, signal []float64) []float64

// Config controls normalization.
type Config struct {
	// BaselineCorrection enables the baseline division stage.
	BaselineCorrection bool

	// Baseline overrides the baseline estimator. Nil selects
	// [LinearWingBaseline].
	Baseline BaselineFunc
}

// Normalize converts raw samples into a canonical absorption spectrum.
//
// It fails with an error wrapping [ErrInvalidSpectrum] when the input has
// fewer than [MinPoints] samples, contains NaN or Inf values, has duplicate
// velocities, or carries a constant (unfittable) signal.
func Normalize(samples []Sample, cfg Config) (Spectrum, error) {
	if len(samples) < MinPoints {
		return Spectrum{}, fmt.Errorf("%w: %d points, need at least %d",
			ErrInvalidSpectrum, len(samples), MinPoints)
	}

	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Velocity < sorted[j].Velocity })

	velocity := make([]float64, len(sorted))
	signal := make([]float64, len(sorted))

	for i, s := range sorted {
		if !isFinite(s.Velocity) || !isFinite(s.Signal) {
			return Spectrum{}, fmt.Errorf("%w: non-finite value at point %d",
				ErrInvalidSpectrum, i)
		}

		velocity[i] = s.Velocity
		signal[i] = s.Signal
	}

	for i := 1; i < len(velocity); i++ {
		if velocity[i] == velocity[i-1] {
			return Spectrum{}, fmt.Errorf("%w: duplicate velocity %g",
				ErrInvalidSpectrum, velocity[i])
		}
	}

	if floats.Max(signal)-floats.Min(signal) == 0 {
		return Spectrum{}, fmt.Errorf("%w: constant signal", ErrInvalidSpectrum)
	}

	rescale(signal)

	if cfg.BaselineCorrection {
		estimate := cfg.Baseline
		if estimate == nil {
			estimate = LinearWingBaseline
		}

		if err := divideBaseline(signal, estimate(velocity, signal)); err != nil {
			return Spectrum{}, err
		}
	}

	absorption := toAbsorption(signal)

	if floats.Max(absorption)-floats.Min(absorption) == 0 {
		return Spectrum{}, fmt.Errorf("%w: constant signal after normalization",
			ErrInvalidSpectrum)
	}

	return Spectrum{Velocity: velocity, Absorption: absorption}, nil
}

// rescale divides percent- or count-scaled signals by their off-resonance
// reference level so that the background sits near 1.
func rescale(signal []float64) {
	if floats.Max(signal) <= ScaleDetectionLimit {
		return
	}

	ref := quantile(signal, ScaleQuantile)
	if ref <= 0 {
		ref = floats.Max(signal)
	}

	floats.Scale(1/ref, signal)
}

// toAbsorption converts transmission-like data (background near 1, dips at
// resonance) into absorption (background near 0, positive peaks).
// Absorption-like input passes through unchanged; any residual constant
// offset is absorbed by the fit model's offset term.
func toAbsorption(signal []float64) []float64 {
	out := make([]float64, len(signal))

	if stat.Mean(signal, nil) > TransmissionThreshold {
		ref := quantile(signal, ScaleQuantile)
		for i, v := range signal {
			out[i] = ref - v
		}

		return out
	}

	copy(out, signal)

	return out
}

// LinearWingBaseline fits a least-squares line through the outer
// [WingFraction] of points on each velocity wing. The wings sit away from
// the strongest absorption for any centered resonance structure, so the
// line tracks source-geometry drift without following the peaks.
func LinearWingBaseline(velocity, signal []float64) []float64 {
	n := len(velocity)

	k := int(math.Round(WingFraction * float64(n)))
	if k < 2 {
		k = 2
	}

	if 2*k > n {
		k = n / 2
	}

	wingV := make([]float64, 0, 2*k)
	wingS := make([]float64, 0, 2*k)
	wingV = append(wingV, velocity[:k]...)
	wingV = append(wingV, velocity[n-k:]...)
	wingS = append(wingS, signal[:k]...)
	wingS = append(wingS, signal[n-k:]...)

	alpha, beta := stat.LinearRegression(wingV, wingS, nil, false)

	baseline := make([]float64, n)
	for i, v := range velocity {
		baseline[i] = alpha + beta*v
	}

	return baseline
}

// divideBaseline normalizes the signal by the baseline estimate in place.
func divideBaseline(signal, baseline []float64) error {
	if len(baseline) != len(signal) {
		return fmt.Errorf("%w: baseline length %d does not match %d points",
			ErrInvalidSpectrum, len(baseline), len(signal))
	}

	for i, b := range baseline {
		if b <= 0 || !isFinite(b) {
			return fmt.Errorf("%w: non-positive baseline at point %d",
				ErrInvalidSpectrum, i)
		}

		signal[i] /= b
	}

	return nil
}

// quantile returns the empirical q-quantile of data without modifying it.
func quantile(data []float64, q float64) float64 {
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	return stat.Quantile(q, stat.Empirical, sorted, nil)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
