package estimate

import (
	"math"
	"sort"

	"github.com/cwbudde/algo-mossbauer/spectrum"
)

const (
	// MaxSites is the largest number of iron sites the pipeline supports.
	MaxSites = 6

	// defaultNoiseMultiplier scales the noise floor into a peak-height
	// threshold.
	defaultNoiseMultiplier = 5.0

	// defaultSymmetryTolerance is the velocity window (mm/s) within which
	// a candidate pair's height-weighted center must agree with its
	// geometric midpoint to count as a symmetric 1:1 doublet.
	defaultSymmetryTolerance = 0.5

	// defaultMaxSplitting is the largest doublet separation (mm/s)
	// considered during pairing; quadrupole splittings beyond it do not
	// occur for ⁵⁷Fe.
	defaultMaxSplitting = 4.0

	// separationWeight biases ambiguous pairings toward the tighter
	// pair, implementing the nearest-neighbor tie-break.
	separationWeight = 0.1

	// defaultMinSeparationDiv sets the minimum peak separation to
	// len(points)/div, matching the structure density of typical
	// velocity scans.
	defaultMinSeparationDiv = 20

	// defaultSmoothSigmaDiv sets the Gaussian smoothing radius to
	// len(points)/div points.
	defaultSmoothSigmaDiv = 100
)

// Config holds the peak-detection and pairing thresholds.
type Config struct {
	// NoiseMultiplier k: peaks must rise above k·σ of the high-frequency
	// noise floor.
	NoiseMultiplier float64

	// SymmetryTolerance is the doublet pairing window in mm/s.
	SymmetryTolerance float64

	// MaxSplitting is the largest doublet separation considered (mm/s).
	MaxSplitting float64

	// MinSeparationDiv: two accepted peaks are at least
	// len(points)/MinSeparationDiv samples apart.
	MinSeparationDiv int

	// SmoothSigmaDiv: the smoothing kernel sigma is
	// len(points)/SmoothSigmaDiv samples.
	SmoothSigmaDiv int

	// MaxSites caps the estimated site count. Defaults to [MaxSites].
	MaxSites int
}

// DefaultConfig returns the estimator defaults.
func DefaultConfig() Config {
	return Config{
		NoiseMultiplier:   defaultNoiseMultiplier,
		SymmetryTolerance: defaultSymmetryTolerance,
		MaxSplitting:      defaultMaxSplitting,
		MinSeparationDiv:  defaultMinSeparationDiv,
		SmoothSigmaDiv:    defaultSmoothSigmaDiv,
		MaxSites:          MaxSites,
	}
}

func normalizeConfig(cfg Config) Config {
	def := DefaultConfig()

	if cfg.NoiseMultiplier <= 0 {
		cfg.NoiseMultiplier = def.NoiseMultiplier
	}

	if cfg.SymmetryTolerance <= 0 {
		cfg.SymmetryTolerance = def.SymmetryTolerance
	}

	if cfg.MaxSplitting <= 0 {
		cfg.MaxSplitting = def.MaxSplitting
	}

	if cfg.MinSeparationDiv <= 0 {
		cfg.MinSeparationDiv = def.MinSeparationDiv
	}

	if cfg.SmoothSigmaDiv <= 0 {
		cfg.SmoothSigmaDiv = def.SmoothSigmaDiv
	}

	if cfg.MaxSites <= 0 || cfg.MaxSites > MaxSites {
		cfg.MaxSites = MaxSites
	}

	return cfg
}

// Peak is one detected absorption maximum.
type Peak struct {
	Index    int     // sample index into the spectrum
	Velocity float64 // mm/s
	Height   float64 // absorption at the maximum
	FWHM     float64 // full width at half maximum, mm/s (0 if indeterminate)
}

// Estimate is the result of site-count estimation.
type Estimate struct {
	// Sites is the estimated site count, always in [1, MaxSites].
	Sites int

	// Doublets holds peak pairs assigned as symmetric doublets, each
	// ordered (low-velocity line, high-velocity line).
	Doublets [][2]Peak

	// Singlets holds peaks without a symmetric partner.
	Singlets []Peak

	// Peaks lists every detected peak ordered by velocity.
	Peaks []Peak

	// NoiseSigma is the estimated per-point noise.
	NoiseSigma float64

	// Threshold is the peak-height threshold that was applied.
	Threshold float64

	// Fallback is true when no peak structure was found and the count
	// defaulted to a single site.
	Fallback bool
}

// Analyze estimates the number of iron sites in a normalized spectrum.
// It never fails; with no detectable structure it falls back to one site.
func Analyze(sp spectrum.Spectrum, cfg Config) Estimate {
	cfg = normalizeConfig(cfg)

	n := sp.Len()
	if n == 0 {
		return Estimate{Sites: 1, Fallback: true}
	}

	sigma := NoiseSigma(sp.Absorption)
	threshold := cfg.NoiseMultiplier * sigma

	smoothSigma := float64(n) / float64(cfg.SmoothSigmaDiv)
	smoothed := GaussianSmooth(sp.Absorption, smoothSigma)

	peaks := DetectPeaks(sp, smoothed, threshold, n/cfg.MinSeparationDiv)

	est := Estimate{
		Peaks:      peaks,
		NoiseSigma: sigma,
		Threshold:  threshold,
	}

	if len(peaks) == 0 {
		est.Sites = 1
		est.Fallback = true

		return est
	}

	est.Doublets, est.Singlets = PairDoublets(peaks, cfg.SymmetryTolerance, cfg.MaxSplitting)

	count := len(est.Doublets) + len(est.Singlets)
	if count < 1 {
		count = 1
		est.Fallback = true
	}

	if count > cfg.MaxSites {
		count = cfg.MaxSites
	}

	est.Sites = count

	return est
}

// GaussianSmooth convolves the signal with a truncated Gaussian kernel of
// the given sigma (in samples). Sigma below one sample returns a copy.
func GaussianSmooth(signal []float64, sigma float64) []float64 {
	out := make([]float64, len(signal))

	if sigma < 1 {
		copy(out, signal)

		return out
	}

	radius := int(math.Ceil(3 * sigma))

	kernel := make([]float64, 2*radius+1)

	var sum float64
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += kernel[i]
	}

	for i := range kernel {
		kernel[i] /= sum
	}

	for i := range signal {
		var acc, used float64

		for j, k := range kernel {
			idx := i + j - radius
			if idx < 0 || idx >= len(signal) {
				continue
			}

			acc += k * signal[idx]
			used += k
		}

		out[i] = acc / used
	}

	return out
}

// DetectPeaks finds local maxima of the smoothed curve that rise above the
// threshold, keeping the highest peak within every minSeparation-sample
// window. Peak heights and widths are read from the original spectrum.
func DetectPeaks(sp spectrum.Spectrum, smoothed []float64, threshold float64, minSeparation int) []Peak {
	if minSeparation < 1 {
		minSeparation = 1
	}

	var candidates []Peak

	for i := 1; i < len(smoothed)-1; i++ {
		if smoothed[i] < smoothed[i-1] || smoothed[i] < smoothed[i+1] {
			continue
		}

		if smoothed[i] <= threshold {
			continue
		}

		// Plateau handling: accept only the first sample of a flat top.
		if smoothed[i] == smoothed[i-1] {
			continue
		}

		candidates = append(candidates, Peak{
			Index:    i,
			Velocity: sp.Velocity[i],
			Height:   smoothed[i],
			FWHM:     halfMaxWidth(sp, smoothed, i),
		})
	}

	// Highest first, then greedy separation filtering.
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Height > candidates[j].Height })

	var accepted []Peak

	for _, c := range candidates {
		ok := true

		for _, a := range accepted {
			if abs(c.Index-a.Index) < minSeparation {
				ok = false

				break
			}
		}

		if ok {
			accepted = append(accepted, c)
		}
	}

	sort.Slice(accepted, func(i, j int) bool { return accepted[i].Velocity < accepted[j].Velocity })

	return accepted
}

// PairDoublets assigns peaks into symmetric doublets. A candidate pair
// qualifies when its separation does not exceed maxSplitting and its
// height-weighted center of mass agrees with its geometric midpoint within
// tolerance — for a true 1:1 doublet the two coincide. Among qualifying
// pairs the greedy assignment minimizes the asymmetry plus a small
// separation penalty, preferring the nearest symmetric partner. Remaining
// peaks become singlets.
func PairDoublets(peaks []Peak, tolerance, maxSplitting float64) (doublets [][2]Peak, singlets []Peak) {
	type pair struct {
		i, j  int
		score float64
	}

	var pairs []pair

	for i := 0; i < len(peaks); i++ {
		for j := i + 1; j < len(peaks); j++ {
			a, b := peaks[i], peaks[j]

			sep := math.Abs(b.Velocity - a.Velocity)
			if sep > maxSplitting {
				continue
			}

			mid := (a.Velocity + b.Velocity) / 2

			total := a.Height + b.Height
			if total <= 0 {
				continue
			}

			weighted := (a.Height*a.Velocity + b.Height*b.Velocity) / total

			asym := math.Abs(weighted - mid)
			if asym > tolerance {
				continue
			}

			pairs = append(pairs, pair{i: i, j: j, score: asym + separationWeight*sep})
		}
	}

	sort.Slice(pairs, func(a, b int) bool { return pairs[a].score < pairs[b].score })

	used := make([]bool, len(peaks))

	for _, p := range pairs {
		if used[p.i] || used[p.j] {
			continue
		}

		used[p.i] = true
		used[p.j] = true

		doublets = append(doublets, [2]Peak{peaks[p.i], peaks[p.j]})
	}

	for i, p := range peaks {
		if !used[i] {
			singlets = append(singlets, p)
		}
	}

	return doublets, singlets
}

// halfMaxWidth walks outward from a peak until the smoothed curve drops
// below half the peak height, returning the velocity span between the two
// crossings. Returns 0 when either crossing is not found.
func halfMaxWidth(sp spectrum.Spectrum, smoothed []float64, peak int) float64 {
	half := smoothed[peak] / 2

	left := -1

	for i := peak; i >= 0; i-- {
		if smoothed[i] <= half {
			left = i

			break
		}
	}

	right := -1

	for i := peak; i < len(smoothed); i++ {
		if smoothed[i] <= half {
			right = i

			break
		}
	}

	if left < 0 || right < 0 {
		return 0
	}

	return sp.Velocity[right] - sp.Velocity[left]
}

func abs(v int) int {
	if v < 0 {
		return -v
	}

	return v
}
