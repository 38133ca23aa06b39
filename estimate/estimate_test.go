package estimate

import (
	"math"
	"math/rand"
	"testing"

	"github.com/cwbudde/algo-mossbauer/internal/testutil"
	"github.com/cwbudde/algo-mossbauer/lineshape"
	"github.com/cwbudde/algo-mossbauer/spectrum"
)

// synthSpectrum evaluates a set of lineshape sites over n points of
// [-5, 5] mm/s and adds Gaussian noise from a fixed seed.
func synthSpectrum(n int, sites []lineshape.Site, noise float64, seed int64) spectrum.Spectrum {
	rng := rand.New(rand.NewSource(seed))

	model := lineshape.Model{Kernel: lineshape.KernelLorentzian, Sites: sites}

	velocity := make([]float64, n)
	absorption := make([]float64, n)

	for i := range velocity {
		velocity[i] = -5 + 10*float64(i)/float64(n-1)
		absorption[i] = model.Eval(velocity[i]) + noise*rng.NormFloat64()
	}

	return spectrum.Spectrum{Velocity: velocity, Absorption: absorption}
}

func TestGaussianSmoothPreservesConstant(t *testing.T) {
	signal := make([]float64, 100)
	for i := range signal {
		signal[i] = 5
	}

	out := GaussianSmooth(signal, 3)

	testutil.RequireSliceNearlyEqual(t, out, signal, 1e-12)
}

func TestGaussianSmoothSmallSigmaCopies(t *testing.T) {
	signal := []float64{1, 2, 3, 4}

	out := GaussianSmooth(signal, 0.5)

	testutil.RequireSliceNearlyEqual(t, out, signal, 0)

	out[0] = 99
	if signal[0] != 1 {
		t.Fatal("smoothing must not alias the input")
	}
}

func TestGaussianSmoothReducesNoise(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	signal := make([]float64, 400)
	for i := range signal {
		signal[i] = rng.NormFloat64()
	}

	out := GaussianSmooth(signal, 4)

	variance := func(data []float64) float64 {
		var mean float64
		for _, v := range data {
			mean += v
		}
		mean /= float64(len(data))

		var sum float64
		for _, v := range data {
			d := v - mean
			sum += d * d
		}

		return sum / float64(len(data))
	}

	if vr, vs := variance(signal), variance(out); vs > vr/2 {
		t.Fatalf("smoothed variance %g not below half of raw %g", vs, vr)
	}
}

func TestDetectPeaksFindsTwoLorentzians(t *testing.T) {
	sp := synthSpectrum(400, []lineshape.Site{
		{IsomerShift: -1.5, LineWidth: 0.3, Amplitude: 0.8, Singlet: true},
		{IsomerShift: 2.0, LineWidth: 0.3, Amplitude: 1.0, Singlet: true},
	}, 0, 0)

	smoothed := GaussianSmooth(sp.Absorption, 4)

	peaks := DetectPeaks(sp, smoothed, 0.1, 20)
	if len(peaks) != 2 {
		t.Fatalf("got %d peaks, want 2", len(peaks))
	}

	testutil.RequireNearlyEqual(t, peaks[0].Velocity, -1.5, 0.15)
	testutil.RequireNearlyEqual(t, peaks[1].Velocity, 2.0, 0.15)

	if peaks[0].Height >= peaks[1].Height {
		t.Fatalf("peak heights %g, %g lost their ordering", peaks[0].Height, peaks[1].Height)
	}

	for _, p := range peaks {
		if p.FWHM <= 0 {
			t.Fatalf("peak at %g has no width estimate", p.Velocity)
		}
	}
}

func TestDetectPeaksSeparationKeepsStrongest(t *testing.T) {
	n := 100

	sp := spectrum.Spectrum{
		Velocity:   make([]float64, n),
		Absorption: make([]float64, n),
	}

	smoothed := make([]float64, n)
	for i := range sp.Velocity {
		sp.Velocity[i] = float64(i)
	}

	// Two nearby triangular maxima; only the taller one survives the
	// separation filter.
	for i := 35; i <= 45; i++ {
		smoothed[i] = 1 - 0.1*math.Abs(float64(i-40))
	}

	for i := 44; i <= 52; i++ {
		if v := 0.8 - 0.1*math.Abs(float64(i-48)); v > smoothed[i] {
			smoothed[i] = v
		}
	}

	peaks := DetectPeaks(sp, smoothed, 0.1, 20)
	if len(peaks) != 1 {
		t.Fatalf("got %d peaks, want 1", len(peaks))
	}

	if peaks[0].Index != 40 {
		t.Fatalf("kept peak at index %d, want 40", peaks[0].Index)
	}
}

func TestDetectPeaksRespectsThreshold(t *testing.T) {
	sp := synthSpectrum(200, []lineshape.Site{
		{IsomerShift: 0, LineWidth: 0.3, Amplitude: 0.05, Singlet: true},
	}, 0, 0)

	smoothed := GaussianSmooth(sp.Absorption, 2)

	if peaks := DetectPeaks(sp, smoothed, 0.5, 10); len(peaks) != 0 {
		t.Fatalf("got %d peaks above an unreachable threshold, want 0", len(peaks))
	}
}

func TestPairDoubletsSymmetricPair(t *testing.T) {
	peaks := []Peak{
		{Velocity: -1, Height: 0.1},
		{Velocity: 1, Height: 0.1},
	}

	doublets, singlets := PairDoublets(peaks, 0.5, 4)

	if len(doublets) != 1 || len(singlets) != 0 {
		t.Fatalf("got %d doublets, %d singlets, want 1, 0", len(doublets), len(singlets))
	}

	if doublets[0][0].Velocity != -1 || doublets[0][1].Velocity != 1 {
		t.Fatalf("doublet %v lost its (low, high) order", doublets[0])
	}
}

func TestPairDoubletsAsymmetricHeightsStaySinglets(t *testing.T) {
	peaks := []Peak{
		{Velocity: -1.5, Height: 1.0},
		{Velocity: 1.5, Height: 0.1},
	}

	doublets, singlets := PairDoublets(peaks, 0.5, 4)

	if len(doublets) != 0 || len(singlets) != 2 {
		t.Fatalf("got %d doublets, %d singlets, want 0, 2", len(doublets), len(singlets))
	}
}

func TestPairDoubletsTwoSites(t *testing.T) {
	peaks := []Peak{
		{Velocity: -2, Height: 0.1},
		{Velocity: -1, Height: 0.1},
		{Velocity: 0.5, Height: 0.08},
		{Velocity: 2.5, Height: 0.08},
	}

	doublets, singlets := PairDoublets(peaks, 0.5, 4)

	if len(doublets) != 2 || len(singlets) != 0 {
		t.Fatalf("got %d doublets, %d singlets, want 2, 0", len(doublets), len(singlets))
	}

	// The tie-break prefers the tighter pair, keeping each site's own
	// lines together.
	testutil.RequireNearlyEqual(t, doublets[0][0].Velocity, -2, 1e-12)
	testutil.RequireNearlyEqual(t, doublets[0][1].Velocity, -1, 1e-12)
	testutil.RequireNearlyEqual(t, doublets[1][0].Velocity, 0.5, 1e-12)
	testutil.RequireNearlyEqual(t, doublets[1][1].Velocity, 2.5, 1e-12)
}

func TestPairDoubletsRejectsWideSplitting(t *testing.T) {
	peaks := []Peak{
		{Velocity: -3, Height: 0.1},
		{Velocity: 3, Height: 0.1},
	}

	doublets, singlets := PairDoublets(peaks, 0.5, 4)

	if len(doublets) != 0 || len(singlets) != 2 {
		t.Fatalf("got %d doublets, %d singlets, want 0, 2", len(doublets), len(singlets))
	}
}

func TestAnalyzeSingleDoublet(t *testing.T) {
	sp := synthSpectrum(200, []lineshape.Site{
		{IsomerShift: 0.3, QuadrupoleSplitting: 0.8, LineWidth: 0.25, Amplitude: 0.1},
	}, 0.002, 7)

	est := Analyze(sp, Config{})

	if est.Sites != 1 {
		t.Fatalf("got %d sites, want 1", est.Sites)
	}

	if len(est.Doublets) != 1 || est.Fallback {
		t.Fatalf("doublets %d, fallback %v; want one doublet without fallback",
			len(est.Doublets), est.Fallback)
	}

	testutil.RequireInRange(t, est.NoiseSigma, 0.001, 0.004)

	d := est.Doublets[0]

	testutil.RequireNearlyEqual(t, (d[0].Velocity+d[1].Velocity)/2, 0.3, 0.15)
	testutil.RequireNearlyEqual(t, d[1].Velocity-d[0].Velocity, 0.8, 0.3)
}

func TestAnalyzeTwoSites(t *testing.T) {
	sp := synthSpectrum(400, []lineshape.Site{
		{IsomerShift: -1.5, QuadrupoleSplitting: 1.0, LineWidth: 0.25, Amplitude: 0.1},
		{IsomerShift: 1.5, QuadrupoleSplitting: 2.0, LineWidth: 0.25, Amplitude: 0.08},
	}, 0.002, 11)

	est := Analyze(sp, Config{})

	if est.Sites != 2 {
		t.Fatalf("got %d sites, want 2", est.Sites)
	}

	if len(est.Doublets) != 2 {
		t.Fatalf("got %d doublets, want 2", len(est.Doublets))
	}
}

func TestAnalyzeFlatNoiseFallsBack(t *testing.T) {
	rng := rand.New(rand.NewSource(5))

	n := 200

	sp := spectrum.Spectrum{
		Velocity:   make([]float64, n),
		Absorption: make([]float64, n),
	}

	for i := range sp.Velocity {
		sp.Velocity[i] = -5 + 10*float64(i)/float64(n-1)
		sp.Absorption[i] = 0.001 * rng.NormFloat64()
	}

	est := Analyze(sp, Config{})

	if est.Sites != 1 || !est.Fallback {
		t.Fatalf("sites %d, fallback %v; want 1 site by fallback", est.Sites, est.Fallback)
	}
}

func TestAnalyzeEmptySpectrum(t *testing.T) {
	est := Analyze(spectrum.Spectrum{}, Config{})

	if est.Sites != 1 || !est.Fallback {
		t.Fatalf("sites %d, fallback %v; want 1 site by fallback", est.Sites, est.Fallback)
	}
}

func TestAnalyzeMaxSitesCap(t *testing.T) {
	sp := synthSpectrum(400, []lineshape.Site{
		{IsomerShift: -1.5, QuadrupoleSplitting: 1.0, LineWidth: 0.25, Amplitude: 0.1},
		{IsomerShift: 1.5, QuadrupoleSplitting: 2.0, LineWidth: 0.25, Amplitude: 0.08},
	}, 0.002, 11)

	est := Analyze(sp, Config{MaxSites: 1})

	if est.Sites != 1 {
		t.Fatalf("got %d sites with MaxSites 1, want 1", est.Sites)
	}
}

func TestNormalizeConfigFillsDefaults(t *testing.T) {
	got := normalizeConfig(Config{})

	if got != DefaultConfig() {
		t.Fatalf("got %+v, want defaults %+v", got, DefaultConfig())
	}

	partial := normalizeConfig(Config{NoiseMultiplier: 3})

	if partial.NoiseMultiplier != 3 {
		t.Fatalf("explicit multiplier overwritten: %g", partial.NoiseMultiplier)
	}

	if partial.SymmetryTolerance != defaultSymmetryTolerance {
		t.Fatalf("unset tolerance not defaulted: %g", partial.SymmetryTolerance)
	}
}
