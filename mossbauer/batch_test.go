package mossbauer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cwbudde/algo-mossbauer/internal/testutil"
	"github.com/cwbudde/algo-mossbauer/lineshape"
	"github.com/cwbudde/algo-mossbauer/mossbauer"
)

func TestAnalyzeAllKeepsRequestOrder(t *testing.T) {
	shifts := []float64{0.3, 0.0, -0.3}

	requests := make([]mossbauer.Request, len(shifts))
	for i, shift := range shifts {
		requests[i] = mossbauer.Request{
			Samples: synthSamples(200, []lineshape.Site{
				{IsomerShift: shift, QuadrupoleSplitting: 0.8, LineWidth: 0.25, Amplitude: 0.1},
			}, 0.002, int64(20+i)),
		}
	}

	outcomes, err := mossbauer.AnalyzeAll(context.Background(), requests, 2)
	if err != nil {
		t.Fatal(err)
	}

	if len(outcomes) != len(requests) {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), len(requests))
	}

	for i, outcome := range outcomes {
		if outcome == nil {
			t.Fatalf("outcome %d missing", i)
		}

		testutil.RequireNearlyEqual(t, outcome.Result.Sites[0].IsomerShift, shifts[i], 0.05)
	}
}

func TestAnalyzeAllPropagatesFailure(t *testing.T) {
	requests := []mossbauer.Request{
		{Samples: knownDoublet()},
		{Samples: knownDoublet()[:3]}, // unfittable
	}

	outcomes, err := mossbauer.AnalyzeAll(context.Background(), requests, 2)
	if !errors.Is(err, mossbauer.ErrInvalidSpectrum) {
		t.Fatalf("got %v, want ErrInvalidSpectrum", err)
	}

	if outcomes != nil {
		t.Fatal("failed batch must not return partial outcomes")
	}
}

func TestAnalyzeAllEmpty(t *testing.T) {
	outcomes, err := mossbauer.AnalyzeAll(context.Background(), nil, 0)
	if err != nil {
		t.Fatal(err)
	}

	if len(outcomes) != 0 {
		t.Fatalf("got %d outcomes for an empty batch", len(outcomes))
	}
}

func TestAnalyzeAllRespectsOptions(t *testing.T) {
	requests := []mossbauer.Request{
		{
			Samples: knownDoublet(),
			Options: []mossbauer.Option{mossbauer.WithModel(lineshape.KernelPseudoVoigt)},
		},
	}

	outcomes, err := mossbauer.AnalyzeAll(context.Background(), requests, 1)
	if err != nil && !errors.Is(err, mossbauer.ErrFitDidNotConverge) {
		t.Fatal(err)
	}

	if outcomes[0].Result.ModelType != "pseudo_voigt" {
		t.Fatalf("model type %q, want pseudo_voigt", outcomes[0].Result.ModelType)
	}
}
