package mossbauer

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-mossbauer/spectrum"
)

// Request is one spectrum plus its analysis options.
type Request struct {
	Samples []spectrum.Sample
	Options []Option
}

// AnalyzeAll analyzes every request on a bounded worker pool and returns
// the outcomes in request order. workers ≤ 0 selects GOMAXPROCS.
//
// The first hard failure cancels the remaining work and is returned;
// best-effort non-convergence does not abort the batch — the outcome is
// kept and its Result.Converged flag is left false.
func AnalyzeAll(ctx context.Context, requests []Request, workers int) ([]*Outcome, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	outcomes := make([]*Outcome, len(requests))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, req := range requests {
		g.Go(func() error {
			outcome, err := AnalyzeContext(ctx, req.Samples, req.Options...)
			if err != nil && outcome == nil {
				return err
			}

			outcomes[i] = outcome

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return outcomes, nil
}
