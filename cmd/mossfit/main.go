// Command mossfit fits a ⁵⁷Fe Mössbauer absorption spectrum from a
// delimited two-column text file and prints the extracted hyperfine
// parameters.
//
// Usage:
//
//	mossfit [flags] spectrum.txt
//
// Examples:
//
//	mossfit spectrum.txt
//	mossfit -model pseudo_voigt -sites 2 spectrum.txt
//	mossfit -baseline -timeout 30s -json spectrum.txt
//	cat spectrum.txt | mossfit -
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-mossbauer/ingest"
	"github.com/cwbudde/algo-mossbauer/mossbauer"
	"github.com/cwbudde/algo-mossbauer/spectrum"
)

func main() {
	var (
		model      = flag.String("model", "lorentzian", "lineshape kernel: lorentzian, voigt or pseudo_voigt")
		sites      = flag.Int("sites", 0, "number of iron sites (0 = estimate from peak structure)")
		baseline   = flag.Bool("baseline", false, "enable baseline correction")
		sigma      = flag.Float64("sigma", 0, "per-point uncertainty (0 = estimate from noise)")
		oversample = flag.Int("oversample", 1000, "points in the smooth display curve (0 = off)")
		timeout    = flag.Duration("timeout", 0, "wall-clock budget per analysis (0 = none)")
		asJSON     = flag.Bool("json", false, "emit the full result as JSON")
		withPlot   = flag.Bool("plot", false, "include plot series in the JSON output")
		verbose    = flag.Bool("v", false, "verbose diagnostics")
	)

	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		dev, err := zap.NewDevelopment()
		if err == nil {
			logger = dev
		}
	}
	defer logger.Sync() //nolint:errcheck

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: mossfit [flags] <spectrum-file | ->")
		flag.PrintDefaults()
		os.Exit(2)
	}

	samples, err := readSamples(flag.Arg(0))
	if err != nil {
		fatal(err)
	}

	logger.Info("parsed spectrum", zap.Int("points", len(samples)))

	kernel, err := mossbauer.ParseModel(*model)
	if err != nil {
		fatal(err)
	}

	opts := []mossbauer.Option{
		mossbauer.WithModel(kernel),
		mossbauer.WithOversample(*oversample),
	}

	if *sites > 0 {
		opts = append(opts, mossbauer.WithSites(*sites))
	}

	if *baseline {
		opts = append(opts, mossbauer.WithBaselineCorrection())
	}

	if *sigma > 0 {
		opts = append(opts, mossbauer.WithPointSigma(*sigma))
	}

	ctx := context.Background()

	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)

		defer cancel()
	}

	start := time.Now()

	outcome, err := mossbauer.AnalyzeContext(ctx, samples, opts...)

	switch {
	case errors.Is(err, mossbauer.ErrFitDidNotConverge):
		logger.Warn("fit did not converge, showing best-effort result", zap.Error(err))
	case err != nil:
		fatal(err)
	}

	logger.Info("analysis finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("sites", len(outcome.Result.Sites)),
		zap.Float64("reduced_chi_squared", outcome.Result.ReducedChiSquared),
		zap.Bool("converged", outcome.Result.Converged),
	)

	if *asJSON {
		if err := writeJSON(os.Stdout, outcome, *withPlot); err != nil {
			fatal(err)
		}

		return
	}

	printTable(os.Stdout, outcome)
}

func readSamples(name string) ([]spectrum.Sample, error) {
	var r io.Reader = os.Stdin

	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		r = f
	}

	return ingest.Parse(r)
}

func writeJSON(w io.Writer, outcome *mossbauer.Outcome, withPlot bool) error {
	payload := struct {
		*mossbauer.Outcome
		Plot *mossbauer.PlotData `json:"plot,omitempty"`
	}{Outcome: outcome}

	if withPlot {
		plot := outcome.Plot()
		payload.Plot = &plot
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(payload)
}

func printTable(w io.Writer, outcome *mossbauer.Outcome) {
	res := outcome.Result

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "site\ttype\tIS (mm/s)\tQS (mm/s)\tLW (mm/s)\tarea (%)")

	for i, s := range res.Sites {
		fmt.Fprintf(tw, "%d\t%s\t%.3f ± %.3f\t%.3f ± %.3f\t%.3f ± %.3f\t%.1f\n",
			i+1, s.SiteType,
			s.IsomerShift, s.IsomerShiftStdErr,
			s.QuadrupoleSplitting, s.QuadrupoleSplittingStdErr,
			s.LineWidth, s.LineWidthStdErr,
			s.RelativeArea,
		)
	}

	tw.Flush() //nolint:errcheck

	fmt.Fprintf(w, "\nmodel %s, %d points, %d variables\n",
		res.ModelType, res.NDataPoints, res.NVariables)
	fmt.Fprintf(w, "chi² %.6g, reduced chi² %.4g, p %.3g\n",
		res.ChiSquared, res.ReducedChiSquared, res.PValue)

	if !res.Converged {
		fmt.Fprintln(w, "warning: fit did not converge; values are best-effort")
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "mossfit:", err)
	os.Exit(1)
}
