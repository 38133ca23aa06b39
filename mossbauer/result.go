package mossbauer

import "fmt"

// Site is one fitted iron environment.
type Site struct {
	// IsomerShift is the line center offset in mm/s.
	IsomerShift       float64 `json:"isomer_shift"`
	IsomerShiftStdErr float64 `json:"isomer_shift_std_err,omitempty"`

	// QuadrupoleSplitting is the doublet separation magnitude in mm/s
	// (0 for a singlet).
	QuadrupoleSplitting       float64 `json:"quadrupole_splitting"`
	QuadrupoleSplittingStdErr float64 `json:"quadrupole_splitting_std_err,omitempty"`

	// LineWidth is the fitted full width at half maximum in mm/s, shared
	// by both doublet lines.
	LineWidth       float64 `json:"line_width"`
	LineWidthStdErr float64 `json:"line_width_std_err,omitempty"`

	// RelativeArea is the site's percentage of the total absorption
	// area; all sites sum to 100.
	RelativeArea float64 `json:"relative_area"`

	// SiteType is a categorical label such as "Fe²⁺ (high spin)",
	// "Unknown" when the parameters match no known range.
	SiteType string `json:"site_type"`

	// HyperfineField in tesla, when a magnetic sextet analysis supplied
	// one. Zero means not applicable.
	HyperfineField float64 `json:"hyperfine_field,omitempty"`

	// Singlet marks sites fitted as a single line.
	Singlet bool `json:"singlet,omitempty"`
}

// FitResult is the public result model consumed by report export and
// narrative generation. Immutable once returned.
type FitResult struct {
	ChiSquared        float64 `json:"chi_squared"`
	ReducedChiSquared float64 `json:"reduced_chi_squared"`

	// PValue is the χ² survival probability at the fitted degrees of
	// freedom; values near 0 or 1 both indicate a mis-weighted fit.
	PValue float64 `json:"p_value"`

	NDataPoints int `json:"n_data_points"`

	// NVariables counts free fitted parameters, excluding fixed and
	// structurally constrained ones.
	NVariables int `json:"n_variables"`

	// ModelType is the kernel tag: lorentzian, voigt or pseudo_voigt.
	ModelType string `json:"model_type"`

	// Converged is false when the best-effort result came from an
	// exhausted iteration budget.
	Converged bool `json:"converged"`

	// EstimatedSites is true when the site count came from peak-structure
	// estimation rather than the caller.
	EstimatedSites bool `json:"estimated_sites,omitempty"`

	// PointSigma is the per-point uncertainty used for weighting and χ².
	PointSigma float64 `json:"point_sigma"`

	// Sites are ordered by descending relative area.
	Sites []Site `json:"sites"`
}

// Curves holds the plottable numeric series of one analysis. All slices
// share the spectrum's velocity axis except the oversampled pair.
type Curves struct {
	// Velocity and Observed are the normalized input spectrum.
	Velocity []float64 `json:"velocity"`
	Observed []float64 `json:"observed"`

	// Fitted is the composite model over the input velocities.
	Fitted []float64 `json:"fitted"`

	// Residuals is Observed − Fitted per point.
	Residuals []float64 `json:"residuals"`

	// Components holds one curve per site, in Site order.
	Components [][]float64 `json:"components,omitempty"`

	// SmoothVelocity and SmoothFitted are the oversampled composite for
	// display; empty when oversampling is disabled.
	SmoothVelocity []float64 `json:"smooth_velocity,omitempty"`
	SmoothFitted   []float64 `json:"smooth_fitted,omitempty"`
}

// Outcome is a complete successful (or best-effort) analysis.
type Outcome struct {
	Result FitResult `json:"fit_results"`
	Curves Curves    `json:"curves"`
}

// Series is one layout-agnostic plot trace: numeric arrays plus minimal
// styling hints. It deliberately matches no particular charting schema.
type Series struct {
	Name  string    `json:"name"`
	X     []float64 `json:"x"`
	Y     []float64 `json:"y"`
	Mode  string    `json:"mode"`  // "markers" or "lines"
	Color string    `json:"color"` // CSS color name hint
	Dash  bool      `json:"dash,omitempty"`
}

// Layout carries minimal presentation hints for one plot panel.
type Layout struct {
	Title      string `json:"title"`
	XLabel     string `json:"x_label"`
	YLabel     string `json:"y_label"`
	Height     int    `json:"height"`
	ShowLegend bool   `json:"show_legend"`
}

// PlotData bundles the main spectrum panel and the residuals panel.
type PlotData struct {
	Main            []Series `json:"main_plot"`
	MainLayout      Layout   `json:"plot_layout"`
	Residuals       []Series `json:"residuals_plot"`
	ResidualsLayout Layout   `json:"residuals_layout"`
}

// componentColors cycles through the per-site component trace hints.
var componentColors = []string{"blue", "green", "orange", "purple", "brown", "pink"}

// Plot renders the outcome into layout-agnostic plot series.
func (o *Outcome) Plot() PlotData {
	main := []Series{
		{Name: "Experimental", X: o.Curves.Velocity, Y: o.Curves.Observed, Mode: "markers", Color: "black"},
	}

	if len(o.Curves.SmoothFitted) > 0 {
		main = append(main, Series{
			Name: "Total Fit", X: o.Curves.SmoothVelocity, Y: o.Curves.SmoothFitted,
			Mode: "lines", Color: "red",
		})
	} else {
		main = append(main, Series{
			Name: "Total Fit", X: o.Curves.Velocity, Y: o.Curves.Fitted,
			Mode: "lines", Color: "red",
		})
	}

	for i, comp := range o.Curves.Components {
		main = append(main, Series{
			Name: componentName(o.Result.Sites, i),
			X:    o.Curves.Velocity, Y: comp,
			Mode: "lines", Color: componentColors[i%len(componentColors)], Dash: true,
		})
	}

	return PlotData{
		Main: main,
		MainLayout: Layout{
			Title:      "Mössbauer Spectrum Analysis",
			XLabel:     "Velocity (mm/s)",
			YLabel:     "Relative Absorption",
			Height:     500,
			ShowLegend: true,
		},
		Residuals: []Series{
			{Name: "Residuals", X: o.Curves.Velocity, Y: o.Curves.Residuals, Mode: "markers", Color: "gray"},
		},
		ResidualsLayout: Layout{
			Title:  "Fit Residuals",
			XLabel: "Velocity (mm/s)",
			YLabel: "Residuals",
			Height: 200,
		},
	}
}

func componentName(sites []Site, i int) string {
	if i < len(sites) && sites[i].SiteType != "" && sites[i].SiteType != siteTypeUnknown {
		return sites[i].SiteType
	}

	return fmt.Sprintf("Site %d", i+1)
}
