package lineshape

// Line is one absorption line of a site.
type Line struct {
	Center    float64 // mm/s
	Width     float64 // Lorentzian FWHM, mm/s
	Amplitude float64 // peak height
}

// Site describes one iron environment as a lineshape component: a singlet
// at the isomer shift, or a symmetric 1:1 doublet split by the quadrupole
// interaction.
type Site struct {
	IsomerShift         float64 // mm/s
	QuadrupoleSplitting float64 // mm/s, ≥ 0
	LineWidth           float64 // Lorentzian FWHM shared by both lines, mm/s
	Amplitude           float64 // peak height of each line
	Singlet             bool    // one line instead of a doublet
}

// Lines expands the site into its one or two absorption lines. Doublet
// lines sit symmetrically at IsomerShift ∓ QuadrupoleSplitting/2 with equal
// widths and a fixed 1:1 amplitude ratio.
func (s Site) Lines() []Line {
	if s.Singlet {
		return []Line{{Center: s.IsomerShift, Width: s.LineWidth, Amplitude: s.Amplitude}}
	}

	half := s.QuadrupoleSplitting / 2

	return []Line{
		{Center: s.IsomerShift - half, Width: s.LineWidth, Amplitude: s.Amplitude},
		{Center: s.IsomerShift + half, Width: s.LineWidth, Amplitude: s.Amplitude},
	}
}

// Model is a full spectrum model: the sum of all site contributions plus a
// constant offset.
type Model struct {
	Kernel Kernel
	Sites  []Site
	Offset float64

	// Eta is the pseudo-Voigt mixing fraction in [0, 1]. Used only by
	// KernelPseudoVoigt.
	Eta float64

	// GaussWidth is the Gaussian FWHM shared by all lines. Used only by
	// KernelVoigt.
	GaussWidth float64
}

// evalLine evaluates one line of the model's kernel at velocity v.
func (m Model) evalLine(v float64, ln Line) float64 {
	switch m.Kernel {
	case KernelVoigt:
		return Voigt(v, ln.Center, m.GaussWidth, ln.Width, ln.Amplitude)
	case KernelPseudoVoigt:
		return PseudoVoigt(v, ln.Center, ln.Width, ln.Amplitude, m.Eta)
	default:
		return Lorentzian(v, ln.Center, ln.Width, ln.Amplitude)
	}
}

// Eval evaluates the composite model at a single velocity.
func (m Model) Eval(v float64) float64 {
	sum := m.Offset

	for _, site := range m.Sites {
		for _, ln := range site.Lines() {
			sum += m.evalLine(v, ln)
		}
	}

	return sum
}

// Curve evaluates the composite model over a velocity axis.
func (m Model) Curve(velocity []float64) []float64 {
	out := make([]float64, len(velocity))
	for i, v := range velocity {
		out[i] = m.Eval(v)
	}

	return out
}

// SiteCurve evaluates the contribution of a single site (without the
// offset) over a velocity axis.
func (m Model) SiteCurve(i int, velocity []float64) []float64 {
	out := make([]float64, len(velocity))
	lines := m.Sites[i].Lines()

	for j, v := range velocity {
		var sum float64
		for _, ln := range lines {
			sum += m.evalLine(v, ln)
		}

		out[j] = sum
	}

	return out
}
