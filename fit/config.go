package fit

const (
	// defaultMinLineWidth is the lower FWHM bound in mm/s. The ⁵⁷Fe
	// natural linewidth is 0.194 mm/s; bounding below it (but well above
	// zero) keeps degenerate zero-width fits out while tolerating
	// slightly sub-natural fitted widths on sparse data.
	defaultMinLineWidth = 0.10

	// defaultMaxLineWidth is the upper FWHM bound in mm/s.
	defaultMaxLineWidth = 2.0

	// defaultLineWidth seeds lines whose width could not be measured from
	// the data.
	defaultLineWidth = 0.30

	// defaultQuadrupoleSplitting seeds synthetic doublets when peak
	// detection found fewer peaks than requested sites.
	defaultQuadrupoleSplitting = 0.60

	// defaultAmplitudeCeiling bounds line amplitudes to this multiple of
	// the observed absorption range.
	defaultAmplitudeCeiling = 2.0

	defaultMaxIterations   = 400
	defaultChunkIterations = 50
	defaultCostTol         = 1e-9
	defaultSingularRatio   = 1e-10

	// LM damping and step tolerances, matching common practice for
	// spectroscopic least squares.
	defaultTau  = 1e-6
	defaultEps1 = 1e-8
	defaultEps2 = 1e-8
)

// Config collects every solver default and bound in one explicit struct.
// It is threaded through the pipeline; nothing reads ambient state.
type Config struct {
	// MinLineWidth and MaxLineWidth bound every fitted FWHM (mm/s).
	MinLineWidth float64
	MaxLineWidth float64

	// DefaultLineWidth seeds lines with no measurable width (mm/s).
	DefaultLineWidth float64

	// DefaultQuadrupoleSplitting seeds synthetic doublets (mm/s).
	DefaultQuadrupoleSplitting float64

	// AmplitudeCeiling bounds amplitudes to this multiple of the
	// absorption range.
	AmplitudeCeiling float64

	// MaxIterations is the total LM iteration budget; exhausting it
	// yields ErrFitDidNotConverge alongside the best-effort result.
	MaxIterations int

	// ChunkIterations is the LM iteration block size between convergence
	// and cancellation checks.
	ChunkIterations int

	// CostTol is the relative cost-change convergence criterion checked
	// between chunks.
	CostTol float64

	// SingularRatio: singular values of the Jacobian below
	// SingularRatio·s_max mark a structurally degenerate fit.
	SingularRatio float64

	// Tau, Eps1, Eps2 are the LM damping seed and gradient/step
	// tolerances passed to the solver.
	Tau  float64
	Eps1 float64
	Eps2 float64
}

// DefaultConfig returns the solver defaults.
func DefaultConfig() Config {
	return Config{
		MinLineWidth:               defaultMinLineWidth,
		MaxLineWidth:               defaultMaxLineWidth,
		DefaultLineWidth:           defaultLineWidth,
		DefaultQuadrupoleSplitting: defaultQuadrupoleSplitting,
		AmplitudeCeiling:           defaultAmplitudeCeiling,
		MaxIterations:              defaultMaxIterations,
		ChunkIterations:            defaultChunkIterations,
		CostTol:                    defaultCostTol,
		SingularRatio:              defaultSingularRatio,
		Tau:                        defaultTau,
		Eps1:                       defaultEps1,
		Eps2:                       defaultEps2,
	}
}

func normalizeConfig(cfg Config) Config {
	def := DefaultConfig()

	if cfg.MinLineWidth <= 0 {
		cfg.MinLineWidth = def.MinLineWidth
	}

	if cfg.MaxLineWidth <= cfg.MinLineWidth {
		cfg.MaxLineWidth = def.MaxLineWidth
	}

	if cfg.DefaultLineWidth <= 0 {
		cfg.DefaultLineWidth = def.DefaultLineWidth
	}

	if cfg.DefaultQuadrupoleSplitting <= 0 {
		cfg.DefaultQuadrupoleSplitting = def.DefaultQuadrupoleSplitting
	}

	if cfg.AmplitudeCeiling <= 0 {
		cfg.AmplitudeCeiling = def.AmplitudeCeiling
	}

	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = def.MaxIterations
	}

	if cfg.ChunkIterations <= 0 || cfg.ChunkIterations > cfg.MaxIterations {
		cfg.ChunkIterations = min(def.ChunkIterations, cfg.MaxIterations)
	}

	if cfg.CostTol <= 0 {
		cfg.CostTol = def.CostTol
	}

	if cfg.SingularRatio <= 0 {
		cfg.SingularRatio = def.SingularRatio
	}

	if cfg.Tau <= 0 {
		cfg.Tau = def.Tau
	}

	if cfg.Eps1 <= 0 {
		cfg.Eps1 = def.Eps1
	}

	if cfg.Eps2 <= 0 {
		cfg.Eps2 = def.Eps2
	}

	return cfg
}
