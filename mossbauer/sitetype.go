package mossbauer

// siteTypeUnknown labels sites whose parameters match no tabulated range,
// pending external interpretation.
const siteTypeUnknown = "Unknown"

// ClassifySite assigns a tentative iron site label from the fitted isomer
// shift and quadrupole splitting (both mm/s), using the common parameter
// ranges for ⁵⁷Fe at room temperature. The label is a hint for the
// narrative layer, not a definitive assignment.
func ClassifySite(isomerShift, quadrupoleSplitting float64) string {
	switch {
	case isomerShift >= -0.2 && isomerShift <= 0.5:
		if quadrupoleSplitting < 0.5 {
			return "Fe³⁺ (low spin)"
		}

		return "Fe³⁺ (high spin)"

	case isomerShift >= 0.6 && isomerShift <= 1.5:
		if quadrupoleSplitting < 1.0 {
			return "Fe²⁺ (low spin)"
		}

		return "Fe²⁺ (high spin)"

	default:
		return siteTypeUnknown
	}
}
