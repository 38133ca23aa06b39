package mossbauer_test

import (
	"testing"

	"github.com/cwbudde/algo-mossbauer/mossbauer"
)

func TestClassifySite(t *testing.T) {
	tests := []struct {
		isomerShift         float64
		quadrupoleSplitting float64
		want                string
	}{
		{0.3, 0.3, "Fe³⁺ (low spin)"},
		{0.3, 0.9, "Fe³⁺ (high spin)"},
		{-0.1, 0.2, "Fe³⁺ (low spin)"},
		{1.1, 0.5, "Fe²⁺ (low spin)"},
		{1.1, 2.5, "Fe²⁺ (high spin)"},
		{0.55, 1.0, "Unknown"}, // gap between the tabulated ranges
		{2.5, 0.5, "Unknown"},
		{-0.8, 0.3, "Unknown"},
	}

	for _, tt := range tests {
		got := mossbauer.ClassifySite(tt.isomerShift, tt.quadrupoleSplitting)
		if got != tt.want {
			t.Fatalf("ClassifySite(%g, %g) = %q, want %q",
				tt.isomerShift, tt.quadrupoleSplitting, got, tt.want)
		}
	}
}
