package dist

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Mannhart evaluation of the 252Cf spontaneous-fission neutron spectrum.
const (
	MannhartA = 1.174 // MeV
	MannhartB = 1.043 // 1/MeV

	// DefaultCf252Step is the tabulation step used by the 252Cf source preset.
	DefaultCf252Step = 0.1 // MeV
	// DefaultCf252Max is the upper edge of the tabulated spectrum.
	DefaultCf252Max = 20.0 // MeV
)

// mannhartC normalises the Watt form to unit integral over [0, inf).
var mannhartC = 2 * math.Exp(-MannhartA*MannhartB/4) / math.Sqrt(math.Pi*MannhartA*MannhartA*MannhartA*MannhartB)

// MannhartDensity returns the normalised 252Cf neutron density at E (MeV).
func MannhartDensity(e float64) float64 {
	if e <= 0 {
		return 0
	}
	return mannhartC * math.Exp(-e/MannhartA) * math.Sinh(math.Sqrt(MannhartB*e))
}

// Cf252 tabulates the Mannhart spectrum from 0 to maxEnergy at the given
// step and returns it as a linear Tabulated distribution.
func Cf252(step, maxEnergy float64) (*Tabulated, error) {
	if !(step > 0) || !(maxEnergy > step) {
		return nil, fmt.Errorf("invalid 252Cf tabulation: step=%g max=%g", step, maxEnergy)
	}
	n := int(math.Round(maxEnergy/step)) + 1
	es := make([]float64, n)
	floats.Span(es, 0, step*float64(n-1))

	t := NewTabulated()
	for _, e := range es {
		t.AddPoint(e, MannhartDensity(e))
	}
	return t, nil
}
