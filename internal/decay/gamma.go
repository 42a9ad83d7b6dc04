package decay

import (
	"math/rand"
)

// pairThreshold is the transition energy needed for internal pair formation.
const pairThreshold = 2 * ElectronMass

// Conversion holds the internal-conversion coefficients of one transition:
// the number of conversion electrons (or pairs) per emitted photon.
type Conversion struct {
	K, L, M, Outer float64
	Pair           float64 // internal pair formation
}

// Total returns the total conversion coefficient α.
func (c Conversion) Total() float64 {
	return c.K + c.L + c.M + c.Outer + c.Pair
}

// shell returns the coefficient for an atomic shell.
func (c Conversion) shell(s Shell) float64 {
	switch s {
	case ShellK:
		return c.K
	case ShellL:
		return c.L
	case ShellM:
		return c.M
	default:
		return c.Outer
	}
}

// Gamma is one electromagnetic transition between two levels.
type Gamma struct {
	Energy     float64
	Intensity  float64 // relative photon intensity
	Conversion Conversion
	Target     *Level // final level; nil ends the cascade
}

// TotalProbability returns the relative transition intensity including
// conversion electrons and pairs.
func (g *Gamma) TotalProbability() float64 {
	return g.Intensity * (1 + g.Conversion.Total())
}

// FindGammaEvents decides how the transition proceeds at time t. It emits a
// photon with probability 1/(1+α). Otherwise it emits a conversion electron
// of energy E - B_shell followed by the atomic relaxation of that vacancy, or
// an electron-positron pair sharing E - 2m_e.
//
// Channels that are closed at this energy (shell binding above E, pair
// below threshold) fall back to the photon.
func (g *Gamma) FindGammaEvents(rng *rand.Rand, t float64, atom *Atom) []Event {
	photon := []Event{{Energy: g.Energy, Time: t, Particle: Photon}}

	c := g.Conversion
	alpha := c.Total()
	if alpha <= 0 {
		return photon
	}
	u := rng.Float64() * (1 + alpha)
	if u < 1 {
		return photon
	}
	u--

	for s := ShellK; s <= ShellOuter; s++ {
		coeff := c.shell(s)
		if u >= coeff {
			u -= coeff
			continue
		}
		if atom == nil {
			return photon
		}
		e := g.Energy - atom.Binding[s]
		if e <= 0 {
			return photon
		}
		events := []Event{{Energy: e, Time: t, Particle: Electron}}
		return append(events, atom.Cascade(rng, s, t)...)
	}

	if g.Energy <= pairThreshold {
		return photon
	}
	kinetic := g.Energy - pairThreshold
	share := rng.Float64() * kinetic
	return []Event{
		{Energy: share, Time: t, Particle: Electron},
		{Energy: kinetic - share, Time: t, Particle: Positron},
	}
}
