package decay

import (
	"fmt"
	"math"
	"math/rand"
)

// Shell is one of the four atomic shells tracked for vacancies.
type Shell int

const (
	ShellK Shell = iota
	ShellL
	ShellM
	ShellOuter

	numShells = 4
)

func (s Shell) String() string {
	switch s {
	case ShellK:
		return "K"
	case ShellL:
		return "L"
	case ShellM:
		return "M"
	case ShellOuter:
		return "outer"
	default:
		return fmt.Sprintf("shell(%d)", int(s))
	}
}

const (
	rydberg = 13.605693e-6 // MeV

	// outerBinding is the binding energy assigned to the catch-all shell.
	outerBinding = 10e-6
)

// Screening constants and principal quantum numbers for the hydrogenic
// binding-energy estimate of the inner shells.
var (
	shellScreening = [numShells - 1]float64{1, 7.4, 17}
	shellN         = [numShells - 1]float64{1, 2, 3}

	// yieldA are the a parameters of the fluorescence yield Z⁴/(Z⁴+a).
	yieldA = [numShells - 1]float64{1.12e6, 1.02e8, 1.0e10}
)

// Atom holds the binding energies and fluorescence yields of one element.
type Atom struct {
	Z       int
	Binding [numShells]float64 // MeV
	Yield   [numShells]float64 // probability a vacancy fills radiatively
}

// NewAtom estimates the shell structure of element z. Binding energies are
// strictly decreasing from K to the outer shell.
func NewAtom(z int) *Atom {
	a := &Atom{Z: z}
	a.Binding[ShellOuter] = outerBinding
	z4 := math.Pow(float64(z), 4)
	for s := ShellM; s >= ShellK; s-- {
		zeff := math.Max(float64(z)-shellScreening[s], 0)
		b := rydberg * zeff * zeff / (shellN[s] * shellN[s])
		a.Binding[s] = math.Max(b, 2*a.Binding[s+1])
		a.Yield[s] = z4 / (z4 + yieldA[s])
	}
	return a
}

// Cascade relaxes a vacancy in shell s at time t. Each inner vacancy is
// filled from the next shell out, emitting an X-ray (B_s - B_s+1) with the
// fluorescence yield, otherwise an Auger electron (B_s - 2·B_s+1) that
// leaves two vacancies in the next shell. Outer-shell vacancies are absorbed.
func (a *Atom) Cascade(rng *rand.Rand, s Shell, t float64) []Event {
	var events []Event
	var pending [numShells]int
	pending[s]++
	for shell := s; shell < ShellOuter; shell++ {
		next := shell + 1
		for ; pending[shell] > 0; pending[shell]-- {
			if rng.Float64() < a.Yield[shell] {
				events = append(events, Event{Energy: a.Binding[shell] - a.Binding[next], Time: t, Particle: Photon})
				pending[next]++
				continue
			}
			if e := a.Binding[shell] - 2*a.Binding[next]; e > 0 {
				events = append(events, Event{Energy: e, Time: t, Particle: Electron})
			}
			pending[next] += 2
		}
	}
	return events
}
