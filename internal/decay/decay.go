package decay

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"github.com/mroth/weightedrand"
)

// ErrParse marks malformed decay files.
var ErrParse = errors.New("parse error")

// Particle names an emitted particle. The values match the engine's particle
// names.
type Particle string

const (
	Photon   Particle = "gamma"
	Electron Particle = "e-"
	Positron Particle = "e+"
)

// Event is one emitted particle.
type Event struct {
	Energy   float64 // kinetic energy, MeV
	Time     float64 // ns after the parent decay
	Particle Particle
}

// Mode is the decay mode of the parent.
type Mode int

const (
	BetaMinus Mode = iota
	ElectronCapture // includes beta+ branches
	Isomeric
)

func (m Mode) String() string {
	switch m {
	case BetaMinus:
		return "B-"
	case ElectronCapture:
		return "EC"
	case Isomeric:
		return "IT"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// weightScale converts relative intensities to chooser weights.
const weightScale = 1e6

// Level is a nuclear state.
type Level struct {
	Energy   float64
	HalfLife float64 // ns; 0 is prompt, +Inf is stable
	Gammas   []*Gamma

	// BetaFeeding is the relative intensity with which the parent decay
	// populates this level.
	BetaFeeding float64
	// MaxBetaEnergy is the beta endpoint kinetic energy for that branch.
	MaxBetaEnergy float64
	// PositronFraction is the beta+ share of an EC/beta+ feeding.
	PositronFraction float64
	// BetaDecayProbability is used on the parent only: the probability that
	// it beta decays rather than de-exciting isomerically.
	BetaDecayProbability float64

	chooser *weightedrand.Chooser
	beta    *Fermi
}

// MeanLife returns the mean life in ns.
func (l *Level) MeanLife() float64 {
	return l.HalfLife / math.Ln2
}

// pickGamma chooses an outgoing transition by total probability.
func (l *Level) pickGamma(rng *rand.Rand) *Gamma {
	if l.chooser == nil {
		return nil
	}
	return l.chooser.PickSource(rng).(*Gamma)
}

func (l *Level) buildChooser() error {
	choices := make([]weightedrand.Choice, 0, len(l.Gammas))
	for _, g := range l.Gammas {
		w := uint(math.Round(g.TotalProbability() * weightScale))
		choices = append(choices, weightedrand.NewChoice(g, w))
	}
	if len(choices) == 0 {
		l.chooser = nil
		return nil
	}
	c, err := weightedrand.NewChooser(choices...)
	if err != nil {
		return fmt.Errorf("level %g MeV: %w", l.Energy, err)
	}
	l.chooser = c
	return nil
}

// Decay is a parent state together with its daughter level scheme.
type Decay struct {
	Mode      Mode
	Nuclide   string // parent, e.g. "60CO"
	ParentZ   int
	DaughterZ int
	Q         float64 // ground-state Q-value
	Parent    *Level  // Gammas are its isomeric transitions
	Levels    []*Level

	feeding      *weightedrand.Chooser
	parentAtom   *Atom
	daughterAtom *Atom
}

// New validates a decay scheme and prepares its samplers. Levels are sorted
// by energy. Beta endpoints left at zero are derived from the Q-value.
func New(d *Decay) (*Decay, error) {
	if d.Parent == nil {
		return nil, fmt.Errorf("%w: no parent state", ErrParse)
	}
	sort.SliceStable(d.Levels, func(i, j int) bool { return d.Levels[i].Energy < d.Levels[j].Energy })

	d.parentAtom = NewAtom(d.ParentZ)
	d.daughterAtom = NewAtom(d.DaughterZ)

	if d.Mode == Isomeric {
		d.Parent.BetaDecayProbability = 0
	}
	if err := d.Parent.buildChooser(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if d.Parent.BetaDecayProbability < 1 && d.Parent.chooser == nil {
		if d.Mode == Isomeric {
			return nil, fmt.Errorf("%w: isomeric decay without transitions", ErrParse)
		}
		slog.Debug("no isomeric transitions, parent always beta decays",
			"nuclide", d.Nuclide,
			"branching", d.Parent.BetaDecayProbability,
		)
		d.Parent.BetaDecayProbability = 1
	}

	var feeds []weightedrand.Choice
	for _, l := range d.Levels {
		if err := l.buildChooser(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		if d.Mode == Isomeric || l.BetaFeeding <= 0 {
			continue
		}
		if err := d.prepareBeta(l); err != nil {
			return nil, err
		}
		feeds = append(feeds, weightedrand.NewChoice(l, uint(math.Round(l.BetaFeeding*weightScale))))
	}
	if d.Parent.BetaDecayProbability > 0 {
		c, err := weightedrand.NewChooser(feeds...)
		if err != nil {
			return nil, fmt.Errorf("%w: no beta feeding: %v", ErrParse, err)
		}
		d.feeding = c
	}
	return d, nil
}

func (d *Decay) prepareBeta(l *Level) error {
	if l.MaxBetaEnergy <= 0 {
		l.MaxBetaEnergy = d.Q + d.Parent.Energy - l.Energy
		if d.Mode == ElectronCapture {
			l.MaxBetaEnergy -= pairThreshold
		}
	}
	charge := -1
	if d.Mode == ElectronCapture {
		if l.PositronFraction <= 0 || l.MaxBetaEnergy <= 0 {
			l.PositronFraction = 0
			return nil
		}
		charge = 1
	}
	f, err := NewFermi(d.DaughterZ, l.MaxBetaEnergy, charge)
	if err != nil {
		return fmt.Errorf("%w: level %g MeV: %v", ErrParse, l.Energy, err)
	}
	l.beta = f
	return nil
}

// Execute generates the particles of one decay, ordered by emission time.
// The parent decays at t = 0.
func (d *Decay) Execute(rng *rand.Rand) ([]Event, error) {
	var events []Event

	if rng.Float64() >= d.Parent.BetaDecayProbability {
		g := d.Parent.pickGamma(rng)
		events = append(events, g.FindGammaEvents(rng, 0, d.parentAtom)...)
		evs, err := d.cascade(rng, g.Target, 0, d.parentAtom)
		if err != nil {
			return nil, err
		}
		events = append(events, evs...)
	} else {
		l := d.feeding.PickSource(rng).(*Level)
		evs, err := d.betaEvents(rng, l)
		if err != nil {
			return nil, err
		}
		events = append(events, evs...)
		if evs, err = d.cascade(rng, l, 0, d.daughterAtom); err != nil {
			return nil, err
		}
		events = append(events, evs...)
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Time < events[j].Time })
	return events, nil
}

func (d *Decay) betaEvents(rng *rand.Rand, l *Level) ([]Event, error) {
	switch {
	case d.Mode == BetaMinus:
		e, err := l.beta.Sample(rng)
		if err != nil {
			return nil, err
		}
		return []Event{{Energy: e, Time: 0, Particle: Electron}}, nil
	case l.beta != nil && rng.Float64() < l.PositronFraction:
		e, err := l.beta.Sample(rng)
		if err != nil {
			return nil, err
		}
		return []Event{{Energy: e, Time: 0, Particle: Positron}}, nil
	default:
		return d.daughterAtom.Cascade(rng, ShellK, 0), nil
	}
}

// cascade follows gamma transitions from l down to a level without any.
// Each level lives for an exponentially distributed time before decaying.
func (d *Decay) cascade(rng *rand.Rand, l *Level, t float64, atom *Atom) ([]Event, error) {
	var events []Event
	for steps := 0; l != nil && len(l.Gammas) > 0; steps++ {
		if steps > len(d.Levels) {
			return nil, fmt.Errorf("gamma cascade from %g MeV does not terminate", l.Energy)
		}
		if l.HalfLife > 0 && !math.IsInf(l.HalfLife, 1) {
			t += rng.ExpFloat64() * l.MeanLife()
		}
		g := l.pickGamma(rng)
		events = append(events, g.FindGammaEvents(rng, t, atom)...)
		l = g.Target
	}
	return events, nil
}

// String summarises the decay, e.g. "60CO B- decay (Q=2.823 MeV, 3 levels)".
func (d *Decay) String() string {
	name := d.Nuclide
	if name == "" {
		name = "parent"
	}
	return fmt.Sprintf("%s %s decay (Q=%.4g MeV, %d levels)", name, d.Mode, d.Q, len(d.Levels))
}
