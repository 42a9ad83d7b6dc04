package dist

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/mroth/weightedrand"
)

// weightScale converts relative intensities to the integer weights used by
// the chooser. Intensities are percentages, so 1e6 keeps eight significant
// digits for lines above 1%.
const weightScale = 1e6

// Mono is a mono-energetic sampler.
type Mono struct {
	Energy float64
}

// Sample always returns the configured energy.
func (m Mono) Sample(*rand.Rand) (float64, error) {
	return m.Energy, nil
}

// Line is one discrete emission line.
type Line struct {
	Energy    float64 // MeV
	Intensity float64 // relative, usually per 100 decays
}

// Lines samples discrete lines with probability proportional to intensity.
type Lines struct {
	lines   []Line
	chooser *weightedrand.Chooser
}

// NewLines builds a discrete-line sampler. At least one line must have a
// positive intensity.
func NewLines(lines ...Line) (*Lines, error) {
	choices := make([]weightedrand.Choice, 0, len(lines))
	for _, l := range lines {
		if l.Intensity < 0 || math.IsNaN(l.Intensity) {
			return nil, fmt.Errorf("line %g MeV: invalid intensity %g", l.Energy, l.Intensity)
		}
		choices = append(choices, weightedrand.NewChoice(l.Energy, uint(math.Round(l.Intensity*weightScale))))
	}
	chooser, err := weightedrand.NewChooser(choices...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmptyDistribution, err)
	}
	cp := make([]Line, len(lines))
	copy(cp, lines)
	return &Lines{lines: cp, chooser: chooser}, nil
}

// Sample returns the energy of one line.
func (l *Lines) Sample(rng *rand.Rand) (float64, error) {
	return l.chooser.PickSource(rng).(float64), nil
}

// Lines returns a copy of the configured lines.
func (l *Lines) Lines() []Line {
	cp := make([]Line, len(l.lines))
	copy(cp, l.lines)
	return cp
}

// TotalIntensity returns the summed intensity of all lines.
func (l *Lines) TotalIntensity() float64 {
	sum := 0.0
	for _, line := range l.lines {
		sum += line.Intensity
	}
	return sum
}

// BranchingRatios returns each line's intensity divided by the total.
func (l *Lines) BranchingRatios() []float64 {
	total := l.TotalIntensity()
	out := make([]float64, len(l.lines))
	for i, line := range l.lines {
		out[i] = line.Intensity / total
	}
	return out
}
