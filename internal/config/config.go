// Package config loads run configurations from YAML or CUE files and wires
// them into a source engine.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Defaults applied to unset fields.
const (
	DefaultSeed    = 1
	DefaultEvents  = 1000
	DefaultWorkers = 1
)

// RunConfig describes one generation run.
type RunConfig struct {
	Name     string          `yaml:"name" json:"name"`
	Seed     int64           `yaml:"seed" json:"seed"`
	Events   int64           `yaml:"events" json:"events"`
	Workers  int             `yaml:"workers" json:"workers"`
	Source   SourceConfig    `yaml:"source" json:"source"`
	Detector *DetectorConfig `yaml:"detector,omitempty" json:"detector,omitempty"`
}

// SourceConfig configures the particle source.
type SourceConfig struct {
	// Type is a preset name. Energy is its numeric argument: MeV for beams,
	// nm for the laser, the tabulation step for 252Cf.
	Type   string   `yaml:"type,omitempty" json:"type,omitempty"`
	Energy *float64 `yaml:"energy,omitempty" json:"energy,omitempty"`

	// Particle overrides the particle of the active source.
	Particle string `yaml:"particle,omitempty" json:"particle,omitempty"`

	EnergyFile    string    `yaml:"energy_file,omitempty" json:"energy_file,omitempty"`
	DecayFile     string    `yaml:"decay_file,omitempty" json:"decay_file,omitempty"`
	ReactionFile  string    `yaml:"reaction_file,omitempty" json:"reaction_file,omitempty"`
	Interpolation string    `yaml:"interpolation,omitempty" json:"interpolation,omitempty"`
	EnergyRange   []float64 `yaml:"energy_range,omitempty" json:"energy_range,omitempty"`

	Position  []float64      `yaml:"position,omitempty" json:"position,omitempty"`
	Direction []float64      `yaml:"direction,omitempty" json:"direction,omitempty"` // degrees about X, Y, Z
	Beamspot  BeamspotConfig `yaml:"beamspot,omitempty" json:"beamspot,omitempty"`

	Isotropic        int     `yaml:"isotropic,omitempty" json:"isotropic,omitempty"`
	BackToBackEnergy float64 `yaml:"back_to_back_energy,omitempty" json:"back_to_back_energy,omitempty"`
}

// BeamspotConfig selects the beamspot shape and its dimensions (mm).
type BeamspotConfig struct {
	Shape   string  `yaml:"shape,omitempty" json:"shape,omitempty"`
	Radius  float64 `yaml:"radius,omitempty" json:"radius,omitempty"`
	Radius2 float64 `yaml:"radius2,omitempty" json:"radius2,omitempty"`
}

// DetectorConfig is the bounding box aimed at in pseudo-isotropic mode.
type DetectorConfig struct {
	Center   []float64 `yaml:"center" json:"center"`
	Size     []float64 `yaml:"size" json:"size"`
	Rotation []float64 `yaml:"rotation,omitempty" json:"rotation,omitempty"` // degrees
}

var fold = cases.Fold()

// normalizeName applies NFKC and case folding, so "⁶⁰Co" and "60CO" name
// the same preset.
func normalizeName(s string) string {
	return strings.TrimSpace(fold.String(norm.NFKC.String(s)))
}

// Normalize canonicalises names and fills defaults. name is used when the
// config has no name of its own.
func (c *RunConfig) Normalize(name string) {
	if c.Name == "" {
		c.Name = name
	}
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
	if c.Events == 0 {
		c.Events = DefaultEvents
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}

	s := &c.Source
	s.Type = normalizeName(s.Type)
	s.Particle = normalizeName(s.Particle)
	s.Interpolation = normalizeName(s.Interpolation)
	s.Beamspot.Shape = normalizeName(s.Beamspot.Shape)
	if s.Beamspot.Shape == "" {
		s.Beamspot.Shape = "point"
	}
}

// ResolvePaths makes relative input file paths relative to dir.
func (c *RunConfig) ResolvePaths(dir string) {
	for _, p := range []*string{&c.Source.EnergyFile, &c.Source.DecayFile, &c.Source.ReactionFile} {
		if *p != "" && !filepath.IsAbs(*p) && dir != "" {
			*p = filepath.Join(dir, *p)
		}
	}
}

// Validate checks ranges and vector lengths.
func (c *RunConfig) Validate() error {
	if c.Events <= 0 {
		return fmt.Errorf("events must be positive, got %d", c.Events)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}

	s := c.Source
	if s.Energy != nil && *s.Energy <= 0 {
		return fmt.Errorf("source.energy must be positive, got %g", *s.Energy)
	}
	if s.Isotropic < 0 || s.Isotropic > 2 {
		return fmt.Errorf("source.isotropic must be 0, 1 or 2, got %d", s.Isotropic)
	}
	if s.Isotropic == 1 && c.Detector == nil {
		return fmt.Errorf("source.isotropic 1 needs a detector block")
	}
	if s.BackToBackEnergy < 0 {
		return fmt.Errorf("source.back_to_back_energy must be non-negative")
	}
	if s.Beamspot.Radius < 0 || s.Beamspot.Radius2 < 0 {
		return fmt.Errorf("source.beamspot radii must be non-negative")
	}
	if err := checkLen("source.position", s.Position, 3, true); err != nil {
		return err
	}
	if err := checkLen("source.direction", s.Direction, 3, true); err != nil {
		return err
	}
	if err := checkLen("source.energy_range", s.EnergyRange, 2, true); err != nil {
		return err
	}
	if len(s.EnergyRange) == 2 && !(s.EnergyRange[0] < s.EnergyRange[1]) {
		return fmt.Errorf("source.energy_range must be increasing, got %v", s.EnergyRange)
	}

	if d := c.Detector; d != nil {
		if err := checkLen("detector.center", d.Center, 3, false); err != nil {
			return err
		}
		if err := checkLen("detector.size", d.Size, 3, false); err != nil {
			return err
		}
		if err := checkLen("detector.rotation", d.Rotation, 3, true); err != nil {
			return err
		}
		for _, x := range d.Size {
			if x <= 0 {
				return fmt.Errorf("detector.size must be positive, got %v", d.Size)
			}
		}
	}
	return nil
}

func checkLen(field string, v []float64, n int, optional bool) error {
	if optional && len(v) == 0 {
		return nil
	}
	if len(v) != n {
		return fmt.Errorf("%s must have %d components, got %d", field, n, len(v))
	}
	return nil
}

// hashDomain prefixes the hashed bytes. Bump the version when the encoding
// of RunConfig changes incompatibly.
const hashDomain = "ndetsrc/config/v1"

// Hash returns the hex SHA-256 of hashDomain, a NUL separator and the
// config's JSON encoding. Normalize the config first so equivalent
// spellings hash alike.
func Hash(c *RunConfig) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("hash config: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(hashDomain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}
