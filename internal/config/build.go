package config

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roach88/ndetsrc/internal/dist"
	"github.com/roach88/ndetsrc/internal/engine"
	"github.com/roach88/ndetsrc/internal/geom"
)

// Build creates an engine configured from c. Extra options are applied after
// the seed and detector options derived from c.
//
// Settings apply in a fixed order: beamspot, preset, interpolation and range,
// energy file, particle, reaction, decay, geometry, emission mode.
func Build(c *RunConfig, opts ...engine.EngineOption) (*engine.Engine, error) {
	all := []engine.EngineOption{engine.WithSeed(c.Seed)}
	if d := c.Detector; d != nil {
		box := geom.NewBox(vec(d.Center), vec(d.Size))
		if len(d.Rotation) == 3 {
			box.Orient = geom.FromDegrees(d.Rotation[0], d.Rotation[1], d.Rotation[2])
		}
		all = append(all, engine.WithDetector(box))
	}
	e := engine.New(append(all, opts...)...)

	s := c.Source
	if s.Beamspot.Shape != "" {
		e.SetBeamspotType(s.Beamspot.Shape)
	}
	if err := e.SetBeamspotRadius(s.Beamspot.Radius); err != nil {
		return nil, err
	}
	if err := e.SetBeamspotRadius2(s.Beamspot.Radius2); err != nil {
		return nil, err
	}

	if s.Type != "" {
		var err error
		if s.Energy != nil {
			err = e.SetSourceTypeE(s.Type, *s.Energy)
		} else {
			err = e.SetSourceTypeE(s.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("source.type: %w", err)
		}
	}

	if s.Interpolation != "" {
		mode, err := dist.ParseInterpolation(s.Interpolation)
		if err != nil {
			return nil, fmt.Errorf("source.interpolation: %w", err)
		}
		e.SetEnergyInterpolation(mode)
	}
	if len(s.EnergyRange) == 2 {
		e.SetEnergyRange(s.EnergyRange[0], s.EnergyRange[1])
	}
	if s.EnergyFile != "" {
		if err := e.ReadEnergyFileE(s.EnergyFile); err != nil {
			return nil, fmt.Errorf("source.energy_file: %w", err)
		}
	}
	if s.Particle != "" {
		if err := e.SetParticle(s.Particle); err != nil {
			return nil, fmt.Errorf("source.particle: %w", err)
		}
	}
	if s.ReactionFile != "" {
		if err := e.ReadReactionFileE(s.ReactionFile); err != nil {
			return nil, fmt.Errorf("source.reaction_file: %w", err)
		}
	}
	if s.DecayFile != "" {
		if err := e.ReadDecayFileE(s.DecayFile); err != nil {
			return nil, fmt.Errorf("source.decay_file: %w", err)
		}
	}

	if len(s.Position) == 3 {
		e.SetSourcePosition(vec(s.Position))
	}
	if len(s.Direction) == 3 {
		e.SetSourceDirection(geom.Radians(s.Direction[0]), geom.Radians(s.Direction[1]), geom.Radians(s.Direction[2]))
	}
	if err := e.SetIsotropicMode(s.Isotropic); err != nil {
		return nil, fmt.Errorf("source.isotropic: %w", err)
	}
	if err := e.SetBackToBackEnergy(s.BackToBackEnergy); err != nil {
		return nil, fmt.Errorf("source.back_to_back_energy: %w", err)
	}

	slog.Debug("engine built", "run", c.Name, "source_type", e.SourceType(), "sources", e.NumSources())
	return e, nil
}

func vec(v []float64) r3.Vec {
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}
