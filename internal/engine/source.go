package engine

import (
	"fmt"
	"strings"

	"github.com/roach88/ndetsrc/internal/beam"
	"github.com/roach88/ndetsrc/internal/decay"
	"github.com/roach88/ndetsrc/internal/dist"
)

// ElementarySource emits one particle per event.
type ElementarySource struct {
	Label      string
	Particle   ParticleType
	Energy     dist.Sampler
	Profile    beam.Profile
	Intensity  float64 // relative emission intensity, per 100 decays for isotopes
	BackToBack bool    // also emit a partner particle in the opposite direction
}

// DefaultEnergy is the energy of the source left by Reset and of beams
// configured without an explicit energy.
const DefaultEnergy = 1.0 // MeV

// DefaultLaserWavelength in nm.
const DefaultLaserWavelength = 404.0

// hcMeVnm is hc in MeV·nm.
const hcMeVnm = 1.23984198e-3

func defaultSource() *ElementarySource {
	return &ElementarySource{
		Label:     "neutron",
		Particle:  Neutron,
		Energy:    dist.Mono{Energy: DefaultEnergy},
		Intensity: 1,
	}
}

// preset builds the sources of a named source type. arg is the optional
// numeric argument of SetSourceType.
type preset func(arg float64, hasArg bool) ([]*ElementarySource, error)

// presetAliases maps accepted spellings to canonical preset names.
var presetAliases = map[string]string{
	"137cs": "137Cs", "cs137": "137Cs", "cs-137": "137Cs",
	"60co": "60Co", "co60": "60Co", "co-60": "60Co",
	"133ba": "133Ba", "ba133": "133Ba", "ba-133": "133Ba",
	"241am": "241Am", "am241": "241Am", "am-241": "241Am",
	"90sr": "90Sr", "sr90": "90Sr", "sr-90": "90Sr",
	"252cf": "252Cf", "cf252": "252Cf", "cf-252": "252Cf",
	"22na": "22Na", "na22": "22Na", "na-22": "22Na",
	"neutron": "neutron", "n": "neutron",
	"gamma": "gamma", "photon": "gamma",
	"electron": "electron", "e-": "electron",
	"laser": "laser",
}

var presets = map[string]preset{
	"137Cs": func(float64, bool) ([]*ElementarySource, error) {
		return linesSource("137Cs", Gamma, dist.Line{Energy: 0.661657, Intensity: 85.1})
	},
	"60Co": func(float64, bool) ([]*ElementarySource, error) {
		// The two gammas are emitted in cascade, so each event carries both.
		return []*ElementarySource{
			{Label: "60Co 1173 keV", Particle: Gamma, Energy: dist.Mono{Energy: 1.173228}, Intensity: 99.85},
			{Label: "60Co 1332 keV", Particle: Gamma, Energy: dist.Mono{Energy: 1.332492}, Intensity: 99.9826},
		}, nil
	},
	"133Ba": func(float64, bool) ([]*ElementarySource, error) {
		return linesSource("133Ba", Gamma,
			dist.Line{Energy: 0.0531622, Intensity: 2.14},
			dist.Line{Energy: 0.0809979, Intensity: 32.9},
			dist.Line{Energy: 0.160612, Intensity: 0.645},
			dist.Line{Energy: 0.223237, Intensity: 0.45},
			dist.Line{Energy: 0.276399, Intensity: 7.16},
			dist.Line{Energy: 0.302851, Intensity: 18.34},
			dist.Line{Energy: 0.356013, Intensity: 62.05},
			dist.Line{Energy: 0.383849, Intensity: 8.94},
		)
	},
	"241Am": func(float64, bool) ([]*ElementarySource, error) {
		return linesSource("241Am", Gamma,
			dist.Line{Energy: 0.0263446, Intensity: 2.27},
			dist.Line{Energy: 0.0595409, Intensity: 35.9},
		)
	},
	"90Sr": func(float64, bool) ([]*ElementarySource, error) {
		// 90Sr and its daughter 90Y are in secular equilibrium.
		sr, err := decay.NewFermi(39, 0.5459, -1)
		if err != nil {
			return nil, err
		}
		y, err := decay.NewFermi(40, 2.2785, -1)
		if err != nil {
			return nil, err
		}
		return []*ElementarySource{
			{Label: "90Sr beta", Particle: Electron, Energy: sr, Intensity: 100},
			{Label: "90Y beta", Particle: Electron, Energy: y, Intensity: 100},
		}, nil
	},
	"252Cf": func(step float64, hasArg bool) ([]*ElementarySource, error) {
		if !hasArg {
			step = dist.DefaultCf252Step
		}
		if step <= 0 {
			return nil, invalidArgument("Cf-252 step %g MeV must be positive", step)
		}
		t, err := dist.Cf252(step, dist.DefaultCf252Max)
		if err != nil {
			return nil, err
		}
		return []*ElementarySource{{Label: "252Cf fission", Particle: Neutron, Energy: t, Intensity: 100}}, nil
	},
	"22Na": func(float64, bool) ([]*ElementarySource, error) {
		return []*ElementarySource{
			{Label: "22Na annihilation", Particle: Gamma, Energy: dist.Mono{Energy: decay.ElectronMass}, Intensity: 90.3, BackToBack: true},
			{Label: "22Na 1275 keV", Particle: Gamma, Energy: dist.Mono{Energy: 1.274537}, Intensity: 99.94},
		}, nil
	},
	"neutron":  monoPreset(Neutron),
	"gamma":    monoPreset(Gamma),
	"electron": monoPreset(Electron),
	"laser": func(wavelength float64, hasArg bool) ([]*ElementarySource, error) {
		if !hasArg {
			wavelength = DefaultLaserWavelength
		}
		if wavelength <= 0 {
			return nil, invalidArgument("laser wavelength %g nm must be positive", wavelength)
		}
		return []*ElementarySource{{
			Label:     fmt.Sprintf("laser %g nm", wavelength),
			Particle:  OpticalPhoton,
			Energy:    dist.Mono{Energy: hcMeVnm / wavelength},
			Intensity: 1,
		}}, nil
	},
}

func monoPreset(p ParticleType) preset {
	return func(e float64, hasArg bool) ([]*ElementarySource, error) {
		if !hasArg {
			e = DefaultEnergy
		}
		if e <= 0 {
			return nil, invalidArgument("%s energy %g MeV must be positive", p, e)
		}
		return []*ElementarySource{{Label: string(p), Particle: p, Energy: dist.Mono{Energy: e}, Intensity: 1}}, nil
	}
}

func linesSource(label string, p ParticleType, lines ...dist.Line) ([]*ElementarySource, error) {
	l, err := dist.NewLines(lines...)
	if err != nil {
		return nil, err
	}
	return []*ElementarySource{{Label: label, Particle: p, Energy: l, Intensity: l.TotalIntensity()}}, nil
}

// PresetNames returns the canonical preset names.
func PresetNames() []string {
	return []string{"137Cs", "60Co", "133Ba", "241Am", "90Sr", "252Cf", "22Na", "neutron", "gamma", "electron", "laser"}
}

func lookupPreset(name string) (string, preset, bool) {
	canonical, ok := presetAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", nil, false
	}
	return canonical, presets[canonical], true
}

// describeEnergy renders a sampler for source listings.
func describeEnergy(s dist.Sampler) string {
	switch v := s.(type) {
	case dist.Mono:
		return fmt.Sprintf("mono %g MeV", v.Energy)
	case *dist.Lines:
		return fmt.Sprintf("%d lines", len(v.Lines()))
	case *decay.Fermi:
		return fmt.Sprintf("beta Z=%d Q=%g MeV", v.Z, v.Q)
	case *dist.Tabulated:
		lo, hi := v.Range()
		return fmt.Sprintf("tabulated %d points %s [%g, %g] MeV", v.Len(), v.Interpolation(), lo, hi)
	case nil:
		return "none"
	default:
		return fmt.Sprintf("%T", s)
	}
}
