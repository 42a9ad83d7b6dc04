package engine

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roach88/ndetsrc/internal/beam"
	"github.com/roach88/ndetsrc/internal/decay"
	"github.com/roach88/ndetsrc/internal/dist"
	"github.com/roach88/ndetsrc/internal/geom"
	"github.com/roach88/ndetsrc/internal/reaction"
)

// IsotropicMode selects how emission directions are drawn.
type IsotropicMode int

const (
	// IsotropicOff emits along the source frame's X axis.
	IsotropicOff IsotropicMode = iota
	// IsotropicPseudo aims at a uniformly random point of the detector's
	// bounding box, taken in the detector's own rotated frame.
	IsotropicPseudo
	// IsotropicFull samples the unit sphere uniformly.
	IsotropicFull
)

func (m IsotropicMode) String() string {
	switch m {
	case IsotropicOff:
		return "off"
	case IsotropicPseudo:
		return "pseudo"
	case IsotropicFull:
		return "full"
	default:
		return fmt.Sprintf("isotropic(%d)", int(m))
	}
}

// Engine is the particle source. One Engine serves every worker of a run.
//
// Thread-safety model:
//   - GeneratePrimaries(): safe from any goroutine, serialized by mu
//   - configuration methods: setup only, before workers start
//
// INVARIANTS:
//   - sources is never empty; Reset leaves exactly one default source
//   - active indexes sources
//   - a failed configuration call leaves the previous state untouched
type Engine struct {
	mu sync.Mutex

	rng      *rand.Rand
	clock    EventClock
	detector geom.DetectorView

	name      string
	sources   []*ElementarySource
	active    int
	profile   beam.Profile
	position  r3.Vec
	frame     geom.Frame
	isotropic IsotropicMode

	interp    dist.Interpolation
	energyLo  float64
	energyHi  float64
	haveRange bool

	backToBackEnergy float64

	reaction *reaction.Reaction
	decay    *decay.Decay
}

// EngineOption configures an Engine at construction.
type EngineOption func(*Engine)

// WithSeed seeds the engine's random source.
func WithSeed(seed int64) EngineOption {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewSource(seed))
	}
}

// WithRand sets the engine's random source.
func WithRand(rng *rand.Rand) EngineOption {
	return func(e *Engine) {
		e.rng = rng
	}
}

// WithDetector sets the detector aimed at in pseudo-isotropic mode.
func WithDetector(d geom.DetectorView) EngineOption {
	return func(e *Engine) {
		e.detector = d
	}
}

// WithClock sets the event ID clock.
func WithClock(c EventClock) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an Engine holding the default source. Without WithSeed the
// random source is seeded with 1.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		rng:   rand.New(rand.NewSource(1)),
		clock: NewClock(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.reset()
	return e
}

// Reset discards every source, the reaction, the decay scheme and the
// geometry settings, leaving exactly one default source: a 1 MeV neutron
// from a point beamspot at the origin along the X axis.
func (e *Engine) Reset() {
	e.reset()
	slog.Debug("source reset")
}

func (e *Engine) reset() {
	e.name = "neutron"
	e.sources = []*ElementarySource{defaultSource()}
	e.active = 0
	e.profile = beam.Profile{}
	e.position = r3.Vec{}
	e.frame = geom.Identity()
	e.isotropic = IsotropicOff
	e.interp = dist.Linear
	e.haveRange = false
	e.backToBackEnergy = 0
	e.reaction = nil
	e.decay = nil
}

// logged reports a configuration error and converts it to a success flag.
func logged(op string, err error) bool {
	if err != nil {
		slog.Error("source configuration failed", "op", op, "error", err)
		return false
	}
	return true
}

// SetSourceType configures a named preset, replacing all sources. The
// optional argument is the energy in MeV for neutron, gamma and electron
// beams, the wavelength in nm for the laser, and the tabulation step in MeV
// for 252Cf. Isotope presets ignore it.
func (e *Engine) SetSourceType(name string, arg ...float64) bool {
	return logged("SetSourceType", e.SetSourceTypeE(name, arg...))
}

// SetSourceTypeE is SetSourceType returning the cause of a failure.
func (e *Engine) SetSourceTypeE(name string, arg ...float64) error {
	canonical, build, ok := lookupPreset(name)
	if !ok {
		return invalidArgument("unknown source type %q", name)
	}
	if len(arg) > 1 {
		return invalidArgument("source type %s takes at most one argument, got %d", canonical, len(arg))
	}
	var a float64
	if len(arg) == 1 {
		a = arg[0]
	}
	srcs, err := build(a, len(arg) == 1)
	if err != nil {
		return classify("", err)
	}
	for _, s := range srcs {
		s.Profile = e.profile
	}

	e.name = canonical
	e.sources = srcs
	e.active = 0
	e.decay = nil
	slog.Info("source configured", "type", canonical, "sources", len(srcs))
	return nil
}

// SetNeutronBeam configures a mono-energetic neutron beam.
func (e *Engine) SetNeutronBeam(energy float64) bool {
	return e.SetSourceType("neutron", energy)
}

// SetGammaRayBeam configures a mono-energetic gamma beam.
func (e *Engine) SetGammaRayBeam(energy float64) bool {
	return e.SetSourceType("gamma", energy)
}

// SetElectronBeam configures a mono-energetic electron beam.
func (e *Engine) SetElectronBeam(energy float64) bool {
	return e.SetSourceType("electron", energy)
}

// SetLaserBeam configures an optical-photon beam of the given wavelength.
func (e *Engine) SetLaserBeam(wavelength float64) bool {
	return e.SetSourceType("laser", wavelength)
}

// AddSource appends a source and makes it the active one.
func (e *Engine) AddSource(src ElementarySource) error {
	if src.Energy == nil {
		return invalidArgument("source %q has no energy distribution", src.Label)
	}
	if src.Particle == "" {
		return invalidArgument("source %q has no particle", src.Label)
	}
	if src.Intensity < 0 || math.IsNaN(src.Intensity) {
		return invalidArgument("source %q: invalid intensity %g", src.Label, src.Intensity)
	}
	e.sources = append(e.sources, &src)
	e.active = len(e.sources) - 1
	return nil
}

// SetActiveSource selects the source that receives ReadEnergyFile and
// SetParticle.
func (e *Engine) SetActiveSource(i int) error {
	if i < 0 || i >= len(e.sources) {
		return invalidArgument("source index %d out of range [0, %d)", i, len(e.sources))
	}
	e.active = i
	return nil
}

// ActiveSource returns the index of the active source.
func (e *Engine) ActiveSource() int {
	return e.active
}

// SetParticle changes the particle of the active source.
func (e *Engine) SetParticle(name string) error {
	p, err := ParseParticle(name)
	if err != nil {
		return err
	}
	src := *e.sources[e.active]
	src.Particle = p
	e.sources[e.active] = &src
	return nil
}

// Sources returns copies of the configured sources. The copies are shallow:
// Energy and Profile values are shared with the engine, so calling Sample or
// SetRange on a copied *dist.Tabulated mutates engine state without the
// engine lock.
func (e *Engine) Sources() []ElementarySource {
	out := make([]ElementarySource, len(e.sources))
	for i, s := range e.sources {
		out[i] = *s
	}
	return out
}

// NumSources returns the number of configured sources.
func (e *Engine) NumSources() int {
	return len(e.sources)
}

// SourceType returns the name of the last preset or decay file applied.
func (e *Engine) SourceType() string {
	return e.name
}

// SetBeamspotType sets the beamspot shape of every source. Unknown names
// fall back to a point with a warning.
func (e *Engine) SetBeamspotType(name string) {
	e.profile.Shape = beam.ParseShape(name)
	e.applyProfile()
}

// SetBeamspotRadius sets the primary beamspot dimension (mm).
func (e *Engine) SetBeamspotRadius(r float64) error {
	if r < 0 || math.IsNaN(r) {
		return invalidArgument("beamspot radius %g mm", r)
	}
	e.profile.R1 = r
	e.applyProfile()
	return nil
}

// SetBeamspotRadius2 sets the secondary beamspot dimension (mm).
func (e *Engine) SetBeamspotRadius2(r float64) error {
	if r < 0 || math.IsNaN(r) {
		return invalidArgument("beamspot radius %g mm", r)
	}
	e.profile.R2 = r
	e.applyProfile()
	return nil
}

func (e *Engine) applyProfile() {
	for i, s := range e.sources {
		cp := *s
		cp.Profile = e.profile
		e.sources[i] = &cp
	}
}

// SetSourcePosition sets the beamspot centre (mm).
func (e *Engine) SetSourcePosition(p r3.Vec) {
	e.position = p
}

// Position returns the beamspot centre.
func (e *Engine) Position() r3.Vec {
	return e.position
}

// SetSourceDirection orients the source by rotating the world axes about X,
// then Y, then Z (radians). The rotated X axis is the beam direction.
func (e *Engine) SetSourceDirection(ax, ay, az float64) {
	e.frame = geom.FromAngles(ax, ay, az)
}

// Frame returns the source frame.
func (e *Engine) Frame() geom.Frame {
	return e.frame
}

// SetDetector sets the detector aimed at in pseudo-isotropic mode.
func (e *Engine) SetDetector(d geom.DetectorView) error {
	if d == nil && e.isotropic == IsotropicPseudo {
		return invalidArgument("pseudo-isotropic mode needs a detector")
	}
	e.detector = d
	return nil
}

// SetIsotropicMode selects 0 (off), 1 (pseudo-isotropic toward the
// detector) or 2 (fully isotropic).
func (e *Engine) SetIsotropicMode(level int) error {
	m := IsotropicMode(level)
	switch m {
	case IsotropicOff, IsotropicFull:
	case IsotropicPseudo:
		if e.detector == nil {
			return invalidArgument("pseudo-isotropic mode needs a detector")
		}
	default:
		return invalidArgument("isotropic mode %d not in {0, 1, 2}", level)
	}
	e.isotropic = m
	return nil
}

// IsotropicMode returns the current isotropic mode.
func (e *Engine) IsotropicMode() IsotropicMode {
	return e.isotropic
}

// SetEnergyInterpolation sets the interpolation of energy files read from
// now on, and of the active source if it already is tabulated.
func (e *Engine) SetEnergyInterpolation(mode dist.Interpolation) {
	e.interp = mode
	if t, ok := e.sources[e.active].Energy.(*dist.Tabulated); ok {
		t.SetInterpolation(mode)
	}
}

// SetEnergyRange restricts sampling of tabulated energies to [lo, hi].
func (e *Engine) SetEnergyRange(lo, hi float64) {
	e.energyLo, e.energyHi, e.haveRange = lo, hi, true
	if t, ok := e.sources[e.active].Energy.(*dist.Tabulated); ok {
		t.SetRange(lo, hi)
	}
}

// SetBackToBackEnergy sets the total energy shared by a back-to-back pair.
// Zero gives both particles the sampled energy.
func (e *Engine) SetBackToBackEnergy(total float64) error {
	if total < 0 || math.IsNaN(total) {
		return invalidArgument("back-to-back energy %g MeV", total)
	}
	e.backToBackEnergy = total
	return nil
}

// ReadEnergyFile loads an "energy weight" spectrum into the active source.
func (e *Engine) ReadEnergyFile(path string) bool {
	return logged("ReadEnergyFile", e.ReadEnergyFileE(path))
}

// ReadEnergyFileE is ReadEnergyFile returning the cause of a failure.
func (e *Engine) ReadEnergyFileE(path string) error {
	t, err := dist.ReadFile(path)
	if err != nil {
		return classify(path, err)
	}
	t.SetInterpolation(e.interp)
	if e.haveRange {
		t.SetRange(e.energyLo, e.energyHi)
	}
	if _, err := t.Integral(); err != nil {
		return classify(path, err)
	}

	src := *e.sources[e.active]
	src.Energy = t
	src.Label = filepath.Base(path)
	e.sources[e.active] = &src
	slog.Info("energy spectrum loaded", "path", path, "points", t.Len(), "source", e.active)
	return nil
}

// ReadReactionFile loads reaction kinematics applied to every source.
func (e *Engine) ReadReactionFile(path string) bool {
	return logged("ReadReactionFile", e.ReadReactionFileE(path))
}

// ReadReactionFileE is ReadReactionFile returning the cause of a failure.
func (e *Engine) ReadReactionFileE(path string) error {
	r, err := reaction.Read(path)
	if err != nil {
		return classify(path, err)
	}
	e.reaction = r
	p := r.Params()
	slog.Info("reaction loaded",
		"path", path,
		"q_value", p.QValue,
		"beam_energy", p.BeamEnergy,
		"thickness", p.Thickness,
		"max_lab_angle", r.MaxLabAngle(),
	)
	return nil
}

// Reaction returns the loaded reaction, or nil.
func (e *Engine) Reaction() *reaction.Reaction {
	return e.reaction
}

// ReadDecayFile loads a decay scheme. While one is loaded each event is a
// full decay instead of one particle per source.
func (e *Engine) ReadDecayFile(path string) bool {
	return logged("ReadDecayFile", e.ReadDecayFileE(path))
}

// ReadDecayFileE is ReadDecayFile returning the cause of a failure.
func (e *Engine) ReadDecayFileE(path string) error {
	d, err := decay.ReadFile(path)
	if err != nil {
		return classify(path, err)
	}
	e.decay = d
	e.name = d.Nuclide
	slog.Info("decay scheme loaded", "path", path, "decay", d.String())
	return nil
}

// Decay returns the loaded decay scheme, or nil.
func (e *Engine) Decay() *decay.Decay {
	return e.decay
}

// GeneratePrimaries builds the vertices of one event and pushes them to
// sink. It holds the engine lock for the whole call. Sampling failures are
// returned as *SourceError; the caller should stop the run.
//
// The event ID is drawn from the clock before sampling, so a failed event
// still consumes its ID and the IDs a sink sees can have gaps.
func (e *Engine) GeneratePrimaries(sink EventSink) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.clock.Next()
	var (
		vertices []PrimaryVertex
		err      error
	)
	if e.decay != nil {
		vertices, err = e.decayPrimaries()
	} else {
		vertices, err = e.sourcePrimaries()
	}
	if err != nil {
		return id, classify("", fmt.Errorf("event %d: %w", id, err))
	}
	if err := sink.AddPrimaries(id, vertices); err != nil {
		return id, fmt.Errorf("event %d: sink: %w", id, err)
	}
	return id, nil
}

func (e *Engine) sourcePrimaries() ([]PrimaryVertex, error) {
	out := make([]PrimaryVertex, 0, len(e.sources)+1)
	for i, src := range e.sources {
		energy, err := src.Energy.Sample(e.rng)
		if err != nil {
			return nil, fmt.Errorf("source %d (%s): %w", i, src.Label, err)
		}
		pos := e.spot(src.Profile)

		var t float64
		if e.reaction != nil && e.reaction.HasTarget() {
			depth := e.reaction.SampleDepth(e.rng)
			e.reaction.SetBeamEnergy(e.reaction.BeamEnergyAt(depth))
			pos = r3.Add(pos, r3.Scale(depth, e.frame.X))
			t = e.reaction.TimeOffset(depth)
		}

		dir := e.direction(pos)
		if e.reaction != nil {
			energy, err = e.reaction.Sample(geom.Angle(e.frame.X, dir), true)
			if err != nil {
				return nil, fmt.Errorf("source %d (%s): %w", i, src.Label, err)
			}
		}

		out = append(out, PrimaryVertex{Position: pos, Direction: dir, KineticEnergy: energy, Particle: src.Particle, Time: t})
		if !src.BackToBack {
			continue
		}
		partner := energy
		if e.backToBackEnergy > 0 {
			partner = e.backToBackEnergy - energy
			if partner <= 0 {
				return nil, invalidArgument("source %d (%s): sampled %g MeV exceeds back-to-back total %g MeV", i, src.Label, energy, e.backToBackEnergy)
			}
		}
		out = append(out, PrimaryVertex{Position: pos, Direction: r3.Scale(-1, dir), KineticEnergy: partner, Particle: src.Particle, Time: t})
	}
	return out, nil
}

func (e *Engine) decayPrimaries() ([]PrimaryVertex, error) {
	events, err := e.decay.Execute(e.rng)
	if err != nil {
		return nil, fmt.Errorf("decay %s: %w", e.decay.Nuclide, err)
	}
	pos := e.spot(e.sources[e.active].Profile)
	out := make([]PrimaryVertex, 0, len(events))
	for _, ev := range events {
		out = append(out, PrimaryVertex{
			Position:      pos,
			Direction:     e.direction(pos),
			KineticEnergy: ev.Energy,
			Particle:      ParticleType(ev.Particle),
			Time:          ev.Time,
		})
	}
	return out, nil
}

// spot returns a beamspot point in the plane spanned by the frame's Y and Z.
func (e *Engine) spot(p beam.Profile) r3.Vec {
	u, v := p.Sample(e.rng)
	return r3.Add(e.position, r3.Add(r3.Scale(u, e.frame.Y), r3.Scale(v, e.frame.Z)))
}

func (e *Engine) direction(pos r3.Vec) r3.Vec {
	switch e.isotropic {
	case IsotropicPseudo:
		size := e.detector.Size()
		local := r3.Vec{
			X: (e.rng.Float64() - 0.5) * size.X,
			Y: (e.rng.Float64() - 0.5) * size.Y,
			Z: (e.rng.Float64() - 0.5) * size.Z,
		}
		d := r3.Sub(r3.Add(e.detector.Center(), e.detector.Rotation().ToWorld(local)), pos)
		if r3.Norm(d) == 0 {
			return e.frame.X
		}
		return r3.Unit(d)
	case IsotropicFull:
		c := 2*e.rng.Float64() - 1
		phi := 2 * math.Pi * e.rng.Float64()
		s := math.Sqrt(1 - c*c)
		return e.frame.ToWorld(r3.Vec{X: c, Y: s * math.Cos(phi), Z: s * math.Sin(phi)})
	default:
		return e.frame.X
	}
}

// Describe renders the configuration as a stable, human-readable listing.
// The active source is marked with '*'.
func (e *Engine) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "source type: %s\n", e.name)
	fmt.Fprintf(&b, "position: %s mm\n", formatVec(e.position))
	fmt.Fprintf(&b, "direction: %s\n", formatVec(e.frame.X))
	fmt.Fprintf(&b, "isotropic: %s\n", e.isotropic)
	if e.reaction != nil {
		p := e.reaction.Params()
		fmt.Fprintf(&b, "reaction: Q=%g MeV, beam %g MeV, target %g mm, max lab angle %s deg\n",
			p.QValue, p.BeamEnergy, p.Thickness, formatFloat(geom.Degrees(e.reaction.MaxLabAngle())))
	}
	if e.decay != nil {
		fmt.Fprintf(&b, "decay: %s\n", e.decay)
	}
	if e.backToBackEnergy > 0 {
		fmt.Fprintf(&b, "back-to-back total: %g MeV\n", e.backToBackEnergy)
	}
	fmt.Fprintf(&b, "sources: %d\n", len(e.sources))
	for i, s := range e.sources {
		marker := " "
		if i == e.active {
			marker = "*"
		}
		pair := ""
		if s.BackToBack {
			pair = ", back-to-back"
		}
		fmt.Fprintf(&b, "%s[%d] %s: %s, %s, intensity %g, beamspot %s%s\n",
			marker, i, s.Label, s.Particle, describeEnergy(s.Energy), s.Intensity, s.Profile.Describe(), pair)
	}
	return b.String()
}

// formatFloat rounds to 6 decimals so rotation noise does not show.
func formatFloat(x float64) string {
	r := math.Round(x*1e6) / 1e6
	if r == 0 {
		r = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(r, 'g', -1, 64)
}

func formatVec(v r3.Vec) string {
	return fmt.Sprintf("(%s, %s, %s)", formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Z))
}
