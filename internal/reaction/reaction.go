// Package reaction implements relativistic two-body reaction kinematics for
// a beam on a fixed target, including the energy loss and flight time of the
// beam inside a finite-thickness target.
//
// Masses are MeV/c², energies MeV, lengths mm and times ns.
package reaction

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
)

const (
	// AMU is the atomic mass unit in MeV/c².
	AMU = 931.49410242
	// SpeedOfLight in mm/ns.
	SpeedOfLight = 299.792458

	// timeSteps is the number of trapezoid steps used to integrate the beam
	// flight time through the target.
	timeSteps = 100

	// recoilTolerance is the largest accepted difference (MeV/c²) between a
	// supplied recoil mass and the one implied by the Q-value.
	recoilTolerance = 1.0
)

var (
	// ErrKinematicallyForbidden is returned for emission angles outside the
	// kinematically allowed range and for reactions below threshold.
	ErrKinematicallyForbidden = errors.New("kinematically forbidden")

	// ErrParse marks malformed reaction files.
	ErrParse = errors.New("parse error")
)

// Parameters define a reaction A(a,b)B.
type Parameters struct {
	BeamMass     float64 // a
	TargetMass   float64 // A
	EjectileMass float64 // b
	RecoilMass   float64 // B, optional; derived from the Q-value when zero
	QValue       float64
	BeamEnergy   float64 // kinetic energy of the beam at the target entrance

	Thickness  float64 // target thickness, mm (0 = thin target)
	EnergyLoss float64 // beam stopping power in the target, MeV/mm
}

// Reaction computes ejectile energies for one set of parameters.
//
// SetBeamEnergy mutates the working beam energy, so a Reaction shared
// between goroutines must be guarded by the caller.
type Reaction struct {
	params    Parameters
	recoil    float64
	ebeam     float64
	timeSlope float64
}

// New validates p and precomputes the target flight-time slope.
func New(p Parameters) (*Reaction, error) {
	if p.BeamMass <= 0 || p.TargetMass <= 0 || p.EjectileMass <= 0 {
		return nil, fmt.Errorf("beam, target and ejectile masses must be positive")
	}
	if p.BeamEnergy < 0 {
		return nil, fmt.Errorf("negative beam energy %g MeV", p.BeamEnergy)
	}
	if p.Thickness < 0 || p.EnergyLoss < 0 {
		return nil, fmt.Errorf("target thickness and energy loss must be non-negative")
	}

	recoil := p.BeamMass + p.TargetMass - p.EjectileMass - p.QValue
	if recoil <= 0 {
		return nil, fmt.Errorf("Q-value %g MeV leaves no recoil mass", p.QValue)
	}
	if p.RecoilMass > 0 && math.Abs(p.RecoilMass-recoil) > recoilTolerance {
		slog.Warn("recoil mass disagrees with Q-value, using Q-value",
			"recoil_mass", p.RecoilMass,
			"derived_mass", recoil,
			"q_value", p.QValue,
		)
	}

	r := &Reaction{params: p, recoil: recoil, ebeam: p.BeamEnergy}
	slope, err := r.integrateTimeSlope()
	if err != nil {
		return nil, err
	}
	r.timeSlope = slope
	return r, nil
}

// Params returns the parameters the reaction was built from.
func (r *Reaction) Params() Parameters {
	return r.params
}

// RecoilMass returns the recoil mass used by the kinematics.
func (r *Reaction) RecoilMass() float64 {
	return r.recoil
}

// SetBeamEnergy sets the working beam kinetic energy.
func (r *Reaction) SetBeamEnergy(e float64) {
	r.ebeam = e
}

// BeamEnergy returns the working beam kinetic energy.
func (r *Reaction) BeamEnergy() float64 {
	return r.ebeam
}

// cm holds the centre-of-mass quantities for the working beam energy.
type cm struct {
	beta, gamma float64
	e3, p3      float64 // ejectile total energy and momentum in the CM frame
}

func (r *Reaction) centreOfMass() (cm, error) {
	m1, m2, m3, m4 := r.params.BeamMass, r.params.TargetMass, r.params.EjectileMass, r.recoil
	t1 := r.ebeam
	if t1 < 0 {
		return cm{}, fmt.Errorf("%w: negative beam energy %g MeV", ErrKinematicallyForbidden, t1)
	}
	e1 := t1 + m1
	p1 := math.Sqrt(t1 * (t1 + 2*m1))
	s := m1*m1 + m2*m2 + 2*m2*e1
	rs := math.Sqrt(s)
	if rs < m3+m4 {
		return cm{}, fmt.Errorf("%w: below threshold at %g MeV", ErrKinematicallyForbidden, t1)
	}
	e3 := (s + m3*m3 - m4*m4) / (2 * rs)
	return cm{
		beta:  p1 / (e1 + m2),
		gamma: (e1 + m2) / rs,
		e3:    e3,
		p3:    math.Sqrt(math.Max(e3*e3-m3*m3, 0)),
	}, nil
}

// Sample returns the ejectile kinetic energy at emission angle theta
// (radians, measured from the beam axis). With labFrame false, theta is the
// centre-of-mass angle.
//
// When two lab-frame solutions exist the forward, higher-energy branch is
// returned. Angles beyond the maximum lab angle return
// ErrKinematicallyForbidden; no value is extrapolated or clamped.
func (r *Reaction) Sample(theta float64, labFrame bool) (float64, error) {
	c, err := r.centreOfMass()
	if err != nil {
		return 0, err
	}
	m3 := r.params.EjectileMass
	cos := math.Cos(theta)

	if !labFrame {
		return c.gamma*(c.e3+c.beta*c.p3*cos) - m3, nil
	}

	k := c.e3 / c.gamma
	a := 1 - c.beta*c.beta*cos*cos
	b := k * c.beta * cos
	d := k*k - m3*m3*a
	if d < 0 {
		return 0, fmt.Errorf("%w: lab angle %.4g rad exceeds %.4g rad", ErrKinematicallyForbidden, theta, r.MaxLabAngle())
	}
	p := (b + math.Sqrt(d)) / a
	if p <= 0 || k+c.beta*cos*p <= 0 {
		return 0, fmt.Errorf("%w: lab angle %.4g rad exceeds %.4g rad", ErrKinematicallyForbidden, theta, r.MaxLabAngle())
	}
	return math.Sqrt(p*p+m3*m3) - m3, nil
}

// MaxLabAngle returns the largest lab angle at which the ejectile can be
// emitted at the working beam energy: pi unless the centre of mass moves
// faster than the ejectile does in it. Below threshold it returns 0.
func (r *Reaction) MaxLabAngle() float64 {
	c, err := r.centreOfMass()
	if err != nil {
		return 0
	}
	m3 := r.params.EjectileMass
	k := c.e3 / c.gamma
	if k >= m3 || c.beta == 0 {
		return math.Pi
	}
	cos2 := (m3*m3 - k*k) / (m3 * m3 * c.beta * c.beta)
	return math.Acos(math.Sqrt(math.Min(cos2, 1)))
}

// HasTarget reports whether a finite target thickness is configured.
func (r *Reaction) HasTarget() bool {
	return r.params.Thickness > 0
}

// SampleDepth returns a reaction depth uniform in [0, thickness].
func (r *Reaction) SampleDepth(rng *rand.Rand) float64 {
	return rng.Float64() * r.params.Thickness
}

// BeamEnergyAt returns the beam energy after losing energy over depth mm.
func (r *Reaction) BeamEnergyAt(depth float64) float64 {
	return r.params.BeamEnergy - r.params.EnergyLoss*depth
}

// TimeSlope returns the mean beam flight time per mm of target (ns/mm).
func (r *Reaction) TimeSlope() float64 {
	return r.timeSlope
}

// TimeOffset returns the beam flight time to depth mm.
func (r *Reaction) TimeOffset(depth float64) float64 {
	return r.timeSlope * depth
}

// integrateTimeSlope integrates 1/v over the target thickness with the
// trapezoid rule and divides by the thickness.
func (r *Reaction) integrateTimeSlope() (float64, error) {
	l := r.params.Thickness
	if l == 0 {
		return 0, nil
	}
	xs := make([]float64, timeSteps+1)
	floats.Span(xs, 0, l)
	inv := make([]float64, len(xs))
	m := r.params.BeamMass
	for i, x := range xs {
		e := r.BeamEnergyAt(x)
		if e <= 0 {
			return 0, fmt.Errorf("beam stops inside the target at %.4g mm", x)
		}
		g := (e + m) / m
		beta := math.Sqrt(1 - 1/(g*g))
		inv[i] = 1 / (beta * SpeedOfLight)
	}
	return integrate.Trapezoidal(xs, inv) / l, nil
}
