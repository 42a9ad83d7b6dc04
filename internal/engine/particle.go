package engine

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// ParticleType names a primary particle the way the transport code does.
type ParticleType string

const (
	Neutron       ParticleType = "neutron"
	Gamma         ParticleType = "gamma"
	Electron      ParticleType = "e-"
	Positron      ParticleType = "e+"
	OpticalPhoton ParticleType = "opticalphoton"
	Proton        ParticleType = "proton"
	Alpha         ParticleType = "alpha"
	Geantino      ParticleType = "geantino"
)

var particleAliases = map[string]ParticleType{
	"neutron":       Neutron,
	"n":             Neutron,
	"gamma":         Gamma,
	"photon":        Gamma,
	"e-":            Electron,
	"electron":      Electron,
	"e+":            Positron,
	"positron":      Positron,
	"opticalphoton": OpticalPhoton,
	"optical":       OpticalPhoton,
	"proton":        Proton,
	"p":             Proton,
	"alpha":         Alpha,
	"geantino":      Geantino,
}

// ParseParticle resolves a particle name or alias, case-insensitively.
func ParseParticle(name string) (ParticleType, error) {
	p, ok := particleAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", &SourceError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown particle %q", name)}
	}
	return p, nil
}

// PrimaryVertex is one particle handed to the transport simulation.
type PrimaryVertex struct {
	Position      r3.Vec // mm
	Direction     r3.Vec // unit vector
	KineticEnergy float64
	Particle      ParticleType
	Time          float64 // ns after the event start
}

// EventSink consumes the primary vertices of one event.
type EventSink interface {
	AddPrimaries(eventID int64, vertices []PrimaryVertex) error
}

// SliceSink keeps every event in memory. It is not safe for concurrent use
// on its own; the engine serializes calls into it.
type SliceSink struct {
	Events []SinkEvent
}

// SinkEvent is one recorded call to AddPrimaries.
type SinkEvent struct {
	ID       int64
	Vertices []PrimaryVertex
}

// AddPrimaries implements EventSink.
func (s *SliceSink) AddPrimaries(eventID int64, vertices []PrimaryVertex) error {
	s.Events = append(s.Events, SinkEvent{ID: eventID, Vertices: vertices})
	return nil
}

// Vertices returns all recorded vertices in event order.
func (s *SliceSink) Vertices() []PrimaryVertex {
	var out []PrimaryVertex
	for _, ev := range s.Events {
		out = append(out, ev.Vertices...)
	}
	return out
}
