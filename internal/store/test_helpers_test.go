package store

import (
	"context"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roach88/ndetsrc/internal/engine"
)

// createTestStore creates a new store under a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun begins a run with minimal required fields.
func createTestRun(t *testing.T, s *Store, id string) Run {
	t.Helper()
	run := Run{
		ID:              id,
		Name:            "test",
		SourceType:      "60Co",
		Seed:            1,
		EventsRequested: 10,
		ConfigHash:      "test-hash",
	}
	if err := s.BeginRun(context.Background(), run, nil); err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}
	return run
}

// gammaVertex returns a gamma vertex along X with the given energy.
func gammaVertex(e float64) engine.PrimaryVertex {
	return engine.PrimaryVertex{
		Position:      r3.Vec{X: 1, Y: 2, Z: 3},
		Direction:     r3.Vec{X: 1},
		KineticEnergy: e,
		Particle:      engine.Gamma,
		Time:          0.5,
	}
}
