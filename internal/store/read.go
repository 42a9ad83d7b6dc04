package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/ndetsrc/internal/engine"
)

// Vertex is a stored primary vertex with its event coordinates.
type Vertex struct {
	EventID int64
	Index   int
	engine.PrimaryVertex
}

// ReadRun returns the run with the given ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, source_type, seed, events_requested, events_generated, config_hash, config, status
		FROM runs
		WHERE id = ?
	`, runID)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}
	return run, nil
}

// ReadRunConfig decodes the stored configuration of a run into dst.
func (s *Store) ReadRunConfig(ctx context.Context, runID string, dst any) error {
	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return err
	}
	return unmarshalConfig(run.Config, dst)
}

// ListRuns returns all runs ordered by ID. UUIDv7 IDs sort by creation time.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, source_type, seed, events_requested, events_generated, config_hash, config, status
		FROM runs
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadVertices returns every vertex of a run ordered by event then index.
//
// Returns an empty slice (not nil) if the run has no vertices.
func (s *Store) ReadVertices(ctx context.Context, runID string) ([]Vertex, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, idx, particle, kinetic_energy,
		       pos_x, pos_y, pos_z, dir_x, dir_y, dir_z, time
		FROM vertices
		WHERE run_id = ?
		ORDER BY event_id ASC, idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query vertices: %w", err)
	}
	defer rows.Close()

	vertices := []Vertex{}
	for rows.Next() {
		var (
			v        Vertex
			particle string
		)
		err := rows.Scan(
			&v.EventID, &v.Index, &particle, &v.KineticEnergy,
			&v.Position.X, &v.Position.Y, &v.Position.Z,
			&v.Direction.X, &v.Direction.Y, &v.Direction.Z,
			&v.Time,
		)
		if err != nil {
			return nil, fmt.Errorf("scan vertex: %w", err)
		}
		v.Particle = engine.ParticleType(particle)
		vertices = append(vertices, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vertices: %w", err)
	}
	return vertices, nil
}

// CountVertices returns the number of vertices of a run, optionally
// restricted to one particle type (empty for all).
func (s *Store) CountVertices(ctx context.Context, runID string, particle engine.ParticleType) (int64, error) {
	query := `SELECT COUNT(*) FROM vertices WHERE run_id = ?`
	args := []any{runID}
	if particle != "" {
		query += ` AND particle = ?`
		args = append(args, string(particle))
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count vertices: %w", err)
	}
	return n, nil
}

// CountEvents returns the number of distinct events stored for a run.
func (s *Store) CountEvents(ctx context.Context, runID string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT event_id) FROM vertices WHERE run_id = ?
	`, runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run    Run
		status string
	)
	err := row.Scan(
		&run.ID, &run.Name, &run.SourceType, &run.Seed,
		&run.EventsRequested, &run.EventsGenerated,
		&run.ConfigHash, &run.Config, &status,
	)
	if err != nil {
		return Run{}, err
	}
	run.Status = RunStatus(status)
	return run, nil
}
