package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/ndetsrc/internal/engine"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunRunning  RunStatus = "running"
	RunComplete RunStatus = "complete"
	RunFailed   RunStatus = "failed"
)

// Run is one generation run.
type Run struct {
	ID              string
	Name            string
	SourceType      string
	Seed            int64
	EventsRequested int64
	EventsGenerated int64
	ConfigHash      string
	Config          string // JSON
	Status          RunStatus
}

// BeginRun records a new run in the running state. cfg is stored as JSON
// in Run.Config; pass nil to store "{}".
// Uses ON CONFLICT(id) DO NOTHING, so re-beginning a run is a no-op.
func (s *Store) BeginRun(ctx context.Context, run Run, cfg any) error {
	cfgJSON, err := marshalConfig(cfg)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, name, source_type, seed, events_requested, config_hash, config, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Name,
		run.SourceType,
		run.Seed,
		run.EventsRequested,
		run.ConfigHash,
		cfgJSON,
		string(RunRunning),
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// FinishRun records the number of generated events and the final status.
// Returns sql.ErrNoRows if the run does not exist.
func (s *Store) FinishRun(ctx context.Context, runID string, generated int64, status RunStatus) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET events_generated = ?, status = ? WHERE id = ?
	`, generated, string(status), runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// WriteEvent inserts the vertices of one event in a single transaction.
// Vertices are indexed by their position in the slice.
func (s *Store) WriteEvent(ctx context.Context, runID string, eventID int64, vertices []engine.PrimaryVertex) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write event %d: begin: %w", eventID, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vertices
		(run_id, event_id, idx, particle, kinetic_energy,
		 pos_x, pos_y, pos_z, dir_x, dir_y, dir_z, time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write event %d: prepare: %w", eventID, err)
	}
	defer stmt.Close()

	for i, v := range vertices {
		_, err := stmt.ExecContext(ctx,
			runID, eventID, i, string(v.Particle), v.KineticEnergy,
			v.Position.X, v.Position.Y, v.Position.Z,
			v.Direction.X, v.Direction.Y, v.Direction.Z,
			v.Time,
		)
		if err != nil {
			return fmt.Errorf("write event %d vertex %d: %w", eventID, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write event %d: commit: %w", eventID, err)
	}
	return nil
}

// runSink adapts a Store to engine.EventSink for one run.
type runSink struct {
	s     *Store
	ctx   context.Context
	runID string
}

// Sink returns an engine.EventSink writing to runID. The sink is not safe for
// concurrent use; put an engine.QueueSink in front of it for multi-worker
// runs.
func (s *Store) Sink(ctx context.Context, runID string) engine.EventSink {
	return &runSink{s: s, ctx: ctx, runID: runID}
}

// AddPrimaries implements engine.EventSink.
func (r *runSink) AddPrimaries(eventID int64, vertices []engine.PrimaryVertex) error {
	return r.s.WriteEvent(r.ctx, r.runID, eventID, vertices)
}
