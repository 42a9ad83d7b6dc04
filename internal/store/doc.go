// Package store provides SQLite-backed durable storage for generated primary
// vertices.
//
// The store is an append-only log with two tables:
//   - runs: one row per generation run, keyed by a UUIDv7 run ID
//   - vertices: one row per primary vertex, keyed by (run_id, event_id, idx)
//
// # Ordering
//
// Reads order by event ID and vertex index, never by rowid, so a run reads
// back the same regardless of how its writes were interleaved.
//
// # Idempotency
//
// Vertex inserts use ON CONFLICT DO NOTHING. Writing the same event twice is
// a no-op.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
