// Package store provides SQLite-backed durable storage for experiment
// results.
//
// The store is an append-only result log with three tables:
//   - Runs: one row per experiment invocation (sweep or empirical)
//   - Replicates: one row per evaluated community, keyed by
//     (run, point, replicate), carrying the outcome and prune counts
//   - Species results: the per-species decomposition of a replicate
//
// Writes are idempotent (ON CONFLICT DO NOTHING), so re-driving a run
// into the same database never duplicates rows. Reads order by
// (point, replicate, species) so exports are deterministic.
//
// Undefined quantities are stored as NULL, never as a stand-in zero:
// a species whose decomposition failed has NULL nd/fd columns and a
// reason string instead.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//
// Run identifiers are time-sortable UUIDv7 tokens from a
// TokenGenerator; tests substitute a FixedGenerator.
package store
