package store

import (
	"context"
	"fmt"
	"time"
)

// WriteRun inserts a run record. Uses ON CONFLICT(id) DO NOTHING for
// idempotency - rewriting an existing run id is silently ignored. A
// zero CreatedAt is filled with the current UTC time.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	created := run.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, created_at, kind, name, seed, config)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		created.Format(time.RFC3339Nano),
		run.Kind,
		run.Name,
		run.Seed,
		run.Config,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	return nil
}

// WriteReplicate inserts one replicate record. Duplicate
// (run, point, replicate) keys are silently ignored.
//
// The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteReplicate(ctx context.Context, rep Replicate) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO replicates
		(run_id, point, replicate, noise, efficiency, levels, outcome, retained, removed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		rep.RunID,
		rep.Point,
		rep.Replicate,
		rep.Noise,
		rep.Efficiency,
		rep.Levels,
		rep.Outcome,
		rep.Retained,
		rep.Removed,
	)
	if err != nil {
		return fmt.Errorf("write replicate: %w", err)
	}

	return nil
}

// WriteSpeciesResults inserts a replicate's species rows in a single
// transaction. Duplicate keys are silently ignored, so partial earlier
// writes heal on re-run.
//
// The replicate referenced by each row must exist (foreign key
// constraint).
func (s *Store) WriteSpeciesResults(ctx context.Context, rows []SpeciesRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write species results: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, r := range rows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO species_results
			(run_id, point, replicate, species, status, reason, nd, fd, fd_prime, mu, invasion, eta)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`,
			r.RunID,
			r.Point,
			r.Replicate,
			r.Species,
			r.Status,
			r.Reason,
			r.ND,
			r.FD,
			r.FDPrime,
			r.Mu,
			r.Invasion,
			r.Eta,
		)
		if err != nil {
			return fmt.Errorf("write species results: %s: %w", r.Species, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write species results: commit: %w", err)
	}

	return nil
}
