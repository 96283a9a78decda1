package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ReadRun retrieves a single run by id. Returns ErrNotFound if no run
// matches.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, kind, name, seed, config
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return run, err
}

// Runs returns every run in creation order.
//
// Returns an empty slice (not nil) when the store has no runs.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, kind, name, seed, config
		FROM runs
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// ReadReplicates returns a run's replicates ordered by
// (point, replicate).
//
// Returns an empty slice (not nil) if the run has no replicates.
func (s *Store) ReadReplicates(ctx context.Context, runID string) ([]Replicate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, point, replicate, noise, efficiency, levels, outcome, retained, removed
		FROM replicates
		WHERE run_id = ?
		ORDER BY point ASC, replicate ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query replicates: %w", err)
	}
	defer rows.Close()

	reps := []Replicate{}
	for rows.Next() {
		var r Replicate
		err := rows.Scan(&r.RunID, &r.Point, &r.Replicate, &r.Noise, &r.Efficiency,
			&r.Levels, &r.Outcome, &r.Retained, &r.Removed)
		if err != nil {
			return nil, fmt.Errorf("scan replicate: %w", err)
		}
		reps = append(reps, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate replicates: %w", err)
	}

	return reps, nil
}

// ReadSpeciesResults returns a run's species rows ordered by
// (point, replicate, species).
//
// Returns an empty slice (not nil) if the run has no species rows.
func (s *Store) ReadSpeciesResults(ctx context.Context, runID string) ([]SpeciesRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, point, replicate, species, status, reason, nd, fd, fd_prime, mu, invasion, eta
		FROM species_results
		WHERE run_id = ?
		ORDER BY point ASC, replicate ASC, species ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query species results: %w", err)
	}
	defer rows.Close()

	out := []SpeciesRow{}
	for rows.Next() {
		var r SpeciesRow
		err := rows.Scan(&r.RunID, &r.Point, &r.Replicate, &r.Species, &r.Status, &r.Reason,
			&r.ND, &r.FD, &r.FDPrime, &r.Mu, &r.Invasion, &r.Eta)
		if err != nil {
			return nil, fmt.Errorf("scan species result: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate species results: %w", err)
	}

	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run     Run
		created string
	)
	if err := row.Scan(&run.ID, &created, &run.Kind, &run.Name, &run.Seed, &run.Config); err != nil {
		return Run{}, err
	}

	ts, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Run{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	run.CreatedAt = ts

	return run, nil
}
