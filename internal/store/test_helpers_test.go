package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

// createTestStore creates a new store backed by a temp-dir database.
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

// testTime returns a fixed base instant offset by n seconds.
func testTime(n int) time.Time {
	return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC).Add(time.Duration(n) * time.Second)
}

// createTestRun creates a run record with minimal required fields.
func createTestRun(id string, created time.Time) Run {
	return Run{
		ID:        id,
		CreatedAt: created,
		Kind:      KindSweep,
		Name:      "web",
		Seed:      42,
		Config:    "{}",
	}
}

// createTestReplicate creates a replicate record under the given run.
func createTestReplicate(runID string, point, replicate int) Replicate {
	return Replicate{
		RunID:      runID,
		Point:      point,
		Replicate:  replicate,
		Noise:      0.1,
		Efficiency: 0.5,
		Levels:     "2-2",
		Outcome:    "ok",
		Retained:   4,
		Removed:    0,
	}
}

// createTestSpeciesRow creates a fully defined species row under the
// given replicate.
func createTestSpeciesRow(runID string, point, replicate int, species string) SpeciesRow {
	return SpeciesRow{
		RunID:     runID,
		Point:     point,
		Replicate: replicate,
		Species:   species,
		Status:    "ok",
		ND:        sql.NullFloat64{Float64: 0.31, Valid: true},
		FD:        sql.NullFloat64{Float64: 0.92, Valid: true},
		FDPrime:   sql.NullFloat64{Float64: -11.5, Valid: true},
		Mu:        sql.NullFloat64{Float64: 1.0, Valid: true},
		Invasion:  sql.NullFloat64{Float64: 0.95, Valid: true},
		Eta:       sql.NullFloat64{Float64: 0.92, Valid: true},
	}
}

// seedRun writes a run, failing the test on error.
func seedRun(t *testing.T, s *Store, run Run) {
	t.Helper()
	if err := s.WriteRun(context.Background(), run); err != nil {
		t.Fatalf("WriteRun(%s) failed: %v", run.ID, err)
	}
}

// seedReplicate writes a replicate, failing the test on error.
func seedReplicate(t *testing.T, s *Store, rep Replicate) {
	t.Helper()
	if err := s.WriteReplicate(context.Background(), rep); err != nil {
		t.Fatalf("WriteReplicate(%s %d/%d) failed: %v", rep.RunID, rep.Point, rep.Replicate, err)
	}
}

// seedSpecies writes species rows, failing the test on error.
func seedSpecies(t *testing.T, s *Store, rows []SpeciesRow) {
	t.Helper()
	if err := s.WriteSpeciesResults(context.Background(), rows); err != nil {
		t.Fatalf("WriteSpeciesResults() failed: %v", err)
	}
}
