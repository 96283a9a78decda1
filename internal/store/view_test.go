package store

import (
	"context"
	"errors"
	"testing"
)

func TestReadRunResults_Complete(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedRun(t, s, createTestRun("run1", testTime(0)))
	seedReplicate(t, s, createTestReplicate("run1", 0, 0))
	seedReplicate(t, s, createTestReplicate("run1", 0, 1))
	seedSpecies(t, s, []SpeciesRow{
		createTestSpeciesRow("run1", 0, 0, "moss"),
		createTestSpeciesRow("run1", 0, 0, "algae"),
		createTestSpeciesRow("run1", 0, 1, "moss"),
		createTestSpeciesRow("run1", 0, 1, "algae"),
	})

	res, err := s.ReadRunResults(ctx, "run1")
	if err != nil {
		t.Fatalf("ReadRunResults() failed: %v", err)
	}

	if res.Run.ID != "run1" {
		t.Errorf("Run.ID = %q, want run1", res.Run.ID)
	}
	if len(res.Replicates) != 2 {
		t.Errorf("got %d replicates, want 2", len(res.Replicates))
	}
	if len(res.Species) != 4 {
		t.Errorf("got %d species rows, want 4", len(res.Species))
	}
	if len(res.Incomplete) != 0 {
		t.Errorf("got %d incomplete replicates, want 0: %+v", len(res.Incomplete), res.Incomplete)
	}
}

func TestReadRunResults_FlagsInterruptedWrites(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedRun(t, s, createTestRun("run1", testTime(0)))

	// Replicate (0,0): ok with species rows
	seedReplicate(t, s, createTestReplicate("run1", 0, 0))
	seedSpecies(t, s, []SpeciesRow{createTestSpeciesRow("run1", 0, 0, "moss")})

	// Replicate (0,1): claims ok but its species rows never landed
	seedReplicate(t, s, createTestReplicate("run1", 0, 1))

	// Replicate (1,0): failed outright, legitimately has no species rows
	failed := createTestReplicate("run1", 1, 0)
	failed.Outcome = "singular"
	failed.Retained = 0
	seedReplicate(t, s, failed)

	res, err := s.ReadRunResults(ctx, "run1")
	if err != nil {
		t.Fatalf("ReadRunResults() failed: %v", err)
	}

	if len(res.Incomplete) != 1 {
		t.Fatalf("got %d incomplete replicates, want 1: %+v", len(res.Incomplete), res.Incomplete)
	}
	if res.Incomplete[0].Point != 0 || res.Incomplete[0].Replicate != 1 {
		t.Errorf("incomplete = (%d, %d), want (0, 1)",
			res.Incomplete[0].Point, res.Incomplete[0].Replicate)
	}
}

func TestReadRunResults_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRunResults(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
