package store

import (
	"context"
	"fmt"

	"github.com/veldlab/trophicnfd/internal/sweep"
)

// RunResults is the complete stored state of one run.
type RunResults struct {
	Run        Run
	Replicates []Replicate
	Species    []SpeciesRow

	// Incomplete lists replicates that claim OutcomeOK but have no
	// species rows. A nonempty list means a writer stopped between
	// WriteReplicate and WriteSpeciesResults; re-driving the run
	// against the same database heals it.
	Incomplete []Replicate
}

// ReadRunResults loads a run together with all its replicates and
// species rows, and cross-checks them for interrupted writes.
// Returns ErrNotFound if the run does not exist.
func (s *Store) ReadRunResults(ctx context.Context, runID string) (RunResults, error) {
	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return RunResults{}, err
	}

	reps, err := s.ReadReplicates(ctx, runID)
	if err != nil {
		return RunResults{}, fmt.Errorf("run %s: %w", runID, err)
	}

	species, err := s.ReadSpeciesResults(ctx, runID)
	if err != nil {
		return RunResults{}, fmt.Errorf("run %s: %w", runID, err)
	}

	counts := make(map[[2]int]int, len(reps))
	for _, row := range species {
		counts[[2]int{row.Point, row.Replicate}]++
	}

	res := RunResults{Run: run, Replicates: reps, Species: species}
	for _, rep := range reps {
		if rep.Outcome != string(sweep.OutcomeOK) {
			continue
		}
		if counts[[2]int{rep.Point, rep.Replicate}] == 0 {
			res.Incomplete = append(res.Incomplete, rep)
		}
	}

	return res, nil
}
