package sweep

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/veldlab/trophicnfd/internal/glv"
	"github.com/veldlab/trophicnfd/internal/nfd"
	"github.com/veldlab/trophicnfd/internal/synth"
)

// Outcome classifies what happened to one replicate.
type Outcome string

const (
	// OutcomeOK means the replicate produced a decomposition
	// (individual species may still be undefined).
	OutcomeOK Outcome = "ok"

	// OutcomeSingular means an equilibrium system was singular.
	OutcomeSingular Outcome = "singular"

	// OutcomeNoComputable means pruning left fewer than two species.
	OutcomeNoComputable Outcome = "no_computable"

	// OutcomeNotConverged means a nonlinear solve ran out of steps.
	OutcomeNotConverged Outcome = "not_converged"
)

// Row is the result of one replicate.
type Row struct {
	Point    Point               `json:"point"`
	Outcome  Outcome             `json:"outcome"`
	Names    []string            `json:"names"`
	Retained int                 `json:"retained"`
	Removed  []nfd.Removal       `json:"removed,omitempty"`
	Species  []nfd.SpeciesResult `json:"species,omitempty"`
}

// Experiment is one full sweep specification.
type Experiment struct {
	Seed         int64
	Community    synth.Config
	Grid         Grid
	AbundanceTol float64
}

// Runner executes sweep replicates on a bounded worker pool.
type Runner struct {
	// Workers caps concurrent replicates. Values below 1 select
	// runtime.NumCPU().
	Workers int
}

// Run expands the experiment grid, runs every replicate, and hands each
// Row to collect from a single goroutine. Row order is scheduling
// dependent; row contents are not. Expected per-replicate engine
// failures are recorded in Row.Outcome. Run returns the first
// collector error, any configuration error, or ctx's error.
func (r Runner) Run(ctx context.Context, exp Experiment, collect func(Row) error) error {
	if collect == nil {
		return errors.New("sweep: nil collector")
	}
	limit := r.Workers
	if limit < 1 {
		limit = runtime.NumCPU()
	}
	points := exp.Grid.Points(exp.Community)

	g, gctx := errgroup.WithContext(ctx)
	rows := make(chan Row)

	workers, wctx := errgroup.WithContext(gctx)
	workers.SetLimit(limit)

	g.Go(func() error {
		defer close(rows)
		for _, pt := range points {
			if wctx.Err() != nil {
				break
			}
			pt := pt
			workers.Go(func() error {
				if err := wctx.Err(); err != nil {
					return err
				}
				row, err := runReplicate(exp, pt)
				if err != nil {
					return fmt.Errorf("point %d replicate %d: %w", pt.Index, pt.Replicate, err)
				}
				select {
				case rows <- row:
					return nil
				case <-wctx.Done():
					return wctx.Err()
				}
			})
		}
		if err := workers.Wait(); err != nil {
			return err
		}
		return gctx.Err()
	})

	g.Go(func() error {
		for row := range rows {
			if err := collect(row); err != nil {
				return err
			}
		}
		return nil
	})

	return g.Wait()
}

// runReplicate draws one community and runs the engine on it. Errors
// the sweep is specified to tolerate become outcomes; anything else
// (config shape problems, invalid subsets) is returned as an error.
func runReplicate(exp Experiment, pt Point) (Row, error) {
	cfg := pt.Config(exp.Community)
	lv, err := synth.Generate(cfg, synth.DeriveRand(exp.Seed, pt.Stream))
	if err != nil {
		return Row{}, err
	}
	row := Row{Point: pt, Names: lv.Names}

	opts := nfd.Options{AbundanceTol: exp.AbundanceTol}
	sub, err := nfd.FindComputable(lv, opts)
	if err != nil {
		outcome, expected := outcomeOf(err)
		if !expected {
			return Row{}, err
		}
		row.Outcome = outcome
		var nce *nfd.NoComputableError
		if errors.As(err, &nce) {
			row.Retained = nce.Survivors
			row.Removed = nce.Removed
		}
		return row, nil
	}

	res, err := nfd.Decompose(sub, opts)
	if err != nil {
		return Row{}, err
	}
	row.Outcome = OutcomeOK
	row.Retained = len(sub.Indices)
	row.Removed = sub.Removed
	row.Species = res.Species
	return row, nil
}

func outcomeOf(err error) (Outcome, bool) {
	switch {
	case errors.Is(err, nfd.ErrNoComputableCommunity):
		return OutcomeNoComputable, true
	case errors.Is(err, glv.ErrEquilibriumUndefined):
		return OutcomeSingular, true
	case errors.Is(err, glv.ErrEquilibriumNotFound):
		return OutcomeNotConverged, true
	}
	return "", false
}
