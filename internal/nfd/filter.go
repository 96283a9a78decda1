package nfd

import (
	"fmt"
	"sort"

	"github.com/veldlab/trophicnfd/internal/glv"
)

// Subset is a computable community: an induced subsystem whose full and
// leave-one-out equilibria all exist and are feasible.
type Subset struct {
	// Indices are the retained species' positions in the original
	// community, in ascending order.
	Indices []int

	// Model is the induced subsystem with unmeasured interactions
	// zeroed out.
	Model glv.LotkaVolterra

	// Equilibrium is the coexistence equilibrium of the full subset.
	Equilibrium []float64

	// Resident[i] is the equilibrium of the community without species
	// i, as a full-length vector with zero at position i.
	Resident [][]float64

	// Monoculture holds mu_i / A_ii per retained species. Negative
	// entries are expected for consumers and are diagnostic only.
	Monoculture []float64

	// Removed records every species dropped on the way here.
	Removed []Removal
}

// FindComputable prunes m down to a subset on which the decomposition
// is defined. Each pass first drops species failing the eligibility
// conditions, then solves the full equilibrium and every leave-one-out
// resident equilibrium and drops all species whose abundance falls
// below AbundanceTol in any of them. The filter stops on the first pass
// that removes nothing.
//
// Fewer than two surviving species yield a *NoComputableError. A
// singular subsystem propagates glv.ErrEquilibriumUndefined.
func FindComputable(m glv.LotkaVolterra, opts Options) (Subset, error) {
	dim := m.Dim()
	opts = opts.withDefaults(dim)

	keep := make([]int, dim)
	for i := range keep {
		keep[i] = i
	}
	var removed []Removal

	for pass := 1; pass <= opts.MaxPasses; pass++ {
		if len(keep) < 2 {
			return Subset{}, &NoComputableError{Survivors: len(keep), Passes: pass - 1, Removed: removed}
		}

		sub, err := m.Sub(keep)
		if err != nil {
			return Subset{}, err
		}
		localKeep, localRemoved := Eligible(sub)
		if len(localRemoved) > 0 {
			for _, r := range localRemoved {
				removed = append(removed, Removal{Index: keep[r.Index], Name: r.Name, Reason: r.Reason, Pass: pass})
			}
			keep = reindex(keep, localKeep)
			continue
		}

		real := sub.Realized()
		full, err := real.Equilibrium()
		if err != nil {
			return Subset{}, fmt.Errorf("equilibrium of %d-species community: %w", len(keep), err)
		}
		var dropped bool
		var next []int
		for i, v := range full {
			if v < opts.AbundanceTol {
				removed = append(removed, Removal{Index: keep[i], Name: real.Names[i], Reason: ReasonNegativeEquilibrium, Pass: pass})
				dropped = true
				continue
			}
			next = append(next, keep[i])
		}
		if dropped {
			keep = next
			continue
		}

		resident, low, err := residentEquilibria(real, opts.AbundanceTol)
		if err != nil {
			return Subset{}, err
		}
		if len(low) > 0 {
			for _, i := range low {
				removed = append(removed, Removal{Index: keep[i], Name: real.Names[i], Reason: ReasonNegativeResidentEquilibrium, Pass: pass})
			}
			keep = drop(keep, low)
			continue
		}

		mono := make([]float64, len(keep))
		for i := range mono {
			mono[i] = real.Mu[i] / real.A.At(i, i)
		}
		return Subset{
			Indices:     keep,
			Model:       real,
			Equilibrium: full,
			Resident:    resident,
			Monoculture: mono,
			Removed:     removed,
		}, nil
	}
	return Subset{}, &NoComputableError{Survivors: len(keep), Passes: opts.MaxPasses, Removed: removed}
}

// residentEquilibria solves the leave-one-out equilibrium for every
// species of m. It returns the full-length resident vectors and the
// sorted local indices of residents that fell below tol in any of them.
func residentEquilibria(m glv.LotkaVolterra, tol float64) ([][]float64, []int, error) {
	dim := m.Dim()
	resident := make([][]float64, dim)
	lowSet := make(map[int]bool)

	for inv := 0; inv < dim; inv++ {
		rest := make([]int, 0, dim-1)
		for j := 0; j < dim; j++ {
			if j != inv {
				rest = append(rest, j)
			}
		}
		loo, err := m.Sub(rest)
		if err != nil {
			return nil, nil, err
		}
		eq, err := loo.Equilibrium()
		if err != nil {
			return nil, nil, fmt.Errorf("resident equilibrium without %s: %w", m.Names[inv], err)
		}
		vec := make([]float64, dim)
		for k, r := range rest {
			vec[r] = eq[k]
			if eq[k] < tol {
				lowSet[r] = true
			}
		}
		resident[inv] = vec
	}

	low := make([]int, 0, len(lowSet))
	for i := range lowSet {
		low = append(low, i)
	}
	sort.Ints(low)
	return resident, low, nil
}

// reindex maps local survivor positions back into original indices.
func reindex(keep, local []int) []int {
	out := make([]int, len(local))
	for i, l := range local {
		out[i] = keep[l]
	}
	return out
}

// drop removes the given sorted local positions from keep.
func drop(keep []int, local []int) []int {
	skip := make(map[int]bool, len(local))
	for _, l := range local {
		skip[l] = true
	}
	out := make([]int, 0, len(keep)-len(local))
	for i, k := range keep {
		if !skip[i] {
			out = append(out, k)
		}
	}
	return out
}
