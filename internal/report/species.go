package report

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/veldlab/trophicnfd/internal/nfd"
	"github.com/veldlab/trophicnfd/internal/store"
)

var speciesHeader = []string{
	"species", "status", "reason",
	"nd", "fd", "fd_prime", "mu", "invasion", "eta",
}

// WriteSpecies writes one community's per-species decomposition as CSV.
// Undefined quantities are written as NA.
func WriteSpecies(w io.Writer, species []nfd.SpeciesResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(speciesHeader); err != nil {
		return fmt.Errorf("write species header: %w", err)
	}
	for _, s := range species {
		rec := []string{
			s.Name,
			string(s.Status),
			string(s.Reason),
			formatCell(s.ND),
			formatCell(s.FD),
			formatCell(s.FDPrime),
			formatCell(s.Mu),
			formatCell(s.Invasion),
			formatCell(s.Eta),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write species row %s: %w", s.Name, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteStoredSpecies writes a run's stored species rows as CSV, with
// the replicate key prefixed. NULL values are written as NA.
func WriteStoredSpecies(w io.Writer, rows []store.SpeciesRow) error {
	cw := csv.NewWriter(w)

	header := append([]string{"point", "replicate"}, speciesHeader...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write species header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.Point),
			strconv.Itoa(r.Replicate),
			r.Species,
			r.Status,
			r.Reason,
			formatNull(r.ND),
			formatNull(r.FD),
			formatNull(r.FDPrime),
			formatNull(r.Mu),
			formatNull(r.Invasion),
			formatNull(r.Eta),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write species row %s: %w", r.Species, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteReplicates writes a run's replicate records as CSV.
func WriteReplicates(w io.Writer, reps []store.Replicate) error {
	cw := csv.NewWriter(w)

	header := []string{
		"point", "replicate", "noise", "efficiency", "levels",
		"outcome", "retained", "removed",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write replicates header: %w", err)
	}
	for _, r := range reps {
		rec := []string{
			strconv.Itoa(r.Point),
			strconv.Itoa(r.Replicate),
			formatCell(r.Noise),
			formatCell(r.Efficiency),
			r.Levels,
			r.Outcome,
			strconv.Itoa(r.Retained),
			strconv.Itoa(r.Removed),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write replicate row %d/%d: %w", r.Point, r.Replicate, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteRemovals writes a prune trail as CSV.
func WriteRemovals(w io.Writer, removed []nfd.Removal) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"index", "species", "reason", "pass"}); err != nil {
		return fmt.Errorf("write removals header: %w", err)
	}
	for _, r := range removed {
		rec := []string{
			strconv.Itoa(r.Index),
			r.Name,
			string(r.Reason),
			strconv.Itoa(r.Pass),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write removal row %s: %w", r.Name, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatNull(v sql.NullFloat64) string {
	if !v.Valid {
		return "NA"
	}
	return formatCell(v.Float64)
}
