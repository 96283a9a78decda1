package store

import (
	"database/sql"
	"math"
	"time"

	"github.com/veldlab/trophicnfd/internal/nfd"
	"github.com/veldlab/trophicnfd/internal/sweep"
)

// Run is one experiment invocation: a parameter sweep over a scenario
// or an empirical pipeline run. Config holds the driving configuration
// as JSON for provenance.
type Run struct {
	ID        string
	CreatedAt time.Time
	Kind      string
	Name      string
	Seed      int64
	Config    string
}

// Replicate is one evaluated community within a run.
type Replicate struct {
	RunID      string
	Point      int
	Replicate  int
	Noise      float64
	Efficiency float64
	Levels     string
	Outcome    string
	Retained   int
	Removed    int
}

// SpeciesRow is one species' decomposition within a replicate. The
// value fields are NULL when the decomposition is undefined for the
// species; Reason then says why.
type SpeciesRow struct {
	RunID     string
	Point     int
	Replicate int
	Species   string
	Status    string
	Reason    string
	ND        sql.NullFloat64
	FD        sql.NullFloat64
	FDPrime   sql.NullFloat64
	Mu        sql.NullFloat64
	Invasion  sql.NullFloat64
	Eta       sql.NullFloat64
}

// ReplicateOf flattens a sweep row into its replicate record.
func ReplicateOf(runID string, row sweep.Row) Replicate {
	return Replicate{
		RunID:      runID,
		Point:      row.Point.Index,
		Replicate:  row.Point.Replicate,
		Noise:      row.Point.Noise,
		Efficiency: row.Point.Efficiency,
		Levels:     row.Point.LevelsLabel(),
		Outcome:    string(row.Outcome),
		Retained:   row.Retained,
		Removed:    len(row.Removed),
	}
}

// SpeciesRowsOf flattens a sweep row's per-species results.
func SpeciesRowsOf(runID string, row sweep.Row) []SpeciesRow {
	out := make([]SpeciesRow, len(row.Species))
	for i, s := range row.Species {
		out[i] = speciesRow(runID, row.Point.Index, row.Point.Replicate, s)
	}
	return out
}

// EmpiricalRows flattens an empirical decomposition into a single
// replicate at point 0 plus its species rows. Levels carries the
// season tag.
func EmpiricalRows(runID string, season string, efficiency float64, removed []nfd.Removal, species []nfd.SpeciesResult) (Replicate, []SpeciesRow) {
	rep := Replicate{
		RunID:      runID,
		Levels:     season,
		Efficiency: efficiency,
		Outcome:    string(sweep.OutcomeOK),
		Retained:   len(species),
		Removed:    len(removed),
	}
	rows := make([]SpeciesRow, len(species))
	for i, s := range species {
		rows[i] = speciesRow(runID, 0, 0, s)
	}
	return rep, rows
}

func speciesRow(runID string, point, replicate int, s nfd.SpeciesResult) SpeciesRow {
	return SpeciesRow{
		RunID:     runID,
		Point:     point,
		Replicate: replicate,
		Species:   s.Name,
		Status:    string(s.Status),
		Reason:    string(s.Reason),
		ND:        nullFloat(s.ND),
		FD:        nullFloat(s.FD),
		FDPrime:   nullFloat(s.FDPrime),
		Mu:        nullFloat(s.Mu),
		Invasion:  nullFloat(s.Invasion),
		Eta:       nullFloat(s.Eta),
	}
}

// nullFloat maps NaN and infinities to NULL. Value columns never hold
// a stand-in zero for an undefined quantity.
func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
