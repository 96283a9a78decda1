package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/veldlab/trophicnfd/internal/nfd"
	"github.com/veldlab/trophicnfd/internal/sweep"
)

// PointSummary aggregates one parameter point of a sweep.
type PointSummary struct {
	Index        int
	Levels       string
	Noise        float64
	Efficiency   float64
	Replicates   int
	OK           int
	Singular     int
	NoComputable int
	NotConverged int

	// Defined counts species with a defined decomposition across the
	// point's replicates. The moments below are taken over those
	// species and are NaN when Defined is zero.
	Defined  int
	MeanND   float64
	MedianND float64
	MeanFD   float64
	MedianFD float64
}

// Summary aggregates sweep rows per parameter point, ordered by point
// index. Median is the empirical quantile at p = 0.5.
func Summary(rows []sweep.Row) []PointSummary {
	byIndex := map[int]*PointSummary{}
	nds := map[int][]float64{}
	fds := map[int][]float64{}

	for _, row := range rows {
		idx := row.Point.Index
		ps := byIndex[idx]
		if ps == nil {
			ps = &PointSummary{
				Index:      idx,
				Levels:     row.Point.LevelsLabel(),
				Noise:      row.Point.Noise,
				Efficiency: row.Point.Efficiency,
			}
			byIndex[idx] = ps
		}

		ps.Replicates++
		switch row.Outcome {
		case sweep.OutcomeOK:
			ps.OK++
		case sweep.OutcomeSingular:
			ps.Singular++
		case sweep.OutcomeNoComputable:
			ps.NoComputable++
		case sweep.OutcomeNotConverged:
			ps.NotConverged++
		}

		for _, s := range row.Species {
			if s.Status != nfd.StatusOK {
				continue
			}
			ps.Defined++
			nds[idx] = append(nds[idx], s.ND)
			fds[idx] = append(fds[idx], s.FD)
		}
	}

	out := make([]PointSummary, 0, len(byIndex))
	for idx, ps := range byIndex {
		ps.MeanND, ps.MedianND = moments(nds[idx])
		ps.MeanFD, ps.MedianFD = moments(fds[idx])
		out = append(out, *ps)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// ComputableFraction is the share of a point's replicates that yielded
// a decomposition.
func (p PointSummary) ComputableFraction() float64 {
	if p.Replicates == 0 {
		return math.NaN()
	}
	return float64(p.OK) / float64(p.Replicates)
}

// WriteSummary writes point summaries as CSV.
func WriteSummary(w io.Writer, summaries []PointSummary) error {
	cw := csv.NewWriter(w)

	header := []string{
		"point", "levels", "noise", "efficiency",
		"replicates", "ok", "singular", "no_computable", "not_converged",
		"computable_fraction", "defined_species",
		"mean_nd", "median_nd", "mean_fd", "median_fd",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}

	for _, p := range summaries {
		rec := []string{
			strconv.Itoa(p.Index),
			p.Levels,
			formatCell(p.Noise),
			formatCell(p.Efficiency),
			strconv.Itoa(p.Replicates),
			strconv.Itoa(p.OK),
			strconv.Itoa(p.Singular),
			strconv.Itoa(p.NoComputable),
			strconv.Itoa(p.NotConverged),
			formatCell(p.ComputableFraction()),
			strconv.Itoa(p.Defined),
			formatCell(p.MeanND),
			formatCell(p.MedianND),
			formatCell(p.MeanFD),
			formatCell(p.MedianFD),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write summary row %d: %w", p.Index, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// moments returns the mean and empirical median of values, NaN for
// empty input.
func moments(values []float64) (mean, median float64) {
	if len(values) == 0 {
		return math.NaN(), math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return stat.Mean(sorted, nil), stat.Quantile(0.5, stat.Empirical, sorted, nil)
}
