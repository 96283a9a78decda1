package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ErrBadTable indicates a malformed or inconsistent input table.
var ErrBadTable = errors.New("report: bad table")

// WriteMatrix writes a square community matrix as CSV with species
// names on both the header row and the first column. NaN cells are
// written as NA.
func WriteMatrix(w io.Writer, names []string, a *mat.Dense) error {
	n := len(names)
	r, c := a.Dims()
	if r != n || c != n {
		return fmt.Errorf("report: matrix is %dx%d for %d names", r, c, n)
	}

	cw := csv.NewWriter(w)

	header := make([]string, n+1)
	header[0] = "species"
	copy(header[1:], names)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write matrix header: %w", err)
	}

	row := make([]string, n+1)
	for i := 0; i < n; i++ {
		row[0] = names[i]
		for j := 0; j < n; j++ {
			row[j+1] = formatCell(a.At(i, j))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write matrix row %s: %w", names[i], err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadMatrix reads a matrix written by WriteMatrix. Row names must
// appear in the same order as the header columns.
func ReadMatrix(r io.Reader) ([]string, *mat.Dense, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("matrix: empty table: %w", ErrBadTable)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("matrix: %w", err)
	}
	if len(header) < 2 || strings.TrimSpace(header[0]) != "species" {
		return nil, nil, fmt.Errorf("matrix: header must be species followed by one column per species: %w", ErrBadTable)
	}

	n := len(header) - 1
	names := make([]string, n)
	for j := 0; j < n; j++ {
		names[j] = strings.TrimSpace(header[j+1])
	}

	a := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return nil, nil, fmt.Errorf("matrix: %d rows for %d species: %w", i, n, ErrBadTable)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("matrix: %w", err)
		}
		if name := strings.TrimSpace(rec[0]); name != names[i] {
			return nil, nil, fmt.Errorf("matrix: row %d is %q, want %q from header: %w", i+2, name, names[i], ErrBadTable)
		}
		for j := 0; j < n; j++ {
			v, err := parseCell(rec[j+1])
			if err != nil {
				return nil, nil, fmt.Errorf("matrix: row %d, column %s: %w", i+2, names[j], err)
			}
			a.Set(i, j, v)
		}
	}
	if _, err := cr.Read(); err != io.EOF {
		return nil, nil, fmt.Errorf("matrix: trailing rows after %d species: %w", n, ErrBadTable)
	}

	return names, a, nil
}

// WriteVector writes a named value vector as a two-column CSV.
func WriteVector(w io.Writer, names []string, values []float64) error {
	if len(names) != len(values) {
		return fmt.Errorf("report: %d values for %d names", len(values), len(names))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"species", "value"}); err != nil {
		return fmt.Errorf("write vector header: %w", err)
	}
	for i, name := range names {
		if err := cw.Write([]string{name, formatCell(values[i])}); err != nil {
			return fmt.Errorf("write vector row %s: %w", name, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadVector reads a two-column vector table. The first column must be
// species; the value column may carry any name.
func ReadVector(r io.Reader) ([]string, []float64, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("vector: empty table: %w", ErrBadTable)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("vector: %w", err)
	}
	if len(header) != 2 || strings.TrimSpace(header[0]) != "species" {
		return nil, nil, fmt.Errorf("vector: header must be species plus one value column: %w", ErrBadTable)
	}

	var (
		names  []string
		values []float64
	)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("vector: %w", err)
		}
		v, err := parseCell(rec[1])
		if err != nil {
			return nil, nil, fmt.Errorf("vector: row %d: %w", line, err)
		}
		names = append(names, strings.TrimSpace(rec[0]))
		values = append(values, v)
	}
	if len(names) == 0 {
		return nil, nil, fmt.Errorf("vector: no rows: %w", ErrBadTable)
	}

	return names, values, nil
}

// formatCell renders one numeric cell; NaN becomes NA.
func formatCell(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// parseCell parses one numeric cell; NA and empty cells read as NaN.
func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "NA" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, ErrBadTable)
	}
	return v, nil
}
