package empirical

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrBadTable is returned for input tables that do not parse into a
// usable food web.
var ErrBadTable = errors.New("empirical: bad table")

// Parsed table rows. Line is the 1-based position in the source file,
// kept for error messages raised after parsing.
type populationRow struct {
	Taxon  string
	Growth float64
	Self   float64
	Line   int
}

type interactionRow struct {
	Predator string
	Prey     string
	Strength float64
	Season   string
	Line     int
}

type densityRow struct {
	Taxon    string
	BodyMass float64
	Density  float64
	Line     int
}

// taxonKey canonicalizes a taxon name for joins across the three
// tables: Unicode NFC, surrounding space dropped, case folded.
func taxonKey(name string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(name)))
}

// parseCell reads one numeric cell. Empty and NA cells mean "not
// measured" and come back NaN.
func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "NA" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// header reads the first record and locates the wanted columns by name.
// Extra columns and arbitrary column order are fine.
func header(r *csv.Reader, path string, want ...string) (map[string]int, error) {
	rec, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: reading header: %w", path, err)
	}
	idx := make(map[string]int, len(rec))
	for i, name := range rec {
		idx[strings.TrimSpace(name)] = i
	}
	for _, name := range want {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("%s: missing column %q: %w", path, name, ErrBadTable)
		}
	}
	return idx, nil
}

func readPopulation(path string) ([]populationRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	idx, err := header(r, path, "taxon", "growth_rate", "self_limitation")
	if err != nil {
		return nil, err
	}

	var rows []populationRow
	seen := make(map[string]int)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		line, _ := r.FieldPos(0)

		name := strings.TrimSpace(rec[idx["taxon"]])
		if name == "" {
			return nil, fmt.Errorf("%s:%d: blank taxon: %w", path, line, ErrBadTable)
		}
		key := taxonKey(name)
		if first, dup := seen[key]; dup {
			return nil, fmt.Errorf("%s:%d: duplicate taxon %q (first at line %d): %w", path, line, name, first, ErrBadTable)
		}
		seen[key] = line

		growth, err := parseCell(rec[idx["growth_rate"]])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: growth_rate: %v: %w", path, line, err, ErrBadTable)
		}
		self, err := parseCell(rec[idx["self_limitation"]])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: self_limitation: %v: %w", path, line, err, ErrBadTable)
		}
		rows = append(rows, populationRow{Taxon: name, Growth: growth, Self: self, Line: line})
	}
	return rows, nil
}

func readInteractions(path string) ([]interactionRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	idx, err := header(r, path, "predator", "prey", "strength", "season")
	if err != nil {
		return nil, err
	}

	var rows []interactionRow
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		line, _ := r.FieldPos(0)

		pred := strings.TrimSpace(rec[idx["predator"]])
		prey := strings.TrimSpace(rec[idx["prey"]])
		if pred == "" || prey == "" {
			return nil, fmt.Errorf("%s:%d: blank taxon: %w", path, line, ErrBadTable)
		}
		if taxonKey(pred) == taxonKey(prey) {
			return nil, fmt.Errorf("%s:%d: self-interaction for %q belongs in self_limitation: %w", path, line, pred, ErrBadTable)
		}
		strength, err := parseCell(rec[idx["strength"]])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: strength: %v: %w", path, line, err, ErrBadTable)
		}
		season := strings.ToLower(strings.TrimSpace(rec[idx["season"]]))
		if !validSeason(season) {
			return nil, fmt.Errorf("%s:%d: season %q: want %s, %s or %s: %w",
				path, line, season, SeasonSummer, SeasonWinter, SeasonAll, ErrBadTable)
		}
		rows = append(rows, interactionRow{Predator: pred, Prey: prey, Strength: strength, Season: season, Line: line})
	}
	return rows, nil
}

func readDensities(path string) ([]densityRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	idx, err := header(r, path, "taxon", "body_mass", "initial_density")
	if err != nil {
		return nil, err
	}

	var rows []densityRow
	seen := make(map[string]int)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		line, _ := r.FieldPos(0)

		name := strings.TrimSpace(rec[idx["taxon"]])
		if name == "" {
			return nil, fmt.Errorf("%s:%d: blank taxon: %w", path, line, ErrBadTable)
		}
		key := taxonKey(name)
		if first, dup := seen[key]; dup {
			return nil, fmt.Errorf("%s:%d: duplicate taxon %q (first at line %d): %w", path, line, name, first, ErrBadTable)
		}
		seen[key] = line

		mass, err := parseCell(rec[idx["body_mass"]])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: body_mass: %v: %w", path, line, err, ErrBadTable)
		}
		dens, err := parseCell(rec[idx["initial_density"]])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: initial_density: %v: %w", path, line, err, ErrBadTable)
		}
		rows = append(rows, densityRow{Taxon: name, BodyMass: mass, Density: dens, Line: line})
	}
	return rows, nil
}
