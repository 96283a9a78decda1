package empirical

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrBadManifest is returned for manifests that parse but cannot drive
// an assembly.
var ErrBadManifest = errors.New("empirical: bad manifest")

// Season tags of the interaction table.
const (
	SeasonSummer = "summer"
	SeasonWinter = "winter"
	SeasonAll    = "all"
)

// Manifest locates the input tables and fixes the assembly parameters.
// Table paths are relative to the manifest file location.
type Manifest struct {
	// Population is the per-taxon parameter table with columns
	// taxon, growth_rate, self_limitation.
	Population string `yaml:"population"`

	// Interactions is the trophic link table with columns
	// predator, prey, strength, season.
	Interactions string `yaml:"interactions"`

	// Densities is the measurement table with columns
	// taxon, body_mass, initial_density.
	Densities string `yaml:"densities"`

	// Season selects which interaction rows to assemble by default.
	// One of summer, winter or all; empty means all.
	Season string `yaml:"season,omitempty"`

	// Efficiency converts a prey-side interaction strength into the
	// predator-side benefit coefficient. Must be set; no further
	// bounds are imposed.
	Efficiency float64 `yaml:"efficiency"`

	// AbundanceTol overrides the filter's extinction threshold.
	// Zero selects the pipeline default.
	AbundanceTol float64 `yaml:"abundance_tol,omitempty"`
}

// LoadManifest reads and parses a manifest YAML file. Unknown fields,
// missing tables and out-of-range parameters are errors. Relative table
// paths are resolved against the manifest's directory before
// validation.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	base := filepath.Dir(path)
	for _, p := range []*string{&m.Population, &m.Interactions, &m.Densities} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	if m.Season == "" {
		m.Season = SeasonAll
	}

	if err := m.validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

func (m Manifest) validate() error {
	tables := []struct {
		field string
		path  string
	}{
		{"population", m.Population},
		{"interactions", m.Interactions},
		{"densities", m.Densities},
	}
	for _, t := range tables {
		if t.path == "" {
			return fmt.Errorf("%s table path is required: %w", t.field, ErrBadManifest)
		}
		if _, err := os.Stat(t.path); err != nil {
			return fmt.Errorf("%s table: %v: %w", t.field, err, ErrBadManifest)
		}
	}
	if !validSeason(m.Season) {
		return fmt.Errorf("season %q: want %s, %s or %s: %w",
			m.Season, SeasonSummer, SeasonWinter, SeasonAll, ErrBadManifest)
	}
	if m.Efficiency == 0 {
		return fmt.Errorf("efficiency must be set: %w", ErrBadManifest)
	}
	if m.AbundanceTol < 0 {
		return fmt.Errorf("abundance_tol %v is negative: %w", m.AbundanceTol, ErrBadManifest)
	}
	return nil
}

func validSeason(s string) bool {
	return s == SeasonSummer || s == SeasonWinter || s == SeasonAll
}
