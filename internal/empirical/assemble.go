package empirical

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/veldlab/trophicnfd/internal/glv"
)

// ErrUnknownTaxon is returned when a table row names a taxon the
// population table does not define.
var ErrUnknownTaxon = errors.New("empirical: unknown taxon")

// Taxon is one population with its measured parameters. BodyMass and
// Density are NaN when the density table has no row for the taxon.
type Taxon struct {
	Name     string
	Growth   float64
	Self     float64
	BodyMass float64
	Density  float64
}

// Dataset is a parsed food web. Taxa keep the population-table order,
// which fixes the species order of every matrix assembled from it.
type Dataset struct {
	Manifest Manifest
	Taxa     []Taxon

	interactions []interactionRow
	index        map[string]int
}

// Load reads the three tables named by the manifest and joins them on
// the canonical taxon key. Every predator, prey and density row must
// name a taxon from the population table.
func Load(m Manifest) (*Dataset, error) {
	pop, err := readPopulation(m.Population)
	if err != nil {
		return nil, err
	}
	inter, err := readInteractions(m.Interactions)
	if err != nil {
		return nil, err
	}
	dens, err := readDensities(m.Densities)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{Manifest: m, index: make(map[string]int, len(pop))}
	for _, p := range pop {
		ds.index[taxonKey(p.Taxon)] = len(ds.Taxa)
		ds.Taxa = append(ds.Taxa, Taxon{
			Name:     p.Taxon,
			Growth:   p.Growth,
			Self:     p.Self,
			BodyMass: math.NaN(),
			Density:  math.NaN(),
		})
	}
	for _, d := range dens {
		i, ok := ds.index[taxonKey(d.Taxon)]
		if !ok {
			return nil, fmt.Errorf("%s:%d: taxon %q not in population table: %w", m.Densities, d.Line, d.Taxon, ErrUnknownTaxon)
		}
		ds.Taxa[i].BodyMass = d.BodyMass
		ds.Taxa[i].Density = d.Density
	}
	for _, r := range inter {
		if _, ok := ds.index[taxonKey(r.Predator)]; !ok {
			return nil, fmt.Errorf("%s:%d: predator %q not in population table: %w", m.Interactions, r.Line, r.Predator, ErrUnknownTaxon)
		}
		if _, ok := ds.index[taxonKey(r.Prey)]; !ok {
			return nil, fmt.Errorf("%s:%d: prey %q not in population table: %w", m.Interactions, r.Line, r.Prey, ErrUnknownTaxon)
		}
	}
	ds.interactions = inter
	return ds, nil
}

// Assemble builds the Lotka-Volterra community for one season; ""
// selects the manifest's. A link adds its strength to the prey row and
// the strength scaled by -Efficiency, and by the prey:predator
// body-mass ratio when both masses are measured, to the predator row.
// A row tag matches when either side is "all". Repeated links
// accumulate; rows with unmeasured strength contribute nothing.
// Off-diagonal cells no surviving row touched stay NaN.
func (ds *Dataset) Assemble(season string) (glv.LotkaVolterra, error) {
	if season == "" {
		season = ds.Manifest.Season
	}
	if !validSeason(season) {
		return glv.LotkaVolterra{}, fmt.Errorf("season %q: want %s, %s or %s: %w",
			season, SeasonSummer, SeasonWinter, SeasonAll, ErrBadManifest)
	}

	dim := len(ds.Taxa)
	mu := make([]float64, dim)
	names := make([]string, dim)
	a := mat.NewDense(dim, dim, nil)
	for i, t := range ds.Taxa {
		mu[i] = t.Growth
		names[i] = t.Name
		for j := 0; j < dim; j++ {
			if j != i {
				a.Set(i, j, math.NaN())
			}
		}
		a.Set(i, i, t.Self)
	}

	for _, r := range ds.interactions {
		if !seasonMatches(r.Season, season) || math.IsNaN(r.Strength) {
			continue
		}
		pred := ds.index[taxonKey(r.Predator)]
		prey := ds.index[taxonKey(r.Prey)]

		addCell(a, prey, pred, r.Strength)

		benefit := -ds.Manifest.Efficiency * r.Strength
		mPrey, mPred := ds.Taxa[prey].BodyMass, ds.Taxa[pred].BodyMass
		if finite(mPrey) && finite(mPred) && mPred != 0 {
			benefit *= mPrey / mPred
		}
		addCell(a, pred, prey, benefit)
	}

	return glv.NewLotkaVolterra(mu, a, names)
}

func seasonMatches(tag, season string) bool {
	return tag == SeasonAll || season == SeasonAll || tag == season
}

// addCell adds v into a NaN-initialized cell.
func addCell(a *mat.Dense, i, j int, v float64) {
	if cur := a.At(i, j); !math.IsNaN(cur) {
		v += cur
	}
	a.Set(i, j, v)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
