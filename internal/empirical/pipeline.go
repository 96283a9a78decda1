package empirical

import (
	"fmt"

	"github.com/veldlab/trophicnfd/internal/glv"
	"github.com/veldlab/trophicnfd/internal/nfd"
)

// Outcome is one full pipeline run: the assembled community, the
// computable subset the filter settled on and its decomposition. The
// subset carries the removal trail for the prune report.
type Outcome struct {
	Season    string
	Community glv.LotkaVolterra
	Subset    nfd.Subset
	Result    nfd.Result
}

// Pipeline loads the dataset named by the manifest, assembles the
// manifest's season and decomposes the computable subset.
func Pipeline(m Manifest) (*Outcome, error) {
	ds, err := Load(m)
	if err != nil {
		return nil, err
	}
	return ds.Decompose(m.Season)
}

// Decompose assembles one season, filters it down to a computable
// subset and decomposes that. A community the filter exhausts surfaces
// as nfd.ErrNoComputableCommunity with the full removal trail.
func (ds *Dataset) Decompose(season string) (*Outcome, error) {
	if season == "" {
		season = ds.Manifest.Season
	}
	model, err := ds.Assemble(season)
	if err != nil {
		return nil, err
	}

	opts := nfd.Options{AbundanceTol: ds.Manifest.AbundanceTol}
	sub, err := nfd.FindComputable(model, opts)
	if err != nil {
		return nil, fmt.Errorf("filtering %s web: %w", season, err)
	}
	res, err := nfd.Decompose(sub, opts)
	if err != nil {
		return nil, err
	}

	return &Outcome{Season: season, Community: model, Subset: sub, Result: res}, nil
}
