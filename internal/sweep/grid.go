package sweep

import (
	"strconv"
	"strings"

	"github.com/veldlab/trophicnfd/internal/synth"
)

// Grid spans the parameter combinations of one sweep. Empty axis
// slices mean "the scenario's base value only".
type Grid struct {
	// Counts lists the per-level species layouts to sweep.
	Counts [][]int `json:"counts,omitempty"`

	// Noise lists the uniform perturbation half-widths.
	Noise []float64 `json:"noise,omitempty"`

	// Efficiency lists the conversion efficiencies.
	Efficiency []float64 `json:"efficiency,omitempty"`

	// Replicates is the number of communities drawn per combination.
	// Values below 1 count as 1.
	Replicates int `json:"replicates"`
}

// Point is one parameter tuple of a sweep: a combination index, the
// resolved parameter values, the replicate number and the random
// stream the replicate draws from.
type Point struct {
	Index      int     `json:"index"`
	Counts     []int   `json:"counts"`
	Noise      float64 `json:"noise"`
	Efficiency float64 `json:"efficiency"`
	Replicate  int     `json:"replicate"`
	Stream     uint64  `json:"stream"`
}

// Config returns the base community config with this point's swept
// values applied.
func (p Point) Config(base synth.Config) synth.Config {
	cfg := base
	cfg.Counts = p.Counts
	cfg.Noise = p.Noise
	cfg.Efficiency = p.Efficiency
	return cfg
}

// LevelsLabel renders the level layout as a compact tag, e.g. "2-2".
func (p Point) LevelsLabel() string {
	parts := make([]string, len(p.Counts))
	for i, c := range p.Counts {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, "-")
}

// Points expands the grid against a base config into the full list of
// replicate points, in a fixed deterministic order. Stream ids are
// sequential and unique across the whole sweep.
func (g Grid) Points(base synth.Config) []Point {
	countsList := g.Counts
	if len(countsList) == 0 {
		countsList = [][]int{base.Counts}
	}
	noises := g.Noise
	if len(noises) == 0 {
		noises = []float64{base.Noise}
	}
	effs := g.Efficiency
	if len(effs) == 0 {
		effs = []float64{base.Efficiency}
	}
	reps := g.Replicates
	if reps < 1 {
		reps = 1
	}

	points := make([]Point, 0, len(countsList)*len(noises)*len(effs)*reps)
	combo := 0
	for _, counts := range countsList {
		for _, noise := range noises {
			for _, eff := range effs {
				for rep := 0; rep < reps; rep++ {
					points = append(points, Point{
						Index:      combo,
						Counts:     counts,
						Noise:      noise,
						Efficiency: eff,
						Replicate:  rep,
						Stream:     uint64(len(points)),
					})
				}
				combo++
			}
		}
	}
	return points
}
