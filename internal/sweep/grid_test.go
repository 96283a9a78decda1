package sweep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldlab/trophicnfd/internal/synth"
)

func TestGrid_Points(t *testing.T) {
	base := synth.Config{Counts: []int{2, 2}}
	g := Grid{
		Counts:     [][]int{{2, 2}, {3, 3}},
		Noise:      []float64{0, 0.1},
		Efficiency: []float64{0.5},
		Replicates: 2,
	}

	points := g.Points(base)
	require.Len(t, points, 8, "2 layouts x 2 noise x 1 efficiency x 2 replicates")

	for i, pt := range points {
		assert.Equal(t, uint64(i), pt.Stream, "streams are sequential")
		assert.Equal(t, i/2, pt.Index, "combination index advances every Replicates points")
		assert.Equal(t, i%2, pt.Replicate)
	}
	assert.Equal(t, []int{2, 2}, points[0].Counts)
	assert.Equal(t, 0.0, points[0].Noise)
	assert.Equal(t, 0.1, points[2].Noise)
	assert.Equal(t, []int{3, 3}, points[4].Counts)
	assert.Equal(t, 0.5, points[7].Efficiency)
}

func TestGrid_DefaultsFromBase(t *testing.T) {
	base := synth.Config{Counts: []int{2, 1}, Noise: 0.2, Efficiency: 0.8}

	points := Grid{}.Points(base)
	require.Len(t, points, 1)
	pt := points[0]
	assert.Equal(t, []int{2, 1}, pt.Counts)
	assert.Equal(t, 0.2, pt.Noise)
	assert.Equal(t, 0.8, pt.Efficiency)
	assert.Zero(t, pt.Replicate)

	cfg := pt.Config(synth.Config{Counts: []int{9}, Growth: []float64{1}})
	assert.Equal(t, []int{2, 1}, cfg.Counts, "point values override the base")
	assert.Equal(t, 0.2, cfg.Noise)
}

func TestPoint_LevelsLabel(t *testing.T) {
	assert.Equal(t, "2-2", Point{Counts: []int{2, 2}}.LevelsLabel())
	assert.Equal(t, "4", Point{Counts: []int{4}}.LevelsLabel())
	assert.Equal(t, "", Point{}.LevelsLabel())
}
