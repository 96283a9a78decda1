package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/veldlab/trophicnfd/internal/testutil"
)

func twoLevelConfig() Config {
	return Config{
		Counts: []int{2, 2},
		Growth: []float64{1, 1},
		Alpha: [][]float64{
			{0.3, 0.3},
			{-0.3, 0.3},
		},
	}
}

func TestGenerate_NoNoiseMatchesBlocks(t *testing.T) {
	got, err := Generate(twoLevelConfig(), NewRand(1))
	require.NoError(t, err)

	want := testutil.FourSpeciesTrophic(t)
	assert.True(t, mat.Equal(want.A, got.A), "block layout without noise\nwant:\n%v\ngot:\n%v",
		mat.Formatted(want.A), mat.Formatted(got.A))
	assert.Equal(t, []string{"basal1", "basal2", "pred1", "pred2"}, got.Names)
	assert.Equal(t, []float64{1, 1, 1, 1}, got.Mu)
}

func TestGenerate_Deterministic(t *testing.T) {
	cfg := twoLevelConfig()
	cfg.Noise = 0.1

	first, err := Generate(cfg, DeriveRand(42, 7))
	require.NoError(t, err)
	second, err := Generate(cfg, DeriveRand(42, 7))
	require.NoError(t, err)
	assert.True(t, mat.Equal(first.A, second.A), "same seed and stream must reproduce")

	other, err := Generate(cfg, DeriveRand(42, 8))
	require.NoError(t, err)
	assert.False(t, mat.Equal(first.A, other.A), "distinct streams must diverge")
}

func TestGenerate_NoiseBounds(t *testing.T) {
	cfg := Config{
		Counts: []int{2, 2},
		Growth: []float64{1, -0.2},
		Alpha: [][]float64{
			{0.3, 0.5},
			{-0.2, 0.4},
		},
		Noise: 0.1,
	}
	lv, err := Generate(cfg, NewRand(3))
	require.NoError(t, err)

	level := []int{0, 0, 1, 1}
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if i == j {
				assert.Equal(t, 1.0, lv.A.At(i, i), "default self limitation")
				continue
			}
			base := cfg.Alpha[level[i]][level[j]]
			got := lv.A.At(i, j)
			assert.GreaterOrEqual(t, got, base-cfg.Noise, "A[%d][%d]", i, j)
			assert.LessOrEqual(t, got, base+cfg.Noise, "A[%d][%d]", i, j)
		}
	}
}

func TestGenerate_StructuralZerosStayZero(t *testing.T) {
	// Three levels with no basal-top link: noise must not invent one.
	cfg := Config{
		Counts: []int{2, 1, 1},
		Growth: []float64{1, -0.1, -0.2},
		Alpha: [][]float64{
			{0.3, 0.4, 0},
			{-0.2, 0, 0.4},
			{0, -0.2, 0},
		},
		Noise: 0.2,
	}
	lv, err := Generate(cfg, NewRand(11))
	require.NoError(t, err)

	top := 3
	for _, basal := range []int{0, 1} {
		assert.Zero(t, lv.A.At(basal, top))
		assert.Zero(t, lv.A.At(top, basal))
	}
	assert.NotZero(t, lv.A.At(2, top))
}

func TestGenerate_EfficiencyCoupling(t *testing.T) {
	cfg := Config{
		Counts: []int{1, 1, 1},
		Growth: []float64{1, -0.1, -0.2},
		Alpha: [][]float64{
			{0, 0.3, 0.2},
			{-0.3, 0, 0.4},
			{0.15, -0.4, 0},
		},
		Noise:            0.05,
		Efficiency:       0.6,
		CoupleEfficiency: true,
	}
	lv, err := Generate(cfg, NewRand(5))
	require.NoError(t, err)

	// Adjacent levels share one draw per pair.
	assert.Equal(t, -0.6*lv.A.At(0, 1), lv.A.At(1, 0))
	assert.Equal(t, -0.6*lv.A.At(1, 2), lv.A.At(2, 1))

	// The skip-level pair is drawn from its own blocks: the top-down
	// block is positive here, which coupling could never produce.
	assert.Positive(t, lv.A.At(2, 0))
	assert.InDelta(t, 0.2, lv.A.At(0, 2), cfg.Noise)
	assert.InDelta(t, 0.15, lv.A.At(2, 0), cfg.Noise)
}

func TestGenerate_DeepLevelNames(t *testing.T) {
	cfg := Config{
		Counts: []int{1, 1, 1, 2},
		Growth: []float64{1, 0, 0, -0.1},
		Alpha: [][]float64{
			{0, 0.1, 0, 0},
			{-0.1, 0, 0.1, 0},
			{0, -0.1, 0, 0.1},
			{0, 0, -0.1, 0},
		},
	}
	lv, err := Generate(cfg, NewRand(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"basal1", "pred1", "top1", "l4_1", "l4_2"}, lv.Names)
}

func TestGenerate_SelfLimitation(t *testing.T) {
	cfg := twoLevelConfig()
	cfg.SelfLimitation = 2.5
	lv, err := Generate(cfg, NewRand(1))
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		assert.Equal(t, 2.5, lv.A.At(i, i))
	}
}

func TestGenerate_BadConfig(t *testing.T) {
	base := twoLevelConfig()

	cases := map[string]func(*Config){
		"no levels":                func(c *Config) { c.Counts = nil },
		"empty level":              func(c *Config) { c.Counts = []int{2, 0} },
		"growth length":            func(c *Config) { c.Growth = []float64{1} },
		"alpha rows":               func(c *Config) { c.Alpha = c.Alpha[:1] },
		"alpha row length":         func(c *Config) { c.Alpha = [][]float64{{0.3}, {0.1, 0.2}} },
		"negative self limitation": func(c *Config) { c.SelfLimitation = -1 },
		"negative noise":           func(c *Config) { c.Noise = -0.1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			_, err := Generate(cfg, NewRand(1))
			assert.ErrorIs(t, err, ErrBadConfig)
		})
	}

	_, err := Generate(base, nil)
	assert.ErrorIs(t, err, ErrBadConfig, "nil random source")
}

func TestDeriveRand_IndependentStreams(t *testing.T) {
	a1 := DeriveRand(9, 1).Float64()
	a2 := DeriveRand(9, 1).Float64()
	b := DeriveRand(9, 2).Float64()

	assert.Equal(t, a1, a2)
	assert.NotEqual(t, a1, b)
	assert.NotEqual(t, NewRand(9).Float64(), NewRand(10).Float64())
}
