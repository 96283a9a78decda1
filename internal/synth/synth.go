package synth

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/veldlab/trophicnfd/internal/glv"
)

// ErrBadConfig reports an inconsistent community configuration.
var ErrBadConfig = errors.New("synth: bad community config")

// Config describes a layered synthetic community.
type Config struct {
	// Counts is the number of species per trophic level, bottom up.
	Counts []int `json:"counts"`

	// Growth is the intrinsic growth rate per level. Consumers that
	// cannot persist alone carry a negative rate.
	Growth []float64 `json:"growth"`

	// Alpha holds the base interaction strength between levels:
	// Alpha[k][l] is the per-capita effect of a level-l species on a
	// level-k species. Zero entries mean no link, and stay zero.
	Alpha [][]float64 `json:"alpha"`

	// SelfLimitation fills the diagonal. Zero selects the default of 1.
	SelfLimitation float64 `json:"self_limitation,omitempty"`

	// Noise is the half-width of the uniform perturbation added to
	// every realized off-diagonal coefficient.
	Noise float64 `json:"noise,omitempty"`

	// Efficiency converts a prey-side coefficient into the paired
	// predator-side gain when CoupleEfficiency is set. Its biological
	// range is not enforced.
	Efficiency float64 `json:"efficiency,omitempty"`

	// CoupleEfficiency, when set, derives the predator-side
	// coefficient of every adjacent-level pair from the prey-side
	// draw: A[pred][prey] = -Efficiency * A[prey][pred].
	CoupleEfficiency bool `json:"couple_efficiency,omitempty"`
}

// TotalSpecies returns the community size the config describes.
func (c Config) TotalSpecies() int {
	t := 0
	for _, n := range c.Counts {
		t += n
	}
	return t
}

// Validate checks the config shape. It returns an error wrapping
// ErrBadConfig naming the first inconsistency.
func (c Config) Validate() error {
	if len(c.Counts) == 0 {
		return fmt.Errorf("no trophic levels: %w", ErrBadConfig)
	}
	for k, n := range c.Counts {
		if n < 1 {
			return fmt.Errorf("level %d has %d species: %w", k+1, n, ErrBadConfig)
		}
	}
	if len(c.Growth) != len(c.Counts) {
		return fmt.Errorf("%d growth rates for %d levels: %w", len(c.Growth), len(c.Counts), ErrBadConfig)
	}
	if len(c.Alpha) != len(c.Counts) {
		return fmt.Errorf("alpha has %d rows for %d levels: %w", len(c.Alpha), len(c.Counts), ErrBadConfig)
	}
	for k, row := range c.Alpha {
		if len(row) != len(c.Counts) {
			return fmt.Errorf("alpha row %d has %d entries for %d levels: %w", k+1, len(row), len(c.Counts), ErrBadConfig)
		}
	}
	if c.SelfLimitation < 0 {
		return fmt.Errorf("self limitation %v: %w", c.SelfLimitation, ErrBadConfig)
	}
	if c.Noise < 0 {
		return fmt.Errorf("negative noise %v: %w", c.Noise, ErrBadConfig)
	}
	return nil
}

// Generate draws one community from the config. Species are laid out
// level by level; every realized off-diagonal entry is the level-block
// base value plus U(-Noise, +Noise). The result is deterministic given
// the config and the generator state.
func Generate(cfg Config, rng *rand.Rand) (glv.LotkaVolterra, error) {
	if err := cfg.Validate(); err != nil {
		return glv.LotkaVolterra{}, err
	}
	if rng == nil {
		return glv.LotkaVolterra{}, fmt.Errorf("nil random source: %w", ErrBadConfig)
	}

	self := cfg.SelfLimitation
	if self == 0 {
		self = 1
	}
	level := speciesLevels(cfg.Counts)
	n := len(level)

	mu := make([]float64, n)
	a := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		mu[i] = cfg.Growth[level[i]]
		a.Set(i, i, self)
	}

	draw := func(base float64) float64 {
		if base == 0 {
			return 0
		}
		if cfg.Noise == 0 {
			return base
		}
		return base + cfg.Noise*(2*rng.Float64()-1)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			li, lj := level[i], level[j]
			aij := draw(cfg.Alpha[li][lj])
			a.Set(i, j, aij)
			if cfg.CoupleEfficiency && lj == li+1 {
				// i is the prey one level below predator j: the gain
				// side comes from the same draw as the loss side.
				a.Set(j, i, -cfg.Efficiency*aij)
				continue
			}
			a.Set(j, i, draw(cfg.Alpha[lj][li]))
		}
	}

	return glv.NewLotkaVolterra(mu, a, speciesNames(cfg.Counts))
}

func speciesLevels(counts []int) []int {
	var levels []int
	for k, c := range counts {
		for p := 0; p < c; p++ {
			levels = append(levels, k)
		}
	}
	return levels
}

func speciesNames(counts []int) []string {
	var names []string
	for k, c := range counts {
		prefix := levelPrefix(k)
		for p := 1; p <= c; p++ {
			names = append(names, prefix+strconv.Itoa(p))
		}
	}
	return names
}

func levelPrefix(level int) string {
	switch level {
	case 0:
		return "basal"
	case 1:
		return "pred"
	case 2:
		return "top"
	default:
		return fmt.Sprintf("l%d_", level+1)
	}
}
