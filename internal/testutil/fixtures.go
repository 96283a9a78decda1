// Package testutil provides community fixtures and float helpers shared
// by the engine and driver test suites.
package testutil

import (
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"

	"github.com/veldlab/trophicnfd/internal/glv"
)

// MustLV builds a Lotka-Volterra model from row slices, failing the test
// on shape errors.
func MustLV(t *testing.T, mu []float64, rows [][]float64, names []string) glv.LotkaVolterra {
	t.Helper()
	dim := len(rows)
	a := mat.NewDense(dim, dim, nil)
	for i, row := range rows {
		a.SetRow(i, row)
	}
	m, err := glv.NewLotkaVolterra(mu, a, names)
	if err != nil {
		t.Fatalf("building fixture model: %v", err)
	}
	return m
}

// TwoSpeciesSymmetric is the closed-form reference community: equal
// growth rates, unit self-limitation, symmetric cross-term rho. Its
// decomposition is ND = 1-rho, FD = 0 for both species.
func TwoSpeciesSymmetric(t *testing.T, rho float64) glv.LotkaVolterra {
	t.Helper()
	return MustLV(t,
		[]float64{1, 1},
		[][]float64{
			{1, rho},
			{rho, 1},
		},
		nil,
	)
}

// FourSpeciesTrophic is the two-basal, two-predator community with level
// block coefficients [[0.3, 0.3], [-0.3, 0.3]] and no noise. All four
// species coexist feasibly.
func FourSpeciesTrophic(t *testing.T) glv.LotkaVolterra {
	t.Helper()
	return MustLV(t,
		[]float64{1, 1, 1, 1},
		[][]float64{
			{1, 0.3, 0.3, 0.3},
			{0.3, 1, 0.3, 0.3},
			{-0.3, -0.3, 1, 0.3},
			{-0.3, -0.3, 0.3, 1},
		},
		[]string{"basal1", "basal2", "pred1", "pred2"},
	)
}

// RandLV draws a seeded random competitive community of n >= 2 species:
// unit growth rates, unit diagonal and uniform off-diagonal coefficients
// on [0, 1/(4n)). The diagonal dominance margin keeps every equilibrium
// the filter visits strictly positive, so the full set is computable
// for any seed.
func RandLV(t *testing.T, seed uint64, n int) glv.LotkaVolterra {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, 1))
	spread := 1 / (4 * float64(n))

	mu := make([]float64, n)
	a := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		mu[i] = 1
		a.Set(i, i, 1)
		for j := 0; j < n; j++ {
			if j != i {
				a.Set(i, j, spread*rng.Float64())
			}
		}
	}

	m, err := glv.NewLotkaVolterra(mu, a, nil)
	if err != nil {
		t.Fatalf("building random fixture model: %v", err)
	}
	return m
}

// AlmostEqualSlice asserts elementwise closeness, treating NaN entries
// as equal to NaN.
func AlmostEqualSlice(t *testing.T, want, got []float64, tol float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("length mismatch: want %d entries, got %d", len(want), len(got))
	}
	for i := range want {
		if math.IsNaN(want[i]) || math.IsNaN(got[i]) {
			if math.IsNaN(want[i]) != math.IsNaN(got[i]) {
				t.Errorf("entry %d: want %v, got %v", i, want[i], got[i])
			}
			continue
		}
		if !scalar.EqualWithinAbsOrRel(want[i], got[i], tol, tol) {
			t.Errorf("entry %d: want %v, got %v (tol %g)", i, want[i], got[i], tol)
		}
	}
}
