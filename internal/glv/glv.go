package glv

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// DefaultAbundanceTol is the pipeline-wide "effectively zero" abundance
// threshold. Equilibrium components below it are treated as extinct.
const DefaultAbundanceTol = 1e-5

// Model is a smooth per-capita growth function over species abundances.
// Implementations must be pure: Growth and Jacobian depend only on their
// arguments.
type Model interface {
	// Dim returns the number of species.
	Dim() int

	// Growth returns the per-capita growth rates f(n). The input slice is
	// not modified and must have length Dim.
	Growth(n []float64) []float64

	// Jacobian returns the Dim x Dim matrix of partial derivatives
	// d f_i / d n_j evaluated at n.
	Jacobian(n []float64) *mat.Dense
}

// LotkaVolterra is the linear reference model: f(N) = mu - A*N.
//
// Mu, A and Names share one species order. The zero value is not usable;
// construct with NewLotkaVolterra.
type LotkaVolterra struct {
	Mu    []float64
	A     *mat.Dense
	Names []string
}

// NewLotkaVolterra builds a community model from a growth-rate vector and
// a square interaction matrix. If names is nil, species are named
// "sp1".."spN". Returns ErrDimensionMismatch when shapes disagree.
func NewLotkaVolterra(mu []float64, a *mat.Dense, names []string) (LotkaVolterra, error) {
	if a == nil {
		return LotkaVolterra{}, fmt.Errorf("interaction matrix is nil: %w", ErrDimensionMismatch)
	}
	r, c := a.Dims()
	if r != c {
		return LotkaVolterra{}, fmt.Errorf("interaction matrix is %dx%d, want square: %w", r, c, ErrDimensionMismatch)
	}
	if len(mu) != r {
		return LotkaVolterra{}, fmt.Errorf("growth vector has %d entries for %d species: %w", len(mu), r, ErrDimensionMismatch)
	}
	if names != nil && len(names) != r {
		return LotkaVolterra{}, fmt.Errorf("names has %d entries for %d species: %w", len(names), r, ErrDimensionMismatch)
	}
	if names == nil {
		names = make([]string, r)
		for i := range names {
			names[i] = fmt.Sprintf("sp%d", i+1)
		}
	}
	return LotkaVolterra{Mu: mu, A: a, Names: names}, nil
}

// Dim returns the number of species.
func (lv LotkaVolterra) Dim() int { return len(lv.Mu) }

// Growth returns mu - A*n.
func (lv LotkaVolterra) Growth(n []float64) []float64 {
	dim := lv.Dim()
	var an mat.VecDense
	an.MulVec(lv.A, mat.NewVecDense(dim, n))
	f := make([]float64, dim)
	for i := range f {
		f[i] = lv.Mu[i] - an.AtVec(i)
	}
	return f
}

// Jacobian returns -A. The linear model's Jacobian is constant in n.
func (lv LotkaVolterra) Jacobian(n []float64) *mat.Dense {
	dim := lv.Dim()
	j := mat.NewDense(dim, dim, nil)
	for r := 0; r < dim; r++ {
		for c := 0; c < dim; c++ {
			j.Set(r, c, -lv.A.At(r, c))
		}
	}
	return j
}

// Clone returns a deep copy of the model.
func (lv LotkaVolterra) Clone() LotkaVolterra {
	mu := make([]float64, len(lv.Mu))
	copy(mu, lv.Mu)
	names := make([]string, len(lv.Names))
	copy(names, lv.Names)
	return LotkaVolterra{Mu: mu, A: mat.DenseCopyOf(lv.A), Names: names}
}

// Sub returns the induced subsystem on the given species indices, in the
// order they are listed. Returns ErrIndexOutOfRange for invalid indices.
func (lv LotkaVolterra) Sub(keep []int) (LotkaVolterra, error) {
	dim := lv.Dim()
	for _, k := range keep {
		if k < 0 || k >= dim {
			return LotkaVolterra{}, fmt.Errorf("index %d of %d species: %w", k, dim, ErrIndexOutOfRange)
		}
	}
	n := len(keep)
	mu := make([]float64, n)
	names := make([]string, n)
	a := mat.NewDense(n, n, nil)
	for i, ki := range keep {
		mu[i] = lv.Mu[ki]
		names[i] = lv.Names[ki]
		for j, kj := range keep {
			a.Set(i, j, lv.A.At(ki, kj))
		}
	}
	return LotkaVolterra{Mu: mu, A: a, Names: names}, nil
}

// Realized returns a copy with NaN off-diagonal entries replaced by zero.
// Unmeasured interactions carry no realized effect once a community has
// been filtered, but the solver requires finite coefficients.
func (lv LotkaVolterra) Realized() LotkaVolterra {
	out := lv.Clone()
	dim := out.Dim()
	for r := 0; r < dim; r++ {
		for c := 0; c < dim; c++ {
			if r != c && math.IsNaN(out.A.At(r, c)) {
				out.A.Set(r, c, 0)
			}
		}
	}
	return out
}

// Equilibrium solves A*N = mu by LU factorization and returns the
// abundance vector. The result is not feasibility-checked; use Feasible.
// A singular or near-singular matrix yields ErrEquilibriumUndefined.
func (lv LotkaVolterra) Equilibrium() ([]float64, error) {
	dim := lv.Dim()
	if dim == 0 {
		return nil, fmt.Errorf("empty community: %w", ErrEquilibriumUndefined)
	}
	var lu mat.LU
	lu.Factorize(lv.A)
	x := mat.NewVecDense(dim, nil)
	if err := lu.SolveVecTo(x, false, mat.NewVecDense(dim, lv.Mu)); err != nil {
		return nil, fmt.Errorf("solving A*N = mu (%v): %w", err, ErrEquilibriumUndefined)
	}
	n := make([]float64, dim)
	for i := range n {
		n[i] = x.AtVec(i)
	}
	return n, nil
}

// Feasible reports whether every component of n is non-negative within
// tol, i.e. n_i >= -tol for all i. Pass tol <= 0 to use
// DefaultAbundanceTol.
func Feasible(n []float64, tol float64) bool {
	if tol <= 0 {
		tol = DefaultAbundanceTol
	}
	for _, v := range n {
		if v < -tol || math.IsNaN(v) {
			return false
		}
	}
	return true
}
