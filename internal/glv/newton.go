package glv

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// NewtonOptions configure SolveNewton. Zero values select the defaults.
type NewtonOptions struct {
	// MaxIter bounds the number of Newton steps. Default 50.
	MaxIter int

	// Tol is the convergence threshold on max|f(x)|. Default 1e-10.
	Tol float64
}

const (
	defaultNewtonMaxIter = 50
	defaultNewtonTol     = 1e-10

	// maxHalvings bounds the backtracking line search per step.
	maxHalvings = 30
)

func (o NewtonOptions) withDefaults() NewtonOptions {
	if o.MaxIter <= 0 {
		o.MaxIter = defaultNewtonMaxIter
	}
	if o.Tol <= 0 {
		o.Tol = defaultNewtonTol
	}
	return o
}

// SolveNewton finds a zero of the growth function f(x) = 0 by damped
// Newton iteration: solve J(x)*d = f(x), then x <- x - s*d with the step
// s halved until the residual shrinks. init is not modified.
//
// A singular Jacobian yields ErrEquilibriumUndefined; exhausting the step
// budget without convergence yields ErrEquilibriumNotFound.
func SolveNewton(m Model, init []float64, opts NewtonOptions) ([]float64, error) {
	dim := m.Dim()
	if len(init) != dim {
		return nil, fmt.Errorf("initial guess has %d entries for %d species: %w", len(init), dim, ErrDimensionMismatch)
	}
	opts = opts.withDefaults()

	x := make([]float64, dim)
	copy(x, init)
	f := m.Growth(x)
	res := maxAbs(f)

	for iter := 0; iter < opts.MaxIter; iter++ {
		if res <= opts.Tol {
			return x, nil
		}
		if math.IsNaN(res) || math.IsInf(res, 0) {
			return nil, fmt.Errorf("iteration %d produced a non-finite residual: %w", iter, ErrEquilibriumNotFound)
		}

		var lu mat.LU
		lu.Factorize(m.Jacobian(x))
		d := mat.NewVecDense(dim, nil)
		if err := lu.SolveVecTo(d, false, mat.NewVecDense(dim, f)); err != nil {
			return nil, fmt.Errorf("iteration %d: singular Jacobian (%v): %w", iter, err, ErrEquilibriumUndefined)
		}

		// Backtracking: accept the first step that reduces the residual.
		step := 1.0
		next := make([]float64, dim)
		var fNext []float64
		accepted := false
		for h := 0; h < maxHalvings; h++ {
			for i := range next {
				next[i] = x[i] - step*d.AtVec(i)
			}
			fNext = m.Growth(next)
			if r := maxAbs(fNext); r < res {
				x, f, res = next, fNext, r
				accepted = true
				break
			}
			step /= 2
		}
		if !accepted {
			return nil, fmt.Errorf("line search stalled at residual %g: %w", res, ErrEquilibriumNotFound)
		}
	}
	if res <= opts.Tol {
		return x, nil
	}
	return nil, fmt.Errorf("residual %g after %d steps: %w", res, opts.MaxIter, ErrEquilibriumNotFound)
}

func maxAbs(v []float64) float64 {
	m := 0.0
	for _, x := range v {
		if a := math.Abs(x); a > m || math.IsNaN(a) {
			m = a
		}
	}
	return m
}
