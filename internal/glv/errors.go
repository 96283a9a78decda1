package glv

import "errors"

// Sentinel errors for model construction and equilibrium solving.
// Callers match with errors.Is; call sites wrap with fmt.Errorf("...: %w", err)
// when extra context is useful.
var (
	// ErrDimensionMismatch indicates mu, A and names disagree on the number
	// of species, or A is not square.
	ErrDimensionMismatch = errors.New("glv: dimension mismatch")

	// ErrIndexOutOfRange indicates a species index outside [0, Dim).
	ErrIndexOutOfRange = errors.New("glv: species index out of range")

	// ErrEquilibriumUndefined indicates the interaction matrix is singular
	// (or too ill-conditioned to trust) so the equilibrium system has no
	// usable solution.
	ErrEquilibriumUndefined = errors.New("glv: equilibrium undefined (singular interaction matrix)")

	// ErrEquilibriumNotFound indicates the Newton iteration did not converge
	// within its step budget.
	ErrEquilibriumNotFound = errors.New("glv: equilibrium not found (iteration did not converge)")
)
