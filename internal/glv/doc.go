// Package glv models generalized Lotka-Volterra communities and solves
// their equilibria.
//
// A community couples an intrinsic growth-rate vector mu with an
// interaction matrix A. The per-capita growth of species i at abundances
// N is
//
//	f_i(N) = mu_i - sum_j A_ij * N_j
//
// where A_ij is the per-capita effect of species j on species i and the
// diagonal holds self-limitation. Off-diagonal entries set to NaN mark
// interactions that were never measured; they are distinct from measured
// zeros and must be resolved (see Realized) before solving.
//
// Two solver paths are exposed:
//   - LotkaVolterra.Equilibrium: direct LU solve of A*N = mu
//   - SolveNewton: damped Newton iteration for any Model implementation
//
// Solvers never substitute defaults. A singular system is reported as
// ErrEquilibriumUndefined and a non-convergent iteration as
// ErrEquilibriumNotFound; callers decide how to record the failure.
package glv
