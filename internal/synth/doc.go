// Package synth generates random layered Lotka-Volterra communities
// for null-model experiments.
//
// A community is described by per-level species counts, per-level
// intrinsic growth rates, and a level-by-level block matrix of base
// interaction strengths. Generate lays species out bottom-up
// ("basal1", "basal2", ..., "pred1", ..., "top1", ...), perturbs every
// realized off-diagonal coefficient with uniform noise, and can derive
// the predator-side coefficient of each adjacent-level pair from the
// prey-side draw through a conversion efficiency.
//
// All randomness flows through an explicit *rand.Rand; Generate is
// deterministic given a config and a seeded generator. NewRand and
// DeriveRand build independent, reproducible streams per experiment
// and per replicate.
package synth
