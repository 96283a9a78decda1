// Package sweep runs batches of independent synthetic-community
// replicates over a parameter grid.
//
// A Grid expands into Points, one per parameter combination and
// replicate. Each point carries its own random stream id, so a
// replicate's community depends only on the experiment seed and the
// point, never on scheduling. The Runner executes points on a bounded
// worker pool and funnels rows through a single collector goroutine;
// expected engine failures (singular systems, communities with no
// computable subset) are recorded as row outcomes, not errors.
package sweep
