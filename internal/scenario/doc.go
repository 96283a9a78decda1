// Package scenario loads synthetic-experiment definitions from CUE
// files.
//
// A definition lives under the top-level "experiment" field and names
// the community layout, the sweep grid, and the experiment seed:
//
//	experiment: {
//		name: "trophic-null"
//		seed: 42
//		community: {
//			counts: [2, 2]
//			growth: [1.0, 1.0]
//			alpha: [[0.3, 0.3], [-0.3, 0.3]]
//		}
//		grid: {
//			noise: [0.0, 0.05]
//			replicates: 100
//		}
//	}
//
// Load fails fast with position-aware errors (file:line:column); the
// separate Validate pass collects every constraint violation so a
// user can fix a definition in one round.
package scenario
