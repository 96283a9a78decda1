package synth

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
)

// NewRand returns the generator for an experiment seed.
// Non-cryptographic PRNG is intentional for reproducible experiments.
func NewRand(seed int64) *rand.Rand {
	// #nosec G404
	return rand.New(rand.NewPCG(seedWord(seed, "a"), seedWord(seed, "b")))
}

// DeriveRand returns an independent stream for one replicate of an
// experiment. Distinct stream ids never share state, so replicates can
// run in any order on any number of workers and still reproduce.
func DeriveRand(seed int64, stream uint64) *rand.Rand {
	// #nosec G404
	return rand.New(rand.NewPCG(
		seedWord(seed, fmt.Sprintf("%d:a", stream)),
		seedWord(seed, fmt.Sprintf("%d:b", stream)),
	))
}

func seedWord(seed int64, salt string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(fmt.Sprintf("%d:%s", seed, salt)))
	return h.Sum64()
}
