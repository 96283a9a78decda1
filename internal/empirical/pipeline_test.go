package empirical

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldlab/trophicnfd/internal/nfd"
)

// The summer web reduces to moss, algae and daphnia. For that subset
// the conversion roots have closed forms: on the moss-daphnia pair
// u := 0.5/c solves u^2 - 0.16u - 0.36 = 0, on the algae-daphnia pair
// v := 1/c solves v^2 - 0.5v - 1.8 = 0.
func TestPipeline_SummerWeb(t *testing.T) {
	out, err := Pipeline(webManifest(t))
	require.NoError(t, err)

	assert.Equal(t, SeasonSummer, out.Season)
	assert.Equal(t, 7, out.Community.Dim())

	sub := out.Subset
	assert.Equal(t, []int{0, 1, 2}, sub.Indices)
	assert.Equal(t, []string{"moss", "algae", "daphnia"}, sub.Model.Names)

	require.Len(t, sub.Removed, 4)
	assert.Equal(t, nfd.Removal{Index: 3, Name: "chironomus", Reason: nfd.ReasonNoIncomingInteractions, Pass: 1}, sub.Removed[0])
	assert.Equal(t, nfd.Removal{Index: 4, Name: "hydra", Reason: nfd.ReasonSelfLimitationNotFinite, Pass: 1}, sub.Removed[1])
	assert.Equal(t, nfd.Removal{Index: 5, Name: "rotifer", Reason: nfd.ReasonGrowthRateNotFinite, Pass: 1}, sub.Removed[2])
	assert.Equal(t, nfd.Removal{Index: 6, Name: "pike", Reason: nfd.ReasonNegativeEquilibrium, Pass: 2}, sub.Removed[3])

	assert.InDelta(t, 57.0/70, sub.Equilibrium[0], 1e-12)
	assert.InDelta(t, 43.0/70, sub.Equilibrium[1], 1e-12)
	assert.InDelta(t, 13.0/35, sub.Equilibrium[2], 1e-12)
	assert.InDelta(t, 1.0, sub.Monoculture[0], 1e-12)
	assert.InDelta(t, 0.8, sub.Monoculture[1], 1e-12)
	assert.InDelta(t, -0.2, sub.Monoculture[2], 1e-12)

	res := out.Result
	require.Len(t, res.Species, 3)
	for _, s := range res.Species {
		assert.Equal(t, nfd.StatusOK, s.Status, s.Name)
		assert.True(t, s.ResidentStable, s.Name)
	}

	moss, algae, daphnia := res.Species[0], res.Species[1], res.Species[2]

	assert.Equal(t, 1.0, moss.Mu)
	assert.InDelta(t, 0.95, moss.Invasion, 1e-12)
	assert.InDelta(t, 0.9270403, moss.Eta, 1e-6)
	assert.InDelta(t, 0.6853098, moss.NicheOverlap, 1e-6)
	assert.InDelta(t, 0.3146902, moss.ND, 1e-6)
	assert.InDelta(t, 0.9270403, moss.FD, 1e-6)
	assert.InDelta(t, -12.7061967, moss.FDPrime, 1e-4)
	assert.InDelta(t, -0.0608835, moss.SpectralAbscissa, 1e-6)

	assert.InDelta(t, 0.7166666666666667, algae.Invasion, 1e-12)
	assert.InDelta(t, 0.6967839, algae.Eta, 1e-6)
	assert.InDelta(t, 0.1926328, algae.ND, 1e-6)
	assert.InDelta(t, 0.8709798, algae.FD, 1e-6)
	assert.InDelta(t, -6.7507251, algae.FDPrime, 1e-4)

	// The consumer's overlap is negative, driving its ND above one.
	assert.Equal(t, -0.1, daphnia.Mu)
	assert.InDelta(t, 0.26, daphnia.Invasion, 1e-12)
	assert.InDelta(t, -1.4312036, daphnia.Eta, 1e-5)
	assert.InDelta(t, -0.2704320, daphnia.NicheOverlap, 1e-6)
	assert.InDelta(t, 1.2704320, daphnia.ND, 1e-6)
	assert.InDelta(t, 14.3120359, daphnia.FD, 1e-4)
	assert.InDelta(t, 1.0751200, daphnia.FDPrime, 1e-5)
	assert.InDelta(t, -0.8, daphnia.SpectralAbscissa, 1e-9)

	conv := res.ConversionFactors
	assert.InDelta(t, 0.7295970, conv[0][2], 1e-6)
	assert.InDelta(t, 1.3706197, conv[2][0], 1e-6)
	assert.InDelta(t, 0.6192969, conv[1][2], 1e-6)
	assert.InDelta(t, 1.6147344, conv[2][1], 1e-6)
	assert.InDelta(t, 1, conv[0][2]*conv[2][0], 1e-9)
	assert.InDelta(t, 1, conv[1][2]*conv[2][1], 1e-9)

	// Moss and algae only ever meet through shared predation; the
	// pair itself is decoupled.
	assert.Zero(t, conv[0][1])
	assert.Zero(t, conv[1][0])
	assert.True(t, math.IsNaN(res.PairNicheOverlap[0][1]))

	assert.InDelta(t, 0.6853098, res.PairNicheOverlap[0][2], 1e-6)
	assert.InDelta(t, -0.6853098, res.PairNicheOverlap[2][0], 1e-5)
	assert.InDelta(t, 0.9270403, res.PairFitness[0][2], 1e-6)
}

func TestPipeline_WinterCollapse(t *testing.T) {
	ds := webDataset(t)
	_, err := ds.Decompose(SeasonWinter)
	require.ErrorIs(t, err, nfd.ErrNoComputableCommunity)

	var ncErr *nfd.NoComputableError
	require.ErrorAs(t, err, &ncErr)
	assert.Equal(t, 1, ncErr.Survivors)
	assert.Equal(t, 2, ncErr.Passes)

	require.Len(t, ncErr.Removed, 6)
	byName := make(map[string]nfd.Removal, len(ncErr.Removed))
	for _, r := range ncErr.Removed {
		byName[r.Name] = r
	}
	assert.Equal(t, nfd.ReasonNoIncomingInteractions, byName["algae"].Reason)
	assert.Equal(t, nfd.ReasonNoIncomingInteractions, byName["hydra"].Reason)
	assert.Equal(t, nfd.ReasonGrowthRateNotFinite, byName["rotifer"].Reason)
	assert.Equal(t, nfd.ReasonNoIncomingInteractions, byName["pike"].Reason)

	// Neither consumer can persist without moss, so invadability
	// fails for both in the second pass.
	assert.Equal(t, nfd.ReasonNegativeResidentEquilibrium, byName["daphnia"].Reason)
	assert.Equal(t, 2, byName["daphnia"].Pass)
	assert.Equal(t, nfd.ReasonNegativeResidentEquilibrium, byName["chironomus"].Reason)
	assert.Equal(t, 2, byName["chironomus"].Pass)
}

// The pipeline's eligibility prunes must agree with the per-species
// conditions applied directly to the raw assembled matrix.
func TestPipeline_MatchesManualEligibility(t *testing.T) {
	ds := webDataset(t)
	model, err := ds.Assemble(SeasonSummer)
	require.NoError(t, err)

	keep, manual := nfd.Eligible(model)
	assert.Equal(t, []int{0, 1, 2, 6}, keep)

	out, err := ds.Decompose(SeasonSummer)
	require.NoError(t, err)

	eligibility := map[nfd.RemovalReason]bool{
		nfd.ReasonGrowthRateNotFinite:       true,
		nfd.ReasonNoIncomingInteractions:    true,
		nfd.ReasonNoOutgoingInteractions:    true,
		nfd.ReasonSelfLimitationNotFinite:   true,
		nfd.ReasonSelfLimitationNotPositive: true,
	}
	var pruned []nfd.Removal
	for _, r := range out.Subset.Removed {
		if eligibility[r.Reason] {
			pruned = append(pruned, r)
		}
	}

	require.Len(t, pruned, len(manual))
	for i, m := range manual {
		assert.Equal(t, m.Name, pruned[i].Name)
		assert.Equal(t, m.Reason, pruned[i].Reason)
		assert.Equal(t, m.Index, pruned[i].Index)
	}
}

func TestPipeline_LoadFailurePropagates(t *testing.T) {
	m := webManifest(t)
	m.Interactions = m.Population // population table lacks the link columns
	_, err := Pipeline(m)
	require.ErrorIs(t, err, ErrBadTable)
}
