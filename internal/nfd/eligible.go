package nfd

import (
	"math"

	"github.com/veldlab/trophicnfd/internal/glv"
)

// RemovalReason says why the filter dropped a species.
type RemovalReason string

const (
	ReasonGrowthRateNotFinite         RemovalReason = "growth_rate_not_finite"
	ReasonNoIncomingInteractions      RemovalReason = "no_incoming_interactions"
	ReasonNoOutgoingInteractions      RemovalReason = "no_outgoing_interactions"
	ReasonSelfLimitationNotFinite     RemovalReason = "self_limitation_not_finite"
	ReasonSelfLimitationNotPositive   RemovalReason = "self_limitation_not_positive"
	ReasonNegativeEquilibrium         RemovalReason = "negative_equilibrium"
	ReasonNegativeResidentEquilibrium RemovalReason = "negative_resident_equilibrium"
)

// Removal records one species dropped during filtering.
type Removal struct {
	// Index is the species position in the community the filter was
	// started on. Eligible reports positions in its argument instead.
	Index int `json:"index"`

	Name   string        `json:"name"`
	Reason RemovalReason `json:"reason"`

	// Pass is the 1-based filter pass that dropped the species. Zero
	// when the removal comes from a bare Eligible call.
	Pass int `json:"pass,omitempty"`
}

// Eligible applies the per-species computability conditions to m once
// and returns the indices that pass plus a removal record per species
// that does not. A species is eligible when its growth rate is finite,
// it has at least one realized interaction in each direction, and its
// self-limitation is finite and positive. NaN interaction entries count
// as unmeasured, not as links.
//
// One application is not a fixed point: removing a species can strip
// another of its last interaction. FindComputable iterates to
// stability.
func Eligible(m glv.LotkaVolterra) (keep []int, removed []Removal) {
	dim := m.Dim()
	for i := 0; i < dim; i++ {
		if reason, bad := ineligible(m, i); bad {
			removed = append(removed, Removal{Index: i, Name: m.Names[i], Reason: reason})
			continue
		}
		keep = append(keep, i)
	}
	return keep, removed
}

func ineligible(m glv.LotkaVolterra, i int) (RemovalReason, bool) {
	if !isFinite(m.Mu[i]) {
		return ReasonGrowthRateNotFinite, true
	}
	incoming, outgoing := false, false
	for j := 0; j < m.Dim(); j++ {
		if j == i {
			continue
		}
		if realizedLink(m.A.At(i, j)) {
			incoming = true
		}
		if realizedLink(m.A.At(j, i)) {
			outgoing = true
		}
	}
	if !incoming {
		return ReasonNoIncomingInteractions, true
	}
	if !outgoing {
		return ReasonNoOutgoingInteractions, true
	}
	d := m.A.At(i, i)
	if !isFinite(d) {
		return ReasonSelfLimitationNotFinite, true
	}
	if d <= 0 {
		return ReasonSelfLimitationNotPositive, true
	}
	return "", false
}

func realizedLink(a float64) bool { return isFinite(a) && a != 0 }

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
