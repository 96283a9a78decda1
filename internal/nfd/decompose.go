package nfd

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/veldlab/trophicnfd/internal/glv"
)

// Status says whether a species' decomposition is defined.
type Status string

const (
	StatusOK        Status = "ok"
	StatusUndefined Status = "undefined"
)

// UndefinedReason says why a species' decomposition is undefined.
type UndefinedReason string

const (
	// ReasonSingularLinearization: the community matrix at the
	// species' resident equilibrium is singular, so invasion analysis
	// is degenerate there.
	ReasonSingularLinearization UndefinedReason = "singular_linearization"

	// ReasonConversionUnresolved: no conversion factor could be found
	// for at least one of the species' pairs.
	ReasonConversionUnresolved UndefinedReason = "conversion_unresolved"

	// ReasonZeroIntrinsicGrowth: mu is zero, so the fitness difference
	// eta/mu has no value.
	ReasonZeroIntrinsicGrowth UndefinedReason = "zero_intrinsic_growth"

	// ReasonDegenerateDenominator: mu and eta coincide, so the niche
	// overlap has no value.
	ReasonDegenerateDenominator UndefinedReason = "degenerate_denominator"
)

// SpeciesResult is the decomposition of one species. When Status is
// StatusUndefined the derived quantities are NaN and Reason is set; the
// raw diagnostics (Mu, Invasion, Monoculture) are still filled in.
type SpeciesResult struct {
	// Index is the species position in the community FindComputable
	// was started on.
	Index int
	Name  string

	Status Status
	Reason UndefinedReason

	// ND is the niche difference 1 - NicheOverlap.
	ND float64
	// FD is the fitness difference eta/mu.
	FD float64
	// FDPrime is the alternative normalization 1 - 1/(1-FD), which is
	// symmetric around zero for two species.
	FDPrime float64
	// NicheOverlap is (mu - Invasion) / (mu - Eta).
	NicheOverlap float64

	// Mu is the intrinsic growth rate f(0).
	Mu float64
	// Invasion is the growth rate at the resident equilibrium.
	Invasion float64
	// Eta is the no-niche growth rate, with all residents converted
	// onto the species' own axis.
	Eta float64
	// Monoculture is mu / A_ii.
	Monoculture float64

	// ResidentStable reports whether the resident community the
	// species invades is locally stable; SpectralAbscissa is the
	// largest eigenvalue real part of its community matrix.
	ResidentStable   bool
	SpectralAbscissa float64
}

// Result is the decomposition of a computable subset. The matrices are
// indexed by subset position; entries that do not apply are NaN.
type Result struct {
	Species []SpeciesResult `json:"species"`

	// ConversionFactors[i][j] is c_ij, the factor converting species
	// j's abundance onto species i's axis. c_ij * c_ji = 1 for every
	// resolved pair; non-interacting pairs get 0.
	ConversionFactors Matrix `json:"conversion_factors"`

	// PairNicheOverlap[i][j] is the niche overlap of i against j alone
	// at the solved conversion factor. Magnitudes match across the
	// diagonal up to solver tolerance; for predator-prey pairs the
	// predator side is negative.
	PairNicheOverlap Matrix `json:"pair_niche_overlap"`

	// PairFitness[i][j] is the pairwise no-niche growth of i against j
	// divided by mu_i.
	PairFitness Matrix `json:"pair_fitness"`
}

// Decompose computes niche and fitness differences for every species of
// a computable subset, as produced by FindComputable. Per-species
// failures are reported in the result, not as errors; the only error
// conditions are structural (ErrInvalidSubset).
func Decompose(sub Subset, opts Options) (Result, error) {
	if err := validateSubset(sub); err != nil {
		return Result{}, err
	}
	dim := sub.Model.Dim()
	opts = opts.withDefaults(dim)

	mu := sub.Model.Mu
	invasion := make([]float64, dim)
	for i := range invasion {
		invasion[i] = sub.Model.Growth(sub.Resident[i])[i]
	}

	reasons := make([]UndefinedReason, dim)
	flag := func(i int, r UndefinedReason) {
		if reasons[i] == "" {
			reasons[i] = r
		}
	}

	abscissa := make([]float64, dim)
	stable := make([]bool, dim)
	for i := 0; i < dim; i++ {
		a, ok := residentAbscissa(sub.Model, sub.Resident[i], i, opts.ZeroTol)
		if !ok {
			abscissa[i] = math.NaN()
			flag(i, ReasonSingularLinearization)
			continue
		}
		abscissa[i] = a
		stable[i] = a < 0
	}

	for i := 0; i < dim; i++ {
		if math.Abs(mu[i]) <= opts.ZeroTol {
			flag(i, ReasonZeroIntrinsicGrowth)
		}
	}

	conv := nanMatrix(dim)
	pairNO := nanMatrix(dim)
	pairF := nanMatrix(dim)
	for i := 0; i < dim; i++ {
		conv[i][i] = 1
	}
	for i := 0; i < dim; i++ {
		for j := i + 1; j < dim; j++ {
			if decoupled(sub, mu, invasion, i, j, opts.ZeroTol) {
				conv[i][j], conv[j][i] = 0, 0
				continue
			}
			// Overlap magnitudes must match; predation makes one
			// side's overlap negative, so the signed values cannot.
			g := func(c float64) float64 {
				return math.Abs(pairOverlap(sub.Model, sub.Resident[i], mu[i], invasion[i], i, j, c)) -
					math.Abs(pairOverlap(sub.Model, sub.Resident[j], mu[j], invasion[j], j, i, 1/c))
			}
			root, ok := solveConversion(g)
			if !ok {
				flag(i, ReasonConversionUnresolved)
				flag(j, ReasonConversionUnresolved)
				continue
			}
			conv[i][j], conv[j][i] = root, 1/root
			pairNO[i][j] = pairOverlap(sub.Model, sub.Resident[i], mu[i], invasion[i], i, j, root)
			pairNO[j][i] = pairOverlap(sub.Model, sub.Resident[j], mu[j], invasion[j], j, i, 1/root)
			pairF[i][j] = sub.Model.Growth(convertPair(sub.Resident[i], i, j, root))[i] / mu[i]
			pairF[j][i] = sub.Model.Growth(convertPair(sub.Resident[j], j, i, 1/root))[j] / mu[j]
		}
	}

	species := make([]SpeciesResult, dim)
	for i := range species {
		s := SpeciesResult{
			Index:            sub.Indices[i],
			Name:             sub.Model.Names[i],
			Status:           StatusOK,
			ND:               math.NaN(),
			FD:               math.NaN(),
			FDPrime:          math.NaN(),
			NicheOverlap:     math.NaN(),
			Mu:               mu[i],
			Invasion:         invasion[i],
			Eta:              math.NaN(),
			Monoculture:      sub.Monoculture[i],
			ResidentStable:   stable[i],
			SpectralAbscissa: abscissa[i],
		}
		switch {
		case reasons[i] != "":
			s.Status, s.Reason = StatusUndefined, reasons[i]
		default:
			eta := noNicheGrowth(sub.Model, sub.Resident[i], conv[i], i)
			s.Eta = eta
			den := mu[i] - eta
			if math.Abs(den) <= opts.ZeroTol*scaleOf(mu[i], eta) {
				s.Status, s.Reason = StatusUndefined, ReasonDegenerateDenominator
				break
			}
			s.NicheOverlap = (mu[i] - invasion[i]) / den
			s.ND = 1 - s.NicheOverlap
			s.FD = eta / mu[i]
			s.FDPrime = 1 - 1/(1-s.FD)
		}
		species[i] = s
	}

	return Result{
		Species:           species,
		ConversionFactors: conv,
		PairNicheOverlap:  pairNO,
		PairFitness:       pairF,
	}, nil
}

// decoupled reports whether the pair needs no conversion factor: the
// species do not interact at all, or neither one's growth rate reacts
// to the other community.
func decoupled(sub Subset, mu, invasion []float64, i, j int, ztol float64) bool {
	if sub.Model.A.At(i, j) == 0 && sub.Model.A.At(j, i) == 0 {
		return true
	}
	return math.Abs(mu[i]-invasion[i]) <= ztol && math.Abs(mu[j]-invasion[j]) <= ztol
}

// pairOverlap is NO_ij(c): the niche overlap of invader i when species
// j's resident abundance is converted onto i's axis by factor c while
// the other residents stay put.
func pairOverlap(m glv.LotkaVolterra, resident []float64, mu, inv float64, i, j int, c float64) float64 {
	v := convertPair(resident, i, j, c)
	return (mu - inv) / (mu - m.Growth(v)[i])
}

// convertPair maps the resident state of invader i to the state where
// species j's abundance is moved onto axis i, scaled by c.
func convertPair(resident []float64, i, j int, c float64) []float64 {
	v := make([]float64, len(resident))
	copy(v, resident)
	v[i] = c * resident[j]
	v[j] = 0
	return v
}

// noNicheGrowth is eta_i: the growth rate of i with every resident
// converted onto its own axis using the conversion factor row.
func noNicheGrowth(m glv.LotkaVolterra, resident, crow []float64, i int) float64 {
	v := make([]float64, len(resident))
	total := 0.0
	for j, nj := range resident {
		if j != i {
			total += crow[j] * nj
		}
	}
	v[i] = total
	return m.Growth(v)[i]
}

// residentAbscissa linearizes the dynamics of invader i's resident
// community at its equilibrium and returns the spectral abscissa of the
// community matrix diag(N) * J. It reports false when the matrix is
// singular relative to ztol.
func residentAbscissa(m glv.LotkaVolterra, resident []float64, inv int, ztol float64) (float64, bool) {
	dim := m.Dim()
	rest := make([]int, 0, dim-1)
	for j := 0; j < dim; j++ {
		if j != inv {
			rest = append(rest, j)
		}
	}
	jac := m.Jacobian(resident)
	k := len(rest)
	d := mat.NewDense(k, k, nil)
	for a, ra := range rest {
		for b, rb := range rest {
			d.Set(a, b, resident[ra]*jac.At(ra, rb))
		}
	}

	var eig mat.Eigen
	if !eig.Factorize(d, mat.EigenNone) {
		return 0, false
	}
	minMod, maxMod := math.Inf(1), 0.0
	maxRe := math.Inf(-1)
	for _, v := range eig.Values(nil) {
		mod := cmplx.Abs(v)
		if mod < minMod {
			minMod = mod
		}
		if mod > maxMod {
			maxMod = mod
		}
		if real(v) > maxRe {
			maxRe = real(v)
		}
	}
	if maxMod == 0 || minMod <= ztol*maxMod {
		return 0, false
	}
	return maxRe, true
}

func scaleOf(a, b float64) float64 {
	s := 1.0
	if v := math.Abs(a); v > s {
		s = v
	}
	if v := math.Abs(b); v > s {
		s = v
	}
	return s
}

func nanMatrix(dim int) Matrix {
	m := make(Matrix, dim)
	for i := range m {
		m[i] = make([]float64, dim)
		for j := range m[i] {
			m[i][j] = math.NaN()
		}
	}
	return m
}

func validateSubset(sub Subset) error {
	dim := sub.Model.Dim()
	if dim < 2 {
		return fmt.Errorf("%d species, want at least 2: %w", dim, ErrInvalidSubset)
	}
	if len(sub.Indices) != dim || len(sub.Equilibrium) != dim || len(sub.Resident) != dim || len(sub.Monoculture) != dim {
		return fmt.Errorf("vectors disagree with %d-species model: %w", dim, ErrInvalidSubset)
	}
	for i, r := range sub.Resident {
		if len(r) != dim {
			return fmt.Errorf("resident vector %d has %d entries, want %d: %w", i, len(r), dim, ErrInvalidSubset)
		}
	}
	return nil
}
