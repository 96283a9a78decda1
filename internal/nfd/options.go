package nfd

import "github.com/veldlab/trophicnfd/internal/glv"

// Options tune the filter and the decomposition. Zero values select the
// defaults, so Options{} is ready to use.
type Options struct {
	// AbundanceTol is the smallest equilibrium abundance considered
	// extant. Species below it are pruned. Default
	// glv.DefaultAbundanceTol.
	AbundanceTol float64

	// ZeroTol is the relative threshold below which quantities are
	// treated as zero (eigenvalue moduli, denominators, growth-rate
	// sensitivities). Default 1e-12.
	ZeroTol float64

	// MaxPasses bounds the filter iteration. Default dim+1, which a
	// terminating run can never reach since every pass removes at
	// least one species.
	MaxPasses int
}

const defaultZeroTol = 1e-12

func (o Options) withDefaults(dim int) Options {
	if o.AbundanceTol <= 0 {
		o.AbundanceTol = glv.DefaultAbundanceTol
	}
	if o.ZeroTol <= 0 {
		o.ZeroTol = defaultZeroTol
	}
	if o.MaxPasses <= 0 {
		o.MaxPasses = dim + 1
	}
	return o
}
