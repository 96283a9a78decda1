package nfd

import (
	"errors"
	"fmt"
)

var (
	// ErrNoComputableCommunity is returned when filtering leaves fewer
	// than two species, so no decomposition is possible.
	ErrNoComputableCommunity = errors.New("nfd: no computable community")

	// ErrInvalidSubset is returned by Decompose when the subset's
	// vectors and model disagree in shape.
	ErrInvalidSubset = errors.New("nfd: invalid subset")
)

// NoComputableError carries the removal trail of a failed filter run.
// It unwraps to ErrNoComputableCommunity.
type NoComputableError struct {
	// Survivors is the number of species left when filtering gave up.
	Survivors int

	// Passes is the number of filter passes applied.
	Passes int

	// Removed records every species dropped, in removal order.
	Removed []Removal
}

func (e *NoComputableError) Error() string {
	return fmt.Sprintf("nfd: no computable community: %d species left after %d removals in %d passes",
		e.Survivors, len(e.Removed), e.Passes)
}

func (e *NoComputableError) Unwrap() error { return ErrNoComputableCommunity }
