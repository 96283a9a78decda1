package scenario

import (
	"fmt"
	"strings"
)

// Validation error codes (E100-E199).
const (
	ErrNameEmpty       = "E101" // experiment name is required
	ErrReplicatesRange = "E102" // grid.replicates must be at least 1
	ErrCommunityConfig = "E103" // community config is inconsistent
	ErrGridLayout      = "E104" // swept layout does not match the level structure
	ErrNegativeValue   = "E105" // negative noise or tolerance
)

// ValidationError is one constraint violation in a Definition.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks every value constraint of a loaded Definition and
// returns all violations, not just the first.
func Validate(def Definition) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(def.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "experiment name is required",
			Code:    ErrNameEmpty,
		})
	}

	if def.Grid.Replicates < 1 {
		errs = append(errs, ValidationError{
			Field:   "grid.replicates",
			Message: fmt.Sprintf("got %d, need at least 1", def.Grid.Replicates),
			Code:    ErrReplicatesRange,
		})
	}

	if err := def.Community.Validate(); err != nil {
		errs = append(errs, ValidationError{
			Field:   "community",
			Message: err.Error(),
			Code:    ErrCommunityConfig,
		})
	}

	levels := len(def.Community.Counts)
	for i, counts := range def.Grid.Counts {
		if len(counts) != levels {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("grid.counts[%d]", i),
				Message: fmt.Sprintf("layout has %d levels, community has %d", len(counts), levels),
				Code:    ErrGridLayout,
			})
			continue
		}
		for _, n := range counts {
			if n < 1 {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("grid.counts[%d]", i),
					Message: "every level needs at least one species",
					Code:    ErrGridLayout,
				})
				break
			}
		}
	}

	for i, noise := range def.Grid.Noise {
		if noise < 0 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("grid.noise[%d]", i),
				Message: fmt.Sprintf("noise %v is negative", noise),
				Code:    ErrNegativeValue,
			})
		}
	}

	if def.AbundanceTol < 0 {
		errs = append(errs, ValidationError{
			Field:   "abundance_tol",
			Message: fmt.Sprintf("tolerance %v is negative", def.AbundanceTol),
			Code:    ErrNegativeValue,
		})
	}

	return errs
}
