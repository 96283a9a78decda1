package scenario

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/veldlab/trophicnfd/internal/sweep"
	"github.com/veldlab/trophicnfd/internal/synth"
)

// Load error codes.
const (
	ErrCodeGeneric      = "E001" // unknown error
	ErrCodeLoadFailed   = "E004" // CUE load failed
	ErrCodeNotFound     = "E005" // path not found
	ErrCodeBuildFailed  = "E006" // CUE build failed
	ErrCodeNoExperiment = "E010" // no top-level experiment field
	ErrCodeMissingField = "E011" // required experiment field absent
	ErrCodeDecodeFailed = "E012" // experiment does not match the schema
)

// Definition is one synthetic experiment: a named community layout, a
// sweep grid over it, and the seed all replicate streams derive from.
type Definition struct {
	Name         string       `json:"name"`
	Seed         int64        `json:"seed"`
	Community    synth.Config `json:"community"`
	Grid         sweep.Grid   `json:"grid"`
	AbundanceTol float64      `json:"abundance_tol,omitempty"`
}

// LoadError is a scenario loading failure with source position when
// CUE can attribute one.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load reads a Definition from a .cue file or a directory of .cue
// files. It fails fast on the first structural problem; value
// constraints are checked separately by Validate.
func Load(path string) (Definition, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Definition{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("scenario path: %v", err)}
	}

	cfg := &load.Config{Dir: path}
	args := []string{"."}
	if !info.IsDir() {
		cfg.Dir = filepath.Dir(path)
		args = []string{filepath.Base(path)}
	}
	instances := load.Instances(args, cfg)
	if len(instances) == 0 {
		return Definition{}, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return Definition{}, cueLoadError(ErrCodeLoadFailed, inst.Err)
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return Definition{}, cueLoadError(ErrCodeBuildFailed, err)
	}

	experiment := value.LookupPath(cue.ParsePath("experiment"))
	if !experiment.Exists() {
		return Definition{}, &LoadError{Code: ErrCodeNoExperiment, Message: "no experiment field defined", Pos: value.Pos()}
	}

	for _, field := range []string{"name", "community", "grid"} {
		if !experiment.LookupPath(cue.ParsePath(field)).Exists() {
			return Definition{}, &LoadError{
				Code:    ErrCodeMissingField,
				Message: fmt.Sprintf("experiment.%s is required", field),
				Pos:     experiment.Pos(),
			}
		}
	}

	var def Definition
	if err := experiment.Decode(&def); err != nil {
		return Definition{}, cueLoadError(ErrCodeDecodeFailed, err)
	}
	return def, nil
}

// cueLoadError pulls the first position CUE can attribute out of err.
func cueLoadError(code string, err error) *LoadError {
	le := &LoadError{Code: code, Message: err.Error()}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return le
	}
	le.Message = errs[0].Error()
	if positions := cueerrors.Positions(errs[0]); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
