package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veldlab/trophicnfd/internal/empirical"
	"github.com/veldlab/trophicnfd/internal/scenario"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Errors []scenario.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario.cue|manifest.yaml>",
		Short: "Validate a scenario or dataset manifest without running it",
		Long: `Validate configuration without running anything.

CUE scenarios (a file or a directory of files) get the same schema and
value checks the run command applies. YAML dataset manifests are
checked for shape and for whether the three tables they point at parse
and join.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return validateManifest(formatter, path)
	default:
		// .cue files and scenario directories.
		return validateScenario(formatter, path)
	}
}

func validateScenario(formatter *OutputFormatter, path string) error {
	def, err := scenario.Load(path)
	if err != nil {
		var loadErr *scenario.LoadError
		if !errors.As(err, &loadErr) {
			return outputValidateError(formatter, scenario.ErrCodeGeneric, err.Error(), nil)
		}
		if loadErr.Code == scenario.ErrCodeNotFound {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message, nil)
		}
		// Content problems are validation failures, carrying the
		// source position when CUE attributes one.
		msg := loadErr.Message
		if loadErr.Pos.IsValid() {
			msg = fmt.Sprintf("%s:%d:%d: %s", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column(), loadErr.Message)
		}
		return outputValidationErrors(formatter, []scenario.ValidationError{{
			Field:   "experiment",
			Message: msg,
			Code:    loadErr.Code,
		}})
	}
	formatter.VerboseLog("Loaded scenario %q", def.Name)

	if violations := scenario.Validate(def); len(violations) > 0 {
		return outputValidationErrors(formatter, violations)
	}
	return outputValidateSuccess(formatter)
}

func validateManifest(formatter *OutputFormatter, path string) error {
	m, err := empirical.LoadManifest(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return outputValidateError(formatter, scenario.ErrCodeNotFound, err.Error(), nil)
		}
		return outputValidationErrors(formatter, []scenario.ValidationError{{
			Field:   "manifest",
			Message: err.Error(),
			Code:    scenario.ErrCodeGeneric,
		}})
	}
	formatter.VerboseLog("Loaded manifest, season %q", m.Season)

	// The manifest itself is sound; confirm the tables it points at
	// parse and join before calling the configuration valid.
	if _, err := empirical.Load(m); err != nil {
		return outputValidationErrors(formatter, []scenario.ValidationError{{
			Field:   "tables",
			Message: err.Error(),
			Code:    scenario.ErrCodeGeneric,
		}})
	}
	return outputValidateSuccess(formatter)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}

	fmt.Fprintln(formatter.Writer, "✓ Configuration valid")
	return nil
}

// outputValidateError outputs a single path-level error.
func outputValidateError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// Path and read problems are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs one or more constraint violations.
func outputValidationErrors(formatter *OutputFormatter, errs []scenario.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", err.Code, err.Field, err.Message)
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
