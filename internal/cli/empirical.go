package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veldlab/trophicnfd/internal/empirical"
	"github.com/veldlab/trophicnfd/internal/glv"
	"github.com/veldlab/trophicnfd/internal/nfd"
	"github.com/veldlab/trophicnfd/internal/report"
	"github.com/veldlab/trophicnfd/internal/store"
)

// EmpiricalOptions holds flags for the empirical command.
type EmpiricalOptions struct {
	*RootOptions
	Database string
	OutDir   string
	Season   string

	// Tokens allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	Tokens store.TokenGenerator
}

// EmpiricalReport is the empirical command's result payload.
type EmpiricalReport struct {
	RunID     string              `json:"run_id"`
	Season    string              `json:"season"`
	Assembled int                 `json:"assembled"`
	Retained  int                 `json:"retained"`
	Removed   []nfd.Removal       `json:"removed,omitempty"`
	Species   []nfd.SpeciesResult `json:"species"`
}

// NewEmpiricalCommand creates the empirical command.
func NewEmpiricalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EmpiricalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "empirical <manifest.yaml>",
		Short: "Decompose an empirical food web",
		Long: `Run the empirical pipeline on a measured food web.

The manifest names three CSV tables (per-taxon parameters, trophic
links, densities). The pipeline joins them into a Lotka-Volterra
community, filters it down to a computable subset and decomposes that.
Taxa the filter drops are reported with the removal reason and pass.

Example:
  trophicnfd empirical ./data/pond.yaml
  trophicnfd empirical ./data/pond.yaml --season winter --out ./results`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmpirical(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (created if missing)")
	cmd.Flags().StringVar(&opts.OutDir, "out", "", "directory for CSV artifacts (created if missing)")
	cmd.Flags().StringVar(&opts.Season, "season", "", "override the manifest's season (summer|winter|all)")

	return cmd
}

func runEmpirical(opts *EmpiricalOptions, path string, cmd *cobra.Command) error {
	setupLogging(opts.Verbose)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	slog.Info("loading manifest", "path", path)
	m, err := empirical.LoadManifest(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load manifest", err)
	}
	ds, err := empirical.Load(m)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load dataset", err)
	}
	slog.Info("dataset loaded", "taxa", len(ds.Taxa))

	season := opts.Season
	if season == "" {
		season = m.Season
	}
	outcome, err := ds.Decompose(season)
	if err != nil {
		var nce *nfd.NoComputableError
		if errors.As(err, &nce) {
			return outputNoComputable(formatter, season, nce)
		}
		if errors.Is(err, glv.ErrEquilibriumUndefined) || errors.Is(err, glv.ErrEquilibriumNotFound) {
			return WrapExitError(ExitFailure, fmt.Sprintf("%s web is not decomposable", season), err)
		}
		return WrapExitError(ExitCommandError, "pipeline failed", err)
	}
	slog.Info("web decomposed", "season", outcome.Season,
		"assembled", len(ds.Taxa), "retained", len(outcome.Subset.Indices))

	tokens := opts.Tokens
	if tokens == nil {
		tokens = store.UUIDv7Generator{}
	}
	runID := tokens.Generate()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Database != "" {
		if err := persistEmpirical(ctx, opts.Database, runID, path, m, outcome); err != nil {
			return WrapExitError(ExitCommandError, "failed to persist run", err)
		}
		slog.Info("run persisted", "db", opts.Database, "run_id", runID)
	}
	if opts.OutDir != "" {
		if err := exportEmpirical(opts.OutDir, outcome); err != nil {
			return WrapExitError(ExitCommandError, "failed to write artifacts", err)
		}
		slog.Info("artifacts written", "dir", opts.OutDir)
	}

	return outputEmpiricalReport(formatter, runID, len(ds.Taxa), outcome)
}

// persistEmpirical writes the pipeline outcome as a single-replicate run.
func persistEmpirical(ctx context.Context, dbPath, runID, manifestPath string, m empirical.Manifest, outcome *empirical.Outcome) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	config, err := json.Marshal(struct {
		Manifest   string  `json:"manifest"`
		Season     string  `json:"season"`
		Efficiency float64 `json:"efficiency"`
	}{manifestPath, outcome.Season, m.Efficiency})
	if err != nil {
		return fmt.Errorf("encoding provenance: %w", err)
	}

	run := store.Run{
		ID:     runID,
		Kind:   store.KindEmpirical,
		Name:   strings.TrimSuffix(filepath.Base(manifestPath), filepath.Ext(manifestPath)),
		Config: string(config),
	}
	rep, rows := store.EmpiricalRows(runID, outcome.Season, m.Efficiency, outcome.Subset.Removed, outcome.Result.Species)

	if err := st.WriteRun(ctx, run); err != nil {
		return err
	}
	if err := st.WriteReplicate(ctx, rep); err != nil {
		return err
	}
	return st.WriteSpeciesResults(ctx, rows)
}

// exportEmpirical writes the assembled community and its decomposition
// into dir. matrix.csv and growth.csv are the decompose command's input
// format, so an exported web can be re-run directly.
func exportEmpirical(dir string, outcome *empirical.Outcome) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	community := outcome.Community
	if err := writeArtifact(filepath.Join(dir, "matrix.csv"), func(w io.Writer) error {
		return report.WriteMatrix(w, community.Names, community.A)
	}); err != nil {
		return err
	}
	if err := writeArtifact(filepath.Join(dir, "growth.csv"), func(w io.Writer) error {
		return report.WriteVector(w, community.Names, community.Mu)
	}); err != nil {
		return err
	}
	if err := writeArtifact(filepath.Join(dir, "species.csv"), func(w io.Writer) error {
		return report.WriteSpecies(w, outcome.Result.Species)
	}); err != nil {
		return err
	}
	return writeArtifact(filepath.Join(dir, "removals.csv"), func(w io.Writer) error {
		return report.WriteRemovals(w, outcome.Subset.Removed)
	})
}

func outputNoComputable(formatter *OutputFormatter, season string, nce *nfd.NoComputableError) error {
	if formatter.Format == "json" {
		_ = formatter.Error("no_computable", nce.Error(), nce.Removed)
		return NewExitError(ExitFailure, nce.Error())
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✗ No computable community in the %s web\n", season)
	fmt.Fprintf(w, "  %d taxa left after %d pass(es)\n", nce.Survivors, nce.Passes)
	writePruneReport(w, nce.Removed)
	return NewExitError(ExitFailure, nce.Error())
}

func outputEmpiricalReport(formatter *OutputFormatter, runID string, assembled int, outcome *empirical.Outcome) error {
	if formatter.Format == "json" {
		return formatter.Success(EmpiricalReport{
			RunID:     runID,
			Season:    outcome.Season,
			Assembled: assembled,
			Retained:  len(outcome.Subset.Indices),
			Removed:   outcome.Subset.Removed,
			Species:   outcome.Result.Species,
		})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Run %s\n", runID)
	fmt.Fprintf(w, "Season %s: %d of %d taxa retained\n",
		outcome.Season, len(outcome.Subset.Indices), assembled)
	writePruneReport(w, outcome.Subset.Removed)

	fmt.Fprintln(w)
	width := nameWidth("taxon", outcome.Result.Species)
	fmt.Fprintf(w, "  %-*s %12s %12s\n", width, "taxon", "nd", "fd'")
	for _, s := range outcome.Result.Species {
		if s.Status != nfd.StatusOK {
			fmt.Fprintf(w, "  %-*s %25s\n", width, s.Name, "("+string(s.Reason)+")")
			continue
		}
		fmt.Fprintf(w, "  %-*s %12.4g %12.4g\n", width, s.Name, s.ND, s.FDPrime)
	}
	return nil
}

// writePruneReport lists every removed taxon with reason and pass.
func writePruneReport(w io.Writer, removed []nfd.Removal) {
	if len(removed) == 0 {
		return
	}
	fmt.Fprintln(w, "Removed:")
	width := 0
	for _, r := range removed {
		width = max(width, len(r.Name))
	}
	for _, r := range removed {
		fmt.Fprintf(w, "  %-*s %-30s pass %d\n", width, r.Name, string(r.Reason), r.Pass)
	}
}

// nameWidth sizes the name column of a species table.
func nameWidth(label string, species []nfd.SpeciesResult) int {
	width := len(label)
	for _, s := range species {
		width = max(width, len(s.Name))
	}
	return width
}
