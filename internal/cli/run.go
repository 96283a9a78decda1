package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/veldlab/trophicnfd/internal/report"
	"github.com/veldlab/trophicnfd/internal/scenario"
	"github.com/veldlab/trophicnfd/internal/store"
	"github.com/veldlab/trophicnfd/internal/sweep"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	OutDir   string
	Workers  int

	// Tokens allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	Tokens store.TokenGenerator
}

// RunReport is the run command's result payload.
type RunReport struct {
	RunID      string         `json:"run_id"`
	Name       string         `json:"name"`
	Seed       int64          `json:"seed"`
	Replicates int            `json:"replicates"`
	Outcomes   map[string]int `json:"outcomes"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Run a synthetic parameter sweep",
		Long: `Run the parameter sweep described by a scenario file.

The scenario is a CUE file (or a directory of CUE files) fixing the
community layout, the sweep grid and the master seed. Every replicate
draws a community, filters it down to a computable subset and
decomposes it on a bounded worker pool. Replicates the engine cannot
decompose are recorded with their outcome, not treated as failures.

Example:
  trophicnfd run ./scenarios/pond.cue --db runs.db
  trophicnfd run ./scenarios --out ./results --workers 4`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (created if missing)")
	cmd.Flags().StringVar(&opts.OutDir, "out", "", "directory for CSV artifacts (created if missing)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "concurrent replicates (0 = all CPUs)")

	return cmd
}

func runSweep(opts *RunOptions, path string, cmd *cobra.Command) error {
	setupLogging(opts.Verbose)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	slog.Info("loading scenario", "path", path)
	def, err := scenario.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	if violations := scenario.Validate(def); len(violations) > 0 {
		return outputValidationErrors(formatter, violations)
	}
	slog.Info("scenario loaded", "name", def.Name, "seed", def.Seed)

	exp := sweep.Experiment{
		Seed:         def.Seed,
		Community:    def.Community,
		Grid:         def.Grid,
		AbundanceTol: def.AbundanceTol,
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Rows arrive in scheduling order; sort before any output so
	// artifacts are stable across worker counts.
	var rows []sweep.Row
	runner := sweep.Runner{Workers: opts.Workers}
	if err := runner.Run(ctx, exp, func(row sweep.Row) error {
		rows = append(rows, row)
		return nil
	}); err != nil {
		return WrapExitError(ExitFailure, "sweep failed", err)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Point.Index != rows[j].Point.Index {
			return rows[i].Point.Index < rows[j].Point.Index
		}
		return rows[i].Point.Replicate < rows[j].Point.Replicate
	})
	slog.Info("sweep finished", "replicates", len(rows))

	tokens := opts.Tokens
	if tokens == nil {
		tokens = store.UUIDv7Generator{}
	}
	runID := tokens.Generate()

	if opts.Database != "" {
		if err := persistSweep(ctx, opts.Database, runID, def, rows); err != nil {
			return WrapExitError(ExitCommandError, "failed to persist run", err)
		}
		slog.Info("run persisted", "db", opts.Database, "run_id", runID)
	}
	if opts.OutDir != "" {
		if err := exportSweep(opts.OutDir, runID, rows); err != nil {
			return WrapExitError(ExitCommandError, "failed to write artifacts", err)
		}
		slog.Info("artifacts written", "dir", opts.OutDir)
	}

	return outputRunReport(formatter, runID, def, rows)
}

// persistSweep writes the run record and every replicate to the store.
// The scenario definition rides along as JSON for provenance.
func persistSweep(ctx context.Context, dbPath, runID string, def scenario.Definition, rows []sweep.Row) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	config, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("encoding scenario: %w", err)
	}
	run := store.Run{
		ID:     runID,
		Kind:   store.KindSweep,
		Name:   def.Name,
		Seed:   def.Seed,
		Config: string(config),
	}
	if err := st.WriteRun(ctx, run); err != nil {
		return err
	}
	for _, row := range rows {
		if err := st.WriteReplicate(ctx, store.ReplicateOf(runID, row)); err != nil {
			return err
		}
		if err := st.WriteSpeciesResults(ctx, store.SpeciesRowsOf(runID, row)); err != nil {
			return err
		}
	}
	return nil
}

// exportSweep writes replicates.csv, species.csv and summary.csv into dir.
func exportSweep(dir, runID string, rows []sweep.Row) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	reps := make([]store.Replicate, 0, len(rows))
	var species []store.SpeciesRow
	for _, row := range rows {
		reps = append(reps, store.ReplicateOf(runID, row))
		species = append(species, store.SpeciesRowsOf(runID, row)...)
	}

	if err := writeArtifact(filepath.Join(dir, "replicates.csv"), func(w io.Writer) error {
		return report.WriteReplicates(w, reps)
	}); err != nil {
		return err
	}
	if err := writeArtifact(filepath.Join(dir, "species.csv"), func(w io.Writer) error {
		return report.WriteStoredSpecies(w, species)
	}); err != nil {
		return err
	}
	return writeArtifact(filepath.Join(dir, "summary.csv"), func(w io.Writer) error {
		return report.WriteSummary(w, report.Summary(rows))
	})
}

func writeArtifact(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func outputRunReport(formatter *OutputFormatter, runID string, def scenario.Definition, rows []sweep.Row) error {
	outcomes := map[string]int{}
	for _, row := range rows {
		outcomes[string(row.Outcome)]++
	}

	if formatter.Format == "json" {
		return formatter.Success(RunReport{
			RunID:      runID,
			Name:       def.Name,
			Seed:       def.Seed,
			Replicates: len(rows),
			Outcomes:   outcomes,
		})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Run %s (%s, seed %d)\n", runID, def.Name, def.Seed)
	fmt.Fprintf(w, "Replicates: %d\n", len(rows))
	for _, outcome := range []sweep.Outcome{sweep.OutcomeOK, sweep.OutcomeSingular, sweep.OutcomeNoComputable, sweep.OutcomeNotConverged} {
		if n := outcomes[string(outcome)]; n > 0 {
			fmt.Fprintf(w, "  %-13s %d\n", string(outcome), n)
		}
	}
	return nil
}
