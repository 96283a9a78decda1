package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/veldlab/trophicnfd/internal/report"
	"github.com/veldlab/trophicnfd/internal/store"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Database string
	RunID    string
	OutDir   string
}

// RunListing is one run in the export command's run list.
type RunListing struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Seed      int64  `json:"seed"`
}

// ExportReport is the export command's result payload.
type ExportReport struct {
	RunID      string `json:"run_id"`
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	OutDir     string `json:"out_dir"`
	Replicates int    `json:"replicates"`
	Species    int    `json:"species"`
	Incomplete int    `json:"incomplete,omitempty"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export --db runs.db --run <id>",
		Short: "Export stored results to CSV",
		Long: `Export a persisted run's replicates and species results as CSV.

Without --run the command lists the runs in the database instead.

Example:
  trophicnfd export --db runs.db
  trophicnfd export --db runs.db --run 0198c0de-9f3a-7cc1-b7a4-2f1e40c3a111 --out ./results`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to export (empty lists runs)")
	cmd.Flags().StringVar(&opts.OutDir, "out", ".", "directory for CSV artifacts")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	setupLogging(opts.Verbose)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// Export only reads; opening a missing path would create an empty
	// database, so check first.
	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.RunID == "" {
		return outputRunList(ctx, formatter, st)
	}

	results, err := st.ReadRunResults(ctx, opts.RunID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NewExitError(ExitCommandError, fmt.Sprintf("run %s not found", opts.RunID))
		}
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	for _, rep := range results.Incomplete {
		slog.Warn("replicate has no species rows; its writer may have been interrupted",
			"point", rep.Point, "replicate", rep.Replicate)
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return WrapExitError(ExitCommandError, "failed to create output directory", err)
	}
	if err := writeArtifact(filepath.Join(opts.OutDir, "replicates.csv"), func(w io.Writer) error {
		return report.WriteReplicates(w, results.Replicates)
	}); err != nil {
		return WrapExitError(ExitCommandError, "failed to write artifacts", err)
	}
	if err := writeArtifact(filepath.Join(opts.OutDir, "species.csv"), func(w io.Writer) error {
		return report.WriteStoredSpecies(w, results.Species)
	}); err != nil {
		return WrapExitError(ExitCommandError, "failed to write artifacts", err)
	}

	return outputExportReport(formatter, opts.OutDir, results)
}

func outputRunList(ctx context.Context, formatter *OutputFormatter, st *store.Store) error {
	runs, err := st.Runs(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if formatter.Format == "json" {
		listings := make([]RunListing, len(runs))
		for i, run := range runs {
			listings[i] = RunListing{
				ID:        run.ID,
				CreatedAt: run.CreatedAt.UTC().Format(time.RFC3339),
				Kind:      run.Kind,
				Name:      run.Name,
				Seed:      run.Seed,
			}
		}
		return formatter.Success(listings)
	}

	w := formatter.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs stored.")
		return nil
	}
	for _, run := range runs {
		fmt.Fprintf(w, "%s  %s  %-9s  %s\n",
			run.ID, run.CreatedAt.UTC().Format(time.RFC3339), run.Kind, run.Name)
	}
	return nil
}

func outputExportReport(formatter *OutputFormatter, dir string, results store.RunResults) error {
	if formatter.Format == "json" {
		return formatter.Success(ExportReport{
			RunID:      results.Run.ID,
			Kind:       results.Run.Kind,
			Name:       results.Run.Name,
			OutDir:     dir,
			Replicates: len(results.Replicates),
			Species:    len(results.Species),
			Incomplete: len(results.Incomplete),
		})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Exported run %s (%s %q)\n", results.Run.ID, results.Run.Kind, results.Run.Name)
	fmt.Fprintf(w, "  %s: %d rows\n", filepath.Join(dir, "replicates.csv"), len(results.Replicates))
	fmt.Fprintf(w, "  %s: %d rows\n", filepath.Join(dir, "species.csv"), len(results.Species))
	if n := len(results.Incomplete); n > 0 {
		fmt.Fprintf(w, "  %d replicate(s) have no species rows; re-run against this database to heal them\n", n)
	}
	return nil
}
