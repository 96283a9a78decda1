package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veldlab/trophicnfd/internal/glv"
	"github.com/veldlab/trophicnfd/internal/nfd"
	"github.com/veldlab/trophicnfd/internal/report"
)

// DecomposeOptions holds flags for the decompose command.
type DecomposeOptions struct {
	*RootOptions
	MatrixPath string
	GrowthPath string
	Tol        float64
}

// DecomposeReport is the decompose command's result payload.
type DecomposeReport struct {
	Names    []string      `json:"names"`
	Retained []string      `json:"retained"`
	Removed  []nfd.Removal `json:"removed,omitempty"`
	Result   nfd.Result    `json:"result"`
}

// NewDecomposeCommand creates the decompose command.
func NewDecomposeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecomposeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decompose --matrix A.csv --growth mu.csv",
		Short: "Decompose one community given as CSV tables",
		Long: `Run the engine once on a community given as two CSV tables.

The matrix table is a square interaction matrix with a species header
row and a species name column; the growth table is a two-column
species,value vector. Both must list the same species in the same
order. Empty and NA cells read as unmeasured.

Example:
  trophicnfd decompose --matrix A.csv --growth mu.csv
  trophicnfd decompose --matrix A.csv --growth mu.csv --tol 1e-6 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecompose(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.MatrixPath, "matrix", "", "interaction matrix CSV (required)")
	cmd.Flags().StringVar(&opts.GrowthPath, "growth", "", "growth-rate vector CSV (required)")
	cmd.Flags().Float64Var(&opts.Tol, "tol", 0, "extinction threshold for the filter (0 = default)")
	_ = cmd.MarkFlagRequired("matrix")
	_ = cmd.MarkFlagRequired("growth")

	return cmd
}

func runDecompose(opts *DecomposeOptions, cmd *cobra.Command) error {
	setupLogging(opts.Verbose)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	lv, err := loadCommunity(opts.MatrixPath, opts.GrowthPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load community", err)
	}
	formatter.VerboseLog("Loaded %d species", lv.Dim())

	nfdOpts := nfd.Options{AbundanceTol: opts.Tol}
	sub, err := nfd.FindComputable(lv, nfdOpts)
	if err != nil {
		var nce *nfd.NoComputableError
		if errors.As(err, &nce) {
			return outputNoComputable(formatter, "given", nce)
		}
		return WrapExitError(ExitFailure, "community is not decomposable", err)
	}
	res, err := nfd.Decompose(sub, nfdOpts)
	if err != nil {
		return WrapExitError(ExitFailure, "decomposition failed", err)
	}

	return outputDecomposeReport(formatter, lv, sub, res)
}

// loadCommunity reads the two tables and joins them into a model. The
// growth vector must list exactly the matrix header species, in order.
func loadCommunity(matrixPath, growthPath string) (glv.LotkaVolterra, error) {
	mf, err := os.Open(matrixPath)
	if err != nil {
		return glv.LotkaVolterra{}, err
	}
	defer mf.Close()
	names, a, err := report.ReadMatrix(mf)
	if err != nil {
		return glv.LotkaVolterra{}, fmt.Errorf("%s: %w", matrixPath, err)
	}

	gf, err := os.Open(growthPath)
	if err != nil {
		return glv.LotkaVolterra{}, err
	}
	defer gf.Close()
	gnames, mu, err := report.ReadVector(gf)
	if err != nil {
		return glv.LotkaVolterra{}, fmt.Errorf("%s: %w", growthPath, err)
	}

	if len(gnames) != len(names) {
		return glv.LotkaVolterra{}, fmt.Errorf("matrix has %d species, growth table %d", len(names), len(gnames))
	}
	for i, name := range names {
		if gnames[i] != name {
			return glv.LotkaVolterra{}, fmt.Errorf("species %d is %q in the matrix and %q in the growth table", i, name, gnames[i])
		}
	}

	return glv.NewLotkaVolterra(mu, a, names)
}

func outputDecomposeReport(formatter *OutputFormatter, lv glv.LotkaVolterra, sub nfd.Subset, res nfd.Result) error {
	retained := make([]string, len(sub.Indices))
	for i, idx := range sub.Indices {
		retained[i] = lv.Names[idx]
	}

	if formatter.Format == "json" {
		return formatter.Success(DecomposeReport{
			Names:    lv.Names,
			Retained: retained,
			Removed:  sub.Removed,
			Result:   res,
		})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%d of %d species retained\n", len(retained), lv.Dim())
	writePruneReport(w, sub.Removed)

	fmt.Fprintln(w)
	width := nameWidth("species", res.Species)
	fmt.Fprintf(w, "  %-*s %12s %12s %12s\n", width, "species", "nd", "fd", "fd'")
	for _, s := range res.Species {
		if s.Status != nfd.StatusOK {
			fmt.Fprintf(w, "  %-*s %25s\n", width, s.Name, "("+string(s.Reason)+")")
			continue
		}
		fmt.Fprintf(w, "  %-*s %12.4g %12.4g %12.4g\n", width, s.Name, s.ND, s.FD, s.FDPrime)
	}
	return nil
}
