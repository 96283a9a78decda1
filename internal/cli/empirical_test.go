package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldlab/trophicnfd/internal/report"
	"github.com/veldlab/trophicnfd/internal/store"
	"github.com/veldlab/trophicnfd/internal/testutil"
)

func TestEmpiricalManifestNotFound(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewEmpiricalCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"/nonexistent/manifest.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load manifest")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestEmpiricalSummerWeb(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "runs.db")
	outDir := filepath.Join(tmpDir, "results")

	cmd, buf := testCommand()
	opts := &EmpiricalOptions{
		RootOptions: &RootOptions{Format: "text"},
		Database:    dbPath,
		OutDir:      outDir,
		Tokens:      store.NewFixedGenerator("web-0001"),
	}
	require.NoError(t, runEmpirical(opts, filepath.Join("testdata", "web", "manifest.yaml"), cmd))

	output := buf.String()
	assert.Contains(t, output, "Run web-0001")
	assert.Contains(t, output, "Season summer: 3 of 7 taxa retained")
	assert.Contains(t, output, "pike")
	assert.Contains(t, output, "negative_equilibrium")
	assert.Contains(t, output, "moss")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	runs, err := st.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, store.KindEmpirical, runs[0].Kind)
	assert.Equal(t, "manifest", runs[0].Name)

	reps, err := st.ReadReplicates(ctx, "web-0001")
	require.NoError(t, err)
	require.Len(t, reps, 1)
	assert.Equal(t, "summer", reps[0].Levels)
	assert.Equal(t, "ok", reps[0].Outcome)
	assert.Equal(t, 3, reps[0].Retained)
	assert.Equal(t, 4, reps[0].Removed)
	assert.Equal(t, 0.8, reps[0].Efficiency)

	species, err := st.ReadSpeciesResults(ctx, "web-0001")
	require.NoError(t, err)
	assert.Len(t, species, 3)

	// The exported matrix is the full assembled web, re-runnable
	// through the decompose command.
	mf, err := os.Open(filepath.Join(outDir, "matrix.csv"))
	require.NoError(t, err)
	defer mf.Close()
	names, a, err := report.ReadMatrix(mf)
	require.NoError(t, err)
	assert.Len(t, names, 7)
	rows, cols := a.Dims()
	assert.Equal(t, 7, rows)
	assert.Equal(t, 7, cols)

	for _, name := range []string{"growth.csv", "species.csv", "removals.csv"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, "artifact %s", name)
	}

	removals := testutil.LoadCSV(t, filepath.Join(outDir, "removals.csv"))
	require.Len(t, removals, 5, "header plus four pruned taxa")
	reasons := map[string]string{}
	for _, rec := range removals[1:] {
		reasons[rec[1]] = rec[2]
	}
	assert.Equal(t, "negative_equilibrium", reasons["pike"])
	assert.Equal(t, "self_limitation_not_finite", reasons["hydra"])
}

func TestEmpiricalWinterNoComputable(t *testing.T) {
	cmd, buf := testCommand()
	opts := &EmpiricalOptions{
		RootOptions: &RootOptions{Format: "text"},
		Season:      "winter",
	}

	err := runEmpirical(opts, filepath.Join("testdata", "web", "manifest.yaml"), cmd)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	output := buf.String()
	assert.Contains(t, output, "✗ No computable community in the winter web")
	assert.Contains(t, output, "daphnia")
	assert.Contains(t, output, "negative_resident_equilibrium")
}

func TestEmpiricalJSON(t *testing.T) {
	cmd, buf := testCommand()
	opts := &EmpiricalOptions{
		RootOptions: &RootOptions{Format: "json"},
		Tokens:      store.NewFixedGenerator("web-0001"),
	}
	require.NoError(t, runEmpirical(opts, filepath.Join("testdata", "web", "manifest.yaml"), cmd))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "web-0001", data["run_id"])
	assert.Equal(t, "summer", data["season"])
	assert.Equal(t, float64(7), data["assembled"])
	assert.Equal(t, float64(3), data["retained"])

	species, ok := data["species"].([]interface{})
	require.True(t, ok)
	assert.Len(t, species, 3)
}
