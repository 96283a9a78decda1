package testutil

import (
	"encoding/csv"
	"os"
	"testing"
)

// LoadCSV reads a CSV fixture or artifact into raw records, header
// included, failing the test on any parse problem.
func LoadCSV(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return records
}
