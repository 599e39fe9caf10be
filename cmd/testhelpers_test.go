//go:build !integration

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/employer-resolve/internal/config"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

const testHeader = "Line by line\tFiscal Year\tEmployer (Petitioner) Name\tTax ID\tIndustry (NAICS) Code\tPetitioner City\tPetitioner State\tPetitioner Zip Code\tInitial Approval\tInitial Denial\tContinuing Approval\tContinuing Denial"

// useTestConfig installs default settings with a temporary SQLite store.
func useTestConfig(t *testing.T) {
	t.Helper()
	c, err := config.Load()
	require.NoError(t, err)
	c.Store.Driver = "sqlite"
	c.Store.DatabaseURL = filepath.Join(t.TempDir(), "runs.db")
	c.Fetch.Dir = t.TempDir()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func writeFile(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

// writeExtract writes a small extract with two spellings of one employer.
func writeExtract(t *testing.T, dir string) string {
	t.Helper()
	return writeFile(t, dir, "fy2023.tsv",
		testHeader,
		"1\t2023\tACME CORP\t\t54 - Professional, Scientific, and Technical Services\tBOSTON\tMA\t\t3\t0\t1\t0",
		"2\t2023\tAcme Corp.\t\t\tSEATTLE\tWA\t\t1\t0\t0\t0",
		"3\t2024\tGLOBEX LLC\t\t\tSPRINGFIELD\tIL\t\t2\t1\t0\t0",
	)
}
