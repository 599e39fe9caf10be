//go:build !integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/employer-resolve/internal/aggregate"
	"github.com/sells-group/employer-resolve/internal/store"
)

func decodeRecords(t *testing.T, b []byte) []aggregate.AggregateRecord {
	t.Helper()
	var recs []aggregate.AggregateRecord
	require.NoError(t, json.Unmarshal(b, &recs))
	return recs
}

func TestRunTop_Batch(t *testing.T) {
	useTestConfig(t)
	path := writeExtract(t, t.TempDir())

	var buf bytes.Buffer
	err := runTop(context.Background(), &buf, []string{path}, topFlags{format: "json"})
	require.NoError(t, err)

	recs := decodeRecords(t, buf.Bytes())
	require.Len(t, recs, 2)
	assert.Equal(t, "ACME CORP", recs[0].Canonical)
	assert.Equal(t, int64(5), recs[0].TotalApprovals)
	assert.Equal(t, []string{"54"}, recs[0].IndustryCodes)
	assert.ElementsMatch(t, []string{"ACME CORP", "Acme Corp."}, recs[0].Variants)
	assert.Equal(t, "GLOBEX LLC", recs[1].Canonical)
	assert.InDelta(t, 66.7, recs[1].ApprovalRate, 1e-9)
}

func TestRunTop_Stream(t *testing.T) {
	useTestConfig(t)
	path := writeExtract(t, t.TempDir())

	var buf bytes.Buffer
	f := topFlags{format: "json", top: 1}
	f.resolve.strategy = aggregate.StrategyStream
	require.NoError(t, runTop(context.Background(), &buf, []string{path}, f))

	recs := decodeRecords(t, buf.Bytes())
	require.Len(t, recs, 1)
	assert.Equal(t, "ACME", recs[0].Canonical)
	assert.Equal(t, int64(5), recs[0].TotalApprovals)
}

func TestRunTop_StateFilter(t *testing.T) {
	useTestConfig(t)
	path := writeExtract(t, t.TempDir())

	var buf bytes.Buffer
	f := topFlags{format: "table", summary: true}
	f.input.states = []string{"WA"}
	require.NoError(t, runTop(context.Background(), &buf, []string{path}, f))

	out := buf.String()
	assert.Contains(t, out, "All Employers by Total Approvals")
	assert.Contains(t, out, "Filtered by State: WA")
	assert.Contains(t, out, "Acme Corp.")
	assert.NotContains(t, out, "GLOBEX")
	assert.Contains(t, out, "Max approvals: 1")
}

func TestRunTop_Malformed(t *testing.T) {
	useTestConfig(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.tsv",
		testHeader,
		"1\t2023\tACME CORP\t\t\t\tMA\t\t3\t0\t0\t0",
		"2\t2023\tGLOBEX LLC\t\t\t\tMA\t\tn/a\t0\t0\t0",
	)

	var buf bytes.Buffer
	err := runTop(context.Background(), &buf, []string{path}, topFlags{format: "json"})
	require.Error(t, err)
	assert.Empty(t, buf.String())

	f := topFlags{format: "json"}
	f.resolve.skipMalformed = true
	require.NoError(t, runTop(context.Background(), &buf, []string{path}, f))
	recs := decodeRecords(t, buf.Bytes())
	require.Len(t, recs, 1)
	assert.Equal(t, "ACME CORP", recs[0].Canonical)
}

func TestRunTop_Errors(t *testing.T) {
	useTestConfig(t)
	path := writeExtract(t, t.TempDir())
	ctx := context.Background()

	err := runTop(ctx, &bytes.Buffer{}, []string{path}, topFlags{format: "csv"})
	assert.ErrorContains(t, err, "unknown format")

	err = runTop(ctx, &bytes.Buffer{}, []string{path}, topFlags{format: "xlsx"})
	assert.ErrorContains(t, err, "requires --output")

	f := topFlags{format: "json"}
	f.resolve.strategy = "fuzzy"
	err = runTop(ctx, &bytes.Buffer{}, []string{path}, f)
	assert.ErrorContains(t, err, "unknown strategy")

	err = runTop(ctx, &bytes.Buffer{}, []string{t.TempDir()}, topFlags{format: "json"})
	assert.ErrorContains(t, err, "no extract files found")
}

func TestRunTop_XLSXOutput(t *testing.T) {
	useTestConfig(t)
	dir := t.TempDir()
	path := writeExtract(t, dir)
	out := filepath.Join(dir, "top.xlsx")

	require.NoError(t, runTop(context.Background(), &bytes.Buffer{}, []string{path}, topFlags{format: "xlsx", output: out}))

	wb, err := xlsx.OpenFile(out)
	require.NoError(t, err)
	sheet := wb.Sheet["Employers"]
	require.NotNil(t, sheet)
	assert.Equal(t, "ACME CORP", sheet.Rows[1].Cells[1].String())
}

func TestRunTop_Save(t *testing.T) {
	useTestConfig(t)
	path := writeExtract(t, t.TempDir())
	ctx := context.Background()

	require.NoError(t, runTop(ctx, &bytes.Buffer{}, []string{path}, topFlags{format: "json", save: true}))

	st, err := openStore(ctx)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	runs, err := st.ListRuns(ctx, store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, store.RunStatusComplete, runs[0].Status)
	assert.Equal(t, "batch", runs[0].Params.Strategy)
	require.NotNil(t, runs[0].Summary)
	assert.Equal(t, 2, runs[0].Summary.Employers)
	assert.Equal(t, 3, runs[0].Summary.Input)

	emps, err := st.Employers(ctx, runs[0].ID, 0)
	require.NoError(t, err)
	require.Len(t, emps, 2)
	assert.Equal(t, "ACME CORP", emps[0].Canonical)
}

func TestRunTop_SaveFailure(t *testing.T) {
	useTestConfig(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.tsv", testHeader, "1\t2023\tACME CORP\t\t\t\tMA\t\tx\t0\t0\t0")
	ctx := context.Background()

	require.Error(t, runTop(ctx, &bytes.Buffer{}, []string{path}, topFlags{format: "json", save: true}))

	st, err := openStore(ctx)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	runs, err := st.ListRuns(ctx, store.RunFilter{Status: store.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.NotEmpty(t, runs[0].Error)
}
