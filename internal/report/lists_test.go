package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/employer-resolve/internal/aggregate"
	"github.com/sells-group/employer-resolve/internal/namestats"
	"github.com/sells-group/employer-resolve/internal/resolve"
)

func TestWriteVariants(t *testing.T) {
	var buf bytes.Buffer
	err := WriteVariants(&buf, []aggregate.VariantCount{
		{Canonical: "ACME CORP", DistinctNames: 2, Names: []string{"ACME CORP", "Acme Corp."}},
		{Canonical: "GLOBEX", DistinctNames: 1, Names: []string{"GLOBEX"}},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"1. ACME CORP (2 distinct names)\n    - ACME CORP\n    - Acme Corp.\n"+
			"2. GLOBEX (1 distinct names)\n    - GLOBEX\n",
		buf.String())
}

func TestWritePairs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePairs(&buf, []resolve.Pair{
		{A: "ACME CORP", B: "ACME CORPORATION", Score: 1},
		{A: "ACME", B: "ACME FOODS", Score: 0.875},
	}))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "SCORE"))
	assert.Equal(t, "100.0%  ACME CORP  ACME CORPORATION", lines[2])
	assert.Equal(t, "87.5%   ACME       ACME FOODS", lines[3])
}

func TestWriteNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteNames(&buf, []string{"ACME", "GLOBEX"}))
	assert.Equal(t, "ACME\nGLOBEX\n", buf.String())
}

func TestWriteStats(t *testing.T) {
	names := []string{"ACME ROBOTICS LLC", "Acme Robotics, Inc.", "ACME FOODS", "GLOBEX ROBOTICS"}
	st := namestats.Analyze(names, resolve.DefaultNormalizer(), namestats.Options{MinWordFreq: 2})

	var buf bytes.Buffer
	require.NoError(t, WriteStats(&buf, st, 1))
	out := buf.String()

	assert.Contains(t, out, "Total raw names: 4\n")
	assert.Contains(t, out, "Unique normalized names: 3\n")
	assert.Contains(t, out, "Common words:\n  ACME  2\n\nCommon prefixes:")
	assert.Contains(t, out, "Name variations:\n  ACME ROBOTICS <- ACME ROBOTICS LLC | Acme Robotics, Inc.\n")
}
