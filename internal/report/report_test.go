package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/employer-resolve/internal/aggregate"
)

func sampleRecords() []aggregate.AggregateRecord {
	return []aggregate.AggregateRecord{
		{
			Canonical: "ACME CORP", InitialApprovals: 3, ContinuingApprovals: 4, InitialDenials: 1,
			TotalApprovals: 7, TotalDenials: 1, ApprovalRate: 87.5,
			IndustryCodes: []string{"54"}, Variants: []string{"ACME CORP", "Acme Corp."}, Records: 2,
		},
		{
			Canonical: "GLOBEX", InitialApprovals: 3, TotalApprovals: 3, ApprovalRate: 100,
			IndustryCodes: []string{"31-33", "54"}, Variants: []string{"GLOBEX"}, Records: 1,
		},
		{
			Canonical: "INITECH", InitialApprovals: 1, InitialDenials: 3, TotalApprovals: 1, TotalDenials: 3,
			ApprovalRate: 25, Variants: []string{"INITECH"}, Records: 1,
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{" JSON ", FormatJSON, false},
		{"multiline", FormatMultiline, false},
		{"xlsx", FormatXLSX, false},
		{"csv", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleRecords())
	assert.Equal(t, Summary{
		MaxNameLength:   9,
		MaxApprovals:    7,
		MaxDenials:      3,
		MaxApprovalRate: 87.5,
		MinApprovalRate: 25,
	}, s)

	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTable(&buf, sampleRecords(), Options{Top: 10, States: []string{"WA"}, Years: []int{2023, 2024}, Summary: true})
	require.NoError(t, err)
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "Top 10 Employers by Total Approvals\nFiltered by State: WA\nFiltered by Year: 2023, 2024\n"))
	assert.Contains(t, out, "|  1 ACME CORP         7       1   87.5% \"54\"")
	assert.Contains(t, out, "ACME CORP; Acme Corp.")
	assert.Contains(t, out, `"31-33", "54"`)
	assert.Contains(t, out, "Max name length: 9\n")
	assert.Contains(t, out, "Max approval rate: 87.5%\n")
	assert.Contains(t, out, "Min approval rate: 25.0%\n")

	var width int
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "|") && !strings.HasPrefix(line, "---") {
			continue
		}
		n := utf8.RuneCountInString(line)
		if width == 0 {
			width = n
		}
		assert.Equal(t, width, n, "line %q", line)
	}
}

func TestWriteTable_Divider(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, sampleRecords()[:1], Options{Divider: "|"}))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "All Employers by Total Approvals\n"))
	assert.Contains(t, out, "|  1|ACME CORP|        7|      1|  87.5%|\"54\"          |ACME CORP; Acme Corp.|")
	assert.NotContains(t, out, "Max name length")
}

func TestWriteMultiline(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMultiline(&buf, sampleRecords()[1:2], Options{}))
	out := buf.String()
	assert.Contains(t, out, "1. Employer: GLOBEX\n")
	assert.Contains(t, out, "  Total Approvals: 3\n    - Initial: 3\n    - Continuing: 0\n")
	assert.Contains(t, out, "  Approval Rate: 100.0%\n")
	assert.Contains(t, out, "    - 31-33 - Manufacturing\n")
	assert.Contains(t, out, "    - 54 - Professional, Scientific, and Technical Services\n")
	assert.Contains(t, out, "  Variants (1):\n    - GLOBEX\n")
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleRecords()[:1], Options{Format: FormatJSON}))
	assert.Contains(t, buf.String(), `"canonical": "ACME CORP"`)
	assert.Contains(t, buf.String(), `"variants": [`)
	assert.Contains(t, buf.String(), `"approval_rate": 87.5`)
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, nil, Options{Format: "csv"})
	require.Error(t, err)
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, Write(f, sampleRecords(), Options{Format: FormatXLSX}))
	require.NoError(t, f.Close())

	wb, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	sheet, ok := wb.Sheet[SheetName]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 4)

	assert.Equal(t, "Employer", sheet.Rows[0].Cells[1].String())
	assert.Equal(t, "Variants", sheet.Rows[0].Cells[11].String())
	assert.Equal(t, "ACME CORP", sheet.Rows[1].Cells[1].String())
	assert.Equal(t, "ACME CORP; Acme Corp.", sheet.Rows[1].Cells[11].String())
	assert.Equal(t, "31-33, 54", sheet.Rows[2].Cells[9].String())
	assert.Equal(t, "Manufacturing; Professional, Scientific, and Technical Services", sheet.Rows[2].Cells[10].String())
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteTable_WriteError(t *testing.T) {
	err := WriteTable(failWriter{}, sampleRecords(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
