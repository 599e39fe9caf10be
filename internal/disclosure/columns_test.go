package disclosure

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsHeader(t *testing.T) {
	tests := []struct {
		name string
		row  []string
		want bool
	}{
		{"line by line marker", []string{"Line by line", "Fiscal Year"}, true},
		{"marker with bom", []string{"\ufeffLine By Line"}, true},
		{"employer name column", []string{"Fiscal Year", "Employer (Petitioner) Name"}, true},
		{"snake case", []string{"employer_name", "state"}, true},
		{"data row", []string{"1", "2023", "ACME CORP"}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsHeader(tt.row))
		})
	}
}

func TestColumnsFromHeader(t *testing.T) {
	header := []string{
		"Line by line", "Fiscal Year", "Employer (Petitioner) Name", "Tax ID",
		"Industry (NAICS) Code", "Petitioner City", "Petitioner State",
		"Petitioner Zip Code", "Initial Approval", "Initial Denial",
		"Continuing Approval", "Continuing Denial",
	}
	cols, err := ColumnsFromHeader(header)
	require.NoError(t, err)
	assert.Equal(t, DefaultColumns, cols)
}

func TestColumnsFromHeader_Reordered(t *testing.T) {
	cols, err := ColumnsFromHeader([]string{"Initial Approval", "Employer", "State"})
	require.NoError(t, err)
	assert.Equal(t, 1, cols.Employer)
	assert.Equal(t, 0, cols.InitialApproval)
	assert.Equal(t, 2, cols.State)
	assert.Equal(t, missingColumn, cols.FiscalYear)
	assert.Equal(t, missingColumn, cols.ContinuingDenial)
}

func TestColumnsFromHeader_EmployerFallback(t *testing.T) {
	cols, err := ColumnsFromHeader([]string{"Year", "Employer Legal Title"})
	require.NoError(t, err)
	assert.Equal(t, 1, cols.Employer)
	assert.Equal(t, 0, cols.FiscalYear)
}

func TestColumnsFromHeader_NoEmployer(t *testing.T) {
	_, err := ColumnsFromHeader([]string{"Fiscal Year", "State"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no employer column")
}

func TestParseRow(t *testing.T) {
	row := []string{
		"1", "2023", " ACME CORP ", "1234", "54 - Professional, Scientific, and Technical Services",
		"BOSTON", "ma", "02110", "3", "1", "1,204", "0",
	}
	rec, err := DefaultColumns.ParseRow(row, "fy2023.tsv", 2)
	require.NoError(t, err)

	assert.Equal(t, Record{
		Source:              "fy2023.tsv",
		Line:                2,
		FiscalYear:          2023,
		EmployerName:        "ACME CORP",
		TaxID:               "1234",
		IndustryCode:        "54",
		City:                "BOSTON",
		State:               "MA",
		Zip:                 "02110",
		InitialApprovals:    3,
		InitialDenials:      1,
		ContinuingApprovals: 1204,
		ContinuingDenials:   0,
	}, rec)
}

func TestParseRow_ShortRow(t *testing.T) {
	_, err := DefaultColumns.ParseRow([]string{"1", "2023", "ACME"}, "x", 1)
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, FieldInitialApproval, pe.Field)
	assert.Empty(t, pe.Value)
	assert.ErrorIs(t, err, ErrEmptyCount)
}

func TestParseRow_BlankCounter(t *testing.T) {
	row := []string{"2", "2023", "ACME INC", "", "54 - Prof", "X", "WA", "1", "", ""}
	_, err := DefaultColumns.ParseRow(row, "fy2023.tsv", 2)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, FieldInitialApproval, pe.Field)
	assert.ErrorIs(t, err, ErrEmptyCount)
}

func TestParseRow_NegativeCounter(t *testing.T) {
	row := []string{"1", "2023", "ACME", "", "", "", "", "", "3", "0", "-5", "0"}
	_, err := DefaultColumns.ParseRow(row, "fy2023.tsv", 4)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, FieldContinuingApproval, pe.Field)
	assert.Equal(t, "-5", pe.Value)
	assert.ErrorIs(t, err, ErrNegativeCount)
}

func TestParseRow_LayoutWithoutCounterColumns(t *testing.T) {
	cols, err := ColumnsFromHeader([]string{"Employer", "Initial Approval"})
	require.NoError(t, err)

	rec, err := cols.ParseRow([]string{"ACME", "4"}, "x", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), rec.Approvals())
	assert.Zero(t, rec.Denials())

	_, err = cols.ParseRow([]string{"ACME"}, "x", 3)
	assert.ErrorIs(t, err, ErrEmptyCount)
}

func TestParseRow_BadCounter(t *testing.T) {
	row := []string{"1", "2023", "ACME", "", "", "", "", "", "3", "lots", "0", "0"}
	_, err := DefaultColumns.ParseRow(row, "fy2023.tsv", 7)
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "fy2023.tsv", pe.Source)
	assert.Equal(t, 7, pe.Line)
	assert.Equal(t, FieldInitialDenial, pe.Field)
	assert.Equal(t, "lots", pe.Value)
	assert.Contains(t, pe.Raw, "ACME")
}

func TestParseRow_BadYear(t *testing.T) {
	row := []string{"1", "FY23", "ACME"}
	_, err := DefaultColumns.ParseRow(row, "x", 1)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, FieldFiscalYear, pe.Field)
}
