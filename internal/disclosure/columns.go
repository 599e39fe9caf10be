package disclosure

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Field names used in ParseError and header matching.
const (
	FieldFiscalYear         = "Fiscal Year"
	FieldEmployer           = "Employer (Petitioner) Name"
	FieldTaxID              = "Tax ID"
	FieldIndustry           = "Industry (NAICS) Code"
	FieldCity               = "Petitioner City"
	FieldState              = "Petitioner State"
	FieldZip                = "Petitioner Zip Code"
	FieldInitialApproval    = "Initial Approval"
	FieldInitialDenial      = "Initial Denial"
	FieldContinuingApproval = "Continuing Approval"
	FieldContinuingDenial   = "Continuing Denial"
)

const (
	headerMarker   = "line by line"
	employerHeader = "employer"
	missingColumn  = -1
)

// Columns holds the position of every field in a row. A negative position
// means the extract does not carry that field.
type Columns struct {
	FiscalYear         int
	Employer           int
	TaxID              int
	Industry           int
	City               int
	State              int
	Zip                int
	InitialApproval    int
	InitialDenial      int
	ContinuingApproval int
	ContinuingDenial   int
}

// DefaultColumns is the USCIS twelve-column layout: line number, fiscal
// year, employer, tax id, industry code, city, state, zip, then the four
// counters.
var DefaultColumns = Columns{
	FiscalYear:         1,
	Employer:           2,
	TaxID:              3,
	Industry:           4,
	City:               5,
	State:              6,
	Zip:                7,
	InitialApproval:    8,
	InitialDenial:      9,
	ContinuingApproval: 10,
	ContinuingDenial:   11,
}

// normalizeCol strips parentheses and lowercases for cross-format column
// matching: "Industry (NAICS) Code" → "industry naics code".
func normalizeCol(s string) string {
	s = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(s, "\ufeff")))
	s = strings.ReplaceAll(s, "(", "")
	s = strings.ReplaceAll(s, ")", "")
	return strings.Join(strings.Fields(s), " ")
}

// IsHeader reports whether row is a header row rather than data.
func IsHeader(row []string) bool {
	if len(row) == 0 {
		return false
	}
	if normalizeCol(row[0]) == headerMarker {
		return true
	}
	for _, col := range row {
		c := normalizeCol(col)
		if strings.Contains(c, employerHeader) && strings.Contains(c, "name") {
			return true
		}
	}
	return false
}

// ColumnsFromHeader resolves field positions by header name. The employer
// column is required; every other field is optional.
func ColumnsFromHeader(header []string) (Columns, error) {
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[normalizeCol(col)] = i
	}

	find := func(names ...string) int {
		for _, n := range names {
			if i, ok := idx[normalizeCol(n)]; ok {
				return i
			}
		}
		return missingColumn
	}

	cols := Columns{
		FiscalYear:         find(FieldFiscalYear, "fiscal_year", "year"),
		Employer:           find(FieldEmployer, "Employer", "Employer Name", "employer_name"),
		TaxID:              find(FieldTaxID, "tax_id"),
		Industry:           find(FieldIndustry, "NAICS", "Industry Code", "industry_code"),
		City:               find(FieldCity, "City", "city"),
		State:              find(FieldState, "State", "state"),
		Zip:                find(FieldZip, "Zip", "Zip Code", "zip"),
		InitialApproval:    find(FieldInitialApproval, "initial_approval"),
		InitialDenial:      find(FieldInitialDenial, "initial_denial"),
		ContinuingApproval: find(FieldContinuingApproval, "continuing_approval"),
		ContinuingDenial:   find(FieldContinuingDenial, "continuing_denial"),
	}
	if cols.Employer == missingColumn {
		for i, col := range header {
			if strings.Contains(normalizeCol(col), employerHeader) {
				cols.Employer = i
				break
			}
		}
	}
	if cols.Employer == missingColumn {
		return Columns{}, eris.Errorf("disclosure: no employer column in header %q", header)
	}
	return cols, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ParseRow converts one data row. Source and line locate the row in error
// reports. A counter column the layout carries must hold a non-negative
// integer; a blank cell or a row too short to reach it is a *ParseError.
func (c Columns) ParseRow(row []string, source string, line int) (Record, error) {
	rec := c.identity(row, source, line)
	if err := c.parseYear(&rec, row); err != nil {
		return Record{}, err
	}
	if err := c.parseCounters(&rec, row); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// identity fills the text fields of a row. It cannot fail.
func (c Columns) identity(row []string, source string, line int) Record {
	return Record{
		Source:       source,
		Line:         line,
		EmployerName: cell(row, c.Employer),
		TaxID:        cell(row, c.TaxID),
		IndustryCode: ExtractIndustryCode(cell(row, c.Industry)),
		City:         cell(row, c.City),
		State:        strings.ToUpper(cell(row, c.State)),
		Zip:          cell(row, c.Zip),
	}
}

func (c Columns) parseYear(rec *Record, row []string) error {
	v := cell(row, c.FiscalYear)
	if v == "" {
		return nil
	}
	y, err := ParseCount(v)
	if err != nil {
		return parseError(rec, row, FieldFiscalYear, v, err)
	}
	rec.FiscalYear = int(y)
	return nil
}

func (c Columns) parseCounters(rec *Record, row []string) error {
	counters := []struct {
		field string
		col   int
		dst   *int64
	}{
		{FieldInitialApproval, c.InitialApproval, &rec.InitialApprovals},
		{FieldInitialDenial, c.InitialDenial, &rec.InitialDenials},
		{FieldContinuingApproval, c.ContinuingApproval, &rec.ContinuingApprovals},
		{FieldContinuingDenial, c.ContinuingDenial, &rec.ContinuingDenials},
	}
	for _, ctr := range counters {
		if ctr.col == missingColumn {
			continue
		}
		v := cell(row, ctr.col)
		n, err := ParseCount(v)
		if err != nil {
			return parseError(rec, row, ctr.field, v, err)
		}
		*ctr.dst = n
	}
	return nil
}

func parseError(rec *Record, row []string, field, value string, err error) error {
	return &ParseError{
		Source: rec.Source,
		Line:   rec.Line,
		Field:  field,
		Value:  value,
		Raw:    strings.Join(row, "\t"),
		Err:    err,
	}
}
