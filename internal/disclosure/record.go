// Package disclosure parses H-1B employer disclosure extracts into records.
package disclosure

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Record is one parsed employer line from a disclosure extract.
type Record struct {
	Source string `json:"source,omitempty"`
	Line   int    `json:"line,omitempty"`

	FiscalYear   int    `json:"fiscal_year,omitempty"`
	EmployerName string `json:"employer_name"`
	TaxID        string `json:"tax_id,omitempty"`
	// IndustryCode is the leading NAICS code ("54" or "31-33"); empty when
	// the source value does not follow the "NN - description" form.
	IndustryCode string `json:"industry_code,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	Zip          string `json:"zip,omitempty"`

	InitialApprovals    int64 `json:"initial_approvals"`
	InitialDenials      int64 `json:"initial_denials"`
	ContinuingApprovals int64 `json:"continuing_approvals"`
	ContinuingDenials   int64 `json:"continuing_denials"`
}

// Approvals returns initial plus continuing approvals.
func (r Record) Approvals() int64 { return r.InitialApprovals + r.ContinuingApprovals }

// Denials returns initial plus continuing denials.
func (r Record) Denials() int64 { return r.InitialDenials + r.ContinuingDenials }

// ParseError reports a record whose numeric field could not be parsed.
type ParseError struct {
	Source string
	Line   int
	Field  string
	Value  string
	Raw    string
	Err    error
}

func (e *ParseError) Error() string {
	loc := e.Source
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Source, e.Line)
	}
	return fmt.Sprintf("disclosure: %s: field %q: cannot parse %q: %v (record: %q)", loc, e.Field, e.Value, e.Err, e.Raw)
}

func (e *ParseError) Unwrap() error { return e.Err }

var industryCodeRe = regexp.MustCompile(`^(\d\d(?:-\d\d)?) - `)

// ExtractIndustryCode returns the leading numeric code of a value such as
// "54 - Professional, Scientific, and Technical Services", or "" when the
// value has a different shape.
func ExtractIndustryCode(s string) string {
	m := industryCodeRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return ""
	}
	return m[1]
}

// Counter errors wrapped by ParseError.
var (
	ErrEmptyCount    = eris.New("empty count")
	ErrNegativeCount = eris.New("negative count")
)

// ParseCount parses a non-negative counter that may carry thousands
// separators. Blank values are an error.
func ParseCount(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, ErrEmptyCount
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, ErrNegativeCount
	}
	return n, nil
}
