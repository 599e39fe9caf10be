// Package report renders aggregate results as text tables, multi-line
// listings, JSON, and XLSX workbooks.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"github.com/sells-group/employer-resolve/internal/aggregate"
	"github.com/sells-group/employer-resolve/internal/naics"
)

// Format selects an output renderer.
type Format string

// Supported formats.
const (
	FormatTable     Format = "table"
	FormatMultiline Format = "multiline"
	FormatJSON      Format = "json"
	FormatXLSX      Format = "xlsx"
)

// ParseFormat validates a format name. An empty name is FormatTable.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatMultiline, FormatJSON, FormatXLSX:
		return f, nil
	default:
		return "", eris.Errorf("report: unknown format %q (want table, multiline, json or xlsx)", s)
	}
}

// Options controls text rendering.
type Options struct {
	Format Format
	// Top is the requested list size, used in the title. 0 means all.
	Top    int
	States []string
	Years  []int
	// Divider separates table columns. Default is a single space.
	Divider string
	// Summary appends the extremes footer.
	Summary bool
}

const ruleWidth = 100

// Write renders records in opts.Format.
func Write(w io.Writer, records []aggregate.AggregateRecord, opts Options) error {
	switch opts.Format {
	case FormatTable, "":
		return WriteTable(w, records, opts)
	case FormatMultiline:
		return WriteMultiline(w, records, opts)
	case FormatJSON:
		return WriteJSON(w, records)
	case FormatXLSX:
		return WriteXLSX(w, records)
	default:
		return eris.Errorf("report: unknown format %q", opts.Format)
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "report: encode json")
	}
	return nil
}

func writeTitle(w io.Writer, opts Options) {
	if opts.Top > 0 {
		_, _ = fmt.Fprintf(w, "Top %d Employers by Total Approvals\n", opts.Top)
	} else {
		_, _ = fmt.Fprintln(w, "All Employers by Total Approvals")
	}
	if len(opts.States) > 0 {
		_, _ = fmt.Fprintf(w, "Filtered by State: %s\n", strings.Join(opts.States, ", "))
	}
	if len(opts.Years) > 0 {
		years := make([]string, len(opts.Years))
		for i, y := range opts.Years {
			years[i] = strconv.Itoa(y)
		}
		_, _ = fmt.Fprintf(w, "Filtered by Year: %s\n", strings.Join(years, ", "))
	}
	_, _ = fmt.Fprintln(w)
}

// WriteTable writes a fixed-width table, one employer per row.
func WriteTable(w io.Writer, records []aggregate.AggregateRecord, opts Options) error {
	div := opts.Divider
	if div == "" {
		div = " "
	}
	cw := newErrWriter(w)
	writeTitle(cw, opts)

	posW := max(len("Pos"), len(strconv.Itoa(max(len(records), opts.Top))))
	nameW := utf8.RuneCountInString("Employer")
	codesW := utf8.RuneCountInString("Industry Codes")
	varW := utf8.RuneCountInString("Variants")
	for _, r := range records {
		nameW = max(nameW, utf8.RuneCountInString(r.Canonical))
		codesW = max(codesW, utf8.RuneCountInString(quotedCodes(r.IndustryCodes)))
		varW = max(varW, utf8.RuneCountInString(joinVariants(r.Variants)))
	}
	const apprW, denW, rateW = 9, 7, 6

	line := strings.Repeat("-", posW+nameW+apprW+denW+rateW+1+codesW+varW+8)
	_, _ = fmt.Fprintln(cw, line)
	_, _ = fmt.Fprintf(cw, "|%*s|%-*s|%*s|%*s|%*s|%-*s|%-*s|\n",
		posW, "Pos", nameW, "Employer", apprW, "Approvals", denW, "Denials", rateW+1, "Rate", codesW, "Industry Codes", varW, "Variants")
	_, _ = fmt.Fprintln(cw, line)

	for i, r := range records {
		_, _ = fmt.Fprintf(cw, "|%*d%s%-*s%s%*d%s%*d%s%*.1f%%%s%-*s%s%-*s|\n",
			posW, i+1,
			div, nameW, r.Canonical,
			div, apprW, r.TotalApprovals,
			div, denW, r.TotalDenials,
			div, rateW, r.ApprovalRate,
			div, codesW, quotedCodes(r.IndustryCodes),
			div, varW, joinVariants(r.Variants),
		)
	}
	_, _ = fmt.Fprintln(cw, line)

	if opts.Summary {
		writeSummary(cw, Summarize(records))
		_, _ = fmt.Fprintln(cw, line)
	}
	return cw.err
}

// WriteMultiline writes one block per employer with counter breakdowns and
// industry titles.
func WriteMultiline(w io.Writer, records []aggregate.AggregateRecord, opts Options) error {
	cw := newErrWriter(w)
	writeTitle(cw, opts)
	rule := strings.Repeat("-", ruleWidth)
	_, _ = fmt.Fprintln(cw, rule)

	for i, r := range records {
		_, _ = fmt.Fprintf(cw, "%d. Employer: %s\n", i+1, r.Canonical)
		_, _ = fmt.Fprintf(cw, "  Total Approvals: %d\n", r.TotalApprovals)
		_, _ = fmt.Fprintf(cw, "    - Initial: %d\n", r.InitialApprovals)
		_, _ = fmt.Fprintf(cw, "    - Continuing: %d\n", r.ContinuingApprovals)
		_, _ = fmt.Fprintf(cw, "  Total Denials: %d\n", r.TotalDenials)
		_, _ = fmt.Fprintf(cw, "    - Initial: %d\n", r.InitialDenials)
		_, _ = fmt.Fprintf(cw, "    - Continuing: %d\n", r.ContinuingDenials)
		_, _ = fmt.Fprintf(cw, "  Approval Rate: %.1f%%\n", r.ApprovalRate)
		_, _ = fmt.Fprintln(cw, "  Industry Codes:")
		for _, c := range r.IndustryCodes {
			_, _ = fmt.Fprintf(cw, "    - %s\n", naics.Describe(c))
		}
		_, _ = fmt.Fprintf(cw, "  Variants (%d):\n", len(r.Variants))
		for _, v := range r.Variants {
			_, _ = fmt.Fprintf(cw, "    - %s\n", v)
		}
		_, _ = fmt.Fprintln(cw, rule)
	}

	if opts.Summary {
		writeSummary(cw, Summarize(records))
		_, _ = fmt.Fprintln(cw, rule)
	}
	return cw.err
}

func joinVariants(v []string) string {
	return strings.Join(v, "; ")
}

func quotedCodes(codes []string) string {
	q := make([]string, len(codes))
	for i, c := range codes {
		q[i] = strconv.Quote(c)
	}
	return strings.Join(q, ", ")
}

// errWriter remembers the first write error so renderers can ignore
// per-line errors and report once.
type errWriter struct {
	w   io.Writer
	err error
}

func newErrWriter(w io.Writer) *errWriter {
	return &errWriter{w: w}
}

func (c *errWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	if err != nil {
		c.err = eris.Wrap(err, "report: write")
	}
	return n, err
}
