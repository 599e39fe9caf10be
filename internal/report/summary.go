package report

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/sells-group/employer-resolve/internal/aggregate"
)

// Summary holds the extremes printed under a table.
type Summary struct {
	MaxNameLength int   `json:"max_name_length"`
	MaxApprovals  int64 `json:"max_approvals"`
	MaxDenials    int64 `json:"max_denials"`
	// MaxApprovalRate ignores employers at exactly 100%.
	MaxApprovalRate float64 `json:"max_approval_rate"`
	// MinApprovalRate ignores employers at exactly 0%; it is 0 when every
	// employer is.
	MinApprovalRate float64 `json:"min_approval_rate"`
}

// Summarize computes the footer values over records.
func Summarize(records []aggregate.AggregateRecord) Summary {
	var s Summary
	minRate := 100.0
	sawMin := false
	for _, r := range records {
		s.MaxNameLength = max(s.MaxNameLength, utf8.RuneCountInString(r.Canonical))
		s.MaxApprovals = max(s.MaxApprovals, r.TotalApprovals)
		s.MaxDenials = max(s.MaxDenials, r.TotalDenials)
		if r.ApprovalRate != 100 {
			s.MaxApprovalRate = max(s.MaxApprovalRate, r.ApprovalRate)
		}
		if r.ApprovalRate != 0 {
			minRate = min(minRate, r.ApprovalRate)
			sawMin = true
		}
	}
	if sawMin {
		s.MinApprovalRate = minRate
	}
	return s
}

func writeSummary(w io.Writer, s Summary) {
	_, _ = fmt.Fprintf(w, "Max name length: %d\n", s.MaxNameLength)
	_, _ = fmt.Fprintf(w, "Max approvals: %d\n", s.MaxApprovals)
	_, _ = fmt.Fprintf(w, "Max denials: %d\n", s.MaxDenials)
	_, _ = fmt.Fprintf(w, "Max approval rate: %.1f%%\n", s.MaxApprovalRate)
	_, _ = fmt.Fprintf(w, "Min approval rate: %.1f%%\n", s.MinApprovalRate)
}
