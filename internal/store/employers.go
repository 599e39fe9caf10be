package store

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/employer-resolve/internal/aggregate"
)

var employerColumns = []string{
	"run_id", "rank", "canonical",
	"initial_approvals", "initial_denials", "continuing_approvals", "continuing_denials",
	"total_approvals", "total_denials", "approval_rate",
	"industry_codes", "variants", "records",
}

var (
	employerColumnList = strings.Join(employerColumns, ", ")
	employerSelectList = strings.Join(employerColumns[2:], ", ")
)

// employerRow flattens rec into employerColumns order. List columns are
// JSON text.
func employerRow(runID string, rank int, rec aggregate.AggregateRecord) ([]any, error) {
	codes, err := json.Marshal(nonNil(rec.IndustryCodes))
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal industry codes")
	}
	variants, err := json.Marshal(nonNil(rec.Variants))
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal variants")
	}
	return []any{
		runID, rank, rec.Canonical,
		rec.InitialApprovals, rec.InitialDenials, rec.ContinuingApprovals, rec.ContinuingDenials,
		rec.TotalApprovals, rec.TotalDenials, rec.ApprovalRate,
		string(codes), string(variants), rec.Records,
	}, nil
}

// scanEmployer reads employerSelectList columns. The list columns land in
// codes and variants for the caller to decode.
func scanEmployer(row scannable, codes, variants any) (*aggregate.AggregateRecord, error) {
	var rec aggregate.AggregateRecord
	err := row.Scan(
		&rec.Canonical,
		&rec.InitialApprovals, &rec.InitialDenials, &rec.ContinuingApprovals, &rec.ContinuingDenials,
		&rec.TotalApprovals, &rec.TotalDenials, &rec.ApprovalRate,
		codes, variants, &rec.Records,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func decodeLists(rec *aggregate.AggregateRecord, codes, variants []byte) error {
	if err := json.Unmarshal(codes, &rec.IndustryCodes); err != nil {
		return eris.Wrap(err, "store: unmarshal industry codes")
	}
	if err := json.Unmarshal(variants, &rec.Variants); err != nil {
		return eris.Wrap(err, "store: unmarshal variants")
	}
	return nil
}

func decodeRun(r *Run, params, summary []byte) error {
	if err := json.Unmarshal(params, &r.Params); err != nil {
		return eris.Wrap(err, "store: unmarshal params")
	}
	if summary != nil {
		r.Summary = &RunSummary{}
		if err := json.Unmarshal(summary, r.Summary); err != nil {
			return eris.Wrap(err, "store: unmarshal summary")
		}
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
