// Package aggregate folds disclosure records into per-employer totals using
// a canonical-name assignment from the resolve package.
package aggregate

import (
	"cmp"
	"math"
	"slices"

	"github.com/sells-group/employer-resolve/internal/disclosure"
	"github.com/sells-group/employer-resolve/internal/resolve"
)

// Unclassified names the bucket for records whose employer name could not
// be matched.
const Unclassified = resolve.Unclassified

// AggregateRecord is the summary for one canonical employer.
type AggregateRecord struct {
	Canonical string `json:"canonical"`

	InitialApprovals    int64 `json:"initial_approvals"`
	InitialDenials      int64 `json:"initial_denials"`
	ContinuingApprovals int64 `json:"continuing_approvals"`
	ContinuingDenials   int64 `json:"continuing_denials"`
	TotalApprovals      int64 `json:"total_approvals"`
	TotalDenials        int64 `json:"total_denials"`
	// ApprovalRate is a percentage rounded to one decimal place.
	ApprovalRate float64 `json:"approval_rate"`

	IndustryCodes []string `json:"industry_codes"`
	// Variants are the distinct raw spellings folded into this record.
	Variants []string `json:"variants"`
	Records  int      `json:"records"`
}

// ApprovalRate returns approvals/(approvals+denials) as a percentage with
// one decimal place, or 0 when there were no decisions.
func ApprovalRate(approvals, denials int64) float64 {
	total := approvals + denials
	if total == 0 {
		return 0
	}
	return math.Round(1000*float64(approvals)/float64(total)) / 10
}

// AssignFunc maps a record to its canonical name. Returning false sends the
// record to the Unclassified bucket.
type AssignFunc func(rec disclosure.Record) (string, bool)

// ByName assigns records by raw employer name through m.
func ByName(m map[string]string) AssignFunc {
	return func(rec disclosure.Record) (string, bool) {
		c, ok := m[rec.EmployerName]
		return c, ok
	}
}

type accumulator struct {
	rec      AggregateRecord
	codes    map[string]bool
	variants map[string]bool
}

// Folder accumulates records by canonical name. Unclassified records are
// kept in their own accumulator, so an employer whose name happens to be
// "UNCLASSIFIED" is never merged into the bucket. The zero value is not
// usable; call NewFolder.
type Folder struct {
	accs         map[string]*accumulator
	unclassified *accumulator
}

// NewFolder creates an empty Folder.
func NewFolder() *Folder {
	return &Folder{accs: make(map[string]*accumulator)}
}

func newAccumulator(canonical string) *accumulator {
	return &accumulator{
		rec:      AggregateRecord{Canonical: canonical},
		codes:    make(map[string]bool),
		variants: make(map[string]bool),
	}
}

func (f *Folder) get(canonical string) *accumulator {
	a, ok := f.accs[canonical]
	if !ok {
		a = newAccumulator(canonical)
		f.accs[canonical] = a
	}
	return a
}

func (f *Folder) lost() *accumulator {
	if f.unclassified == nil {
		f.unclassified = newAccumulator(Unclassified)
	}
	return f.unclassified
}

// Add folds one record into canonical's totals.
func (f *Folder) Add(canonical string, rec disclosure.Record) {
	f.get(canonical).add(rec)
}

// AddUnclassified folds a record whose name could not be matched.
func (f *Folder) AddUnclassified(rec disclosure.Record) {
	f.lost().add(rec)
}

func (a *accumulator) add(rec disclosure.Record) {
	a.rec.InitialApprovals += rec.InitialApprovals
	a.rec.InitialDenials += rec.InitialDenials
	a.rec.ContinuingApprovals += rec.ContinuingApprovals
	a.rec.ContinuingDenials += rec.ContinuingDenials
	a.rec.Records++
	if rec.IndustryCode != "" {
		a.codes[rec.IndustryCode] = true
	}
	if rec.EmployerName != "" {
		a.variants[rec.EmployerName] = true
	}
}

// AddUnit folds a streamed unit into its key's totals.
func (f *Folder) AddUnit(u resolve.Unit) {
	var a *accumulator
	if u.Unusable {
		a = f.lost()
	} else {
		a = f.get(u.Key)
	}
	a.rec.InitialApprovals += u.InitialApprovals
	a.rec.InitialDenials += u.InitialDenials
	a.rec.ContinuingApprovals += u.ContinuingApprovals
	a.rec.ContinuingDenials += u.ContinuingDenials
	a.rec.Records += u.Records
	for _, c := range u.IndustryCodes {
		a.codes[c] = true
	}
	for _, s := range u.Spellings {
		if s != "" {
			a.variants[s] = true
		}
	}
}

// UnclassifiedRecords returns how many records reached the Unclassified
// bucket.
func (f *Folder) UnclassifiedRecords() int {
	if f.unclassified == nil {
		return 0
	}
	return f.unclassified.rec.Records
}

// Records finalizes totals and rates and returns every canonical name with
// at least one approval, sorted by total approvals descending then name.
// The Unclassified bucket sorts after an employer of the same name and
// total.
func (f *Folder) Records() []AggregateRecord {
	accs := make([]*accumulator, 0, len(f.accs)+1)
	for _, a := range f.accs {
		accs = append(accs, a)
	}
	if f.unclassified != nil {
		accs = append(accs, f.unclassified)
	}

	out := make([]AggregateRecord, 0, len(accs))
	for _, a := range accs {
		r := a.rec
		r.TotalApprovals = r.InitialApprovals + r.ContinuingApprovals
		r.TotalDenials = r.InitialDenials + r.ContinuingDenials
		if r.TotalApprovals == 0 {
			continue
		}
		r.ApprovalRate = ApprovalRate(r.TotalApprovals, r.TotalDenials)
		r.IndustryCodes = sortedKeys(a.codes)
		r.Variants = sortedKeys(a.variants)
		out = append(out, r)
	}
	slices.SortStableFunc(out, func(a, b AggregateRecord) int {
		if c := cmp.Compare(b.TotalApprovals, a.TotalApprovals); c != 0 {
			return c
		}
		return cmp.Compare(a.Canonical, b.Canonical)
	})
	return out
}

// Fold aggregates records under the canonical names chosen by assign.
// Records assign rejects, or maps to "", land in the Unclassified bucket.
func Fold(records []disclosure.Record, assign AssignFunc) []AggregateRecord {
	f := NewFolder()
	for _, rec := range records {
		canonical, ok := assign(rec)
		if !ok || canonical == "" {
			f.AddUnclassified(rec)
			continue
		}
		f.Add(canonical, rec)
	}
	return f.Records()
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
