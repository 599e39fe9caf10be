package resolve

import (
	"iter"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sells-group/employer-resolve/internal/disclosure"
)

// Unclassified keys the unit that collects records whose names normalize
// to nothing.
const Unclassified = "UNCLASSIFIED"

// Unit is one streamed employer: a display key plus everything folded
// into it.
type Unit struct {
	Key string `json:"key"`
	// Alternates are the other keys merged under Key.
	Alternates []string `json:"alternates,omitempty"`
	// Spellings are the distinct raw names folded in.
	Spellings []string `json:"spellings"`

	InitialApprovals    int64    `json:"initial_approvals"`
	InitialDenials      int64    `json:"initial_denials"`
	ContinuingApprovals int64    `json:"continuing_approvals"`
	ContinuingDenials   int64    `json:"continuing_denials"`
	IndustryCodes       []string `json:"industry_codes,omitempty"`
	Records             int      `json:"records"`

	// Unusable marks the unclassified unit.
	Unusable bool `json:"unusable,omitempty"`
}

// Approvals returns initial plus continuing approvals.
func (u Unit) Approvals() int64 { return u.InitialApprovals + u.ContinuingApprovals }

// Denials returns initial plus continuing denials.
func (u Unit) Denials() int64 { return u.InitialDenials + u.ContinuingDenials }

// NewUnit builds a single-record unit keyed by key.
func NewUnit(key string, rec disclosure.Record) Unit {
	u := Unit{
		Key:                 key,
		Spellings:           []string{rec.EmployerName},
		InitialApprovals:    rec.InitialApprovals,
		InitialDenials:      rec.InitialDenials,
		ContinuingApprovals: rec.ContinuingApprovals,
		ContinuingDenials:   rec.ContinuingDenials,
		Records:             1,
	}
	if rec.IndustryCode != "" {
		u.IndustryCodes = []string{rec.IndustryCode}
	}
	return u
}

// MergeUnits returns the union of a and b without modifying either. The
// longer key becomes the result's key (a's on a tie) and the other key is
// kept as an alternate.
func MergeUnits(a, b Unit) Unit {
	key, other := a.Key, b.Key
	if utf8.RuneCountInString(b.Key) > utf8.RuneCountInString(a.Key) {
		key, other = b.Key, a.Key
	}

	alts := slices.Concat(a.Alternates, b.Alternates)
	if other != key {
		alts = append(alts, other)
	}
	alts = slices.DeleteFunc(alts, func(s string) bool { return s == key })

	return Unit{
		Key:                 key,
		Alternates:          sortedUnion(alts),
		Spellings:           sortedUnion(a.Spellings, b.Spellings),
		InitialApprovals:    a.InitialApprovals + b.InitialApprovals,
		InitialDenials:      a.InitialDenials + b.InitialDenials,
		ContinuingApprovals: a.ContinuingApprovals + b.ContinuingApprovals,
		ContinuingDenials:   a.ContinuingDenials + b.ContinuingDenials,
		IndustryCodes:       sortedUnion(a.IndustryCodes, b.IndustryCodes),
		Records:             a.Records + b.Records,
		Unusable:            a.Unusable && b.Unusable,
	}
}

func sortedUnion(lists ...[]string) []string {
	out := slices.Concat(lists...)
	if len(out) == 0 {
		return nil
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// SameEntity is the adjacency test used by the stream merger. Names match
// when equal, or when the shorter is a prefix of the longer and the rune
// right after that prefix is not a word character.
func SameEntity(a, b string) bool {
	if a == b {
		return true
	}
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	if short == "" || !strings.HasPrefix(long, short) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(long[len(short):])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Merger folds adjacent records of a name-sorted stream.
type Merger struct {
	norm *Normalizer
}

// NewMerger creates a merger that keys records by n's normalized name.
func NewMerger(n *Normalizer) *Merger {
	return &Merger{norm: n}
}

// Merge lazily folds consecutive records naming the same entity. Input is
// assumed sorted by raw name; similar names that are not adjacent stay
// apart. Records whose names normalize to "" do not break adjacency and
// are emitted last as one Unclassified unit.
func (m *Merger) Merge(records iter.Seq[disclosure.Record]) iter.Seq[Unit] {
	return func(yield func(Unit) bool) {
		var (
			current, unclassified Unit
			haveCurrent, haveLost bool
		)
		for rec := range records {
			key := m.norm.Normalize(rec.EmployerName)
			if key == "" {
				u := NewUnit(Unclassified, rec)
				u.Unusable = true
				if haveLost {
					u = MergeUnits(unclassified, u)
				}
				unclassified, haveLost = u, true
				continue
			}

			u := NewUnit(key, rec)
			switch {
			case !haveCurrent:
				current, haveCurrent = u, true
			case SameEntity(current.Key, key):
				current = MergeUnits(current, u)
			default:
				if !yield(current) {
					return
				}
				current = u
			}
		}
		if haveCurrent && !yield(current) {
			return
		}
		if haveLost {
			yield(unclassified)
		}
	}
}
