package aggregate

import (
	"cmp"
	"slices"

	"github.com/sells-group/employer-resolve/internal/resolve"
)

// VariantCount is a canonical employer with every spelling grouped under it.
type VariantCount struct {
	Canonical     string   `json:"canonical"`
	DistinctNames int      `json:"distinct_names"`
	Names         []string `json:"names"`
}

// Variants ranks groups by how many distinct spellings they hold, most
// first, then by canonical name. top <= 0 returns every group.
func Variants(groups []resolve.Group, top int) []VariantCount {
	out := make([]VariantCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, VariantCount{
			Canonical:     g.Canonical,
			DistinctNames: len(g.Members),
			Names:         slices.Clone(g.Members),
		})
	}
	slices.SortFunc(out, func(a, b VariantCount) int {
		if c := cmp.Compare(b.DistinctNames, a.DistinctNames); c != 0 {
			return c
		}
		return cmp.Compare(a.Canonical, b.Canonical)
	})
	if top > 0 && len(out) > top {
		out = out[:top]
	}
	return out
}

// Top returns the first n records, or all of them when n <= 0.
func Top(records []AggregateRecord, n int) []AggregateRecord {
	if n <= 0 || n >= len(records) {
		return records
	}
	return records[:n]
}
