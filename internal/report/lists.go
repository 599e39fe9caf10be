package report

import (
	"cmp"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/sells-group/employer-resolve/internal/aggregate"
	"github.com/sells-group/employer-resolve/internal/namestats"
	"github.com/sells-group/employer-resolve/internal/resolve"
)

// WriteVariants lists canonical employers with their spellings.
func WriteVariants(w io.Writer, variants []aggregate.VariantCount) error {
	cw := newErrWriter(w)
	for i, v := range variants {
		_, _ = fmt.Fprintf(cw, "%d. %s (%d distinct names)\n", i+1, v.Canonical, v.DistinctNames)
		for _, n := range v.Names {
			_, _ = fmt.Fprintf(cw, "    - %s\n", n)
		}
	}
	return cw.err
}

// WritePairs writes similar name pairs, highest score first.
func WritePairs(w io.Writer, pairs []resolve.Pair) error {
	cw := newErrWriter(w)
	tw := tabwriter.NewWriter(cw, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SCORE\tNAME A\tNAME B")
	_, _ = fmt.Fprintln(tw, "-----\t------\t------")
	for _, p := range pairs {
		_, _ = fmt.Fprintf(tw, "%.1f%%\t%s\t%s\n", 100*p.Score, p.A, p.B)
	}
	_ = tw.Flush()
	return cw.err
}

// WriteNames writes one name per line.
func WriteNames(w io.Writer, names []string) error {
	cw := newErrWriter(w)
	for _, n := range names {
		_, _ = fmt.Fprintln(cw, n)
	}
	return cw.err
}

// WriteStats writes a name-pattern analysis. Frequency lists are cut to
// limit entries when limit > 0.
func WriteStats(w io.Writer, st *namestats.Stats, limit int) error {
	cw := newErrWriter(w)
	_, _ = fmt.Fprintf(cw, "Total raw names: %d\n", st.TotalRawNames)
	_, _ = fmt.Fprintf(cw, "Unique normalized names: %d\n", st.UniqueNormalized)
	_, _ = fmt.Fprintf(cw, "Unique words: %d\n", st.UniqueWords)

	sections := []struct {
		title  string
		counts []namestats.Count
	}{
		{"Common words", st.Words},
		{"Common prefixes", st.Prefixes},
		{"Common suffixes", st.Suffixes},
		{"Acronyms", st.Acronyms},
		{"Common phrases", st.Phrases},
	}
	for _, s := range sections {
		_, _ = fmt.Fprintf(cw, "\n%s:\n", s.title)
		tw := tabwriter.NewWriter(cw, 0, 0, 2, ' ', 0)
		for _, c := range limited(s.counts, limit) {
			_, _ = fmt.Fprintf(tw, "  %s\t%d\n", c.Term, c.Count)
		}
		_ = tw.Flush()
	}

	_, _ = fmt.Fprintln(cw, "\nWord positions:")
	for _, p := range limited(st.Positions, limit) {
		_, _ = fmt.Fprintf(cw, "  %s: frequency %d, average position %.2f\n", p.Word, p.Frequency, p.AveragePosition)
	}

	_, _ = fmt.Fprintln(cw, "\nName variations:")
	shown := 0
	for _, norm := range sortedVariationKeys(st.Variations) {
		raws := st.Variations[norm]
		if len(raws) < 2 {
			continue
		}
		if limit > 0 && shown == limit {
			break
		}
		shown++
		_, _ = fmt.Fprintf(cw, "  %s <- %s\n", norm, strings.Join(raws, " | "))
	}
	return cw.err
}

func limited[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}

// sortedVariationKeys orders normalized names by spelling count, most first.
func sortedVariationKeys(m map[string][]string) []string {
	keys := slices.Collect(maps.Keys(m))
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(len(m[b]), len(m[a])); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return keys
}
