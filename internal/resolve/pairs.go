package resolve

import (
	"cmp"
	"slices"
)

// Pair is two raw names and their similarity.
type Pair struct {
	A     string  `json:"a"`
	B     string  `json:"b"`
	Score float64 `json:"score"`
}

// SimilarPairs compares every pair of distinct names and returns those
// scoring at least threshold, highest score first. Ties keep input order.
func (s *Scorer) SimilarPairs(names []string, threshold float64) []Pair {
	names = distinct(names)
	prep := make([]prepared, len(names))
	for i, name := range names {
		prep[i] = s.prepare(s.norm.Normalize(name))
	}

	var out []Pair
	for i := range names {
		for j := i + 1; j < len(names); j++ {
			if score := s.score(prep[i], prep[j]); score >= threshold && score > 0 {
				out = append(out, Pair{A: names[i], B: names[j], Score: score})
			}
		}
	}
	slices.SortStableFunc(out, func(a, b Pair) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return out
}
