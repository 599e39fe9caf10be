// Package namestats computes descriptive statistics over employer names:
// word, prefix, suffix, acronym and phrase frequencies after normalization.
package namestats

import (
	"cmp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sells-group/employer-resolve/internal/resolve"
)

// Options sets the frequency cutoffs.
type Options struct {
	// MinWordFreq drops words, prefixes, suffixes and phrases seen fewer
	// times than this. Default 5.
	MinWordFreq int
	// MinAcronymLength is the shortest all-caps token counted as an
	// acronym. Default 2.
	MinAcronymLength int
}

// Count is one term and how many unique normalized names contain it.
type Count struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// WordPosition summarizes where a frequent word appears within names.
type WordPosition struct {
	Word            string      `json:"word"`
	Frequency       int         `json:"frequency"`
	AveragePosition float64     `json:"average_position"`
	Positions       map[int]int `json:"positions"`
}

// Stats is the result of Analyze.
type Stats struct {
	TotalRawNames    int `json:"total_raw_names"`
	UniqueNormalized int `json:"unique_normalized_names"`
	UniqueWords      int `json:"unique_words"`

	Words    []Count `json:"common_words"`
	Prefixes []Count `json:"common_prefixes"`
	Suffixes []Count `json:"common_suffixes"`
	Acronyms []Count `json:"acronyms"`
	Phrases  []Count `json:"common_phrases"`

	WordLengths map[int]int    `json:"word_lengths"`
	NameLengths map[int]int    `json:"name_lengths"`
	Positions   []WordPosition `json:"word_positions"`

	// Variations maps each normalized name to the raw spellings that
	// produced it, in input order.
	Variations map[string][]string `json:"name_variations"`
}

// Analyze normalizes names, folds duplicates, and counts patterns over the
// unique normalized names.
func Analyze(names []string, n *resolve.Normalizer, opts Options) *Stats {
	if opts.MinWordFreq <= 0 {
		opts.MinWordFreq = 5
	}
	if opts.MinAcronymLength <= 0 {
		opts.MinAcronymLength = 2
	}

	st := &Stats{
		WordLengths: make(map[int]int),
		NameLengths: make(map[int]int),
		Variations:  make(map[string][]string),
	}

	var unique []string
	for _, raw := range names {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		st.TotalRawNames++
		norm := n.Normalize(raw)
		if norm == "" {
			continue
		}
		if _, seen := st.Variations[norm]; !seen {
			unique = append(unique, norm)
		}
		st.Variations[norm] = append(st.Variations[norm], raw)
	}
	st.UniqueNormalized = len(unique)

	words := make(map[string]int)
	prefixes := make(map[string]int)
	suffixes := make(map[string]int)
	acronyms := make(map[string]int)
	phrases := make(map[string]int)
	positions := make(map[string]map[int]int)

	for _, name := range unique {
		st.NameLengths[utf8.RuneCountInString(name)]++
		toks := strings.Fields(name)
		for i, w := range toks {
			words[w]++
			st.WordLengths[utf8.RuneCountInString(w)]++
			if positions[w] == nil {
				positions[w] = make(map[int]int)
			}
			positions[w][i]++
			if isAcronym(w) && utf8.RuneCountInString(w) >= opts.MinAcronymLength {
				acronyms[w]++
			}
		}
		if len(toks) > 0 {
			prefixes[toks[0]]++
			suffixes[toks[len(toks)-1]]++
		}
		for i := 0; i+1 < len(toks); i++ {
			phrases[toks[i]+" "+toks[i+1]]++
			if i+2 < len(toks) {
				phrases[strings.Join(toks[i:i+3], " ")]++
			}
		}
	}
	st.UniqueWords = len(words)

	st.Words = ranked(words, opts.MinWordFreq)
	st.Prefixes = ranked(prefixes, opts.MinWordFreq)
	st.Suffixes = ranked(suffixes, opts.MinWordFreq)
	st.Phrases = ranked(phrases, opts.MinWordFreq)
	st.Acronyms = ranked(acronyms, 1)

	for _, c := range st.Words {
		pos := positions[c.Term]
		total, weighted := 0, 0
		for p, cnt := range pos {
			total += cnt
			weighted += p * cnt
		}
		st.Positions = append(st.Positions, WordPosition{
			Word:            c.Term,
			Frequency:       c.Count,
			AveragePosition: float64(weighted) / float64(total),
			Positions:       pos,
		})
	}

	zap.L().Debug("namestats: analyzed names",
		zap.Int("raw", st.TotalRawNames),
		zap.Int("unique", st.UniqueNormalized),
		zap.Int("common_words", len(st.Words)),
	)
	return st
}

// isAcronym reports whether w has at least one letter and no lowercase.
func isAcronym(w string) bool {
	hasLetter := false
	for _, r := range w {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// ranked returns counts at or above minFreq, most frequent first, ties by
// term.
func ranked(m map[string]int, minFreq int) []Count {
	var out []Count
	for term, n := range m {
		if n >= minFreq {
			out = append(out, Count{Term: term, Count: n})
		}
	}
	slices.SortFunc(out, func(a, b Count) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Term, b.Term)
	})
	return out
}
