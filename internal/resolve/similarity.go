package resolve

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// Scorer computes pairwise similarity between employer names.
type Scorer struct {
	norm     *Normalizer
	stop     map[string]bool
	circuits []shortCircuit
}

type shortCircuit struct {
	re      *regexp.Regexp
	exclude []string
}

func (c shortCircuit) matches(name string) bool {
	return c.re.MatchString(name) && !containsAnyWord(name, c.exclude)
}

// NewScorer builds a scorer that normalizes raw input with n.
func NewScorer(n *Normalizer, v Vocabulary) (*Scorer, error) {
	if n == nil {
		return nil, eris.New("resolve: scorer requires a normalizer")
	}
	s := &Scorer{norm: n, stop: toSet(v.StopWords)}
	for _, sc := range v.ShortCircuits {
		re, err := regexp.Compile(sc.Pattern)
		if err != nil {
			return nil, eris.Wrapf(err, "resolve: compile short circuit %q", sc.Pattern)
		}
		s.circuits = append(s.circuits, shortCircuit{re: re, exclude: append([]string(nil), sc.Exclude...)})
	}
	return s, nil
}

// DefaultScorer returns a scorer over DefaultNormalizer and DefaultVocabulary.
func DefaultScorer() *Scorer {
	s, err := NewScorer(DefaultNormalizer(), DefaultVocabulary())
	if err != nil {
		panic(err)
	}
	return s
}

// Normalizer returns the normalizer applied to raw input.
func (s *Scorer) Normalizer() *Normalizer { return s.norm }

// Similarity normalizes both raw names and scores them.
func (s *Scorer) Similarity(a, b string) float64 {
	return s.ScoreNormalized(s.norm.Normalize(a), s.norm.Normalize(b))
}

// ScoreNormalized scores two already-normalized names in [0, 1]. The score
// is symmetric in its arguments.
func (s *Scorer) ScoreNormalized(a, b string) float64 {
	return s.score(s.prepare(a), s.prepare(b))
}

// prepared caches the per-name work so the O(n²) cluster scan only pays for
// it once per name.
type prepared struct {
	name    string
	runes   []rune
	tokens  map[string]bool
	sig     map[string]bool
	circuit []bool
}

func (s *Scorer) prepare(name string) prepared {
	p := prepared{
		name:   name,
		runes:  []rune(name),
		tokens: make(map[string]bool),
		sig:    make(map[string]bool),
	}
	for _, t := range strings.Fields(name) {
		p.tokens[t] = true
		if !s.stop[t] {
			p.sig[t] = true
		}
	}
	if name != "" {
		p.circuit = make([]bool, len(s.circuits))
		for i, c := range s.circuits {
			p.circuit[i] = c.matches(name)
		}
	}
	return p
}

func (s *Scorer) score(a, b prepared) float64 {
	if a.name == "" || b.name == "" {
		return 0
	}
	if a.name == b.name {
		return 1
	}
	for i := range s.circuits {
		if a.circuit[i] && b.circuit[i] {
			return 1
		}
	}

	lcsRatio := float64(longestCommonSubstring(a.runes, b.runes)) / float64(max(len(a.runes), len(b.runes)))

	if len(a.sig) == 0 || len(b.sig) == 0 {
		return 0
	}
	shared := 0
	for t := range a.sig {
		if b.sig[t] {
			shared++
		}
	}
	if shared == 0 {
		return 0
	}
	if shared < 2 && lcsRatio < 0.5 {
		return 0
	}

	tokenRatio := float64(shared) / float64(min(len(a.tokens), len(b.tokens)))
	return 0.7*tokenRatio + 0.3*lcsRatio
}

// longestCommonSubstring returns the length of the longest contiguous run
// shared by a and b.
func longestCommonSubstring(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	best := 0
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				best = max(best, cur[j])
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return best
}

// Contains reports whether one normalized name is a shortened or lengthened
// variant of the other: the shorter (at least 10 characters, more than one
// word) is a word-boundary prefix of the longer, or at least 80% of its
// words appear in the longer.
func Contains(a, b string) bool {
	if a == b {
		return true
	}
	wa, wb := strings.Fields(a), strings.Fields(b)
	if len(wa) <= 1 || len(wb) <= 1 {
		return false
	}

	shorter, longer := a, b
	ws, wl := wa, wb
	if la, lb := len([]rune(a)), len([]rune(b)); la > lb || (la == lb && a > b) {
		shorter, longer = b, a
		ws, wl = wb, wa
	}
	if len([]rune(shorter)) < 10 {
		return false
	}
	if strings.HasPrefix(longer+" ", shorter+" ") {
		return true
	}

	inLonger := make(map[string]bool, len(wl))
	for _, w := range wl {
		inLonger[w] = true
	}
	distinct := make(map[string]bool, len(ws))
	hits := 0
	for _, w := range ws {
		if distinct[w] {
			continue
		}
		distinct[w] = true
		if inLonger[w] {
			hits++
		}
	}
	return float64(hits) >= 0.8*float64(len(distinct))
}
