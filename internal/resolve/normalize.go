// Package resolve turns employer-name spellings into canonical identities:
// a rule-driven normalizer, a pairwise similarity scorer, a greedy batch
// clusterer, and an adjacent-merge strategy for sorted streams.
package resolve

import (
	"regexp"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
)

// maxPasses bounds fixpoint iteration for a single rule and for the whole
// pipeline. Every rule shortens or keeps its input, so this is never reached
// in practice.
const maxPasses = 8

var nonAlnumRe = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

type compiledRule struct {
	re   *regexp.Regexp
	repl string
}

// apply runs the rule until the string stops changing so adjacent matches
// that share a boundary are all rewritten.
func (r compiledRule) apply(s string) string {
	for range maxPasses {
		next := r.re.ReplaceAllString(s, r.repl)
		if next == s {
			return s
		}
		s = next
	}
	return s
}

// Normalizer canonicalizes raw employer names. It is immutable after
// construction and safe for concurrent use.
type Normalizer struct {
	separators    *strings.Replacer
	punctuation   []compiledRule
	clauses       []*regexp.Regexp
	overrides     []compiledRule
	connectors    map[string]bool
	articles      map[string]bool
	protected     [][]string
	abbreviations []compiledRule
	legal         compiledRule
	megaCorps     []string
	families      []Family
}

// NewNormalizer compiles a rule set. The rule set is copied; later changes
// to the caller's slices do not affect the normalizer.
func NewNormalizer(rules RuleSet) (*Normalizer, error) {
	n := &Normalizer{
		connectors: toSet(rules.Connectors),
		articles:   toSet(rules.Articles),
		megaCorps:  append([]string(nil), rules.MegaCorps...),
	}

	pairs := make([]string, 0, 2*len(rules.Separators))
	for _, r := range rules.Separators {
		pairs = append(pairs, string(r), " ")
	}
	n.separators = strings.NewReplacer(pairs...)

	var err error
	if n.punctuation, err = compileRules(rules.Punctuation); err != nil {
		return nil, eris.Wrap(err, "resolve: punctuation rules")
	}
	if n.overrides, err = compileRules(rules.Overrides); err != nil {
		return nil, eris.Wrap(err, "resolve: override rules")
	}

	for _, p := range rules.Clauses {
		re, cerr := regexp.Compile(p)
		if cerr != nil {
			return nil, eris.Wrapf(cerr, "resolve: compile clause %q", p)
		}
		n.clauses = append(n.clauses, re)
	}

	for _, phrase := range rules.Protected {
		if toks := strings.Fields(strings.ToUpper(phrase)); len(toks) > 0 {
			n.protected = append(n.protected, toks)
		}
	}

	for _, a := range rules.Abbreviations {
		re, cerr := regexp.Compile(`\s(?:` + a.Word + `)(\s|$)`)
		if cerr != nil {
			return nil, eris.Wrapf(cerr, "resolve: compile abbreviation %q", a.Word)
		}
		n.abbreviations = append(n.abbreviations, compiledRule{re: re, repl: " " + a.Short + "${1}"})
	}

	if len(rules.LegalSuffixes) > 0 {
		expr := `\s(?:` + strings.Join(rules.LegalSuffixes, "|") + `)(\s|$)`
		re, cerr := regexp.Compile(expr)
		if cerr != nil {
			return nil, eris.Wrap(cerr, "resolve: compile legal suffixes")
		}
		n.legal = compiledRule{re: re, repl: "${1}"}
	}

	for _, f := range rules.Families {
		if f.Prefix == "" {
			return nil, eris.New("resolve: family with empty prefix")
		}
		f.Exclude = append([]string(nil), f.Exclude...)
		f.Variants = append([]FamilyVariant(nil), f.Variants...)
		if f.Canonical == "" {
			f.Canonical = f.Prefix
		}
		n.families = append(n.families, f)
	}

	return n, nil
}

// DefaultNormalizer returns a normalizer built from DefaultRules.
func DefaultNormalizer() *Normalizer {
	n, err := NewNormalizer(DefaultRules())
	if err != nil {
		panic(err)
	}
	return n
}

func compileRules(rules []Rule) ([]compiledRule, error) {
	out := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, eris.Wrapf(err, "compile %q", r.Pattern)
		}
		out = append(out, compiledRule{re: re, repl: r.Replace})
	}
	return out, nil
}

func toSet(words []string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[strings.ToUpper(w)] = true
	}
	return m
}

// Normalize returns the canonical form of raw. It never fails; empty or
// all-punctuation input yields "". The pipeline is re-run until stable so
// Normalize(Normalize(s)) == Normalize(s).
func (n *Normalizer) Normalize(raw string) string {
	s := raw
	for range maxPasses {
		next := n.pass(s)
		if next == s {
			return s
		}
		s = next
	}
	return s
}

func (n *Normalizer) pass(s string) string {
	s = strings.ToUpper(s)
	s = n.normalizePunctuation(s)
	s = n.stripClauses(s)
	s = n.applyOverrides(s)
	s = n.removeConnectors(s)
	s = n.abbreviate(s)
	s = n.stripLegalSuffixes(s)
	s = n.truncateMegaCorp(s)
	s = n.collapseFamily(s)
	return collapseSpaces(s)
}

func (n *Normalizer) normalizePunctuation(s string) string {
	s = n.separators.Replace(s)
	for _, r := range n.punctuation {
		s = r.apply(s)
	}
	s = nonAlnumRe.ReplaceAllString(s, "")
	return collapseSpaces(s)
}

func (n *Normalizer) stripClauses(s string) string {
	for _, re := range n.clauses {
		if loc := re.FindStringIndex(s); loc != nil {
			s = s[:loc[0]]
		}
	}
	return strings.TrimSpace(s)
}

func (n *Normalizer) applyOverrides(s string) string {
	for _, r := range n.overrides {
		if r.re.MatchString(s) {
			return r.re.ReplaceAllString(s, r.repl)
		}
	}
	return s
}

// removeConnectors drops connector words between other words. Leading
// articles go too while at least one other word remains; the final word and
// words inside a protected phrase are always kept.
func (n *Normalizer) removeConnectors(s string) string {
	toks := strings.Fields(s)
	if len(toks) < 2 {
		return s
	}

	keep := make([]bool, len(toks))
	for _, phrase := range n.protected {
		for i := 0; i+len(phrase) <= len(toks); i++ {
			if slices.Equal(toks[i:i+len(phrase)], phrase) {
				for j := range phrase {
					keep[i+j] = true
				}
			}
		}
	}

	start := 0
	for start < len(toks)-1 && n.articles[toks[start]] && !keep[start] {
		start++
	}

	out := make([]string, 0, len(toks)-start)
	for i := start; i < len(toks); i++ {
		interior := i > start && i < len(toks)-1
		if interior && n.connectors[toks[i]] && !keep[i] {
			continue
		}
		out = append(out, toks[i])
	}
	return strings.Join(out, " ")
}

func (n *Normalizer) abbreviate(s string) string {
	for _, r := range n.abbreviations {
		s = r.apply(s)
	}
	return s
}

func (n *Normalizer) stripLegalSuffixes(s string) string {
	if n.legal.re == nil {
		return s
	}
	return strings.TrimSpace(n.legal.apply(s))
}

func (n *Normalizer) truncateMegaCorp(s string) string {
	for _, corp := range n.megaCorps {
		if strings.HasPrefix(s, corp+" ") {
			return strings.Fields(s)[0]
		}
	}
	return s
}

func (n *Normalizer) collapseFamily(s string) string {
	for _, f := range n.families {
		if s != f.Prefix && !strings.HasPrefix(s, f.Prefix+" ") {
			continue
		}
		if containsAnyWord(s, f.Exclude) {
			continue
		}
		for _, v := range f.Variants {
			if containsPhrase(s, v.Contains) {
				return v.Canonical
			}
		}
		return f.Canonical
	}
	return s
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// containsPhrase reports whether phrase occurs in s on word boundaries.
func containsPhrase(s, phrase string) bool {
	return phrase != "" && strings.Contains(" "+s+" ", " "+phrase+" ")
}

func containsAnyWord(s string, words []string) bool {
	for _, w := range words {
		if containsPhrase(s, w) {
			return true
		}
	}
	return false
}
