package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	n := DefaultNormalizer()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"legal suffixes stacked", "ACME CORP. LLC", "ACME"},
		{"dba clause", "COMPANY NAME DBA OTHER NAME", "COMPANY NAME"},
		{"dotted dba", "Foo D.B.A. Bar Holdings", "FOO"},
		{"fka clause", "WIDGET WORKS LLC F/K/A OLD WIDGETS INC", "WIDGET WORKS"},
		{"formerly known as", "NEWCO INC FORMERLY KNOWN AS OLDCO", "NEWCO"},
		{"leading numeral kept", "1 HOTEL KAUAI LLC DBA 1 HOTEL HANALEI BAY", "1 HOTEL KAUAI"},
		{"separators and suffix", "COMPANY, INC. & CO.", "COMPANY CO"},
		{"first word not abbreviated", "INTERNATIONAL TECHNOLOGY SOLUTIONS LLC", "INTERNATIONAL TECH SOLNS"},
		{"override", "FACEBOOK TECHNOLOGIES", "META"},
		{"override replaces whole name", "Alphabet Inc.", "GOOGLE"},
		{"mega corp", "MICROSOFT CORPORATION", "MICROSOFT"},
		{"mega corp subsidiary", "MICROSOFT LICENSING GP", "MICROSOFT"},
		{"leading article", "THE BOEING COMPANY", "BOEING CO"},
		{"interior connector", "BANK OF AMERICA", "BANK AMERICA"},
		{"protected brand", "WORLD OF AT&T INC", "WORLD AT T"},
		{"family collapse", "AMAZON.COM SERVICES LLC", "AMAZON"},
		{"family variant", "Amazon Web Services, Inc.", "AMAZON WEB SVC"},
		{"family exclusion", "AMAZON PRODUCE NETWORK LLC", "AMAZON PROD NETWORK"},
		{"abbreviations", "ACME MEDICAL CENTER", "ACME MED CTR"},
		{"empty", "", ""},
		{"punctuation only", "&&& ...", ""},
		{"control characters", "\x00\x01", ""},
		{"non-ascii letters", "Müller gmbh", "MÜLLER GMBH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.raw))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	n := DefaultNormalizer()
	inputs := []string{
		"ACME CORP. LLC",
		"COMPANY NAME DBA OTHER NAME",
		"THE THE AND COMPANY",
		"INTERNATIONAL TECHNOLOGY SOLUTIONS LLC",
		"P.S. SERVICES P.C.",
		"AMAZON WEB SERVICES INC",
		"ST. JUDE CHILDREN'S RESEARCH HOSPITAL",
		"L L C",
		"  lower   case   inc  ",
		"Ünïcödé Gmbh & Co. KG",
	}
	for _, in := range inputs {
		once := n.Normalize(in)
		assert.Equal(t, once, n.Normalize(once), "input %q", in)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	n := DefaultNormalizer()
	first := n.Normalize("MICROSOFT CORPORATION")
	n.Normalize("AMAZON.COM SERVICES LLC")
	n.Normalize("")
	assert.Equal(t, first, n.Normalize("MICROSOFT CORPORATION"))
}

func TestNewNormalizer_CustomRules(t *testing.T) {
	n, err := NewNormalizer(RuleSet{
		LegalSuffixes: []string{"GMBH", "AG", "KG"},
	})
	require.NoError(t, err)

	assert.Equal(t, "SIEMENS", n.Normalize("Siemens AG"))
	assert.Equal(t, "BOSCH", n.Normalize("Bosch GmbH"))
	// No US vocabulary: suffixes and abbreviations are untouched.
	assert.Equal(t, "ACME CORPORATION LLC", n.Normalize("Acme Corporation, LLC"))
}

func TestNewNormalizer_CopiesRules(t *testing.T) {
	rules := DefaultRules()
	n, err := NewNormalizer(rules)
	require.NoError(t, err)

	rules.MegaCorps[0] = "ACME"
	assert.Equal(t, "ACME ROBOTICS", n.Normalize("ACME ROBOTICS"))
	assert.Equal(t, "MICROSOFT", n.Normalize("MICROSOFT LICENSING GP"))
}

func TestNewNormalizer_Errors(t *testing.T) {
	tests := []struct {
		name  string
		rules RuleSet
	}{
		{"bad clause", RuleSet{Clauses: []string{"("}}},
		{"bad override", RuleSet{Overrides: []Rule{{Pattern: "[", Replace: "X"}}}},
		{"bad abbreviation", RuleSet{Abbreviations: []Abbreviation{{Word: "(", Short: "X"}}}},
		{"bad legal suffix", RuleSet{LegalSuffixes: []string{"("}}},
		{"empty family prefix", RuleSet{Families: []Family{{Canonical: "X"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNormalizer(tt.rules)
			assert.Error(t, err)
		})
	}
}
