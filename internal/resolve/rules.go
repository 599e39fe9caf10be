package resolve

// Rule is one ordered (pattern, replacement) pair. Replacement uses Go
// regexp expansion syntax (${1}).
type Rule struct {
	Pattern string `yaml:"pattern" json:"pattern"`
	Replace string `yaml:"replace" json:"replace"`
}

// Abbreviation maps a whole-word pattern to its standard short form.
type Abbreviation struct {
	Word  string `yaml:"word" json:"word"`
	Short string `yaml:"short" json:"short"`
}

// FamilyVariant keeps a distinct sub-brand when the family collapses.
type FamilyVariant struct {
	Contains  string `yaml:"contains" json:"contains"`
	Canonical string `yaml:"canonical" json:"canonical"`
}

// Family collapses every name whose first word is Prefix to Canonical, unless
// the name contains one of the Exclude words.
type Family struct {
	Prefix    string          `yaml:"prefix" json:"prefix"`
	Canonical string          `yaml:"canonical" json:"canonical"`
	Exclude   []string        `yaml:"exclude" json:"exclude"`
	Variants  []FamilyVariant `yaml:"variants" json:"variants"`
}

// RuleSet is the full normalization vocabulary. Order within each slice is
// the order rules are applied.
type RuleSet struct {
	// Separators are characters replaced by a space before any other rule.
	Separators string `yaml:"separators" json:"separators"`
	// Punctuation rules run after separators and before stripping.
	Punctuation []Rule `yaml:"punctuation" json:"punctuation"`
	// Clauses are patterns whose match, through end of name, is discarded.
	Clauses []string `yaml:"clauses" json:"clauses"`
	// Overrides replace the whole name when the pattern matches.
	Overrides     []Rule         `yaml:"overrides" json:"overrides"`
	Connectors    []string       `yaml:"connectors" json:"connectors"`
	Articles      []string       `yaml:"articles" json:"articles"`
	Protected     []string       `yaml:"protected" json:"protected"`
	Abbreviations []Abbreviation `yaml:"abbreviations" json:"abbreviations"`
	LegalSuffixes []string       `yaml:"legal_suffixes" json:"legal_suffixes"`
	MegaCorps     []string       `yaml:"mega_corps" json:"mega_corps"`
	Families      []Family       `yaml:"families" json:"families"`
}

// DefaultRules returns the US employer-name vocabulary. Each call returns a
// fresh copy so callers may not alter another normalizer's rules.
func DefaultRules() RuleSet {
	return RuleSet{
		Separators: "&+,-%",
		Punctuation: []Rule{
			{Pattern: `(\w)\.(\w{2})`, Replace: "${1} ${2}"},
			{Pattern: `(\w{2})\.(\w)`, Replace: "${1} ${2}"},
			{Pattern: `(\w)\.(\w)`, Replace: "${1}${2}"},
		},
		Clauses: []string{
			`\sD\s?B\s?A(\s.*)?$`,
			`\sDOING BUSINESS AS(\s.*)?$`,
			`\sF\s?K\s?A(\s.*)?$`,
			`\sFORMERLY KNOWN AS(\s.*)?$`,
			`\sP\s?K\s?A(\s.*)?$`,
			`\sPREVIOUSLY KNOWN AS(\s.*)?$`,
			`\sPREVIOUSLY N\w*(\s.*)?$`,
		},
		Overrides: []Rule{
			{Pattern: `^FACEBOOK(\s.*)?$`, Replace: "META"},
			{Pattern: `^ALPHABET(\s.*)?$`, Replace: "GOOGLE"},
		},
		Connectors: []string{"AND", "OF", "THE", "FOR", "IN", "AT"},
		Articles:   []string{"THE"},
		Protected:  []string{"AT T"},
		Abbreviations: []Abbreviation{
			{Word: "CORPORATION", Short: "CORP"},
			{Word: "CORPORAT", Short: "CORP"},
			{Word: "LIMITED", Short: "LTD"},
			{Word: "COMPANY", Short: "CO"},
			{Word: "INTERNATIONAL", Short: "INTL"},
			{Word: "SERVICES?", Short: "SVC"},
			{Word: "SERVICS?", Short: "SVC"},
			{Word: "SERVIS?", Short: "SVC"},
			{Word: "SERVS?", Short: "SVC"},
			{Word: "HEALTH", Short: "HLTH"},
			{Word: "TECHNOLOG(?:Y|IES)?", Short: "TECH"},
			{Word: "SOLUTION", Short: "SOLN"},
			{Word: "SOLUTIONS", Short: "SOLNS"},
			{Word: "SYSTEMS?", Short: "SYS"},
			{Word: "SOFTWARE", Short: "SOFT"},
			{Word: "INCORPORATED?", Short: "INC"},
			{Word: "COMPUTERS?", Short: "COMP"},
			{Word: "NORTHWEST", Short: "NW"},
			{Word: "SOUTHWEST", Short: "SW"},
			{Word: "NORTHEAST", Short: "NE"},
			{Word: "SOUTHEAST", Short: "SE"},
			{Word: "EASTERN", Short: "EAST"},
			{Word: "WESTERN", Short: "WEST"},
			{Word: "MIDWEST", Short: "MW"},
			{Word: "MIDDLE", Short: "MID"},
			{Word: "WASHINGTON", Short: "WA"},
			{Word: "COOPERATIVE", Short: "COOP"},
			{Word: "MEDIC(?:AL|INE|INAL)", Short: "MED"},
			{Word: "LABORATOR(?:Y|IES)", Short: "LAB"},
			{Word: "CENTERS?", Short: "CTR"},
			{Word: "SAINTS?", Short: "ST"},
			{Word: "CHURCH(?:ES)?", Short: "CH"},
			{Word: "PRODUCE", Short: "PROD"},
			{Word: "PRODUCTIONS?", Short: "PROD"},
		},
		LegalSuffixes: []string{
			`P\s?L\s?L\s?C`,
			`L\s?L\s?C`,
			`L\s?L\s?P`,
			`L\s?P`,
			`P\s?[ACS]`,
			`INC`,
			`CORP`,
			`LTD`,
		},
		MegaCorps: []string{
			"MICROSOFT", "GOOGLE", "META", "CISCO", "ORACLE", "IBM",
			"INTEL", "NVIDIA", "AMD", "QUALCOMM", "NINTENDO", "SONY",
			"APPLE PAYMENTS", "PROVIDENCE",
		},
		Families: []Family{
			{
				Prefix:    "AMAZON",
				Canonical: "AMAZON",
				Exclude:   []string{"PRODUCE", "PROD"},
				Variants:  []FamilyVariant{{Contains: "WEB SVC", Canonical: "AMAZON WEB SVC"}},
			},
		},
	}
}

// Vocabulary configures the similarity scorer.
type Vocabulary struct {
	// StopWords are generic business words ignored for token overlap.
	StopWords []string `yaml:"stop_words" json:"stop_words"`
	// ShortCircuits are family patterns; two names both matching the same
	// pattern score 1.
	ShortCircuits []ShortCircuit `yaml:"short_circuits" json:"short_circuits"`
}

// ShortCircuit is a corporate-family pattern with whole-word carve-outs.
type ShortCircuit struct {
	Pattern string   `yaml:"pattern" json:"pattern"`
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// DefaultVocabulary returns the stop list and family patterns used for US
// employer names.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		StopWords: []string{
			"TECH", "HLTH", "SRVCS", "SRVC", "SVC", "SVCS", "OF", "SOLNS", "SOLN",
			"CONSULTING", "WA", "SEATTLE", "USA", "CTR", "MANAGEMENT",
			"B", "PS", "D", "A", "THE", "LABS", "LAB", "NW", "CONSTRUCTION",
			"COM", "SCHOOL", "INSTITUTE", "RESEARCH", "FOR", "US", "S",
			"ASSOCIATES", "ENGINEERING", "ARCHITECTURE", "DEVELOPMENT",
			"AMERICA", "COMMUNITY", "CAPITAL", "AI", "INTL", "MED", "L",
			"FOUNDATION", "DESIGN", "SYS", "GROUP", "CORP", "GLOBAL",
			"WORLD", "AMERICAN", "ENTERPRISES", "INDUSTRIES", "CARE", "HIGH",
			"NORTH", "SOUTH", "EAST", "WEST", "REGIONAL", "PLAN",
		},
		ShortCircuits: []ShortCircuit{
			{Pattern: `^AMAZON\W`, Exclude: []string{"PRODUCE", "PROD"}},
			{Pattern: `^APPLE(?:\s+(?:PAYMENTS|INC))?$`},
		},
	}
}
