package resolve

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// RulesFile is the on-disk form of a normalization vocabulary. Any list
// omitted from the file keeps its default value.
type RulesFile struct {
	Normalize  RuleSet    `yaml:"normalize"`
	Similarity Vocabulary `yaml:"similarity"`
}

// LoadRules reads a YAML rules file. An empty path returns the defaults.
func LoadRules(path string) (*RulesFile, error) {
	rf := &RulesFile{
		Normalize:  DefaultRules(),
		Similarity: DefaultVocabulary(),
	}
	if path == "" {
		return rf, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "resolve: read rules %s", path)
	}
	if err := yaml.Unmarshal(data, rf); err != nil {
		return nil, eris.Wrapf(err, "resolve: parse rules %s", path)
	}
	return rf, nil
}

// Build compiles the file into a normalizer and a scorer that uses it.
func (rf *RulesFile) Build() (*Normalizer, *Scorer, error) {
	n, err := NewNormalizer(rf.Normalize)
	if err != nil {
		return nil, nil, err
	}
	s, err := NewScorer(n, rf.Similarity)
	if err != nil {
		return nil, nil, err
	}
	return n, s, nil
}
