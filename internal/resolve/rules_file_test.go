package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRules_Defaults(t *testing.T) {
	rf, err := LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), rf.Normalize)
	assert.Equal(t, DefaultVocabulary(), rf.Similarity)
}

func TestLoadRules_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `normalize:
  mega_corps: ["ACME"]
  families:
    - prefix: GLOBEX
      canonical: GLOBEX
similarity:
  stop_words: ["ROBOTICS"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rf, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ACME"}, rf.Normalize.MegaCorps)
	// Lists not named in the file keep their defaults.
	assert.Equal(t, DefaultRules().Abbreviations, rf.Normalize.Abbreviations)
	assert.Equal(t, DefaultVocabulary().ShortCircuits, rf.Similarity.ShortCircuits)

	n, s, err := rf.Build()
	require.NoError(t, err)
	assert.Equal(t, "ACME", n.Normalize("ACME ROBOTICS CORPORATION"))
	assert.Equal(t, "MICROSOFT LICENSING GP", n.Normalize("MICROSOFT LICENSING GP"))
	assert.Equal(t, "GLOBEX", n.Normalize("GLOBEX CHEMICALS LLC"))
	assert.Same(t, n, s.Normalizer())
	assert.Zero(t, s.ScoreNormalized("INITECH ROBOTICS", "HOOLI ROBOTICS"))
}

func TestLoadRules_Errors(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("normalize: [not, a, map"), 0o644))
	_, err = LoadRules(bad)
	assert.Error(t, err)

	invalid := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("normalize:\n  clauses: [\"(\"]\n"), 0o644))
	rf, err := LoadRules(invalid)
	require.NoError(t, err)
	_, _, err = rf.Build()
	assert.Error(t, err)
}
