package disclosure

import (
	"iter"
	"os"
	"testing"

	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// collect drains seq into records and errors.
func collect(seq iter.Seq2[Record, error]) ([]Record, []error) {
	var recs []Record
	var errs []error
	for rec, err := range seq {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		recs = append(recs, rec)
	}
	return recs, errs
}

func names(recs []Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.EmployerName
	}
	return out
}
