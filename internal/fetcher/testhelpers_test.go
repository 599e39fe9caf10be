package fetcher

import (
	"os"
	"testing"

	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// writeTestFile is a helper that writes data to a file path.
func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func collectRows(t *testing.T, rowCh <-chan Row, errCh <-chan error) ([]Row, error) {
	t.Helper()
	var rows []Row
	for row := range rowCh {
		rows = append(rows, row)
	}
	for err := range errCh {
		if err != nil {
			return rows, err
		}
	}
	return rows, nil
}
