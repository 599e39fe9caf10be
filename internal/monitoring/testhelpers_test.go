package monitoring

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/employer-resolve/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeRuns struct {
	runs   []store.Run
	err    error
	filter store.RunFilter
}

func (f *fakeRuns) ListRuns(_ context.Context, filter store.RunFilter) ([]store.Run, error) {
	f.filter = filter
	return f.runs, f.err
}
