package report

import "go.uber.org/zap"

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}
