// Package store persists resolution runs and their per-employer aggregates.
package store

import (
	"context"
	"time"

	"github.com/sells-group/employer-resolve/internal/aggregate"
)

// RunStatus is the lifecycle state of a stored run.
type RunStatus string

// Run states.
const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunParams records how a run was configured.
type RunParams struct {
	Strategy     string   `json:"strategy"`
	Threshold    float64  `json:"threshold"`
	Canonical    string   `json:"canonical,omitempty"`
	PreNormalize bool     `json:"pre_normalize,omitempty"`
	Sources      []string `json:"sources,omitempty"`
	States       []string `json:"states,omitempty"`
	Years        []int    `json:"years,omitempty"`
}

// RunSummary holds the counters of a completed run.
type RunSummary struct {
	Input        int `json:"input"`
	Skipped      int `json:"skipped"`
	Unclassified int `json:"unclassified"`
	Employers    int `json:"employers"`
	Groups       int `json:"groups"`
}

// Run is one stored resolution run.
type Run struct {
	ID        string      `json:"id"`
	Params    RunParams   `json:"params"`
	Status    RunStatus   `json:"status"`
	Summary   *RunSummary `json:"summary,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status       RunStatus `json:"status,omitempty"`
	CreatedAfter time.Time `json:"created_after,omitempty"`
	Limit        int       `json:"limit,omitempty"`
	Offset       int       `json:"offset,omitempty"`
}

// Store defines the persistence interface for resolution runs.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, params RunParams) (*Run, error)
	CompleteRun(ctx context.Context, runID string, result *aggregate.Result) error
	FailRun(ctx context.Context, runID string, reason string) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)

	// Employers returns a completed run's aggregates in rank order. limit
	// <= 0 returns all of them.
	Employers(ctx context.Context, runID string, limit int) ([]aggregate.AggregateRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// SummaryOf builds the stored counters for a result.
func SummaryOf(res *aggregate.Result) RunSummary {
	return RunSummary{
		Input:        res.Input,
		Skipped:      res.Skipped,
		Unclassified: res.Unclassified,
		Employers:    len(res.Records),
		Groups:       len(res.Groups),
	}
}

const defaultListLimit = 100
