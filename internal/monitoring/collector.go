// Package monitoring summarizes saved resolution runs and raises alerts
// when failure or malformed-row rates cross configured thresholds.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/employer-resolve/internal/store"
)

// MetricsSnapshot holds a point-in-time view of run health.
type MetricsSnapshot struct {
	// Run counts within the lookback window.
	RunsTotal    int     `json:"runs_total"`
	RunsComplete int     `json:"runs_complete"`
	RunsFailed   int     `json:"runs_failed"`
	RunsRunning  int     `json:"runs_running"`
	FailRate     float64 `json:"fail_rate"`

	// Totals over completed runs.
	RecordsRead    int     `json:"records_read"`
	RecordsSkipped int     `json:"records_skipped"`
	SkippedRate    float64 `json:"skipped_rate"`
	Unclassified   int     `json:"unclassified"`
	AvgEmployers   float64 `json:"avg_employers"`
	AvgDurationSec float64 `json:"avg_duration_secs"`

	// StaleRunning counts runs still marked running after StaleAfter.
	StaleRunning int `json:"stale_running"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// RunLister is the part of store.Store the collector reads.
type RunLister interface {
	ListRuns(ctx context.Context, filter store.RunFilter) ([]store.Run, error)
}

// Collector gathers metrics from the run store.
type Collector struct {
	runs RunLister
	// StaleAfter marks a running run as stuck. Default 1h.
	StaleAfter time.Duration
	now        func() time.Time
}

// NewCollector creates a new metrics collector.
func NewCollector(runs RunLister) *Collector {
	return &Collector{runs: runs, StaleAfter: time.Hour, now: time.Now}
}

// Collect gathers a snapshot over the given lookback window. A window of 0
// covers every run.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	now := c.now().UTC()
	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   now,
	}

	filter := store.RunFilter{Limit: 10000}
	if lookbackHours > 0 {
		filter.CreatedAfter = now.Add(-time.Duration(lookbackHours) * time.Hour)
	}
	runs, err := c.runs.ListRuns(ctx, filter)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	snap.RunsTotal = len(runs)
	var (
		employers int
		totalDur  time.Duration
	)
	for _, r := range runs {
		switch r.Status {
		case store.RunStatusComplete:
			snap.RunsComplete++
			totalDur += r.UpdatedAt.Sub(r.CreatedAt)
			if r.Summary != nil {
				snap.RecordsRead += r.Summary.Input
				snap.RecordsSkipped += r.Summary.Skipped
				snap.Unclassified += r.Summary.Unclassified
				employers += r.Summary.Employers
			}
		case store.RunStatusFailed:
			snap.RunsFailed++
		case store.RunStatusRunning:
			snap.RunsRunning++
			if c.StaleAfter > 0 && now.Sub(r.CreatedAt) > c.StaleAfter {
				snap.StaleRunning++
			}
		}
	}

	if finished := snap.RunsComplete + snap.RunsFailed; finished > 0 {
		snap.FailRate = float64(snap.RunsFailed) / float64(finished)
	}
	if seen := snap.RecordsRead + snap.RecordsSkipped; seen > 0 {
		snap.SkippedRate = float64(snap.RecordsSkipped) / float64(seen)
	}
	if snap.RunsComplete > 0 {
		snap.AvgEmployers = float64(employers) / float64(snap.RunsComplete)
		snap.AvgDurationSec = totalDur.Seconds() / float64(snap.RunsComplete)
	}

	return snap, nil
}
