//go:build !integration

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/employer-resolve/internal/monitoring"
	"github.com/sells-group/employer-resolve/internal/store"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	runs := []store.Run{
		{
			ID:        "abc12345-6789-0000-0000-000000000000",
			Params:    store.RunParams{Strategy: "batch", Threshold: 0.85},
			Status:    store.RunStatusComplete,
			Summary:   &store.RunSummary{Employers: 42},
			CreatedAt: now,
			UpdatedAt: now.Add(2 * time.Minute),
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Params:    store.RunParams{Strategy: "stream"},
			Status:    store.RunStatusRunning,
			CreatedAt: now.Add(-1 * time.Hour),
			UpdatedAt: now.Add(-1 * time.Hour),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "STRATEGY")
	assert.Contains(t, output, "EMPLOYERS")
	assert.Contains(t, output, "abc12345")
	assert.NotContains(t, output, "abc12345-6789")
	assert.Contains(t, output, "0.85")
	assert.Contains(t, output, "complete")
	assert.Contains(t, output, "42")
	assert.Contains(t, output, "running")
	assert.Contains(t, output, "2025-06-15 10:30")
	assert.Contains(t, output, "2m0s")
}

func TestFormatRunsList_FailedRun(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	runs := []store.Run{
		{
			ID:        "abc12345",
			Params:    store.RunParams{Strategy: "batch"},
			Status:    store.RunStatusFailed,
			Error:     "disclosure: fy2023.tsv line 7: Initial Approval \"abc\": invalid syntax",
			CreatedAt: now,
			UpdatedAt: now.Add(30 * time.Second),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "failed: disclosure: fy2023.tsv line...")
}

func TestFormatRunStats(t *testing.T) {
	var buf bytes.Buffer
	formatRunStats(&buf, &monitoring.MetricsSnapshot{
		RunsTotal:      4,
		RunsComplete:   2,
		RunsFailed:     1,
		RunsRunning:    1,
		StaleRunning:   1,
		FailRate:       1.0 / 3.0,
		RecordsRead:    190,
		RecordsSkipped: 10,
		SkippedRate:    0.05,
		AvgEmployers:   50,
		AvgDurationSec: 60,
	})

	output := buf.String()
	assert.Contains(t, output, "Total runs:")
	assert.Contains(t, output, "Stale:")
	assert.Contains(t, output, "33.3%")
	assert.Contains(t, output, "10 (5.0%)")
	assert.Contains(t, output, "60.0s")
}

func TestFormatRunStats_Empty(t *testing.T) {
	var buf bytes.Buffer
	formatRunStats(&buf, &monitoring.MetricsSnapshot{})
	assert.NotContains(t, buf.String(), "Avg duration")
	assert.NotContains(t, buf.String(), "Stale")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789"))
	assert.Equal(t, "short", truncateID("short"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "hello w...", truncate("hello world!", 10))
}
