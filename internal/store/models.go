package store

import (
	"time"

	"salescope/internal/metrics"
)

// Run summarizes one analyze invocation.
type Run struct {
	ID                string
	StartedAt         time.Time
	FinishedAt        time.Time
	Videos            int
	Failed            int
	SlowdownThreshold float64
	Consolidated      bool
}

// VideoResult is the persisted outcome for one video of a run.
type VideoResult struct {
	ID           int64
	RunID        string
	Shop         string
	ShopKey      string
	Date         string
	Salesman     string
	Video        string
	ResultDir    string
	Width        int
	Height       int
	VideoStride  int
	Frames       int
	Tracks       int
	Metrics      metrics.Results
	Consolidated []string
	Error        string
	CreatedAt    time.Time
}

// Failed reports whether the video could not be analyzed.
func (v VideoResult) Failed() bool {
	return v.Error != ""
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Shop     string
	Date     string
	Salesman string
	RunID    string
	Failed   *bool
	Limit    int
}

// Summary aggregates the database contents for status output.
type Summary struct {
	Path       string
	Runs       int
	Videos     int
	Failed     int
	Shops      int
	LastRunID  string
	LastRunAt  time.Time
	Integrity  bool
	SchemaVers int
}
