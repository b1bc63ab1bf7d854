// Package stats holds the process-wide extraction counters. A single Stats
// instance is shared by the API client, batch processor, and record store,
// so every field is an atomic.
package stats

import "sync/atomic"

// Stats accumulates counters across all workers in a run.
type Stats struct {
	TotalRequests     atomic.Int64
	FailedRequests    atomic.Int64
	TotalProcessed    atomic.Int64
	Successful        atomic.Int64
	Failed            atomic.Int64
	DuplicatesRemoved atomic.Int64
}

// New returns a zeroed Stats.
func New() *Stats {
	return &Stats{}
}

// Snapshot is a point-in-time copy of the counters for reporting.
type Snapshot struct {
	TotalRequests     int64 `json:"total_requests"`
	FailedRequests    int64 `json:"failed_requests"`
	TotalProcessed    int64 `json:"total_processed"`
	Successful        int64 `json:"successful"`
	Failed            int64 `json:"failed"`
	DuplicatesRemoved int64 `json:"duplicates_removed"`
}

// Snapshot copies the current counter values.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		TotalRequests:     s.TotalRequests.Load(),
		FailedRequests:    s.FailedRequests.Load(),
		TotalProcessed:    s.TotalProcessed.Load(),
		Successful:        s.Successful.Load(),
		Failed:            s.Failed.Load(),
		DuplicatesRemoved: s.DuplicatesRemoved.Load(),
	}
}

// RequestSuccessRate returns the percentage of API requests that succeeded.
// With no requests recorded it reports 100 so an idle run doesn't read as broken.
func (s Snapshot) RequestSuccessRate() float64 {
	if s.TotalRequests == 0 {
		return 100
	}
	return float64(s.TotalRequests-s.FailedRequests) / float64(s.TotalRequests) * 100
}
