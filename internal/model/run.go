package model

import "time"

// RunStatus is the lifecycle state of an extraction run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run records one extraction run in the history store.
type Run struct {
	ID                string     `json:"id"`
	Keywords          []string   `json:"keywords"`
	Status            RunStatus  `json:"status"`
	BillsFound        int        `json:"bills_found"`
	DuplicatesRemoved int        `json:"duplicates_removed"`
	APIRequests       int        `json:"api_requests"`
	FailedRequests    int        `json:"failed_requests"`
	OutputPath        string     `json:"output_path,omitempty"`
	StartedAt         time.Time  `json:"started_at"`
	FinishedAt        *time.Time `json:"finished_at,omitempty"`
}
