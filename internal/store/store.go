// Package store persists extraction run history. Extraction itself never
// depends on it; a disabled or broken store only loses the history view.
package store

import (
	"context"

	"github.com/sells-group/billscan/internal/model"
)

// RunResult carries the final numbers written when a run finishes.
type RunResult struct {
	BillsFound        int
	DuplicatesRemoved int
	APIRequests       int
	FailedRequests    int
	OutputPath        string
}

// Store defines the run-history persistence interface.
type Store interface {
	CreateRun(ctx context.Context, keywords []string) (*model.Run, error)
	FinishRun(ctx context.Context, runID string, status model.RunStatus, result RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)
	Migrate(ctx context.Context) error
	Close() error
}
