package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/billscan/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "billscan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_RunLifecycle(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	keywords := []string{"Prior authorization", "Clean claims"}
	run, err := st.CreateRun(ctx, keywords)
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	err = st.FinishRun(ctx, run.ID, model.RunStatusComplete, RunResult{
		BillsFound:        42,
		DuplicatesRemoved: 7,
		APIRequests:       120,
		FailedRequests:    3,
		OutputPath:        "data/bills_output.xlsx",
	})
	require.NoError(t, err)

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, keywords, got.Keywords)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	assert.Equal(t, 42, got.BillsFound)
	assert.Equal(t, 7, got.DuplicatesRemoved)
	assert.Equal(t, 120, got.APIRequests)
	assert.Equal(t, 3, got.FailedRequests)
	assert.Equal(t, "data/bills_output.xlsx", got.OutputPath)
	require.NotNil(t, got.FinishedAt)
}

func TestSQLite_FinishUnknownRun(t *testing.T) {
	st := newTestStore(t)
	err := st.FinishRun(context.Background(), "no-such-run", model.RunStatusComplete, RunResult{})
	assert.Error(t, err)
}

func TestSQLite_GetUnknownRun(t *testing.T) {
	st := newTestStore(t)
	_, err := st.GetRun(context.Background(), "no-such-run")
	assert.Error(t, err)
}

func TestSQLite_ListRunsAndLimit(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	first, err := st.CreateRun(ctx, []string{"a"})
	require.NoError(t, err)
	second, err := st.CreateRun(ctx, []string{"b"})
	require.NoError(t, err)

	runs, err := st.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	ids := []string{runs[0].ID, runs[1].ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)

	limited, err := st.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
