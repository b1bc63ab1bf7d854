package bills

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/billscan/internal/config"
	"github.com/sells-group/billscan/internal/stats"
	"github.com/sells-group/billscan/pkg/legiscan"
)

func idSet(ids ...int) map[int]struct{} {
	out := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func newTestProcessor(client Client, st *stats.Stats, verify config.VerifyMode) *Processor {
	return NewProcessor(NewFetcher(client), st, ProcessorConfig{
		TargetYears:   []int{2025},
		MaxConcurrent: 2,
		Verify:        verify,
	})
}

func TestProcessBatch_YearFilter(t *testing.T) {
	// Bill 101 sits in a 2024 session, 102 in 2025: only 102 survives.
	client := &countingClient{bills: map[int]*legiscan.Bill{
		101: {
			BillID: 101, BillNumber: "HB 101", State: "TX",
			Session: legiscan.Session{YearStart: 2024},
			Title:   "Prior authorization limits",
		},
		102: {
			BillID: 102, BillNumber: "HB 102", State: "TX",
			Session: legiscan.Session{YearStart: 2025},
			Title:   "Prior authorization limits",
		},
	}}
	st := stats.New()
	p := newTestProcessor(client, st, config.VerifyStrict)

	recs := p.ProcessBatch(context.Background(), "Prior authorization", idSet(101, 102))

	require.Len(t, recs, 1)
	assert.Equal(t, "HB 102", recs[0].BillNumber)
	assert.Equal(t, "Texas", recs[0].State)

	snap := st.Snapshot()
	assert.Equal(t, int64(2), snap.TotalProcessed)
	assert.Equal(t, int64(1), snap.Successful)
	assert.Equal(t, int64(0), snap.Failed)
}

func TestProcessBatch_OneFailureDoesNotAbort(t *testing.T) {
	client := &countingClient{
		bills: map[int]*legiscan.Bill{
			1: {
				BillID: 1, BillNumber: "SB 1", State: "CO",
				Session: legiscan.Session{YearStart: 2025},
				Title:   "Utilization review standards",
			},
		},
		errs: map[int]error{2: errors.New("malformed payload")},
	}
	st := stats.New()
	p := newTestProcessor(client, st, config.VerifyStrict)

	recs := p.ProcessBatch(context.Background(), "Utilization review", idSet(1, 2))

	require.Len(t, recs, 1)
	assert.Equal(t, "SB 1", recs[0].BillNumber)
	assert.Equal(t, int64(1), st.Snapshot().Failed)
}

func TestProcessBatch_StrictVerifyFiltersNonMatches(t *testing.T) {
	client := &countingClient{bills: map[int]*legiscan.Bill{
		1: {
			BillID: 1, BillNumber: "HB 9", State: "UT",
			Session: legiscan.Session{YearStart: 2025},
			Title:   "Motor vehicle fees",
		},
	}}
	p := newTestProcessor(client, stats.New(), config.VerifyStrict)

	recs := p.ProcessBatch(context.Background(), "Clean claims", idSet(1))
	assert.Empty(t, recs)
}

func TestProcessBatch_TrustModeAcceptsNonMatches(t *testing.T) {
	client := &countingClient{bills: map[int]*legiscan.Bill{
		1: {
			BillID: 1, BillNumber: "HB 9", State: "UT",
			Session: legiscan.Session{YearStart: 2025},
			Title:   "Motor vehicle fees",
		},
	}}
	p := newTestProcessor(client, stats.New(), config.VerifyTrust)

	recs := p.ProcessBatch(context.Background(), "Clean claims", idSet(1))
	require.Len(t, recs, 1)
}

func TestProcessBatch_SharedFetcherAcrossBatches(t *testing.T) {
	client := &countingClient{bills: map[int]*legiscan.Bill{
		1: {
			BillID: 1, BillNumber: "HB 1", State: "KS",
			Session: legiscan.Session{YearStart: 2025},
			Title:   "Prompt payment of clean claims",
		},
	}}
	st := stats.New()
	fetcher := NewFetcher(client)
	p := NewProcessor(fetcher, st, ProcessorConfig{
		TargetYears:   []int{2025},
		MaxConcurrent: 2,
		Verify:        config.VerifyStrict,
	})

	// The same bill rediscovered under two keywords fetches once.
	first := p.ProcessBatch(context.Background(), "Prompt payment", idSet(1))
	second := p.ProcessBatch(context.Background(), "Clean claims", idSet(1))

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, int64(1), client.calls.Load())
}
