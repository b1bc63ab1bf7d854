package search

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/billscan/internal/cache"
	"github.com/sells-group/billscan/internal/config"
	"github.com/sells-group/billscan/pkg/legiscan"
)

// fakeClient serves canned segment responses in call order.
type fakeClient struct {
	calls     atomic.Int64
	responses []func() (*legiscan.SearchResult, error)
}

func (f *fakeClient) SearchRaw(ctx context.Context, state, query string, year int) (*legiscan.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := int(f.calls.Add(1)) - 1
	if n >= len(f.responses) {
		return &legiscan.SearchResult{}, nil
	}
	return f.responses[n]()
}

func hits(ids ...int) func() (*legiscan.SearchResult, error) {
	return func() (*legiscan.SearchResult, error) {
		out := make([]legiscan.SearchHit, len(ids))
		for i, id := range ids {
			out[i] = legiscan.SearchHit{BillID: id, State: "CA"}
		}
		return &legiscan.SearchResult{Results: out}, nil
	}
}

func segments(n int) []config.TimeSegment {
	out := make([]config.TimeSegment, n)
	for i := range out {
		out[i] = config.TimeSegment{Label: string(rune('A' + i))}
	}
	return out
}

func TestComprehensive_DeduplicatesAcrossSegments(t *testing.T) {
	// Two segments return 101,102 and 101: exactly two unique hits survive.
	client := &fakeClient{responses: []func() (*legiscan.SearchResult, error){
		hits(101, 102),
		hits(101),
	}}
	// Serial execution keeps response order aligned with segments.
	e := New(client, nil, Config{Segments: segments(2), MaxConcurrent: 1})

	got, err := e.Comprehensive(context.Background(), "Prior authorization")
	require.NoError(t, err)
	require.Len(t, got, 2)

	ids := map[int]bool{}
	for _, h := range got {
		ids[h.BillID] = true
	}
	assert.True(t, ids[101])
	assert.True(t, ids[102])
}

func TestComprehensive_SegmentFailureDoesNotAbort(t *testing.T) {
	client := &fakeClient{responses: []func() (*legiscan.SearchResult, error){
		hits(1, 2),
		func() (*legiscan.SearchResult, error) { return nil, errors.New("segment exploded") },
		hits(3),
	}}
	e := New(client, nil, Config{Segments: segments(3), MaxConcurrent: 1})

	got, err := e.Comprehensive(context.Background(), "Utilization review")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestComprehensive_DropsHitsWithoutID(t *testing.T) {
	client := &fakeClient{responses: []func() (*legiscan.SearchResult, error){
		hits(0, 7),
	}}
	e := New(client, nil, Config{Segments: segments(1)})

	got, err := e.Comprehensive(context.Background(), "Clean claims")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].BillID)
}

func TestComprehensive_UsesCacheOnSecondCall(t *testing.T) {
	c, err := cache.New(t.TempDir(), time.Hour)
	require.NoError(t, err)

	client := &fakeClient{responses: []func() (*legiscan.SearchResult, error){
		hits(11), hits(12),
	}}
	e := New(client, c, Config{Segments: segments(2), MaxConcurrent: 1})

	first, err := e.Comprehensive(context.Background(), "Prompt pay")
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Equal(t, int64(2), client.calls.Load())

	second, err := e.Comprehensive(context.Background(), "Prompt pay")
	require.NoError(t, err)
	assert.ElementsMatch(t, first, second)
	assert.Equal(t, int64(2), client.calls.Load(), "cached call must not hit the API")
}

func TestSearch_DirectCapsResults(t *testing.T) {
	client := &fakeClient{responses: []func() (*legiscan.SearchResult, error){
		hits(1, 2, 3, 4, 5),
	}}
	e := New(client, nil, Config{Segments: segments(1), MaxResults: 2})

	result, err := e.Search(context.Background(), "Artificial intelligence", legiscan.StateAll, 2025)
	require.NoError(t, err)
	assert.Len(t, result.Results, 2)
}

func TestSearch_DirectCachesPerYear(t *testing.T) {
	c, err := cache.New(t.TempDir(), time.Hour)
	require.NoError(t, err)

	client := &fakeClient{responses: []func() (*legiscan.SearchResult, error){
		hits(1), hits(2),
	}}
	e := New(client, c, Config{Segments: segments(1)})

	r2025, err := e.Search(context.Background(), "Prompt pay", legiscan.StateAll, 2025)
	require.NoError(t, err)

	// Same keyword, different year: distinct cache identity, new API call.
	r2026, err := e.Search(context.Background(), "Prompt pay", legiscan.StateAll, 2026)
	require.NoError(t, err)
	assert.NotEqual(t, r2025.Results[0].BillID, r2026.Results[0].BillID)

	again, err := e.Search(context.Background(), "Prompt pay", legiscan.StateAll, 2025)
	require.NoError(t, err)
	assert.Equal(t, r2025.Results[0].BillID, again.Results[0].BillID)
	assert.Equal(t, int64(2), client.calls.Load())
}
