package legiscan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/billscan/internal/resilience"
	"github.com/sells-group/billscan/internal/stats"
)

func fastRetry(attempts int) resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
	}
}

func testClient(t *testing.T, handler http.HandlerFunc, st *stats.Stats) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient("test-key",
		WithBaseURL(srv.URL+"/"),
		WithRequestDelay(time.Millisecond),
		WithRetry(fastRetry(3)),
		WithStats(st),
	)
}

func TestClient_SearchRaw_InjectsKeyAndOp(t *testing.T) {
	var gotQuery atomic.Value
	st := stats.New()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		w.Write([]byte(`{"status":"OK","searchresult":{"summary":{"count":1},"results":[{"bill_id":101,"state":"CA","bill_number":"AB 512"}]}}`))
	}, st)

	result, err := c.SearchRaw(context.Background(), StateAll, "Prior authorization", YearRecent)
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, 101, result.Results[0].BillID)
	assert.Equal(t, "CA", result.Results[0].State)

	q := gotQuery.Load().(url.Values)
	assert.Equal(t, "test-key", q.Get("key"))
	assert.Equal(t, "getSearchRaw", q.Get("op"))
	assert.Equal(t, "ALL", q.Get("state"))
	assert.Equal(t, "Prior authorization", q.Get("query"))
	assert.Equal(t, "2", q.Get("year"))

	assert.Equal(t, int64(1), st.Snapshot().TotalRequests)
}

func TestClient_RetriesTransientStatusThenSucceeds(t *testing.T) {
	var calls atomic.Int64
	st := stats.New()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"OK","bill":{"bill_id":202,"bill_number":"SB 7","state":"TX","status":1,"session":{"year_start":2025,"year_end":2026}}}`))
	}, st)

	bill, err := c.GetBill(context.Background(), 202)
	require.NoError(t, err)
	assert.Equal(t, "SB 7", bill.BillNumber)
	assert.Equal(t, 2025, bill.Session.YearStart)
	assert.Equal(t, int64(3), calls.Load())

	snap := st.Snapshot()
	assert.Equal(t, int64(1), snap.TotalRequests)
	assert.Equal(t, int64(0), snap.FailedRequests)
}

func TestClient_ExhaustedRetriesCountFailure(t *testing.T) {
	var calls atomic.Int64
	st := stats.New()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, st)

	_, err := c.GetBill(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, int64(3), calls.Load())

	snap := st.Snapshot()
	assert.Equal(t, int64(0), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.FailedRequests)
}

func TestClient_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int64

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}, stats.New())

	_, err := c.GetBill(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, int64(1), calls.Load())
}

func TestClient_NonOKStatusIsError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ERROR","alert":{"message":"invalid key"}}`))
	}, stats.New())

	_, err := c.SearchRaw(context.Background(), StateAll, "x", YearRecent)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid key")
}

func TestClient_SessionsForYear(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "getSessionList", r.URL.Query().Get("op"))
		w.Write([]byte(`{"status":"OK","sessions":[
			{"session_id":1,"year_start":2025,"year_end":2026,"session_name":"2025 Regular Session"},
			{"session_id":2,"year_start":2023,"year_end":2024,"session_name":"2023 Regular Session"}
		]}`))
	}, stats.New())

	sessions, err := c.SessionsForYear(context.Background(), 2025)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "2025 Regular Session", sessions[0].SessionName)
}

func TestClient_RequestSpacing(t *testing.T) {
	var calls atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"status":"OK","sessions":[]}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient("k",
		WithBaseURL(srv.URL+"/"),
		WithRequestDelay(30*time.Millisecond),
	)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.GetSessionList(context.Background())
		require.NoError(t, err)
	}
	// First request is immediate; the next two wait out the spacing.
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
	assert.Equal(t, int64(3), calls.Load())
}
