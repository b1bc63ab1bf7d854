// Package legiscan is a rate-limited client for the LegiScan API.
//
// Every call injects the API key and operation name, retries transient
// failures with exponential backoff, and spaces requests to respect the
// upstream rate limit.
package legiscan

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/billscan/internal/resilience"
	"github.com/sells-group/billscan/internal/stats"
)

const defaultBaseURL = "https://api.legiscan.com/"

// StateAll searches every jurisdiction.
const StateAll = "ALL"

// YearRecent is the LegiScan year selector for recent sessions.
const YearRecent = 2

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithInsecureTLS disables certificate verification. Some deployment hosts
// carry a broken trust chain; this is an explicit opt-in, never the default.
func WithInsecureTLS() Option {
	return func(c *Client) {
		c.http = &http.Client{
			Timeout: c.http.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSClientConfig:     &tls.Config{InsecureSkipVerify: true},
			},
		}
	}
}

// WithRequestDelay sets the minimum spacing between successive API requests.
func WithRequestDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithRetry overrides the default retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithStats wires the shared counters incremented on every request.
func WithStats(st *stats.Stats) Option {
	return func(c *Client) {
		c.stats = st
	}
}

// Client calls the LegiScan API.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	stats   *stats.Stats
}

// NewClient creates a LegiScan API client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Every(250*time.Millisecond), 1),
		retry:   resilience.DefaultRetryConfig(),
		stats:   stats.New(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// request performs one API operation with retry and rate limiting, returning
// the raw response body. The final failure is surfaced to the caller after
// incrementing the failure counter; it is never swallowed.
func (c *Client) request(ctx context.Context, op string, params url.Values) (json.RawMessage, error) {
	retryCfg := c.retry
	if retryCfg.OnRetry == nil {
		retryCfg.OnRetry = resilience.RetryLogger(op)
	}

	body, err := resilience.Retry(ctx, retryCfg, func(ctx context.Context) (json.RawMessage, error) {
		return c.do(ctx, op, params)
	})
	if err != nil {
		c.stats.FailedRequests.Add(1)
		return nil, eris.Wrapf(err, "legiscan: %s", op)
	}

	c.stats.TotalRequests.Add(1)
	return body, nil
}

func (c *Client) do(ctx context.Context, op string, params url.Values) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("key", c.apiKey)
	q.Set("op", op)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Transport errors are retryable; the classifier catches timeouts
		// and resets, wrap the rest explicitly.
		return nil, resilience.NewTransientError(err, 0)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(err, resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	return body, nil
}

// apiError renders a non-OK envelope as an error.
func apiError(op string, env envelope) error {
	if env.Alert != nil && env.Alert.Message != "" {
		return eris.Errorf("legiscan: %s: status %q: %s", op, env.Status, env.Alert.Message)
	}
	return eris.Errorf("legiscan: %s: status %q", op, env.Status)
}

// SearchRaw executes a getSearchRaw query. state is a postal abbreviation or
// StateAll; year follows LegiScan's selector semantics (a calendar year, or
// YearRecent for recent sessions).
func (c *Client) SearchRaw(ctx context.Context, state, query string, year int) (*SearchResult, error) {
	params := url.Values{}
	params.Set("state", state)
	params.Set("query", query)
	params.Set("year", strconv.Itoa(year))

	body, err := c.request(ctx, "getSearchRaw", params)
	if err != nil {
		return nil, err
	}

	var resp searchRawResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "legiscan: getSearchRaw: unmarshal")
	}
	if resp.Status != "OK" {
		return nil, apiError("getSearchRaw", resp.envelope)
	}

	return &resp.SearchResult, nil
}

// GetBill fetches the full detail record for one bill.
func (c *Client) GetBill(ctx context.Context, billID int) (*Bill, error) {
	params := url.Values{}
	params.Set("id", strconv.Itoa(billID))

	body, err := c.request(ctx, "getBill", params)
	if err != nil {
		return nil, err
	}

	var resp billResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "legiscan: getBill: unmarshal")
	}
	if resp.Status != "OK" {
		return nil, apiError("getBill", resp.envelope)
	}

	return &resp.Bill, nil
}

// GetSessionList returns every session LegiScan tracks.
func (c *Client) GetSessionList(ctx context.Context) ([]Session, error) {
	body, err := c.request(ctx, "getSessionList", url.Values{})
	if err != nil {
		return nil, err
	}

	var resp sessionListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "legiscan: getSessionList: unmarshal")
	}
	if resp.Status != "OK" {
		return nil, apiError("getSessionList", resp.envelope)
	}

	return resp.Sessions, nil
}

// SessionsForYear filters the session list to sessions spanning the given year.
func (c *Client) SessionsForYear(ctx context.Context, year int) ([]Session, error) {
	sessions, err := c.GetSessionList(ctx)
	if err != nil {
		return nil, err
	}

	var out []Session
	for _, s := range sessions {
		if s.YearStart == year || s.YearEnd == year {
			out = append(out, s)
		}
	}
	return out, nil
}
