// Package search executes keyword searches against LegiScan, either as a
// single direct query or sharded across temporal segments for coverage.
package search

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/billscan/internal/cache"
	"github.com/sells-group/billscan/internal/config"
	"github.com/sells-group/billscan/pkg/legiscan"
)

// Client is the slice of the LegiScan client the engine needs.
type Client interface {
	SearchRaw(ctx context.Context, state, query string, year int) (*legiscan.SearchResult, error)
}

// Config tunes the engine.
type Config struct {
	// Segments are the temporal shards searched by Comprehensive.
	Segments []config.TimeSegment
	// MaxConcurrent bounds the segment worker pool.
	MaxConcurrent int
	// SegmentTimeout caps a single segment search so one hung segment
	// cannot stall the whole keyword.
	SegmentTimeout time.Duration
	// MaxResults caps direct-search hits per keyword; 0 means unbounded.
	MaxResults int
	// Year is the LegiScan year selector used for segment searches.
	Year int
}

// Engine runs keyword searches with optional result caching.
type Engine struct {
	client Client
	cache  *cache.Cache // nil disables caching
	cfg    Config
}

// New creates an Engine. Pass a nil cache to disable caching.
func New(client Client, c *cache.Cache, cfg Config) *Engine {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 3
	}
	if cfg.Year == 0 {
		cfg.Year = legiscan.YearRecent
	}
	return &Engine{client: client, cache: c, cfg: cfg}
}

// Search runs a single direct query for keyword, consulting the cache first
// and capping hits at MaxResults.
func (e *Engine) Search(ctx context.Context, keyword, state string, year int) (*legiscan.SearchResult, error) {
	var key string
	if e.cache != nil {
		key = e.cache.Key(keyword, strconv.Itoa(year))
		if e.cache.Valid(key) {
			var cached legiscan.SearchResult
			if e.cache.Load(key, &cached) {
				zap.L().Info("using cached search results", zap.String("keyword", keyword))
				return &cached, nil
			}
		}
	}

	result, err := e.client.SearchRaw(ctx, state, keyword, year)
	if err != nil {
		return nil, err
	}

	if e.cfg.MaxResults > 0 && len(result.Results) > e.cfg.MaxResults {
		result.Results = result.Results[:e.cfg.MaxResults]
	}

	if e.cache != nil {
		e.cache.Save(key, result)
	}
	return result, nil
}

// Comprehensive searches keyword across every configured time segment
// concurrently and returns the merged hits, deduplicated by bill id.
// Segmentation exists because the upstream search scopes results at a
// coarser year granularity than full coverage needs.
//
// A failed or timed-out segment contributes nothing; it never aborts the
// other segments. Duplicate hits resolve last-write-wins, which is safe
// because payloads for the same bill id are equivalent.
func (e *Engine) Comprehensive(ctx context.Context, keyword string) ([]legiscan.SearchHit, error) {
	var key string
	if e.cache != nil {
		key = e.cache.Key(keyword, cache.TemporalSegment)
		if e.cache.Valid(key) {
			var cached []legiscan.SearchHit
			if e.cache.Load(key, &cached) {
				zap.L().Info("using cached temporal results",
					zap.String("keyword", keyword),
					zap.Int("hits", len(cached)),
				)
				return cached, nil
			}
		}
	}

	zap.L().Info("starting comprehensive temporal search", zap.String("keyword", keyword))

	var mu sync.Mutex
	var all []legiscan.SearchHit

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.MaxConcurrent)

	for _, seg := range e.cfg.Segments {
		seg := seg
		g.Go(func() error {
			hits, err := e.searchSegment(gctx, keyword, seg)
			if err != nil {
				zap.L().Error("segment search failed",
					zap.String("keyword", keyword),
					zap.String("segment", seg.Label),
					zap.Error(err),
				)
				return nil // empty result for this segment, keep going
			}

			zap.L().Info("segment searched",
				zap.String("keyword", keyword),
				zap.String("segment", seg.Label),
				zap.Int("hits", len(hits)),
			)

			mu.Lock()
			all = append(all, hits...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	merged := dedupeByBillID(all)

	if e.cache != nil {
		e.cache.Save(key, merged)
	}
	return merged, nil
}

func (e *Engine) searchSegment(ctx context.Context, keyword string, seg config.TimeSegment) ([]legiscan.SearchHit, error) {
	if e.cfg.SegmentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.SegmentTimeout)
		defer cancel()
	}

	result, err := e.client.SearchRaw(ctx, legiscan.StateAll, keyword, e.cfg.Year)
	if err != nil {
		return nil, err
	}
	return result.Results, nil
}

// dedupeByBillID collapses hits sharing a bill id, keeping the last seen.
// Hits without an id are dropped.
func dedupeByBillID(hits []legiscan.SearchHit) []legiscan.SearchHit {
	byID := make(map[int]legiscan.SearchHit, len(hits))
	for _, h := range hits {
		if h.BillID == 0 {
			continue
		}
		byID[h.BillID] = h
	}

	out := make([]legiscan.SearchHit, 0, len(byID))
	for _, h := range byID {
		out = append(out, h)
	}
	return out
}
