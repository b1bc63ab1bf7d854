package bills

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/billscan/internal/config"
	"github.com/sells-group/billscan/internal/model"
	"github.com/sells-group/billscan/internal/stats"
)

// ProcessorConfig tunes batch processing.
type ProcessorConfig struct {
	// TargetYears limits output to bills whose session starts in one of
	// these years.
	TargetYears []int
	// MaxConcurrent bounds the bill worker pool.
	MaxConcurrent int
	// BillTimeout caps fetch+normalize for one bill so a hung worker
	// cannot stall the batch.
	BillTimeout time.Duration
	// Verify selects strict keyword re-verification or trusting the
	// upstream search.
	Verify config.VerifyMode
}

// Processor fetches and normalizes batches of bills concurrently.
type Processor struct {
	fetcher *Fetcher
	stats   *stats.Stats
	cfg     ProcessorConfig
	years   map[int]bool
}

// NewProcessor creates a Processor.
func NewProcessor(fetcher *Fetcher, st *stats.Stats, cfg ProcessorConfig) *Processor {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 5
	}
	years := make(map[int]bool, len(cfg.TargetYears))
	for _, y := range cfg.TargetYears {
		years[y] = true
	}
	return &Processor{fetcher: fetcher, stats: st, cfg: cfg, years: years}
}

// ProcessBatch fetches and normalizes the given bill ids. The input is a set:
// the caller deduplicates re-discoveries of the same bill across keyword
// searches before dispatch. Output order is unspecified; downstream dedup
// keys on (state, bill number), not position.
//
// A single bill's failure or timeout is logged and skipped, never aborting
// the batch.
func (p *Processor) ProcessBatch(ctx context.Context, keyword string, ids map[int]struct{}) []model.NormalizedRecord {
	var mu sync.Mutex
	var records []model.NormalizedRecord

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.MaxConcurrent)

	for id := range ids {
		id := id
		g.Go(func() error {
			rec, err := p.processOne(gctx, keyword, id)
			p.stats.TotalProcessed.Add(1)
			if err != nil {
				p.stats.Failed.Add(1)
				zap.L().Error("bill processing failed", zap.Int("bill_id", id), zap.Error(err))
				return nil // keep the batch going
			}
			if rec == nil {
				return nil // filtered out, not a failure
			}

			p.stats.Successful.Add(1)
			mu.Lock()
			records = append(records, *rec)
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait() // workers never return errors

	return records
}

// processOne runs the per-bill pipeline: fetch, year filter, keyword
// verification, normalize. A nil record with nil error means the bill was
// filtered, not failed.
func (p *Processor) processOne(ctx context.Context, keyword string, id int) (*model.NormalizedRecord, error) {
	if p.cfg.BillTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.BillTimeout)
		defer cancel()
	}

	bill, err := p.fetcher.Details(ctx, id)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, nil
	}

	if !p.years[bill.Session.YearStart] {
		zap.L().Debug("bill outside target years",
			zap.Int("bill_id", id),
			zap.Int("year", bill.Session.YearStart),
		)
		return nil, nil
	}

	if p.cfg.Verify == config.VerifyStrict && keyword != "" && !MatchesKeyword(bill, keyword) {
		zap.L().Debug("keyword not verified in bill text",
			zap.Int("bill_id", id),
			zap.String("keyword", keyword),
			zap.String("bill_number", bill.BillNumber),
		)
		return nil, nil
	}

	rec := Normalize(bill, time.Now())
	return &rec, nil
}
