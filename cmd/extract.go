package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/billscan/internal/bills"
	"github.com/sells-group/billscan/internal/cache"
	"github.com/sells-group/billscan/internal/config"
	"github.com/sells-group/billscan/internal/model"
	"github.com/sells-group/billscan/internal/records"
	"github.com/sells-group/billscan/internal/search"
	"github.com/sells-group/billscan/internal/stats"
	"github.com/sells-group/billscan/internal/store"
	"github.com/sells-group/billscan/pkg/legiscan"
)

var (
	extractOutput   string
	extractKeywords string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Search keywords and export matching bills",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate(); err != nil {
			return err
		}

		keywords := cfg.Search.Keywords
		if extractKeywords != "" {
			kws, err := config.LoadKeywordsFile(extractKeywords)
			if err != nil {
				return err
			}
			keywords = kws
		}

		output := cfg.Output.Path
		if extractOutput != "" {
			output = extractOutput
		}

		return runExtraction(ctx, keywords, output)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractOutput, "output", "", "output spreadsheet path (overrides config)")
	extractCmd.Flags().StringVar(&extractKeywords, "keywords", "", "YAML keyword list file (overrides config)")
	rootCmd.AddCommand(extractCmd)
}

// env bundles the wired extraction components.
type env struct {
	stats     *stats.Stats
	engine    *search.Engine
	processor *bills.Processor
	records   *records.Store
	store     store.Store // nil when disabled
}

func initEnv() (*env, error) {
	st := stats.New()

	opts := []legiscan.Option{
		legiscan.WithBaseURL(cfg.API.BaseURL),
		legiscan.WithRequestDelay(cfg.API.RequestDelay()),
		legiscan.WithStats(st),
	}
	if cfg.API.InsecureSkipTLS {
		zap.L().Warn("TLS certificate verification disabled by config")
		opts = append(opts, legiscan.WithInsecureTLS())
	}
	if cfg.Retry.MaxAttempts > 0 {
		retryCfg := resilienceConfig()
		opts = append(opts, legiscan.WithRetry(retryCfg))
	}
	client := legiscan.NewClient(cfg.API.Key, opts...)

	var resultCache *cache.Cache
	if cfg.Cache.Enabled {
		c, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL())
		if err != nil {
			return nil, err
		}
		resultCache = c
	}

	engine := search.New(client, resultCache, search.Config{
		Segments:       cfg.Search.Segments,
		MaxConcurrent:  cfg.Search.MaxConcurrentSearches,
		SegmentTimeout: time.Duration(cfg.Search.SegmentTimeoutSecs) * time.Second,
		MaxResults:     cfg.Search.MaxResultsPerKeyword,
	})

	fetcher := bills.NewFetcher(client)
	processor := bills.NewProcessor(fetcher, st, bills.ProcessorConfig{
		TargetYears:   cfg.Search.TargetYears,
		MaxConcurrent: cfg.Batch.MaxConcurrentBills,
		BillTimeout:   time.Duration(cfg.Batch.BillTimeoutSecs) * time.Second,
		Verify:        cfg.Batch.Verify,
	})

	e := &env{
		stats:     st,
		engine:    engine,
		processor: processor,
		records:   records.New(st),
	}

	if cfg.Store.Enabled {
		runStore, err := initStore(context.Background())
		if err != nil {
			// History is observational; losing it must not block extraction.
			zap.L().Warn("run store unavailable, continuing without history", zap.Error(err))
		} else {
			e.store = runStore
		}
	}

	return e, nil
}

func runExtraction(ctx context.Context, keywords []string, output string) error {
	start := time.Now()
	e, err := initEnv()
	if err != nil {
		return err
	}
	if e.store != nil {
		defer e.store.Close()
	}

	zap.L().Info("starting extraction",
		zap.Int("keywords", len(keywords)),
		zap.Ints("target_years", cfg.Search.TargetYears),
		zap.Bool("cache", cfg.Cache.Enabled),
		zap.String("verify", string(cfg.Batch.Verify)),
	)

	var run *model.Run
	if e.store != nil {
		r, err := e.store.CreateRun(ctx, keywords)
		if err != nil {
			zap.L().Warn("create run record failed", zap.Error(err))
		} else {
			run = r
		}
	}

	perKeyword := make(map[string]int, len(keywords))
	for i, keyword := range keywords {
		if ctx.Err() != nil {
			zap.L().Warn("extraction interrupted, exporting partial results")
			break
		}

		fmt.Fprintf(os.Stderr, "[%d/%d] Processing: %q\n", i+1, len(keywords), keyword)

		count, err := e.processKeyword(ctx, keyword)
		if err != nil {
			// One keyword's failure never stops the rest.
			zap.L().Error("keyword processing failed", zap.String("keyword", keyword), zap.Error(err))
		}
		perKeyword[keyword] = count
	}

	// Best-effort export: partial success beats all-or-nothing.
	e.records.Dedupe()
	exportErr := e.records.ExportXLSX(output)
	if exportErr != nil && !errors.Is(exportErr, records.ErrNoRecords) {
		zap.L().Error("export failed", zap.Error(exportErr))
	}

	reportSummary(e, keywords, perKeyword, output, time.Since(start))

	if e.store != nil && run != nil {
		snap := e.stats.Snapshot()
		status := model.RunStatusComplete
		if exportErr != nil && !errors.Is(exportErr, records.ErrNoRecords) {
			status = model.RunStatusFailed
		}
		finishErr := e.store.FinishRun(ctx, run.ID, status, store.RunResult{
			BillsFound:        e.records.Len(),
			DuplicatesRemoved: int(snap.DuplicatesRemoved),
			APIRequests:       int(snap.TotalRequests),
			FailedRequests:    int(snap.FailedRequests),
			OutputPath:        output,
		})
		if finishErr != nil {
			zap.L().Warn("finish run record failed", zap.Error(finishErr))
		}
	}

	if exportErr != nil && !errors.Is(exportErr, records.ErrNoRecords) {
		return eris.Wrap(exportErr, "export")
	}
	return nil
}

// processKeyword runs the comprehensive search for one keyword and batches
// the unique hits through the processor. Returns how many records were added.
func (e *env) processKeyword(ctx context.Context, keyword string) (int, error) {
	hits, err := e.engine.Comprehensive(ctx, keyword)
	if err != nil {
		return 0, err
	}
	if len(hits) == 0 {
		zap.L().Warn("no results for keyword", zap.String("keyword", keyword))
		return 0, nil
	}

	// Authoritative same-run dedup point: a bill rediscovered by several
	// segments or spellings is fetched once.
	ids := make([]int, 0, len(hits))
	seen := make(map[int]struct{}, len(hits))
	for _, h := range hits {
		if h.BillID == 0 {
			continue
		}
		if _, ok := seen[h.BillID]; ok {
			continue
		}
		seen[h.BillID] = struct{}{}
		ids = append(ids, h.BillID)
	}

	zap.L().Info("processing unique bills",
		zap.String("keyword", keyword),
		zap.Int("unique", len(ids)),
		zap.Int("raw_hits", len(hits)),
	)

	added := 0
	batchSize := cfg.Batch.Size
	if batchSize <= 0 {
		batchSize = 20
	}

	for i := 0; i < len(ids); i += batchSize {
		if ctx.Err() != nil {
			break
		}

		end := min(i+batchSize, len(ids))
		batch := make(map[int]struct{}, end-i)
		for _, id := range ids[i:end] {
			batch[id] = struct{}{}
		}

		recs := e.processor.ProcessBatch(ctx, keyword, batch)
		for _, rec := range recs {
			e.records.Add(rec)
		}
		added += len(recs)
	}

	zap.L().Info("keyword complete", zap.String("keyword", keyword), zap.Int("bills", added))
	return added, nil
}

func reportSummary(e *env, keywords []string, perKeyword map[string]int, output string, elapsed time.Duration) {
	snap := e.stats.Snapshot()

	fmt.Fprintln(os.Stderr, "Extraction complete")
	fmt.Fprintf(os.Stderr, "  %s\n", e.records.Summary())
	fmt.Fprintf(os.Stderr, "  Elapsed: %s\n", elapsed.Round(time.Second))
	fmt.Fprintf(os.Stderr, "  API requests: %d (%.1f%% success)\n", snap.TotalRequests, snap.RequestSuccessRate())
	fmt.Fprintf(os.Stderr, "  Bills processed: %d ok, %d failed\n", snap.Successful, snap.Failed)
	fmt.Fprintf(os.Stderr, "  Duplicates removed: %d\n", snap.DuplicatesRemoved)
	fmt.Fprintln(os.Stderr, "  Keyword breakdown:")
	for _, kw := range keywords {
		fmt.Fprintf(os.Stderr, "    %s: %d bills\n", kw, perKeyword[kw])
	}
	fmt.Fprintf(os.Stderr, "  Output: %s\n", output)

	zap.L().Info("extraction finished",
		zap.Duration("elapsed", elapsed),
		zap.Int64("api_requests", snap.TotalRequests),
		zap.Int64("failed_requests", snap.FailedRequests),
		zap.Int64("successful", snap.Successful),
		zap.Int64("failed", snap.Failed),
		zap.Int64("duplicates_removed", snap.DuplicatesRemoved),
	)
}
