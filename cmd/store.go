package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/billscan/internal/resilience"
	"github.com/sells-group/billscan/internal/store"
)

// initStore opens and migrates the run-history database.
func initStore(ctx context.Context) (store.Store, error) {
	if dir := filepath.Dir(cfg.Store.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrap(err, "create store dir")
		}
	}

	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// resilienceConfig maps the retry settings into the combinator's config.
func resilienceConfig() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:  cfg.Retry.MaxAttempts,
		InitialDelay: cfg.Retry.InitialDelay(),
		Multiplier:   2.0,
	}
}
