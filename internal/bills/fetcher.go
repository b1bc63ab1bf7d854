// Package bills resolves search hits into full bill details and normalizes
// them into export records.
package bills

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/billscan/pkg/legiscan"
)

// Client is the slice of the LegiScan client the fetcher needs.
type Client interface {
	GetBill(ctx context.Context, billID int) (*legiscan.Bill, error)
}

// Fetcher resolves bill ids to details with a process-lifetime memo.
// Successful and failed lookups are both memoized, so each id hits the
// upstream API at most once per run, even across concurrent batches.
type Fetcher struct {
	client Client

	mu   sync.Mutex
	memo map[int]*memoEntry
}

// memoEntry latches the first fetch for an id; concurrent callers wait on
// the same once instead of issuing their own request.
type memoEntry struct {
	once sync.Once
	bill *legiscan.Bill
	err  error
}

// NewFetcher creates a Fetcher around client.
func NewFetcher(client Client) *Fetcher {
	return &Fetcher{client: client, memo: make(map[int]*memoEntry)}
}

// Details returns the full bill record for billID. A zero id short-circuits
// with a warning and no API call.
func (f *Fetcher) Details(ctx context.Context, billID int) (*legiscan.Bill, error) {
	if billID == 0 {
		zap.L().Warn("empty bill id passed to detail fetch")
		return nil, nil
	}

	f.mu.Lock()
	entry, ok := f.memo[billID]
	if !ok {
		entry = &memoEntry{}
		f.memo[billID] = entry
	}
	f.mu.Unlock()

	entry.once.Do(func() {
		entry.bill, entry.err = f.client.GetBill(ctx, billID)
	})

	return entry.bill, entry.err
}
