package ingestion

import (
	"context"
	"fmt"
	"log"
	"time"

	"maxpain-lab/internal/observability"
	"maxpain-lab/internal/storage"
)

// WatchItem is one (stock, expiries) entry of the collection watch list.
type WatchItem struct {
	StockCode string
	Expiries  []string // "YYYY-MM-DD"
}

// Runner orchestrates scheduled snapshot collection.
type Runner struct {
	chainSource      ChainSource
	quoteSource      QuoteSource
	stockQuoteSource StockQuoteSource // optional; clock time is used without it
	rowStore         storage.OptionRowStore
	clock            *MarketClock
	watchList        []WatchItem
	interval         time.Duration
	retentionDays    int // 0 disables cleanup
	metrics          *observability.Metrics
	logger           *log.Logger

	now func() time.Time // injectable for tests
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	ChainSource      ChainSource
	QuoteSource      QuoteSource
	StockQuoteSource StockQuoteSource
	RowStore         storage.OptionRowStore
	Clock            *MarketClock
	WatchList        []WatchItem
	Interval         time.Duration // Default: 15 minutes
	RetentionDays    int
	Metrics          *observability.Metrics // nil disables instrumentation
	Logger           *log.Logger
	Now              func() time.Time
}

// NewRunner creates a new collection runner.
func NewRunner(opts RunnerOptions) *Runner {
	interval := opts.Interval
	if interval == 0 {
		interval = 15 * time.Minute
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Runner{
		chainSource:      opts.ChainSource,
		quoteSource:      opts.QuoteSource,
		stockQuoteSource: opts.StockQuoteSource,
		rowStore:         opts.RowStore,
		clock:            opts.Clock,
		watchList:        opts.WatchList,
		interval:         interval,
		retentionDays:    opts.RetentionDays,
		metrics:          opts.Metrics,
		logger:           logger,
		now:              now,
	}
}

// Run starts scheduled collection. It collects once immediately (if the
// market is open), then on every interval tick. Blocks until context is
// cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Printf("Starting collection runner: %d stocks, interval %s",
		len(r.watchList), r.interval)

	r.tick(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Println("Collection runner stopped")
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// tick runs one scheduled pass: a snapshot if the market is open, then
// retention cleanup.
func (r *Runner) tick(ctx context.Context) {
	now := r.now()
	if !r.clock.IsOpen(now) {
		r.logger.Println("Market closed, skipping collection")
		return
	}

	if err := r.CollectOnce(ctx); err != nil {
		r.logger.Printf("Collection pass failed: %v", err)
	}

	if r.retentionDays > 0 {
		if err := r.cleanup(ctx, now); err != nil {
			r.logger.Printf("Retention cleanup failed: %v", err)
		}
	}
}

// CollectOnce collects one snapshot for every watch list entry. A failed
// (stock, expiry) is logged and skipped; the pass continues. Returns an
// error only when every entry failed.
func (r *Runner) CollectOnce(ctx context.Context) error {
	updateTime := r.clock.SnapshotTime(r.now())
	collected, failed := 0, 0

	for _, item := range r.watchList {
		// Prefer the exchange's quote time over the local clock so rows from
		// one pass share a single update_time per stock.
		stockTime := updateTime
		if r.stockQuoteSource != nil {
			quote, err := r.stockQuoteSource.Fetch(ctx, item.StockCode)
			if err != nil {
				r.logger.Printf("Stock quote %s failed, using local time: %v", item.StockCode, err)
				r.countError("stock_quote")
			} else if quote.Time != "" {
				stockTime = quote.Time
			}
		}

		for _, expiry := range item.Expiries {
			n, err := r.collectSnapshot(ctx, item.StockCode, expiry, stockTime)
			if err != nil {
				failed++
				r.logger.Printf("Snapshot %s/%s failed: %v", item.StockCode, expiry, err)
				continue
			}
			collected++
			r.logger.Printf("Collected snapshot %s/%s at %s: %d rows",
				item.StockCode, expiry, stockTime, n)
		}
	}

	if r.metrics != nil && collected > 0 {
		r.metrics.LastSuccessfulSnapshot.SetToCurrentTime()
	}
	if collected == 0 && failed > 0 {
		return fmt.Errorf("all %d snapshots failed", failed)
	}
	return nil
}

// collectSnapshot fetches chain + quotes for one (stock, expiry) and stores
// the assembled rows. Returns the number of rows stored.
func (r *Runner) collectSnapshot(ctx context.Context, stockCode, expiry, updateTime string) (int, error) {
	chain, err := r.chainSource.Fetch(ctx, stockCode, expiry)
	if err != nil {
		r.countError("chain")
		return 0, fmt.Errorf("fetch chain: %w", err)
	}
	if len(chain.Entries) == 0 {
		return 0, nil
	}

	symbols := make([]string, len(chain.Entries))
	for i, e := range chain.Entries {
		symbols[i] = e.Symbol
	}
	quotes, err := r.quoteSource.Fetch(ctx, symbols)
	if err != nil {
		r.countError("quotes")
		return 0, fmt.Errorf("fetch quotes: %w", err)
	}

	rows := AssembleRows(chain, quotes, updateTime)
	if len(rows) == 0 {
		return 0, nil
	}

	if err := r.rowStore.InsertBulk(ctx, rows); err != nil {
		r.countError("store")
		return 0, fmt.Errorf("store rows: %w", err)
	}

	if r.metrics != nil {
		r.metrics.SnapshotsCollected.Inc()
		r.metrics.RowsIngested.Add(float64(len(rows)))
	}
	return len(rows), nil
}

// cleanup deletes rows older than the retention window.
func (r *Runner) cleanup(ctx context.Context, now time.Time) error {
	cutoff := r.clock.SnapshotTime(now.AddDate(0, 0, -r.retentionDays))
	deleted, err := r.rowStore.DeleteBefore(ctx, cutoff)
	if err != nil {
		r.countError("cleanup")
		return err
	}
	if deleted > 0 {
		r.logger.Printf("Retention cleanup: deleted %d rows before %s", deleted, cutoff)
	}
	return nil
}

func (r *Runner) countError(stage string) {
	if r.metrics != nil {
		r.metrics.CollectionErrors.WithLabelValues(stage).Inc()
	}
}
