package ingestion

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maxpain-lab/internal/ingestion/stub"
	"maxpain-lab/internal/provider"
	"maxpain-lab/internal/storage/memory"
)

func testChain() *provider.OptionChain {
	return &provider.OptionChain{
		StockCode: "TSLA",
		Expiry:    "2026-09-18",
		Entries: []provider.ChainEntry{
			{Symbol: "P500", Type: "put", Strike: 500},
			{Symbol: "P600", Type: "put", Strike: 600},
			{Symbol: "C550", Type: "call", Strike: 550},
		},
	}
}

func testQuotes() []provider.OptionQuote {
	return []provider.OptionQuote{
		{Symbol: "P500", Volume: int64Ptr(10), OpenInterest: int64Ptr(1000)},
		{Symbol: "P600", Volume: int64Ptr(20), OpenInterest: int64Ptr(500)},
		{Symbol: "C550", Volume: int64Ptr(30), OpenInterest: int64Ptr(2000)},
	}
}

// openMarket is a Wednesday 15:45 ET.
func openMarket() time.Time {
	loc, _ := time.LoadLocation("America/New_York")
	return time.Date(2026, 8, 26, 15, 45, 0, 0, loc)
}

// closedMarket is a Saturday.
func closedMarket() time.Time {
	loc, _ := time.LoadLocation("America/New_York")
	return time.Date(2026, 8, 29, 12, 0, 0, 0, loc)
}

func newTestRunner(t *testing.T, opts RunnerOptions) (*Runner, *memory.OptionRowStore) {
	t.Helper()

	store := memory.NewOptionRowStore()
	clock, err := NewMarketClock()
	require.NoError(t, err)

	opts.RowStore = store
	opts.Clock = clock
	opts.Logger = log.New(io.Discard, "", 0)
	if opts.Now == nil {
		opts.Now = openMarket
	}
	return NewRunner(opts), store
}

func TestCollectOnce_StoresAssembledSnapshot(t *testing.T) {
	runner, store := newTestRunner(t, RunnerOptions{
		ChainSource: stub.NewStubChainSource([]*provider.OptionChain{testChain()}),
		QuoteSource: stub.NewStubQuoteSource(testQuotes()),
		StockQuoteSource: stub.NewStubStockQuoteSource([]*provider.StockQuote{
			{StockCode: "TSLA", LastPrice: 545.10, Time: "2026-08-26 15:45:00"},
		}),
		WatchList: []WatchItem{{StockCode: "TSLA", Expiries: []string{"2026-09-18"}}},
	})

	err := runner.CollectOnce(context.Background())
	require.NoError(t, err)

	rows, err := store.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	for _, r := range rows {
		// Rows are stamped with the exchange's quote time, not the local clock.
		assert.Equal(t, "2026-08-26 15:45:00", r.UpdateTime)
		assert.Equal(t, "TSLA", r.StockCode)
		assert.Equal(t, "2026-09-18", r.Expiry)
	}
	assert.Equal(t, int64(10), rows[0].Volume)
}

func TestCollectOnce_FallsBackToClockWithoutStockQuote(t *testing.T) {
	runner, store := newTestRunner(t, RunnerOptions{
		ChainSource: stub.NewStubChainSource([]*provider.OptionChain{testChain()}),
		QuoteSource: stub.NewStubQuoteSource(testQuotes()),
		WatchList:   []WatchItem{{StockCode: "TSLA", Expiries: []string{"2026-09-18"}}},
	})

	err := runner.CollectOnce(context.Background())
	require.NoError(t, err)

	rows, err := store.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2026-08-26 15:45:00", rows[0].UpdateTime)
}

func TestCollectOnce_PartialFailureContinues(t *testing.T) {
	// The stub has no chain for the second expiry; the first still collects.
	runner, store := newTestRunner(t, RunnerOptions{
		ChainSource: stub.NewStubChainSource([]*provider.OptionChain{testChain()}),
		QuoteSource: stub.NewStubQuoteSource(testQuotes()),
		WatchList: []WatchItem{
			{StockCode: "TSLA", Expiries: []string{"2026-09-18", "2026-10-16"}},
		},
	})

	err := runner.CollectOnce(context.Background())
	require.NoError(t, err)

	count, err := store.CountRows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestCollectOnce_AllFailuresReported(t *testing.T) {
	runner, _ := newTestRunner(t, RunnerOptions{
		ChainSource: stub.NewStubChainSource(nil),
		QuoteSource: stub.NewStubQuoteSource(nil),
		WatchList:   []WatchItem{{StockCode: "TSLA", Expiries: []string{"2026-09-18"}}},
	})

	err := runner.CollectOnce(context.Background())
	require.Error(t, err)
}

func TestRun_SkipsCollectionWhenMarketClosed(t *testing.T) {
	runner, store := newTestRunner(t, RunnerOptions{
		ChainSource: stub.NewStubChainSource([]*provider.OptionChain{testChain()}),
		QuoteSource: stub.NewStubQuoteSource(testQuotes()),
		WatchList:   []WatchItem{{StockCode: "TSLA", Expiries: []string{"2026-09-18"}}},
		Interval:    time.Hour,
		Now:         closedMarket,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := runner.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	count, err := store.CountRows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestRun_RetentionCleanup(t *testing.T) {
	runner, store := newTestRunner(t, RunnerOptions{
		ChainSource:   stub.NewStubChainSource([]*provider.OptionChain{testChain()}),
		QuoteSource:   stub.NewStubQuoteSource(testQuotes()),
		WatchList:     []WatchItem{{StockCode: "TSLA", Expiries: []string{"2026-09-18"}}},
		Interval:      time.Hour,
		RetentionDays: 7,
	})

	// Seed a stale snapshot well past the retention window.
	stale := AssembleRows(testChain(), testQuotes(), "2026-01-05 10:00:00")
	require.NoError(t, store.InsertBulk(context.Background(), stale))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_ = runner.Run(ctx)

	rows, err := store.GetAll(context.Background())
	require.NoError(t, err)
	for _, r := range rows {
		assert.NotEqual(t, "2026-01-05 10:00:00", r.UpdateTime, "stale row should be cleaned up")
	}
	// The fresh snapshot from the immediate collection is present.
	assert.Len(t, rows, 3)
}
