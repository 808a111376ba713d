// Package ingestion collects option chain snapshots from the market data
// gateway on a market-hours schedule and persists them as option rows.
package ingestion

import (
	"context"

	"maxpain-lab/internal/provider"
)

// ChainSource provides the contract list for one (stock, expiry).
type ChainSource interface {
	// Fetch returns the option chain. The entry order is provider-defined;
	// the runner does not depend on it.
	Fetch(ctx context.Context, stockCode, expiry string) (*provider.OptionChain, error)
}

// QuoteSource provides snapshot quotes for contract symbols.
type QuoteSource interface {
	// Fetch returns quotes for the given symbols. Missing symbols are simply
	// absent from the result, not an error.
	Fetch(ctx context.Context, symbols []string) ([]provider.OptionQuote, error)
}

// StockQuoteSource provides the underlying's snapshot quote. The quote's
// update_time stamps every row of the snapshot so one collection pass forms
// exactly one group per (stock, expiry).
type StockQuoteSource interface {
	Fetch(ctx context.Context, stockCode string) (*provider.StockQuote, error)
}
