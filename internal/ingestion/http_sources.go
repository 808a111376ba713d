package ingestion

import (
	"context"
	"time"

	"maxpain-lab/internal/observability"
	"maxpain-lab/internal/provider"
)

// HTTPChainSource fetches option chains via the gateway HTTP client.
// Implements ingestion.ChainSource.
type HTTPChainSource struct {
	client  *provider.HTTPClient
	metrics *observability.Metrics // optional
}

// NewHTTPChainSource creates a chain source backed by the gateway client.
func NewHTTPChainSource(client *provider.HTTPClient, metrics *observability.Metrics) *HTTPChainSource {
	return &HTTPChainSource{client: client, metrics: metrics}
}

// Fetch returns the option chain for one (stock, expiry).
func (s *HTTPChainSource) Fetch(ctx context.Context, stockCode, expiry string) (*provider.OptionChain, error) {
	started := time.Now()
	chain, err := s.client.OptionChain(ctx, stockCode, expiry)
	if s.metrics != nil {
		s.metrics.ProviderLatency.WithLabelValues("option_chain").Observe(time.Since(started).Seconds())
	}
	return chain, err
}

// HTTPQuoteSource fetches contract quotes via the gateway HTTP client.
// Implements ingestion.QuoteSource.
type HTTPQuoteSource struct {
	client    *provider.HTTPClient
	batchSize int
	metrics   *observability.Metrics // optional
}

// DefaultQuoteBatchSize caps symbols per request; the gateway rejects
// oversized symbol lists.
const DefaultQuoteBatchSize = 200

// NewHTTPQuoteSource creates a quote source backed by the gateway client.
func NewHTTPQuoteSource(client *provider.HTTPClient, metrics *observability.Metrics) *HTTPQuoteSource {
	return &HTTPQuoteSource{client: client, batchSize: DefaultQuoteBatchSize, metrics: metrics}
}

// Fetch returns quotes for the given symbols, batching requests.
func (s *HTTPQuoteSource) Fetch(ctx context.Context, symbols []string) ([]provider.OptionQuote, error) {
	quotes := make([]provider.OptionQuote, 0, len(symbols))
	for start := 0; start < len(symbols); start += s.batchSize {
		end := start + s.batchSize
		if end > len(symbols) {
			end = len(symbols)
		}

		began := time.Now()
		batch, err := s.client.OptionQuotes(ctx, symbols[start:end])
		if s.metrics != nil {
			s.metrics.ProviderLatency.WithLabelValues("option_quotes").Observe(time.Since(began).Seconds())
		}
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, batch...)
	}
	return quotes, nil
}

// HTTPStockQuoteSource fetches underlying quotes via the gateway HTTP client.
// Implements ingestion.StockQuoteSource.
type HTTPStockQuoteSource struct {
	client  *provider.HTTPClient
	metrics *observability.Metrics // optional
}

// NewHTTPStockQuoteSource creates a stock quote source backed by the gateway client.
func NewHTTPStockQuoteSource(client *provider.HTTPClient, metrics *observability.Metrics) *HTTPStockQuoteSource {
	return &HTTPStockQuoteSource{client: client, metrics: metrics}
}

// Fetch returns the underlying's snapshot quote.
func (s *HTTPStockQuoteSource) Fetch(ctx context.Context, stockCode string) (*provider.StockQuote, error) {
	started := time.Now()
	quote, err := s.client.StockQuote(ctx, stockCode)
	if s.metrics != nil {
		s.metrics.ProviderLatency.WithLabelValues("stock_quote").Observe(time.Since(started).Seconds())
	}
	return quote, err
}
