// Package stub provides fixed in-memory data sources for testing.
package stub

import (
	"context"
	"fmt"

	"maxpain-lab/internal/provider"
)

// StubChainSource returns fixed in-memory option chains.
// Implements ingestion.ChainSource interface.
type StubChainSource struct {
	chains map[string]*provider.OptionChain // keyed by stock_code|expiry
}

// NewStubChainSource creates a new stub chain source with the given chains.
func NewStubChainSource(chains []*provider.OptionChain) *StubChainSource {
	m := make(map[string]*provider.OptionChain)
	for _, c := range chains {
		m[c.StockCode+"|"+c.Expiry] = c
	}
	return &StubChainSource{chains: m}
}

// Fetch returns the chain for the given (stock, expiry).
// Returns a copy to prevent mutation.
func (s *StubChainSource) Fetch(_ context.Context, stockCode, expiry string) (*provider.OptionChain, error) {
	chain, exists := s.chains[stockCode+"|"+expiry]
	if !exists {
		return nil, fmt.Errorf("no chain for %s/%s", stockCode, expiry)
	}
	copy := *chain
	copy.Entries = append([]provider.ChainEntry(nil), chain.Entries...)
	return &copy, nil
}

// StubQuoteSource returns fixed in-memory quotes keyed by symbol.
// Implements ingestion.QuoteSource interface.
type StubQuoteSource struct {
	quotes map[string]provider.OptionQuote
}

// NewStubQuoteSource creates a new stub quote source with the given quotes.
func NewStubQuoteSource(quotes []provider.OptionQuote) *StubQuoteSource {
	m := make(map[string]provider.OptionQuote)
	for _, q := range quotes {
		m[q.Symbol] = q
	}
	return &StubQuoteSource{quotes: m}
}

// Fetch returns quotes matching the requested symbols. Unknown symbols are
// absent from the result.
func (s *StubQuoteSource) Fetch(_ context.Context, symbols []string) ([]provider.OptionQuote, error) {
	var result []provider.OptionQuote
	for _, sym := range symbols {
		if q, exists := s.quotes[sym]; exists {
			result = append(result, q)
		}
	}
	return result, nil
}

// StubStockQuoteSource returns fixed in-memory underlying quotes.
// Implements ingestion.StockQuoteSource interface.
type StubStockQuoteSource struct {
	quotes map[string]*provider.StockQuote
}

// NewStubStockQuoteSource creates a new stub stock quote source.
func NewStubStockQuoteSource(quotes []*provider.StockQuote) *StubStockQuoteSource {
	m := make(map[string]*provider.StockQuote)
	for _, q := range quotes {
		m[q.StockCode] = q
	}
	return &StubStockQuoteSource{quotes: m}
}

// Fetch returns the quote for the given stock code.
func (s *StubStockQuoteSource) Fetch(_ context.Context, stockCode string) (*provider.StockQuote, error) {
	quote, exists := s.quotes[stockCode]
	if !exists {
		return nil, fmt.Errorf("no quote for %s", stockCode)
	}
	copy := *quote
	return &copy, nil
}
