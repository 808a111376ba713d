// Package provider implements the market data gateway client: option chain
// discovery, per-contract quote snapshots and an intraday quote stream.
package provider

// ChainEntry is one contract listed in an option chain response.
type ChainEntry struct {
	Symbol string  `json:"symbol"`
	Type   string  `json:"type"` // "call" | "put"
	Strike float64 `json:"strike_price"`
}

// OptionChain is the full contract list for one (stock, expiry).
type OptionChain struct {
	StockCode string       `json:"stock_code"`
	Expiry    string       `json:"expiry_date"` // "YYYY-MM-DD"
	Entries   []ChainEntry `json:"entries"`
}

// OptionQuote is one contract's snapshot quote. Volume and open interest may
// be absent in the feed; nil means "not reported" and is normalized to 0 when
// the row is assembled.
type OptionQuote struct {
	Symbol       string   `json:"symbol"`
	Volume       *int64   `json:"volume"`
	OpenInterest *int64   `json:"open_interest"`
	Turnover     *float64 `json:"turnover"`
	ImpliedVol   *float64 `json:"implied_volatility"`
	ContractSize *int64   `json:"contract_size"`
}

// StockQuote is the underlying's snapshot quote.
type StockQuote struct {
	StockCode string  `json:"stock_code"`
	LastPrice float64 `json:"last_price"`
	Time      string  `json:"update_time"` // "YYYY-MM-DD HH:MM:SS"
}

// QuotePush is one message of the streaming quote feed.
type QuotePush struct {
	StockCode  string      `json:"stock_code"`
	Expiry     string      `json:"expiry_date"`
	UpdateTime string      `json:"update_time"`
	Symbol     string      `json:"symbol"`
	Type       string      `json:"type"`
	Strike     float64     `json:"strike_price"`
	Quote      OptionQuote `json:"quote"`
}
