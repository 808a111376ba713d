package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// HTTPClient fetches option chains and quotes over the gateway's JSON API.
type HTTPClient struct {
	baseURL     string
	apiKey      string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithAPIKey sets the gateway API key header.
func WithAPIKey(key string) ClientOption {
	return func(c *HTTPClient) {
		c.apiKey = key
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a new market data gateway client.
func NewHTTPClient(baseURL string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiError is the gateway's error envelope.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("gateway error %d: %s", e.Code, e.Message)
}

// apiResponse is the gateway's response envelope.
type apiResponse struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error *apiError       `json:"error,omitempty"`
}

// OptionChain retrieves the contract list for one (stock, expiry).
func (c *HTTPClient) OptionChain(ctx context.Context, stockCode, expiry string) (*OptionChain, error) {
	params := url.Values{}
	params.Set("stock_code", stockCode)
	params.Set("expiry_date", expiry)

	var chain OptionChain
	if err := c.get(ctx, "/v1/options/chain", params, &chain); err != nil {
		return nil, fmt.Errorf("fetch option chain %s %s: %w", stockCode, expiry, err)
	}
	return &chain, nil
}

// OptionQuotes retrieves snapshot quotes for the given contract symbols.
func (c *HTTPClient) OptionQuotes(ctx context.Context, symbols []string) ([]OptionQuote, error) {
	if len(symbols) == 0 {
		return nil, nil
	}
	params := url.Values{}
	params.Set("symbols", strings.Join(symbols, ","))

	var quotes []OptionQuote
	if err := c.get(ctx, "/v1/options/quotes", params, &quotes); err != nil {
		return nil, fmt.Errorf("fetch option quotes: %w", err)
	}
	return quotes, nil
}

// StockQuote retrieves the underlying's snapshot quote.
func (c *HTTPClient) StockQuote(ctx context.Context, stockCode string) (*StockQuote, error) {
	params := url.Values{}
	params.Set("stock_code", stockCode)

	var quote StockQuote
	if err := c.get(ctx, "/v1/stocks/quote", params, &quote); err != nil {
		return nil, fmt.Errorf("fetch stock quote %s: %w", stockCode, err)
	}
	return &quote, nil
}

// get performs a GET request with retries and exponential backoff.
func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("X-Api-Key", c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		// Handle rate limiting
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var envelope apiResponse
		if err := json.Unmarshal(respBody, &envelope); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if envelope.Error != nil {
			// Application-level errors are not retried
			return envelope.Error
		}

		if result != nil && envelope.Data != nil {
			if err := json.Unmarshal(envelope.Data, result); err != nil {
				return fmt.Errorf("unmarshal data: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
