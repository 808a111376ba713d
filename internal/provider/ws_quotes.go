package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSConfig configures quote stream behavior.
type WSConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default quote stream configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// QuoteStream receives intraday option quote pushes over WebSocket.
// It reconnects with exponential backoff and resubscribes the active watch
// list after a drop.
type QuoteStream struct {
	endpoint string
	config   WSConfig

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	// watched stores subscribed (stock_code, expiry) pairs for resubscription
	watched   [][2]string
	watchedMu sync.Mutex

	out  chan QuotePush
	done chan struct{}
	wg   sync.WaitGroup
}

// wsSubscribe is the gateway's subscription message.
type wsSubscribe struct {
	Action    string `json:"action"` // "subscribe"
	StockCode string `json:"stock_code"`
	Expiry    string `json:"expiry_date"`
}

// NewQuoteStream connects to the gateway's streaming endpoint.
func NewQuoteStream(ctx context.Context, endpoint string, config *WSConfig) (*QuoteStream, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	s := &QuoteStream{
		endpoint: endpoint,
		config:   cfg,
		// Buffer absorbs bursts; pushes are dropped only if the consumer
		// stalls for the whole buffer.
		out:  make(chan QuotePush, 4096),
		done: make(chan struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.readLoop()

	s.wg.Add(1)
	go s.pingLoop()

	return s, nil
}

// connect establishes the WebSocket connection.
func (s *QuoteStream) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	s.conn = conn
	return nil
}

// Subscribe registers a (stock, expiry) pair with the stream. Pushes for all
// subscribed pairs arrive on the shared channel returned by C.
func (s *QuoteStream) Subscribe(stockCode, expiry string) error {
	if s.closed.Load() {
		return fmt.Errorf("stream closed")
	}

	if err := s.writeSubscribe(stockCode, expiry); err != nil {
		return err
	}

	s.watchedMu.Lock()
	s.watched = append(s.watched, [2]string{stockCode, expiry})
	s.watchedMu.Unlock()
	return nil
}

// C returns the push channel. Closed when the stream is closed.
func (s *QuoteStream) C() <-chan QuotePush {
	return s.out
}

// Close shuts down the stream and closes the push channel.
func (s *QuoteStream) Close() error {
	if s.closed.Swap(true) {
		return nil // Already closed
	}

	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	close(s.out)
	return nil
}

// writeSubscribe sends one subscription message.
func (s *QuoteStream) writeSubscribe(stockCode, expiry string) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return fmt.Errorf("not connected")
	}
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	return s.conn.WriteJSON(wsSubscribe{
		Action:    "subscribe",
		StockCode: stockCode,
		Expiry:    expiry,
	})
}

// readLoop reads pushes, reconnecting with backoff on failure.
func (s *QuoteStream) readLoop() {
	defer s.wg.Done()

	reconnectDelay := s.config.ReconnectDelay

	for !s.closed.Load() {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			select {
			case <-s.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}
			// Reconnect with exponential backoff, then resubscribe
			select {
			case <-s.done:
				return
			case <-time.After(reconnectDelay):
			}
			reconnectDelay *= 2
			if reconnectDelay > s.config.MaxReconnectDelay {
				reconnectDelay = s.config.MaxReconnectDelay
			}
			if err := s.reconnect(); err != nil {
				continue
			}
			reconnectDelay = s.config.ReconnectDelay
			continue
		}

		var push QuotePush
		if err := json.Unmarshal(data, &push); err != nil {
			// Non-push frames (acks, heartbeats) are ignored
			continue
		}
		if push.Symbol == "" {
			continue
		}

		select {
		case s.out <- push:
		case <-s.done:
			return
		}
	}
}

// reconnect re-establishes the connection and replays subscriptions.
func (s *QuoteStream) reconnect() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := s.connect(ctx); err != nil {
		return err
	}

	s.watchedMu.Lock()
	watched := make([][2]string, len(s.watched))
	copy(watched, s.watched)
	s.watchedMu.Unlock()

	for _, w := range watched {
		if err := s.writeSubscribe(w[0], w[1]); err != nil {
			return err
		}
	}
	return nil
}

// pingLoop keeps the connection alive.
func (s *QuoteStream) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
				s.conn.WriteMessage(websocket.PingMessage, nil)
			}
			s.connMu.Unlock()
		}
	}
}
