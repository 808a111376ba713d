package ingestion

import (
	"context"
	"log"
	"time"

	"maxpain-lab/internal/domain"
	"maxpain-lab/internal/observability"
	"maxpain-lab/internal/provider"
	"maxpain-lab/internal/storage"
)

// PushStream is the part of the quote stream the collector consumes.
type PushStream interface {
	C() <-chan provider.QuotePush
}

// StreamCollector assembles streamed quote pushes into snapshot rows. Pushes
// carry the gateway's snapshot update_time, so rows are buffered per group
// and flushed periodically; a group is complete when the gateway stops
// pushing for its update_time.
type StreamCollector struct {
	stream        PushStream
	rowStore      storage.OptionRowStore
	flushInterval time.Duration
	metrics       *observability.Metrics
	logger        *log.Logger

	buffer map[domain.GroupKey][]*domain.OptionRow
	// lastPush tracks the wall-clock arrival of each group's newest push
	lastPush map[domain.GroupKey]time.Time
}

// StreamCollectorOptions contains configuration for creating a StreamCollector.
type StreamCollectorOptions struct {
	Stream        PushStream
	RowStore      storage.OptionRowStore
	FlushInterval time.Duration // Default: 30s
	Metrics       *observability.Metrics
	Logger        *log.Logger
}

// NewStreamCollector creates a new streaming collector.
func NewStreamCollector(opts StreamCollectorOptions) *StreamCollector {
	flushInterval := opts.FlushInterval
	if flushInterval == 0 {
		flushInterval = 30 * time.Second
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &StreamCollector{
		stream:        opts.Stream,
		rowStore:      opts.RowStore,
		flushInterval: flushInterval,
		metrics:       opts.Metrics,
		logger:        logger,
		buffer:        make(map[domain.GroupKey][]*domain.OptionRow),
		lastPush:      make(map[domain.GroupKey]time.Time),
	}
}

// Run consumes pushes until the context is cancelled or the stream closes.
// Buffered rows are flushed before returning.
func (c *StreamCollector) Run(ctx context.Context) error {
	c.logger.Printf("Starting stream collector, flush interval %s", c.flushInterval)

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.flush(context.Background(), true)
			return ctx.Err()
		case push, ok := <-c.stream.C():
			if !ok {
				c.flush(context.Background(), true)
				return nil
			}
			c.buffered(push)
		case <-ticker.C:
			c.flush(ctx, false)
		}
	}
}

// buffered converts one push into a row and adds it to its group's buffer.
func (c *StreamCollector) buffered(push provider.QuotePush) {
	typ := domain.OptionType(push.Type)
	if !typ.Valid() || push.Strike <= 0 || push.UpdateTime == "" {
		return
	}

	row := &domain.OptionRow{
		StockCode:  push.StockCode,
		Expiry:     push.Expiry,
		UpdateTime: push.UpdateTime,
		Symbol:     push.Symbol,
		Type:       typ,
		Strike:     push.Strike,
		CreatedAt:  time.Now().UnixMilli(),
	}
	if push.Quote.Volume != nil {
		row.Volume = *push.Quote.Volume
	}
	if push.Quote.OpenInterest != nil {
		row.OpenInterest = *push.Quote.OpenInterest
	}
	row.Turnover = push.Quote.Turnover
	row.ImpliedVol = push.Quote.ImpliedVol
	row.ContractSize = push.Quote.ContractSize

	key := domain.GroupKey{StockCode: row.StockCode, Expiry: row.Expiry, UpdateTime: row.UpdateTime}
	c.buffer[key] = append(c.buffer[key], row)
	c.lastPush[key] = time.Now()
}

// flush persists groups that have gone quiet for a full flush interval.
// With all=true every buffered group is persisted regardless of age.
func (c *StreamCollector) flush(ctx context.Context, all bool) {
	now := time.Now()
	for key, rows := range c.buffer {
		if !all && now.Sub(c.lastPush[key]) < c.flushInterval {
			continue
		}

		if err := c.rowStore.InsertBulk(ctx, rows); err != nil {
			c.logger.Printf("Flush group %s/%s/%s failed: %v",
				key.StockCode, key.Expiry, key.UpdateTime, err)
			if c.metrics != nil {
				c.metrics.CollectionErrors.WithLabelValues("stream_store").Inc()
			}
			continue
		}

		c.logger.Printf("Flushed streamed snapshot %s/%s/%s: %d rows",
			key.StockCode, key.Expiry, key.UpdateTime, len(rows))
		if c.metrics != nil {
			c.metrics.SnapshotsCollected.Inc()
			c.metrics.RowsIngested.Add(float64(len(rows)))
			c.metrics.LastSuccessfulSnapshot.SetToCurrentTime()
		}
		delete(c.buffer, key)
		delete(c.lastPush, key)
	}
}
