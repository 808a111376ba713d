// Package pipeline orchestrates one max pain computation run:
// load rows → group → evaluate both weighting modes → select → assemble →
// persist results.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"maxpain-lab/internal/domain"
	"maxpain-lab/internal/grouping"
	"maxpain-lab/internal/maxpain"
	"maxpain-lab/internal/observability"
	"maxpain-lab/internal/storage"
)

// Pipeline coordinates a full computation run over the stored row snapshot.
// Groups are independent and processed sequentially in deterministic key order.
type Pipeline struct {
	rowStore    storage.OptionRowStore
	resultStore storage.ResultStore
	metrics     *observability.Metrics // optional
	logger      *log.Logger
}

// Options for creating a Pipeline.
type Options struct {
	RowStore    storage.OptionRowStore
	ResultStore storage.ResultStore
	Metrics     *observability.Metrics // nil disables instrumentation
	Logger      *log.Logger
}

// New creates a new Pipeline.
func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{
		rowStore:    opts.RowStore,
		resultStore: opts.ResultStore,
		metrics:     opts.Metrics,
		logger:      logger,
	}
}

// RunResult contains results from one pipeline run.
type RunResult struct {
	RowsLoaded    int
	RowsSkipped   int // malformed rows dropped by the grouper
	GroupsTotal   int
	GroupsEmpty   int // groups omitted for lack of candidate strikes
	ResultsStored int
	Duplicates    int // results already present from an earlier identical run
	Results       []*domain.MaxPainResult
}

// Run executes the full computation. The row collection is read once and
// treated as an immutable snapshot; any store error aborts the run before
// anything is written, so a failed run leaves no partial output.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	started := time.Now()

	rows, err := p.rowStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load option rows: %w", err)
	}
	if p.metrics != nil {
		p.metrics.RowsLoaded.Add(float64(len(rows)))
	}

	result := &RunResult{RowsLoaded: len(rows)}
	if len(rows) == 0 {
		p.logger.Println("no option rows stored, nothing to compute")
		return result, nil
	}

	// Group rows; malformed rows are dropped with a per-row diagnostic.
	flat := make([]domain.OptionRow, len(rows))
	for i, r := range rows {
		flat[i] = *r
	}
	grouped := grouping.GroupWithLogger(flat, p.logger)
	result.RowsSkipped = grouped.Skipped
	result.GroupsTotal = len(grouped.Groups)
	if p.metrics != nil && grouped.Skipped > 0 {
		p.metrics.MalformedRows.Add(float64(grouped.Skipped))
	}
	p.logger.Printf("grouped %d rows into %d groups (%d malformed rows skipped)",
		len(rows), len(grouped.Groups), grouped.Skipped)

	// Deterministic group order: (stock_code, expiry_date, update_time) ASC.
	keys := make([]domain.GroupKey, 0, len(grouped.Groups))
	for key := range grouped.Groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.StockCode != b.StockCode {
			return a.StockCode < b.StockCode
		}
		if a.Expiry != b.Expiry {
			return a.Expiry < b.Expiry
		}
		return a.UpdateTime < b.UpdateTime
	})

	for _, key := range keys {
		res, err := maxpain.Compute(key, grouped.Groups[key])
		if err != nil {
			if errors.Is(err, maxpain.ErrEmptyTable) {
				// Fatal to this group only; the run continues.
				result.GroupsEmpty++
				if p.metrics != nil {
					p.metrics.EmptyGroups.Inc()
				}
				p.logger.Printf("omitting group %s/%s/%s: %v",
					key.StockCode, key.Expiry, key.UpdateTime, err)
				continue
			}
			return nil, fmt.Errorf("compute group %s/%s/%s: %w",
				key.StockCode, key.Expiry, key.UpdateTime, err)
		}
		result.Results = append(result.Results, &res)
		if p.metrics != nil {
			p.metrics.GroupsComputed.Inc()
		}
	}

	// Persist one by one so an identical earlier run surfaces as duplicates
	// rather than failing the batch.
	for _, res := range result.Results {
		if err := p.resultStore.Insert(ctx, res); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				result.Duplicates++
				continue
			}
			return nil, fmt.Errorf("persist result %s: %w", res.ResultID, err)
		}
		result.ResultsStored++
	}
	if p.metrics != nil {
		p.metrics.ResultsPersisted.Add(float64(result.ResultsStored))
		p.metrics.ComputeDuration.Observe(time.Since(started).Seconds())
		p.metrics.LastSuccessfulRun.SetToCurrentTime()
	}

	p.logger.Printf("run complete: %d groups computed, %d results stored, %d duplicates, %d empty groups (%.2fs)",
		len(result.Results), result.ResultsStored, result.Duplicates, result.GroupsEmpty,
		time.Since(started).Seconds())
	return result, nil
}
