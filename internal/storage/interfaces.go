package storage

import (
	"context"

	"maxpain-lab/internal/domain"
)

// OptionRowStore provides access to option_rows storage: the raw chain
// snapshot rows deposited by the collector and consumed by the pipeline.
type OptionRowStore interface {
	// InsertBulk adds multiple rows from one snapshot. Rows are append-only;
	// the collector never rewrites a snapshot.
	InsertBulk(ctx context.Context, rows []*domain.OptionRow) error

	// GetAll retrieves every stored row, ordered by
	// (stock_code, expiry_date, update_time, strike) ASC. The pipeline treats
	// the returned slice as an immutable snapshot for one computation run.
	GetAll(ctx context.Context) ([]*domain.OptionRow, error)

	// GetByStockCode retrieves all rows for one underlying, same ordering.
	GetByStockCode(ctx context.Context, stockCode string) ([]*domain.OptionRow, error)

	// GetByGroup retrieves the rows of one computation group, ordered by strike ASC.
	GetByGroup(ctx context.Context, key domain.GroupKey) ([]*domain.OptionRow, error)

	// CountRows returns the total number of stored rows.
	CountRows(ctx context.Context) (int64, error)

	// DeleteBefore removes rows whose update_time sorts strictly before the
	// cutoff ("YYYY-MM-DD HH:MM:SS"). Returns the number of rows removed.
	DeleteBefore(ctx context.Context, cutoff string) (int64, error)
}

// ResultStore provides access to max_pain_results storage.
type ResultStore interface {
	// Insert adds a new result. Returns ErrDuplicateKey if result_id exists.
	Insert(ctx context.Context, r *domain.MaxPainResult) error

	// InsertBulk adds multiple results atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, results []*domain.MaxPainResult) error

	// GetByID retrieves a result by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, resultID string) (*domain.MaxPainResult, error)

	// GetByStock retrieves all results for one underlying, ordered by
	// (expiry_date, update_time) ASC.
	GetByStock(ctx context.Context, stockCode string) ([]*domain.MaxPainResult, error)

	// GetByUpdateTime retrieves all results for one snapshot timestamp.
	GetByUpdateTime(ctx context.Context, updateTime string) ([]*domain.MaxPainResult, error)

	// GetLatestUpdateTimes returns the n most recent distinct update_time
	// values present in the store, newest first.
	GetLatestUpdateTimes(ctx context.Context, n int) ([]string, error)

	// GetAll retrieves all results, ordered by
	// (stock_code, expiry_date, update_time) ASC.
	GetAll(ctx context.Context) ([]*domain.MaxPainResult, error)
}
