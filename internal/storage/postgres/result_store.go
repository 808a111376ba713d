package postgres

import (
	"context"
	"fmt"

	"maxpain-lab/internal/domain"
	"maxpain-lab/internal/storage"
)

// ResultStore implements storage.ResultStore using PostgreSQL.
type ResultStore struct {
	pool *Pool
}

// NewResultStore creates a new ResultStore.
func NewResultStore(pool *Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

const insertResultQuery = `
	INSERT INTO max_pain_results (
		result_id, stock_code, expiry_date, update_time,
		max_pain_price_volume, max_pain_price_open_interest,
		min_earn_volume, min_earn_open_interest,
		sum_volume, sum_open_interest, volume_std_deviation,
		options_count, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
`

const selectResultColumns = `
	result_id, stock_code, expiry_date, update_time,
	max_pain_price_volume, max_pain_price_open_interest,
	min_earn_volume, min_earn_open_interest,
	sum_volume, sum_open_interest, volume_std_deviation,
	options_count, created_at
`

// Insert adds a new result. Returns ErrDuplicateKey if result_id exists.
func (s *ResultStore) Insert(ctx context.Context, r *domain.MaxPainResult) error {
	if r == nil || r.ResultID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertResultQuery,
		r.ResultID, r.StockCode, r.Expiry, r.UpdateTime,
		r.MaxPainPriceVolume, r.MaxPainPriceOpenInterest,
		r.MinEarnVolume, r.MinEarnOpenInterest,
		r.SumVolume, r.SumOpenInterest, r.VolumeStdDev,
		r.OptionsCount, r.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert max pain result: %w", err)
	}
	return nil
}

// InsertBulk adds multiple results atomically. Fails entire batch on any duplicate.
func (s *ResultStore) InsertBulk(ctx context.Context, results []*domain.MaxPainResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range results {
		if r == nil || r.ResultID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, insertResultQuery,
			r.ResultID, r.StockCode, r.Expiry, r.UpdateTime,
			r.MaxPainPriceVolume, r.MaxPainPriceOpenInterest,
			r.MinEarnVolume, r.MinEarnOpenInterest,
			r.SumVolume, r.SumOpenInterest, r.VolumeStdDev,
			r.OptionsCount, r.CreatedAt,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert max pain result in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID retrieves a result by its ID. Returns ErrNotFound if not exists.
func (s *ResultStore) GetByID(ctx context.Context, resultID string) (*domain.MaxPainResult, error) {
	query := `SELECT ` + selectResultColumns + ` FROM max_pain_results WHERE result_id = $1`

	row := s.pool.QueryRow(ctx, query, resultID)
	r, err := scanResult(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get result by id: %w", err)
	}
	return r, nil
}

// GetByStock retrieves all results for one underlying, ordered by
// (expiry_date, update_time) ASC.
func (s *ResultStore) GetByStock(ctx context.Context, stockCode string) ([]*domain.MaxPainResult, error) {
	query := `
		SELECT ` + selectResultColumns + `
		FROM max_pain_results
		WHERE stock_code = $1
		ORDER BY expiry_date ASC, update_time ASC
	`

	rows, err := s.pool.Query(ctx, query, stockCode)
	if err != nil {
		return nil, fmt.Errorf("get results by stock: %w", err)
	}
	defer rows.Close()

	return collectResults(rows)
}

// GetByUpdateTime retrieves all results for one snapshot timestamp.
func (s *ResultStore) GetByUpdateTime(ctx context.Context, updateTime string) ([]*domain.MaxPainResult, error) {
	query := `
		SELECT ` + selectResultColumns + `
		FROM max_pain_results
		WHERE update_time = $1
		ORDER BY stock_code ASC, expiry_date ASC
	`

	rows, err := s.pool.Query(ctx, query, updateTime)
	if err != nil {
		return nil, fmt.Errorf("get results by update time: %w", err)
	}
	defer rows.Close()

	return collectResults(rows)
}

// GetLatestUpdateTimes returns the n most recent distinct update_time values,
// newest first.
func (s *ResultStore) GetLatestUpdateTimes(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT DISTINCT update_time
		FROM max_pain_results
		ORDER BY update_time DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("get latest update times: %w", err)
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan update time: %w", err)
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

// GetAll retrieves all results, ordered by (stock_code, expiry_date, update_time) ASC.
func (s *ResultStore) GetAll(ctx context.Context) ([]*domain.MaxPainResult, error) {
	query := `
		SELECT ` + selectResultColumns + `
		FROM max_pain_results
		ORDER BY stock_code ASC, expiry_date ASC, update_time ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all results: %w", err)
	}
	defer rows.Close()

	return collectResults(rows)
}

// rowScanner abstracts pgx.Row and pgx.Rows for scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanResult scans one max_pain_results row.
func scanResult(row rowScanner) (*domain.MaxPainResult, error) {
	var r domain.MaxPainResult
	err := row.Scan(
		&r.ResultID, &r.StockCode, &r.Expiry, &r.UpdateTime,
		&r.MaxPainPriceVolume, &r.MaxPainPriceOpenInterest,
		&r.MinEarnVolume, &r.MinEarnOpenInterest,
		&r.SumVolume, &r.SumOpenInterest, &r.VolumeStdDev,
		&r.OptionsCount, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// collectResults scans all rows of a result query.
func collectResults(rows interface {
	rowScanner
	Next() bool
	Err() error
}) ([]*domain.MaxPainResult, error) {
	var results []*domain.MaxPainResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
