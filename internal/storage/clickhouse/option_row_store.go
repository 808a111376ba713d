package clickhouse

import (
	"context"
	"fmt"

	"maxpain-lab/internal/domain"
	"maxpain-lab/internal/storage"
)

// OptionRowStore implements storage.OptionRowStore using ClickHouse.
// Snapshot rows are high-volume append-only data; MergeTree ordering by
// (stock_code, expiry_date, update_time, strike) keeps group reads cheap.
type OptionRowStore struct {
	conn *Conn
}

// NewOptionRowStore creates a new OptionRowStore.
func NewOptionRowStore(conn *Conn) *OptionRowStore {
	return &OptionRowStore{conn: conn}
}

// Compile-time interface check.
var _ storage.OptionRowStore = (*OptionRowStore)(nil)

const selectRowColumns = `
	stock_code, expiry_date, update_time, symbol, type, strike,
	volume, open_interest, turnover, implied_volatility, contract_size, created_at
`

// InsertBulk adds multiple rows from one snapshot in a single native batch.
func (s *OptionRowStore) InsertBulk(ctx context.Context, rows []*domain.OptionRow) error {
	if len(rows) == 0 {
		return nil
	}
	for _, r := range rows {
		if r == nil || r.StockCode == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO option_rows (
			stock_code, expiry_date, update_time, symbol, type, strike,
			volume, open_interest, turnover, implied_volatility, contract_size, created_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rows {
		// Pass nil values directly for Nullable columns
		err = batch.Append(
			r.StockCode, r.Expiry, r.UpdateTime, r.Symbol, string(r.Type), r.Strike,
			r.Volume, r.OpenInterest, r.Turnover, r.ImpliedVol, r.ContractSize, r.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetAll retrieves every stored row, ordered by
// (stock_code, expiry_date, update_time, strike) ASC.
func (s *OptionRowStore) GetAll(ctx context.Context) ([]*domain.OptionRow, error) {
	query := `
		SELECT ` + selectRowColumns + `
		FROM option_rows
		ORDER BY stock_code ASC, expiry_date ASC, update_time ASC, strike ASC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all option rows: %w", err)
	}
	defer rows.Close()

	return scanOptionRows(rows)
}

// GetByStockCode retrieves all rows for one underlying.
func (s *OptionRowStore) GetByStockCode(ctx context.Context, stockCode string) ([]*domain.OptionRow, error) {
	query := `
		SELECT ` + selectRowColumns + `
		FROM option_rows
		WHERE stock_code = ?
		ORDER BY expiry_date ASC, update_time ASC, strike ASC
	`

	rows, err := s.conn.Query(ctx, query, stockCode)
	if err != nil {
		return nil, fmt.Errorf("query option rows by stock: %w", err)
	}
	defer rows.Close()

	return scanOptionRows(rows)
}

// GetByGroup retrieves the rows of one computation group, ordered by strike ASC.
func (s *OptionRowStore) GetByGroup(ctx context.Context, key domain.GroupKey) ([]*domain.OptionRow, error) {
	query := `
		SELECT ` + selectRowColumns + `
		FROM option_rows
		WHERE stock_code = ? AND expiry_date = ? AND update_time = ?
		ORDER BY strike ASC, symbol ASC
	`

	rows, err := s.conn.Query(ctx, query, key.StockCode, key.Expiry, key.UpdateTime)
	if err != nil {
		return nil, fmt.Errorf("query option rows by group: %w", err)
	}
	defer rows.Close()

	return scanOptionRows(rows)
}

// CountRows returns the total number of stored rows.
func (s *OptionRowStore) CountRows(ctx context.Context) (int64, error) {
	var count uint64
	if err := s.conn.QueryRow(ctx, `SELECT count(*) FROM option_rows`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count option rows: %w", err)
	}
	return int64(count), nil
}

// DeleteBefore removes rows whose update_time sorts strictly before the cutoff.
// Uses lightweight DELETE; the removed count is measured before the mutation.
func (s *OptionRowStore) DeleteBefore(ctx context.Context, cutoff string) (int64, error) {
	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count(*) FROM option_rows WHERE update_time < ?`, cutoff,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count rows before cutoff: %w", err)
	}
	if count == 0 {
		return 0, nil
	}

	if err := s.conn.Exec(ctx, `DELETE FROM option_rows WHERE update_time < ?`, cutoff); err != nil {
		return 0, fmt.Errorf("delete rows before cutoff: %w", err)
	}
	return int64(count), nil
}

// chRows abstracts driver.Rows for scanning.
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanOptionRows scans multiple rows.
func scanOptionRows(rows chRows) ([]*domain.OptionRow, error) {
	var result []*domain.OptionRow

	for rows.Next() {
		var r domain.OptionRow
		var typ string

		err := rows.Scan(
			&r.StockCode, &r.Expiry, &r.UpdateTime, &r.Symbol, &typ, &r.Strike,
			&r.Volume, &r.OpenInterest, &r.Turnover, &r.ImpliedVol, &r.ContractSize, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan option row: %w", err)
		}

		r.Type = domain.OptionType(typ)
		result = append(result, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate option rows: %w", err)
	}

	return result, nil
}
