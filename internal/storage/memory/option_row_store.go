package memory

import (
	"context"
	"sort"
	"sync"

	"maxpain-lab/internal/domain"
	"maxpain-lab/internal/storage"
)

// OptionRowStore is an in-memory implementation of storage.OptionRowStore.
type OptionRowStore struct {
	mu     sync.RWMutex
	rows   []*domain.OptionRow
	nextID int64
}

// NewOptionRowStore creates a new in-memory option row store.
func NewOptionRowStore() *OptionRowStore {
	return &OptionRowStore{nextID: 1}
}

// Compile-time interface check.
var _ storage.OptionRowStore = (*OptionRowStore)(nil)

// InsertBulk adds multiple rows from one snapshot.
func (s *OptionRowStore) InsertBulk(_ context.Context, rows []*domain.OptionRow) error {
	if len(rows) == 0 {
		return nil
	}
	for _, r := range rows {
		if r == nil || r.StockCode == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range rows {
		copy := *r
		copy.ID = s.nextID
		s.nextID++
		s.rows = append(s.rows, &copy)
	}
	return nil
}

// GetAll retrieves every stored row, ordered by
// (stock_code, expiry_date, update_time, strike) ASC.
func (s *OptionRowStore) GetAll(_ context.Context) ([]*domain.OptionRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.OptionRow, 0, len(s.rows))
	for _, r := range s.rows {
		copy := *r
		result = append(result, &copy)
	}
	sortRows(result)
	return result, nil
}

// GetByStockCode retrieves all rows for one underlying.
func (s *OptionRowStore) GetByStockCode(_ context.Context, stockCode string) ([]*domain.OptionRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.OptionRow
	for _, r := range s.rows {
		if r.StockCode == stockCode {
			copy := *r
			result = append(result, &copy)
		}
	}
	sortRows(result)
	return result, nil
}

// GetByGroup retrieves the rows of one computation group, ordered by strike ASC.
func (s *OptionRowStore) GetByGroup(_ context.Context, key domain.GroupKey) ([]*domain.OptionRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.OptionRow
	for _, r := range s.rows {
		if r.Key() == key {
			copy := *r
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Strike != result[j].Strike {
			return result[i].Strike < result[j].Strike
		}
		return result[i].Symbol < result[j].Symbol
	})
	return result, nil
}

// CountRows returns the total number of stored rows.
func (s *OptionRowStore) CountRows(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.rows)), nil
}

// DeleteBefore removes rows whose update_time sorts strictly before the cutoff.
func (s *OptionRowStore) DeleteBefore(_ context.Context, cutoff string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.rows[:0]
	var removed int64
	for _, r := range s.rows {
		if r.UpdateTime < cutoff {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.rows = kept
	return removed, nil
}

// sortRows orders rows by (stock_code, expiry_date, update_time, strike, symbol) ASC.
func sortRows(rows []*domain.OptionRow) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.StockCode != b.StockCode {
			return a.StockCode < b.StockCode
		}
		if a.Expiry != b.Expiry {
			return a.Expiry < b.Expiry
		}
		if a.UpdateTime != b.UpdateTime {
			return a.UpdateTime < b.UpdateTime
		}
		if a.Strike != b.Strike {
			return a.Strike < b.Strike
		}
		return a.Symbol < b.Symbol
	})
}
