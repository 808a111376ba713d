package memory

import (
	"context"
	"sort"
	"sync"

	"maxpain-lab/internal/domain"
	"maxpain-lab/internal/storage"
)

// ResultStore is an in-memory implementation of storage.ResultStore.
type ResultStore struct {
	mu   sync.RWMutex
	data map[string]*domain.MaxPainResult // keyed by result_id
}

// NewResultStore creates a new in-memory result store.
func NewResultStore() *ResultStore {
	return &ResultStore{data: make(map[string]*domain.MaxPainResult)}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

// Insert adds a new result. Returns ErrDuplicateKey if result_id exists.
func (s *ResultStore) Insert(_ context.Context, r *domain.MaxPainResult) error {
	if r == nil || r.ResultID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ResultID]; exists {
		return storage.ErrDuplicateKey
	}
	copy := *r
	s.data[r.ResultID] = &copy
	return nil
}

// InsertBulk adds multiple results atomically. Fails entire batch on any duplicate.
func (s *ResultStore) InsertBulk(_ context.Context, results []*domain.MaxPainResult) error {
	if len(results) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[string]struct{}, len(results))
	for _, r := range results {
		if r == nil || r.ResultID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[r.ResultID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[r.ResultID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[r.ResultID] = struct{}{}
	}

	// Second pass: insert all
	for _, r := range results {
		copy := *r
		s.data[r.ResultID] = &copy
	}
	return nil
}

// GetByID retrieves a result by its ID. Returns ErrNotFound if not exists.
func (s *ResultStore) GetByID(_ context.Context, resultID string) (*domain.MaxPainResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[resultID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	copy := *r
	return &copy, nil
}

// GetByStock retrieves all results for one underlying, ordered by
// (expiry_date, update_time) ASC.
func (s *ResultStore) GetByStock(_ context.Context, stockCode string) ([]*domain.MaxPainResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MaxPainResult
	for _, r := range s.data {
		if r.StockCode == stockCode {
			copy := *r
			result = append(result, &copy)
		}
	}
	sortResults(result)
	return result, nil
}

// GetByUpdateTime retrieves all results for one snapshot timestamp.
func (s *ResultStore) GetByUpdateTime(_ context.Context, updateTime string) ([]*domain.MaxPainResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MaxPainResult
	for _, r := range s.data {
		if r.UpdateTime == updateTime {
			copy := *r
			result = append(result, &copy)
		}
	}
	sortResults(result)
	return result, nil
}

// GetLatestUpdateTimes returns the n most recent distinct update_time values,
// newest first.
func (s *ResultStore) GetLatestUpdateTimes(_ context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, r := range s.data {
		seen[r.UpdateTime] = struct{}{}
	}
	times := make([]string, 0, len(seen))
	for t := range seen {
		times = append(times, t)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(times)))
	if len(times) > n {
		times = times[:n]
	}
	return times, nil
}

// GetAll retrieves all results, ordered by (stock_code, expiry_date, update_time) ASC.
func (s *ResultStore) GetAll(_ context.Context) ([]*domain.MaxPainResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.MaxPainResult, 0, len(s.data))
	for _, r := range s.data {
		copy := *r
		result = append(result, &copy)
	}
	sortResults(result)
	return result, nil
}

// sortResults orders results by (stock_code, expiry_date, update_time) ASC.
func sortResults(results []*domain.MaxPainResult) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.StockCode != b.StockCode {
			return a.StockCode < b.StockCode
		}
		if a.Expiry != b.Expiry {
			return a.Expiry < b.Expiry
		}
		return a.UpdateTime < b.UpdateTime
	})
}
