package memory

import (
	"context"
	"errors"
	"testing"

	"maxpain-lab/internal/domain"
	"maxpain-lab/internal/idhash"
	"maxpain-lab/internal/storage"
)

func testResult(stock, expiry, updateTime string) *domain.MaxPainResult {
	return &domain.MaxPainResult{
		ResultID:                 idhash.ComputeResultID(stock, expiry, updateTime),
		StockCode:                stock,
		Expiry:                   expiry,
		UpdateTime:               updateTime,
		MaxPainPriceVolume:       500,
		MaxPainPriceOpenInterest: 550,
		MinEarnVolume:            20,
		MinEarnOpenInterest:      500,
		OptionsCount:             4,
	}
}

func TestResultStore_InsertAndGetByID(t *testing.T) {
	store := NewResultStore()
	ctx := context.Background()

	r := testResult("TSLA", "2026-09-18", "2026-08-26 15:45:00")
	if err := store.Insert(ctx, r); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, r.ResultID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.StockCode != "TSLA" || got.MaxPainPriceVolume != 500 {
		t.Errorf("unexpected result: %+v", got)
	}

	_, err = store.GetByID(ctx, "nonexistent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResultStore_InsertDuplicate(t *testing.T) {
	store := NewResultStore()
	ctx := context.Background()

	r := testResult("TSLA", "2026-09-18", "2026-08-26 15:45:00")
	if err := store.Insert(ctx, r); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	err := store.Insert(ctx, r)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestResultStore_InsertBulkAtomicOnDuplicate(t *testing.T) {
	store := NewResultStore()
	ctx := context.Background()

	existing := testResult("TSLA", "2026-09-18", "2026-08-26 15:45:00")
	store.Insert(ctx, existing)

	batch := []*domain.MaxPainResult{
		testResult("AAPL", "2026-09-18", "2026-08-26 15:45:00"),
		existing, // duplicate
	}
	err := store.InsertBulk(ctx, batch)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	// The non-duplicate entry was not inserted either.
	_, err = store.GetByID(ctx, batch[0].ResultID)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected batch to roll back, got %v", err)
	}
}

func TestResultStore_InsertBulkIntraBatchDuplicate(t *testing.T) {
	store := NewResultStore()
	ctx := context.Background()

	r := testResult("TSLA", "2026-09-18", "2026-08-26 15:45:00")
	err := store.InsertBulk(ctx, []*domain.MaxPainResult{r, r})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestResultStore_GetByStockOrdered(t *testing.T) {
	store := NewResultStore()
	ctx := context.Background()

	store.InsertBulk(ctx, []*domain.MaxPainResult{
		testResult("TSLA", "2026-10-16", "2026-08-26 15:45:00"),
		testResult("TSLA", "2026-09-18", "2026-08-26 16:00:00"),
		testResult("TSLA", "2026-09-18", "2026-08-26 15:45:00"),
		testResult("AAPL", "2026-09-18", "2026-08-26 15:45:00"),
	})

	got, err := store.GetByStock(ctx, "TSLA")
	if err != nil {
		t.Fatalf("GetByStock failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	// (expiry, update_time) ASC
	if got[0].Expiry != "2026-09-18" || got[0].UpdateTime != "2026-08-26 15:45:00" {
		t.Errorf("unexpected first result: %s %s", got[0].Expiry, got[0].UpdateTime)
	}
	if got[2].Expiry != "2026-10-16" {
		t.Errorf("unexpected last result: %s", got[2].Expiry)
	}
}

func TestResultStore_GetByUpdateTime(t *testing.T) {
	store := NewResultStore()
	ctx := context.Background()

	store.InsertBulk(ctx, []*domain.MaxPainResult{
		testResult("TSLA", "2026-09-18", "2026-08-26 15:45:00"),
		testResult("AAPL", "2026-09-18", "2026-08-26 15:45:00"),
		testResult("TSLA", "2026-09-18", "2026-08-26 16:00:00"),
	})

	got, err := store.GetByUpdateTime(ctx, "2026-08-26 15:45:00")
	if err != nil {
		t.Fatalf("GetByUpdateTime failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
}

func TestResultStore_GetLatestUpdateTimes(t *testing.T) {
	store := NewResultStore()
	ctx := context.Background()

	store.InsertBulk(ctx, []*domain.MaxPainResult{
		testResult("TSLA", "2026-09-18", "2026-08-26 15:45:00"),
		testResult("AAPL", "2026-09-18", "2026-08-26 15:45:00"), // same time
		testResult("TSLA", "2026-09-18", "2026-08-26 16:00:00"),
		testResult("TSLA", "2026-09-18", "2026-08-26 10:00:00"),
	})

	times, err := store.GetLatestUpdateTimes(ctx, 2)
	if err != nil {
		t.Fatalf("GetLatestUpdateTimes failed: %v", err)
	}
	if len(times) != 2 {
		t.Fatalf("expected 2 times, got %d", len(times))
	}
	if times[0] != "2026-08-26 16:00:00" || times[1] != "2026-08-26 15:45:00" {
		t.Errorf("unexpected times: %v", times)
	}

	_, err = store.GetLatestUpdateTimes(ctx, 0)
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for n=0, got %v", err)
	}
}
