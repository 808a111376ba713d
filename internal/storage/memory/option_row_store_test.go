package memory

import (
	"context"
	"errors"
	"testing"

	"maxpain-lab/internal/domain"
	"maxpain-lab/internal/storage"
)

func testRow(stock, expiry, updateTime, symbol string, strike float64) *domain.OptionRow {
	return &domain.OptionRow{
		StockCode:  stock,
		Expiry:     expiry,
		UpdateTime: updateTime,
		Symbol:     symbol,
		Type:       domain.OptionTypeCall,
		Strike:     strike,
		Volume:     10,
	}
}

func TestOptionRowStore_InsertBulkAndGetAll(t *testing.T) {
	store := NewOptionRowStore()
	ctx := context.Background()

	rows := []*domain.OptionRow{
		testRow("TSLA", "2026-09-18", "2026-08-26 15:45:00", "C650", 650),
		testRow("TSLA", "2026-09-18", "2026-08-26 15:45:00", "C500", 500),
		testRow("AAPL", "2026-09-18", "2026-08-26 15:45:00", "C200", 200),
	}
	if err := store.InsertBulk(ctx, rows); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}

	// Ordered by (stock, expiry, update_time, strike).
	if got[0].StockCode != "AAPL" {
		t.Errorf("expected AAPL first, got %s", got[0].StockCode)
	}
	if got[1].Strike != 500 || got[2].Strike != 650 {
		t.Errorf("expected TSLA strikes ascending, got %.0f then %.0f", got[1].Strike, got[2].Strike)
	}

	// IDs assigned sequentially.
	for _, r := range got {
		if r.ID == 0 {
			t.Errorf("row %s: expected assigned ID", r.Symbol)
		}
	}
}

func TestOptionRowStore_InsertBulkRejectsInvalid(t *testing.T) {
	store := NewOptionRowStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.OptionRow{
		testRow("TSLA", "2026-09-18", "2026-08-26 15:45:00", "C500", 500),
		{StockCode: ""},
	})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	// Nothing was stored.
	count, err := store.CountRows(ctx)
	if err != nil {
		t.Fatalf("CountRows failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 rows after failed insert, got %d", count)
	}
}

func TestOptionRowStore_GetAllReturnsCopies(t *testing.T) {
	store := NewOptionRowStore()
	ctx := context.Background()

	orig := testRow("TSLA", "2026-09-18", "2026-08-26 15:45:00", "C500", 500)
	if err := store.InsertBulk(ctx, []*domain.OptionRow{orig}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, _ := store.GetAll(ctx)
	got[0].Volume = 999

	again, _ := store.GetAll(ctx)
	if again[0].Volume != 10 {
		t.Errorf("mutation leaked into store: volume %d", again[0].Volume)
	}
}

func TestOptionRowStore_GetByStockCode(t *testing.T) {
	store := NewOptionRowStore()
	ctx := context.Background()

	store.InsertBulk(ctx, []*domain.OptionRow{
		testRow("TSLA", "2026-09-18", "2026-08-26 15:45:00", "C500", 500),
		testRow("AAPL", "2026-09-18", "2026-08-26 15:45:00", "C200", 200),
		testRow("TSLA", "2026-10-16", "2026-08-26 15:45:00", "C550", 550),
	})

	got, err := store.GetByStockCode(ctx, "TSLA")
	if err != nil {
		t.Fatalf("GetByStockCode failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 TSLA rows, got %d", len(got))
	}
	for _, r := range got {
		if r.StockCode != "TSLA" {
			t.Errorf("unexpected stock %s", r.StockCode)
		}
	}
}

func TestOptionRowStore_GetByGroup(t *testing.T) {
	store := NewOptionRowStore()
	ctx := context.Background()

	key := domain.GroupKey{StockCode: "TSLA", Expiry: "2026-09-18", UpdateTime: "2026-08-26 15:45:00"}
	store.InsertBulk(ctx, []*domain.OptionRow{
		testRow("TSLA", "2026-09-18", "2026-08-26 15:45:00", "C650", 650),
		testRow("TSLA", "2026-09-18", "2026-08-26 15:45:00", "C500", 500),
		testRow("TSLA", "2026-09-18", "2026-08-26 16:00:00", "C500", 500), // later snapshot
	})

	got, err := store.GetByGroup(ctx, key)
	if err != nil {
		t.Fatalf("GetByGroup failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows in group, got %d", len(got))
	}
	if got[0].Strike != 500 || got[1].Strike != 650 {
		t.Errorf("expected strikes ascending, got %.0f then %.0f", got[0].Strike, got[1].Strike)
	}
}

func TestOptionRowStore_DeleteBefore(t *testing.T) {
	store := NewOptionRowStore()
	ctx := context.Background()

	store.InsertBulk(ctx, []*domain.OptionRow{
		testRow("TSLA", "2026-09-18", "2026-08-01 15:45:00", "C500", 500),
		testRow("TSLA", "2026-09-18", "2026-08-20 15:45:00", "C500", 500),
		testRow("TSLA", "2026-09-18", "2026-08-26 15:45:00", "C500", 500),
	})

	removed, err := store.DeleteBefore(ctx, "2026-08-20 00:00:00")
	if err != nil {
		t.Fatalf("DeleteBefore failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}

	count, _ := store.CountRows(ctx)
	if count != 2 {
		t.Errorf("expected 2 rows remaining, got %d", count)
	}

	// Cutoff equal to a stored time keeps that row (strictly before).
	removed, _ = store.DeleteBefore(ctx, "2026-08-20 15:45:00")
	if removed != 0 {
		t.Errorf("expected 0 removed at exact cutoff, got %d", removed)
	}
}
