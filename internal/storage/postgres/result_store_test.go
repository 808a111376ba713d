package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maxpain-lab/internal/domain"
	"maxpain-lab/internal/idhash"
	"maxpain-lab/internal/storage"
	pgstore "maxpain-lab/internal/storage/postgres"
)

func makeResult(stock, expiry, updateTime string) *domain.MaxPainResult {
	return &domain.MaxPainResult{
		ResultID:                 idhash.ComputeResultID(stock, expiry, updateTime),
		StockCode:                stock,
		Expiry:                   expiry,
		UpdateTime:               updateTime,
		MaxPainPriceVolume:       500,
		MaxPainPriceOpenInterest: 502.5,
		MinEarnVolume:            20,
		MinEarnOpenInterest:      500,
		SumVolume:                100,
		SumOpenInterest:          5000,
		VolumeStdDev:             12.5,
		OptionsCount:             4,
		CreatedAt:                1756222200000,
	}
}

func TestResultStore_InsertAndGetByID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewResultStore(pool)
	ctx := context.Background()

	r := makeResult("TSLA.US", "2026-09-18", "2026-08-26 15:45:00")
	require.NoError(t, store.Insert(ctx, r))

	got, err := store.GetByID(ctx, r.ResultID)
	require.NoError(t, err)
	assert.Equal(t, r.StockCode, got.StockCode)
	assert.Equal(t, r.Expiry, got.Expiry)
	assert.Equal(t, r.UpdateTime, got.UpdateTime)
	assert.Equal(t, r.MaxPainPriceVolume, got.MaxPainPriceVolume)
	assert.Equal(t, r.MaxPainPriceOpenInterest, got.MaxPainPriceOpenInterest)
	assert.Equal(t, r.MinEarnVolume, got.MinEarnVolume)
	assert.Equal(t, r.MinEarnOpenInterest, got.MinEarnOpenInterest)
	assert.Equal(t, r.SumVolume, got.SumVolume)
	assert.Equal(t, r.SumOpenInterest, got.SumOpenInterest)
	assert.InDelta(t, r.VolumeStdDev, got.VolumeStdDev, 1e-9)
	assert.Equal(t, r.OptionsCount, got.OptionsCount)

	_, err = store.GetByID(ctx, idhash.ComputeResultID("NOPE", "x", "y"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestResultStore_DuplicateInsert(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewResultStore(pool)
	ctx := context.Background()

	r := makeResult("TSLA.US", "2026-09-18", "2026-08-26 15:45:00")
	require.NoError(t, store.Insert(ctx, r))

	err := store.Insert(ctx, r)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestResultStore_InsertBulkRollsBackOnDuplicate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewResultStore(pool)
	ctx := context.Background()

	existing := makeResult("TSLA.US", "2026-09-18", "2026-08-26 15:45:00")
	require.NoError(t, store.Insert(ctx, existing))

	fresh := makeResult("AAPL.US", "2026-09-18", "2026-08-26 15:45:00")
	err := store.InsertBulk(ctx, []*domain.MaxPainResult{fresh, existing})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// The transaction rolled back the non-duplicate row too.
	_, err = store.GetByID(ctx, fresh.ResultID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestResultStore_Queries(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewResultStore(pool)
	ctx := context.Background()

	seed := []*domain.MaxPainResult{
		makeResult("TSLA.US", "2026-09-18", "2026-08-26 15:45:00"),
		makeResult("TSLA.US", "2026-09-18", "2026-08-26 16:00:00"),
		makeResult("TSLA.US", "2026-10-16", "2026-08-26 15:45:00"),
		makeResult("AAPL.US", "2026-09-18", "2026-08-26 16:00:00"),
	}
	require.NoError(t, store.InsertBulk(ctx, seed))

	byStock, err := store.GetByStock(ctx, "TSLA.US")
	require.NoError(t, err)
	require.Len(t, byStock, 3)
	// (expiry, update_time) ASC
	assert.Equal(t, "2026-09-18", byStock[0].Expiry)
	assert.Equal(t, "2026-08-26 15:45:00", byStock[0].UpdateTime)
	assert.Equal(t, "2026-10-16", byStock[2].Expiry)

	bySnapshot, err := store.GetByUpdateTime(ctx, "2026-08-26 16:00:00")
	require.NoError(t, err)
	require.Len(t, bySnapshot, 2)

	times, err := store.GetLatestUpdateTimes(ctx, 5)
	require.NoError(t, err)
	require.Len(t, times, 2)
	assert.Equal(t, "2026-08-26 16:00:00", times[0])
	assert.Equal(t, "2026-08-26 15:45:00", times[1])

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "AAPL.US", all[0].StockCode)
}
