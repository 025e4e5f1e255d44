package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qvariance-lab/internal/domain"
	"qvariance-lab/internal/storage"
)

func TestPricePathStore_InsertBulk(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPricePathStore(conn)
	ctx := context.Background()

	// Test empty insert
	err := store.InsertBulk(ctx, nil)
	assert.NoError(t, err)

	points := []*domain.PricePoint{
		{RunID: "run-1", Day: 0, Price: 100.0, LogReturn: 0},
		{RunID: "run-1", Day: 1, Price: 101.5, LogReturn: 0.014888612493750654},
	}

	err = store.InsertBulk(ctx, points)
	require.NoError(t, err)

	got, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "run-1", got[0].RunID)
	assert.Equal(t, int64(0), got[0].Day)
	assert.Equal(t, 100.0, got[0].Price)
	assert.Equal(t, int64(1), got[1].Day)
	assert.Equal(t, 0.014888612493750654, got[1].LogReturn)
}

func TestPricePathStore_InsertBulk_DuplicateKey(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPricePathStore(conn)
	ctx := context.Background()

	points := []*domain.PricePoint{{RunID: "run-1", Day: 0, Price: 100.0}}

	err := store.InsertBulk(ctx, points)
	require.NoError(t, err)

	err = store.InsertBulk(ctx, points)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestPricePathStore_InsertBulk_IntraBatchDuplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPricePathStore(conn)
	ctx := context.Background()

	points := []*domain.PricePoint{
		{RunID: "run-1", Day: 3, Price: 100.0},
		{RunID: "run-1", Day: 3, Price: 101.0},
	}

	err := store.InsertBulk(ctx, points)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPricePathStore_AppendToExistingRun(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPricePathStore(conn)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, []*domain.PricePoint{{RunID: "run-1", Day: 0, Price: 100.0}}))
	require.NoError(t, store.InsertBulk(ctx, []*domain.PricePoint{{RunID: "run-1", Day: 1, Price: 99.0}}))

	got, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestPricePathStore_GetByDayRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPricePathStore(conn)
	ctx := context.Background()

	var points []*domain.PricePoint
	for d := int64(0); d < 20; d++ {
		points = append(points, &domain.PricePoint{RunID: "run-1", Day: d, Price: 100 + float64(d)})
	}
	points = append(points, &domain.PricePoint{RunID: "run-2", Day: 5, Price: 1})
	require.NoError(t, store.InsertBulk(ctx, points))

	got, err := store.GetByDayRange(ctx, "run-1", 5, 9)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, int64(5), got[0].Day)
	assert.Equal(t, int64(9), got[4].Day)

	got, err = store.GetByDayRange(ctx, "run-1", 9, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}
