package memory

import (
	"context"
	"errors"
	"testing"

	"qvariance-lab/internal/domain"
	"qvariance-lab/internal/storage"
)

func datasetRow(runID string, horizon, date int, z, sigma float64) *domain.DatasetRow {
	return &domain.DatasetRow{
		RunID: runID,
		HorizonRow: domain.HorizonRow{
			Ticker: "DRAGON",
			Date:   date,
			T:      horizon,
			Z:      z,
			Sigma:  sigma,
		},
	}
}

func TestHorizonRowStore_InsertBulkAndGet(t *testing.T) {
	store := NewHorizonRowStore()
	ctx := context.Background()

	rows := []*domain.DatasetRow{
		datasetRow("r1", 10, 0, 0.3, 0.2),
		datasetRow("r1", 5, 1, -0.1, 0.25),
		datasetRow("r1", 5, 0, 0.1, 0.21),
		datasetRow("r2", 5, 0, 0.0, 0.3),
	}

	if err := store.InsertBulk(ctx, rows); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByRunID(ctx, "r1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(result))
	}

	// Ordered by horizon, then date
	want := [][2]int{{5, 0}, {5, 1}, {10, 0}}
	for i, w := range want {
		if result[i].T != w[0] || result[i].Date != w[1] {
			t.Errorf("row %d: got (T=%d, date=%d), want (T=%d, date=%d)", i, result[i].T, result[i].Date, w[0], w[1])
		}
	}
}

func TestHorizonRowStore_GetByHorizon(t *testing.T) {
	store := NewHorizonRowStore()
	ctx := context.Background()

	_ = store.InsertBulk(ctx, []*domain.DatasetRow{
		datasetRow("r1", 5, 2, 0.1, 0.2),
		datasetRow("r1", 5, 0, 0.1, 0.2),
		datasetRow("r1", 10, 0, 0.1, 0.2),
	})

	result, err := store.GetByHorizon(ctx, "r1", 5)
	if err != nil {
		t.Fatalf("GetByHorizon failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 rows for T=5, got %d", len(result))
	}
	if result[0].Date != 0 || result[1].Date != 2 {
		t.Errorf("Expected date order [0 2], got [%d %d]", result[0].Date, result[1].Date)
	}
}

func TestHorizonRowStore_DuplicateKey(t *testing.T) {
	store := NewHorizonRowStore()
	ctx := context.Background()

	rows := []*domain.DatasetRow{datasetRow("r1", 5, 0, 0.1, 0.2)}
	if err := store.InsertBulk(ctx, rows); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.InsertBulk(ctx, rows)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestHorizonRowStore_IntraBatchDuplicate(t *testing.T) {
	store := NewHorizonRowStore()
	ctx := context.Background()

	rows := []*domain.DatasetRow{
		datasetRow("r1", 5, 0, 0.1, 0.2),
		datasetRow("r1", 10, 0, 0.1, 0.2),
		datasetRow("r1", 5, 0, 0.2, 0.3), // duplicate key
	}

	err := store.InsertBulk(ctx, rows)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey for intra-batch duplicate, got %v", err)
	}

	result, _ := store.GetByRunID(ctx, "r1")
	if len(result) != 0 {
		t.Errorf("Expected 0 rows (rollback), got %d", len(result))
	}
}

func TestHorizonRowStore_InvalidInput(t *testing.T) {
	store := NewHorizonRowStore()
	ctx := context.Background()

	cases := [][]*domain.DatasetRow{
		{nil},
		{datasetRow("", 5, 0, 0, 0.1)},
		{datasetRow("r1", 0, 0, 0, 0.1)},
		{datasetRow("r1", 5, -1, 0, 0.1)},
	}
	for i, rows := range cases {
		if err := store.InsertBulk(ctx, rows); !errors.Is(err, storage.ErrInvalidInput) {
			t.Errorf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}
