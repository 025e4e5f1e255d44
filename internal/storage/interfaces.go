package storage

import (
	"context"

	"qvariance-lab/internal/domain"
)

// RunStore provides access to simulation_runs storage.
type RunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.SimulationRun) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.SimulationRun, error)

	// GetByTicker retrieves all runs for a ticker, ordered by created_at ASC.
	GetByTicker(ctx context.Context, ticker string) ([]*domain.SimulationRun, error)

	// UpdateRowCount records the number of dataset rows emitted for a run.
	// It is the only mutation allowed on a run record. Returns ErrNotFound if not exists.
	UpdateRowCount(ctx context.Context, runID string, rowCount int) error
}

// PricePathStore provides access to price_paths storage.
type PricePathStore interface {
	// InsertBulk adds multiple points. Fails entire batch on duplicate (run_id, day).
	InsertBulk(ctx context.Context, points []*domain.PricePoint) error

	// GetByRunID retrieves all points for a run, ordered by day ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.PricePoint, error)

	// GetByDayRange retrieves points for a run within [start, end] (inclusive).
	GetByDayRange(ctx context.Context, runID string, start, end int64) ([]*domain.PricePoint, error)
}

// HorizonRowStore provides access to qvariance_rows storage.
type HorizonRowStore interface {
	// InsertBulk adds multiple rows. Fails entire batch on duplicate (run_id, horizon, date).
	InsertBulk(ctx context.Context, rows []*domain.DatasetRow) error

	// GetByRunID retrieves all rows for a run, ordered by horizon ASC, date ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.DatasetRow, error)

	// GetByHorizon retrieves rows of a single horizon for a run, ordered by date ASC.
	GetByHorizon(ctx context.Context, runID string, horizon int) ([]*domain.DatasetRow, error)
}
