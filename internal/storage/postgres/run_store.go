package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"qvariance-lab/internal/domain"
	"qvariance-lab/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

const runColumns = `
	run_id, ticker, n_days, s0, sigma0, kappa, c_int, a_shape, lam_cap,
	seed, burn_in, path_len, row_count, created_at
`

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
// A zero CreatedAt is stamped with the current time.
func (s *RunStore) Insert(ctx context.Context, r *domain.SimulationRun) error {
	if r == nil {
		return storage.ErrInvalidInput
	}
	id, err := uuid.Parse(r.RunID)
	if err != nil {
		return fmt.Errorf("%w: run_id: %v", storage.ErrInvalidInput, err)
	}

	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `INSERT INTO simulation_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	p := r.Params
	_, err = s.pool.Exec(ctx, query,
		id,
		r.Ticker,
		p.NDays,
		p.S0,
		p.Sigma0,
		p.Kappa,
		p.CInt,
		p.AShape,
		p.LamCap,
		p.Seed,
		p.BurnIn,
		r.PathLen,
		r.RowCount,
		createdAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.SimulationRun, error) {
	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, storage.ErrNotFound
	}

	query := `SELECT ` + runColumns + ` FROM simulation_runs WHERE run_id = $1`

	r, err := scanRun(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run by id: %w", err)
	}
	return r, nil
}

// GetByTicker retrieves all runs for a ticker, ordered by created_at ASC.
func (s *RunStore) GetByTicker(ctx context.Context, ticker string) ([]*domain.SimulationRun, error) {
	query := `SELECT ` + runColumns + ` FROM simulation_runs
		WHERE ticker = $1
		ORDER BY created_at ASC, run_id ASC`

	rows, err := s.pool.Query(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("get runs by ticker: %w", err)
	}
	defer rows.Close()

	var runs []*domain.SimulationRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// UpdateRowCount records the number of dataset rows emitted for a run.
func (s *RunStore) UpdateRowCount(ctx context.Context, runID string, rowCount int) error {
	if rowCount < 0 {
		return storage.ErrInvalidInput
	}
	id, err := uuid.Parse(runID)
	if err != nil {
		return storage.ErrNotFound
	}

	tag, err := s.pool.Exec(ctx, `UPDATE simulation_runs SET row_count = $2 WHERE run_id = $1`, id, rowCount)
	if err != nil {
		return fmt.Errorf("update row count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanRun(row pgx.Row) (*domain.SimulationRun, error) {
	var r domain.SimulationRun
	var id uuid.UUID
	p := &r.Params

	err := row.Scan(
		&id,
		&r.Ticker,
		&p.NDays,
		&p.S0,
		&p.Sigma0,
		&p.Kappa,
		&p.CInt,
		&p.AShape,
		&p.LamCap,
		&p.Seed,
		&p.BurnIn,
		&r.PathLen,
		&r.RowCount,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.RunID = id.String()
	return &r, nil
}
