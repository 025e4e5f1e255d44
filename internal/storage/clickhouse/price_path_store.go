package clickhouse

import (
	"context"
	"fmt"

	"qvariance-lab/internal/domain"
	"qvariance-lab/internal/storage"
)

// PricePathStore implements storage.PricePathStore using ClickHouse.
type PricePathStore struct {
	conn *Conn
}

// NewPricePathStore creates a new PricePathStore.
func NewPricePathStore(conn *Conn) *PricePathStore {
	return &PricePathStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PricePathStore = (*PricePathStore)(nil)

// InsertBulk adds multiple points. Fails entire batch on duplicate (run_id, day).
func (s *PricePathStore) InsertBulk(ctx context.Context, points []*domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	type key struct {
		runID string
		day   int64
	}
	seen := make(map[key]struct{}, len(points))
	runs := make(map[string]struct{})
	for _, p := range points {
		if p == nil || p.RunID == "" || p.Day < 0 {
			return storage.ErrInvalidInput
		}
		k := key{p.RunID, p.Day}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
		runs[p.RunID] = struct{}{}
	}

	// Per-day probes only run for runs that already have rows.
	for runID := range runs {
		count, err := s.countRun(ctx, runID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if count == 0 {
			continue
		}
		for _, p := range points {
			if p.RunID != runID {
				continue
			}
			exists, err := s.exists(ctx, p.RunID, p.Day)
			if err != nil {
				return fmt.Errorf("check exists: %w", err)
			}
			if exists {
				return storage.ErrDuplicateKey
			}
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_paths (run_id, day, price, log_return)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if err := batch.Append(p.RunID, uint64(p.Day), p.Price, p.LogReturn); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRunID retrieves all points for a run, ordered by day ASC.
func (s *PricePathStore) GetByRunID(ctx context.Context, runID string) ([]*domain.PricePoint, error) {
	query := `
		SELECT run_id, day, price, log_return
		FROM price_paths
		WHERE run_id = ?
		ORDER BY day ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run id: %w", err)
	}
	defer rows.Close()

	return scanPricePoints(rows)
}

// GetByDayRange retrieves points for a run within [start, end] (inclusive).
func (s *PricePathStore) GetByDayRange(ctx context.Context, runID string, start, end int64) ([]*domain.PricePoint, error) {
	if start < 0 {
		start = 0
	}
	if end < start {
		return nil, nil
	}

	query := `
		SELECT run_id, day, price, log_return
		FROM price_paths
		WHERE run_id = ? AND day >= ? AND day <= ?
		ORDER BY day ASC
	`

	rows, err := s.conn.Query(ctx, query, runID, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by day range: %w", err)
	}
	defer rows.Close()

	return scanPricePoints(rows)
}

func (s *PricePathStore) countRun(ctx context.Context, runID string) (uint64, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM price_paths WHERE run_id = ?`, runID).Scan(&count)
	return count, err
}

func (s *PricePathStore) exists(ctx context.Context, runID string, day int64) (bool, error) {
	query := `
		SELECT count(*) FROM price_paths
		WHERE run_id = ? AND day = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, runID, uint64(day)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanPricePoints(rows chRows) ([]*domain.PricePoint, error) {
	var points []*domain.PricePoint

	for rows.Next() {
		var p domain.PricePoint
		var day uint64

		if err := rows.Scan(&p.RunID, &day, &p.Price, &p.LogReturn); err != nil {
			return nil, fmt.Errorf("scan price path row: %w", err)
		}

		p.Day = int64(day)
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price path rows: %w", err)
	}

	return points, nil
}
