package clickhouse

import (
	"context"
	"fmt"

	"qvariance-lab/internal/domain"
	"qvariance-lab/internal/storage"
)

// HorizonRowStore implements storage.HorizonRowStore using ClickHouse.
type HorizonRowStore struct {
	conn *Conn
}

// NewHorizonRowStore creates a new HorizonRowStore.
func NewHorizonRowStore(conn *Conn) *HorizonRowStore {
	return &HorizonRowStore{conn: conn}
}

// Compile-time interface check.
var _ storage.HorizonRowStore = (*HorizonRowStore)(nil)

// InsertBulk adds multiple rows. Fails entire batch on duplicate (run_id, horizon, date).
func (s *HorizonRowStore) InsertBulk(ctx context.Context, rows []*domain.DatasetRow) error {
	if len(rows) == 0 {
		return nil
	}

	type key struct {
		runID   string
		horizon int
		date    int
	}
	seen := make(map[key]struct{}, len(rows))
	groups := make(map[key]struct{}) // (run_id, horizon) pairs in this batch
	for _, r := range rows {
		if r == nil || r.RunID == "" || r.T <= 0 || r.Date < 0 {
			return storage.ErrInvalidInput
		}
		k := key{r.RunID, r.T, r.Date}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
		groups[key{runID: r.RunID, horizon: r.T}] = struct{}{}
	}

	for g := range groups {
		exists, err := s.dates(ctx, g.runID, g.horizon)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		for d := range exists {
			if _, clash := seen[key{g.runID, g.horizon, d}]; clash {
				return storage.ErrDuplicateKey
			}
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO qvariance_rows (run_id, ticker, date, horizon, z, sigma)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rows {
		err := batch.Append(r.RunID, r.Ticker, uint32(r.Date), uint16(r.T), r.Z, r.Sigma)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRunID retrieves all rows for a run, ordered by horizon ASC, date ASC.
func (s *HorizonRowStore) GetByRunID(ctx context.Context, runID string) ([]*domain.DatasetRow, error) {
	query := `
		SELECT run_id, ticker, date, horizon, z, sigma
		FROM qvariance_rows
		WHERE run_id = ?
		ORDER BY horizon ASC, date ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run id: %w", err)
	}
	defer rows.Close()

	return scanDatasetRows(rows)
}

// GetByHorizon retrieves rows of a single horizon for a run, ordered by date ASC.
func (s *HorizonRowStore) GetByHorizon(ctx context.Context, runID string, horizon int) ([]*domain.DatasetRow, error) {
	if horizon <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT run_id, ticker, date, horizon, z, sigma
		FROM qvariance_rows
		WHERE run_id = ? AND horizon = ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, runID, uint16(horizon))
	if err != nil {
		return nil, fmt.Errorf("query by horizon: %w", err)
	}
	defer rows.Close()

	return scanDatasetRows(rows)
}

// dates returns the window start dates already stored for (run_id, horizon).
func (s *HorizonRowStore) dates(ctx context.Context, runID string, horizon int) (map[int]struct{}, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT date FROM qvariance_rows
		WHERE run_id = ? AND horizon = ?
	`, runID, uint16(horizon))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]struct{})
	for rows.Next() {
		var d uint32
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out[int(d)] = struct{}{}
	}
	return out, rows.Err()
}

func scanDatasetRows(rows chRows) ([]*domain.DatasetRow, error) {
	var out []*domain.DatasetRow

	for rows.Next() {
		var r domain.DatasetRow
		var date uint32
		var horizon uint16

		if err := rows.Scan(&r.RunID, &r.Ticker, &date, &horizon, &r.Z, &r.Sigma); err != nil {
			return nil, fmt.Errorf("scan qvariance row: %w", err)
		}

		r.Date = int(date)
		r.T = int(horizon)
		out = append(out, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate qvariance rows: %w", err)
	}

	return out, nil
}
