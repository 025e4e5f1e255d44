package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"qvariance-lab/internal/domain"
	"qvariance-lab/internal/storage"
)

// HorizonRowStore is an in-memory implementation of storage.HorizonRowStore.
type HorizonRowStore struct {
	mu   sync.RWMutex
	data map[string]*domain.DatasetRow // keyed by (run_id, horizon, date)
}

// NewHorizonRowStore creates a new in-memory dataset row store.
func NewHorizonRowStore() *HorizonRowStore {
	return &HorizonRowStore{
		data: make(map[string]*domain.DatasetRow),
	}
}

func rowKey(runID string, horizon, date int) string {
	return fmt.Sprintf("%s|%d|%d", runID, horizon, date)
}

// InsertBulk adds multiple rows. Fails entire batch on duplicate.
func (s *HorizonRowStore) InsertBulk(_ context.Context, rows []*domain.DatasetRow) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(rows))

	for _, r := range rows {
		if r == nil || r.RunID == "" || r.T <= 0 || r.Date < 0 {
			return storage.ErrInvalidInput
		}
		key := rowKey(r.RunID, r.T, r.Date)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, r := range rows {
		rowCopy := *r
		s.data[rowKey(r.RunID, r.T, r.Date)] = &rowCopy
	}

	return nil
}

// GetByRunID retrieves all rows for a run, ordered by horizon ASC, date ASC.
func (s *HorizonRowStore) GetByRunID(_ context.Context, runID string) ([]*domain.DatasetRow, error) {
	return s.collect(func(r *domain.DatasetRow) bool {
		return r.RunID == runID
	}), nil
}

// GetByHorizon retrieves rows of a single horizon for a run, ordered by date ASC.
func (s *HorizonRowStore) GetByHorizon(_ context.Context, runID string, horizon int) ([]*domain.DatasetRow, error) {
	return s.collect(func(r *domain.DatasetRow) bool {
		return r.RunID == runID && r.T == horizon
	}), nil
}

func (s *HorizonRowStore) collect(match func(*domain.DatasetRow) bool) []*domain.DatasetRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DatasetRow
	for _, r := range s.data {
		if match(r) {
			rowCopy := *r
			result = append(result, &rowCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].T != result[j].T {
			return result[i].T < result[j].T
		}
		return result[i].Date < result[j].Date
	})

	return result
}

var _ storage.HorizonRowStore = (*HorizonRowStore)(nil)
