package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"qvariance-lab/internal/domain"
	"qvariance-lab/internal/storage"
)

// PricePathStore is an in-memory implementation of storage.PricePathStore.
type PricePathStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PricePoint // keyed by (run_id, day)
}

// NewPricePathStore creates a new in-memory price path store.
func NewPricePathStore() *PricePathStore {
	return &PricePathStore{
		data: make(map[string]*domain.PricePoint),
	}
}

func priceKey(runID string, day int64) string {
	return fmt.Sprintf("%s|%d", runID, day)
}

// InsertBulk adds multiple points. Fails entire batch on duplicate.
func (s *PricePathStore) InsertBulk(_ context.Context, points []*domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(points))

	// First pass: validate and check duplicates (existing + intra-batch)
	for _, p := range points {
		if p == nil || p.RunID == "" || p.Day < 0 {
			return storage.ErrInvalidInput
		}
		key := priceKey(p.RunID, p.Day)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, p := range points {
		pointCopy := *p
		s.data[priceKey(p.RunID, p.Day)] = &pointCopy
	}

	return nil
}

// GetByRunID retrieves all points for a run, ordered by day ASC.
func (s *PricePathStore) GetByRunID(_ context.Context, runID string) ([]*domain.PricePoint, error) {
	return s.collect(func(p *domain.PricePoint) bool {
		return p.RunID == runID
	}), nil
}

// GetByDayRange retrieves points for a run within [start, end] (inclusive).
func (s *PricePathStore) GetByDayRange(_ context.Context, runID string, start, end int64) ([]*domain.PricePoint, error) {
	return s.collect(func(p *domain.PricePoint) bool {
		return p.RunID == runID && p.Day >= start && p.Day <= end
	}), nil
}

func (s *PricePathStore) collect(match func(*domain.PricePoint) bool) []*domain.PricePoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PricePoint
	for _, p := range s.data {
		if match(p) {
			pointCopy := *p
			result = append(result, &pointCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Day < result[j].Day
	})

	return result
}

var _ storage.PricePathStore = (*PricePathStore)(nil)
