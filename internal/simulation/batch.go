package simulation

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"qvariance-lab/internal/domain"
)

// SimulateBatch runs independent paths concurrently, at most workers at a time
// (workers <= 0 means unbounded). Results keep the order of params.
// All params are validated before any path starts.
func SimulateBatch(ctx context.Context, params []domain.SimulationParams, workers int) ([]*domain.PricePath, error) {
	for i, p := range params {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("params[%d]: %w", i, err)
		}
	}

	paths := make([]*domain.PricePath, len(params))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, p := range params {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path, err := Simulate(p)
			if err != nil {
				return fmt.Errorf("simulate seed %d: %w", p.Seed, err)
			}
			paths[i] = path
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
