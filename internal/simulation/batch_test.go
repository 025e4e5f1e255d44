package simulation

import (
	"context"
	"errors"
	"testing"

	"qvariance-lab/internal/domain"
)

func TestSimulateBatch_MatchesSequential(t *testing.T) {
	var params []domain.SimulationParams
	for seed := int64(1); seed <= 6; seed++ {
		p := domain.DefaultSimulationParams()
		p.NDays = 400
		p.Seed = seed
		params = append(params, p)
	}

	paths, err := SimulateBatch(context.Background(), params, 2)
	if err != nil {
		t.Fatalf("SimulateBatch failed: %v", err)
	}
	if len(paths) != len(params) {
		t.Fatalf("expected %d paths, got %d", len(params), len(paths))
	}

	for i, p := range params {
		want, _ := Simulate(p)
		for j := range want.Prices {
			if paths[i].Prices[j] != want.Prices[j] {
				t.Fatalf("path %d price %d: %v vs %v", i, j, paths[i].Prices[j], want.Prices[j])
			}
		}
	}
}

func TestSimulateBatch_InvalidParamsFailFast(t *testing.T) {
	good := domain.DefaultSimulationParams()
	good.NDays = 10
	bad := good
	bad.Kappa = 0

	paths, err := SimulateBatch(context.Background(), []domain.SimulationParams{good, bad}, 0)
	if !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	if paths != nil {
		t.Errorf("expected no partial output, got %d paths", len(paths))
	}
}

func TestSimulateBatch_CancelledContext(t *testing.T) {
	p := domain.DefaultSimulationParams()
	p.NDays = 10

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := SimulateBatch(ctx, []domain.SimulationParams{p, p}, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSimulateBatch_Empty(t *testing.T) {
	paths, err := SimulateBatch(context.Background(), nil, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("expected no paths, got %d", len(paths))
	}
}
