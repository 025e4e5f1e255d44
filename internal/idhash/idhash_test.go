package idhash

import (
	"testing"

	"qvariance-lab/internal/domain"
)

func TestComputeParamsHash(t *testing.T) {
	base := domain.DefaultSimulationParams()

	got := ComputeParamsHash(base)
	if len(got) != 64 {
		t.Errorf("ComputeParamsHash() length = %d, want 64", len(got))
	}

	// Verify determinism: same inputs should produce same output
	for i := 0; i < 10; i++ {
		if again := ComputeParamsHash(base); again != got {
			t.Fatalf("Determinism failed: %s != %s", again, got)
		}
	}
}

func TestComputeParamsHash_DifferentInputs(t *testing.T) {
	base := domain.DefaultSimulationParams()
	baseHash := ComputeParamsHash(base)

	tests := []struct {
		name   string
		mutate func(p *domain.SimulationParams)
	}{
		{"n_days", func(p *domain.SimulationParams) { p.NDays++ }},
		{"s0", func(p *domain.SimulationParams) { p.S0 = 101 }},
		{"sigma0", func(p *domain.SimulationParams) { p.Sigma0 = 0.2500000001 }},
		{"kappa", func(p *domain.SimulationParams) { p.Kappa = 0.5 }},
		{"c_int", func(p *domain.SimulationParams) { p.CInt = 10 }},
		{"a_shape", func(p *domain.SimulationParams) { p.AShape = 2 }},
		{"lam_cap", func(p *domain.SimulationParams) { p.LamCap = 100 }},
		{"seed", func(p *domain.SimulationParams) { p.Seed = 2 }},
		{"burn_in", func(p *domain.SimulationParams) { p.BurnIn = 10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			if ComputeParamsHash(p) == baseHash {
				t.Errorf("Different %s should produce different hash", tt.name)
			}
		})
	}
}

func TestComputeDatasetHash(t *testing.T) {
	rows := []domain.HorizonRow{
		{Ticker: "DRAGON", Date: 0, T: 5, Z: 0.5, Sigma: 0.2},
		{Ticker: "DRAGON", Date: 1, T: 5, Z: -0.5, Sigma: 0.3},
	}
	base := ComputeDatasetHash(rows)

	if len(base) != 64 {
		t.Errorf("ComputeDatasetHash() length = %d, want 64", len(base))
	}
	if ComputeDatasetHash(rows) != base {
		t.Error("ComputeDatasetHash() not deterministic")
	}

	swapped := []domain.HorizonRow{rows[1], rows[0]}
	if ComputeDatasetHash(swapped) == base {
		t.Error("Row order should change the hash")
	}

	nudged := append([]domain.HorizonRow(nil), rows...)
	nudged[1].Z = -0.5000000000000001
	if ComputeDatasetHash(nudged) == base {
		t.Error("One-ulp change in z should change the hash")
	}

	if ComputeDatasetHash(nil) == base {
		t.Error("Empty dataset should hash differently")
	}
}
