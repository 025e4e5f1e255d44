package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is returned when simulation or dataset configuration fails validation.
// Checked before any work begins; no partial output is produced.
var ErrInvalidConfig = errors.New("invalid configuration")

// Model constants shared by the simulator and the dataset builder.
const (
	TradingDaysPerYear = 252.0 // daily step, dt = 1/252
	TauFloor           = 1e-10 // latent precision never drops below this
	LambdaFloor        = 1e-8  // lower clamp on stationary jump intensity
	DefaultTicker      = "DRAGON"
)

// SimulationParams is the immutable configuration of one simulation run.
type SimulationParams struct {
	NDays  int     // number of observations to emit
	S0     float64 // initial price
	Sigma0 float64 // overall volatility scale (annualized)
	Kappa  float64 // mean-reversion speed of tau
	CInt   float64 // jump intensity scale, lambda = c_int / tau
	AShape float64 // shape of the stationary tau distribution
	LamCap float64 // hard ceiling on Poisson intensity
	Seed   int64   // random stream identifier
	BurnIn int     // warm-up observations discarded before output
}

// DefaultSimulationParams returns the reference parameter set.
func DefaultSimulationParams() SimulationParams {
	return SimulationParams{
		NDays:  300_000,
		S0:     100.0,
		Sigma0: 0.25,
		Kappa:  0.02,
		CInt:   15.0,
		AShape: 1.5,
		LamCap: 500.0,
		Seed:   1,
		BurnIn: 0,
	}
}

// Validate checks that every scale parameter is strictly positive and finite.
func (p SimulationParams) Validate() error {
	if p.NDays < 1 {
		return fmt.Errorf("%w: n_days must be >= 1, got %d", ErrInvalidConfig, p.NDays)
	}
	if p.BurnIn < 0 {
		return fmt.Errorf("%w: burn_in must be >= 0, got %d", ErrInvalidConfig, p.BurnIn)
	}

	positive := []struct {
		name  string
		value float64
	}{
		{"s0", p.S0},
		{"sigma0", p.Sigma0},
		{"kappa", p.Kappa},
		{"c_int", p.CInt},
		{"a_shape", p.AShape},
		{"lam_cap", p.LamCap},
	}
	for _, f := range positive {
		if !(f.value > 0) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s must be positive and finite, got %v", ErrInvalidConfig, f.name, f.value)
		}
	}
	return nil
}

// Theta returns the stationary mean of the latent precision process.
func (p SimulationParams) Theta() float64 {
	return p.AShape / (p.Sigma0 * p.Sigma0)
}

// Eta returns the vol-of-vol coefficient of the square-root diffusion.
func (p SimulationParams) Eta() float64 {
	return math.Sqrt(2.0 * p.Kappa * p.Theta() / p.AShape)
}

// LatentState is the per-run mutable simulator state.
// It is created for one run and never shared across runs.
type LatentState struct {
	Tau      float64 // latent precision proxy, always >= TauFloor
	LogPrice float64 // cumulative log price
}

// PricePath is the simulator output.
// Returns[i] is the log return from Prices[i] to Prices[i+1].
type PricePath struct {
	Prices  []float64 // n_days strictly positive prices
	Returns []float64 // n_days-1 per-step log returns
}

// Len returns the number of prices in the path.
func (p *PricePath) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Prices)
}
