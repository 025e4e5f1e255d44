// Package simulation generates synthetic daily price paths driven by a latent
// CIR precision process and a compound Poisson-Gaussian return model.
package simulation

import (
	"errors"
	"math"

	"qvariance-lab/internal/domain"
)

// Daily step.
const dt = 1.0 / domain.TradingDaysPerYear

var sqrtDt = math.Sqrt(dt)

// ErrNilSource is returned when a simulator is built without a random source.
var ErrNilSource = errors.New("simulation: nil random source")

// calibration holds values derived once per run from SimulationParams.
type calibration struct {
	theta  float64 // stationary mean of tau
	eta    float64 // vol of vol
	kappa  float64
	cInt   float64
	lamCap float64
	lamBar float64 // intensity at tau = theta, clamped
	sUnit  float64 // per-jump return std
}

// newCalibration derives the stationary parameters.
// s_unit^2 * lam_bar equals the daily target variance sigma0^2/252.
func newCalibration(p domain.SimulationParams) calibration {
	theta := p.Theta()

	lamBar := math.Min(p.LamCap, p.CInt/theta)
	lamBar = math.Max(lamBar, domain.LambdaFloor)

	sUnit2 := (p.Sigma0 * p.Sigma0 / domain.TradingDaysPerYear) / lamBar

	return calibration{
		theta:  theta,
		eta:    p.Eta(),
		kappa:  p.Kappa,
		cInt:   p.CInt,
		lamCap: p.LamCap,
		lamBar: lamBar,
		sUnit:  math.Sqrt(sUnit2),
	}
}

// StepObserver is called after every latent update with the step index
// (1-based over the full path, burn-in included) and the new state.
type StepObserver func(step int, state domain.LatentState)

// Simulator runs the latent-precision recurrence for one parameter set.
type Simulator struct {
	params   domain.SimulationParams
	cal      calibration
	src      Source
	observer StepObserver
}

// New creates a simulator. Params are validated before any draw is made.
func New(p domain.SimulationParams, src Source) (*Simulator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, ErrNilSource
	}
	return &Simulator{
		params: p,
		cal:    newCalibration(p),
		src:    src,
	}, nil
}

// WithObserver sets a per-step observer. Used by tests and diagnostics.
func (s *Simulator) WithObserver(fn StepObserver) *Simulator {
	s.observer = fn
	return s
}

// Simulate runs one path with the default seeded source.
func Simulate(p domain.SimulationParams) (*domain.PricePath, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return SimulateWith(p, NewSource(p.Seed))
}

// SimulateWith runs one path against an injected source.
func SimulateWith(p domain.SimulationParams, src Source) (*domain.PricePath, error) {
	sim, err := New(p, src)
	if err != nil {
		return nil, err
	}
	return sim.Run(), nil
}

// Run executes the recurrence and returns the retained path.
// With BurnIn > 0 the first BurnIn observations are generated and discarded;
// the returned prices still carry the drift accumulated during burn-in.
func (s *Simulator) Run() *domain.PricePath {
	p := s.params
	total := p.NDays + p.BurnIn

	state := domain.LatentState{
		Tau:      s.cal.theta,
		LogPrice: math.Log(p.S0),
	}

	path := &domain.PricePath{
		Prices:  make([]float64, p.NDays),
		Returns: make([]float64, p.NDays-1),
	}

	// cum is LogPrice - log(S0); pricing from it keeps Prices[0] == S0 exactly.
	cum := 0.0
	for t := 0; t < total; t++ {
		if t > 0 {
			r := s.step(&state)
			cum += r
			if s.observer != nil {
				s.observer(t, state)
			}
			if t > p.BurnIn {
				path.Returns[t-p.BurnIn-1] = r
			}
		}
		if t >= p.BurnIn {
			path.Prices[t-p.BurnIn] = p.S0 * math.Exp(cum)
		}
	}

	return path
}

// step advances tau one Euler-Maruyama step and draws the day's return.
// Draw order: normal (latent), Poisson (count), normal (size) only if count > 0.
func (s *Simulator) step(state *domain.LatentState) float64 {
	c := s.cal

	z := s.src.StdNormal()
	tauPos := math.Max(state.Tau, 0)
	tau := state.Tau + c.kappa*(c.theta-tauPos)*dt + c.eta*math.Sqrt(tauPos)*sqrtDt*z

	// NaN compares false, so it is floored as well.
	if !(tau >= domain.TauFloor) {
		tau = domain.TauFloor
	}
	state.Tau = tau

	lam := c.cInt / tau
	if lam > c.lamCap {
		lam = c.lamCap
	}

	n := s.src.Poisson(lam)
	if n <= 0 {
		return 0
	}

	r := s.src.StdNormal() * c.sUnit * math.Sqrt(float64(n))
	state.LogPrice += r
	return r
}
