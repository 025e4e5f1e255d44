package simulation

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Source provides the random draws consumed by the simulator.
// Implementations must be deterministic for a given seed.
type Source interface {
	// StdNormal returns a standard normal draw.
	StdNormal() float64

	// Poisson returns a Poisson draw with mean lambda.
	Poisson(lambda float64) int
}

// pcgStream is the fixed PCG increment; the seed selects the state.
const pcgStream = 0x9e3779b97f4a7c15

// distuvSource draws from gonum distributions over a single PCG stream.
type distuvSource struct {
	src    rand.Source
	normal distuv.Normal
}

// NewSource creates a seeded Source backed by gonum/stat/distuv.
func NewSource(seed int64) Source {
	src := rand.NewPCG(uint64(seed), pcgStream)
	return &distuvSource{
		src:    src,
		normal: distuv.Normal{Mu: 0, Sigma: 1, Src: src},
	}
}

func (s *distuvSource) StdNormal() float64 {
	return s.normal.Rand()
}

func (s *distuvSource) Poisson(lambda float64) int {
	if !(lambda > 0) {
		return 0
	}
	return int(distuv.Poisson{Lambda: lambda, Src: s.src}.Rand())
}

var _ Source = (*distuvSource)(nil)
