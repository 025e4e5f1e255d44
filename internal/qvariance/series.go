package qvariance

import "math"

// LogReturns computes ret[i] = log(p[i+1]) - log(p[i]).
// Non-positive prices yield non-finite returns, which the builder drops.
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	ret := make([]float64, len(prices)-1)
	prev := math.Log(prices[0])
	for i := 1; i < len(prices); i++ {
		cur := math.Log(prices[i])
		ret[i-1] = cur - prev
		prev = cur
	}
	return ret
}

// series is a return series prepared once and shared read-only by every horizon.
type series struct {
	clean []float64 // non-finite values replaced by 0
	bad   []int     // bad[i] = number of non-finite values in ret[:i]
	run   []int     // run[i] = length of the run of identical values ending at i
}

func newSeries(ret []float64) *series {
	n := len(ret)
	s := &series{
		clean: make([]float64, n),
		bad:   make([]int, n+1),
		run:   make([]int, n),
	}

	for i, v := range ret {
		finite := !math.IsNaN(v) && !math.IsInf(v, 0)

		s.bad[i+1] = s.bad[i]
		if finite {
			s.clean[i] = v
		} else {
			s.bad[i+1]++
		}

		s.run[i] = 1
		if i > 0 && finite && ret[i-1] == v {
			s.run[i] = s.run[i-1] + 1
		}
	}

	return s
}

func (s *series) len() int { return len(s.clean) }

// hasBad reports whether ret[i:i+t] contains a non-finite value.
func (s *series) hasBad(i, t int) bool {
	return s.bad[i+t]-s.bad[i] > 0
}

// constant reports whether every value in ret[i:i+t] is identical.
func (s *series) constant(i, t int) bool {
	return s.run[i+t-1] >= t
}
