package domain

import "fmt"

// HorizonRow is one record of the q-variance dataset.
type HorizonRow struct {
	Ticker string  // label, constant per run
	Date   int     // window start index into the return series
	T      int     // window length in trading days
	Z      float64 // standardized, per-horizon de-meaned cumulative return
	Sigma  float64 // annualized realized volatility of the window
}

// HorizonSet is the ordered set of window lengths under study.
type HorizonSet []int

// Official horizon grid: 1 through 26 weeks of 5 trading days.
const (
	HorizonStepDays = 5
	HorizonCount    = 26
)

// OfficialHorizons returns 5, 10, ..., 130.
func OfficialHorizons() HorizonSet {
	hs := make(HorizonSet, HorizonCount)
	for i := range hs {
		hs[i] = HorizonStepDays * (i + 1)
	}
	return hs
}

// Validate rejects empty sets, non-positive and repeated window lengths.
func (hs HorizonSet) Validate() error {
	if len(hs) == 0 {
		return fmt.Errorf("%w: horizon set is empty", ErrInvalidConfig)
	}
	seen := make(map[int]struct{}, len(hs))
	for _, t := range hs {
		if t <= 0 {
			return fmt.Errorf("%w: horizon must be positive, got %d", ErrInvalidConfig, t)
		}
		if _, dup := seen[t]; dup {
			return fmt.Errorf("%w: horizon %d listed twice", ErrInvalidConfig, t)
		}
		seen[t] = struct{}{}
	}
	return nil
}

// HorizonSummary holds descriptive aggregates of one horizon's rows.
type HorizonSummary struct {
	T           int     // horizon in trading days
	Count       int     // surviving rows
	MeanZ       float64 // ~0 after centering
	StdZ        float64 // population std of z
	MeanZ2      float64 // mean of z^2
	MeanSigma   float64 // mean realized volatility
	MedianSigma float64
	SigmaP10    float64
	SigmaP90    float64
}
