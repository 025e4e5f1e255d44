// Package verification re-simulates stored runs and checks that the stored
// price path and dataset rows are reproduced from the stored parameters.
package verification

import (
	"context"
	"math"

	"qvariance-lab/internal/domain"
)

// FloatTolerance is the relative tolerance for float64 comparisons.
// Architectures that fuse multiply-add may differ in the last bits.
const FloatTolerance = 1e-9

// MaxDivergences caps the divergences recorded per comparison.
const MaxDivergences = 10

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      // field name
	Index    int         // day or row index; -1 for run-level fields
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

// VerificationResult contains the result of verifying a single run.
type VerificationResult struct {
	RunID       string
	Ticker      string
	ParamsHash  string
	Match       bool              // true if all fields match
	Divergences []FieldDivergence // first MaxDivergences per comparison

	StoredPrices   int
	ReplayedPrices int
	StoredRows     int
	ReplayedRows   int
	DatasetHash    string // hash of the replayed rows
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	TotalRuns     int
	MatchedRuns   int
	DivergentRuns int
	Results       []VerificationResult
}

// Verifier interface for run replay verification.
type Verifier interface {
	// VerifyRun loads the stored run, re-simulates it from its parameters,
	// rebuilds the dataset, and compares both against storage.
	VerifyRun(ctx context.Context, runID string) (*VerificationResult, error)

	// VerifyTicker verifies every stored run of a ticker.
	VerifyTicker(ctx context.Context, ticker string) (*VerificationReport, error)
}

// divergences collects mismatches up to MaxDivergences.
type divergences struct {
	list    []FieldDivergence
	dropped int
}

func (d *divergences) add(field string, index int, expected, actual interface{}) {
	if len(d.list) >= MaxDivergences {
		d.dropped++
		return
	}
	d.list = append(d.list, FieldDivergence{Field: field, Index: index, Expected: expected, Actual: actual})
}

// ComparePricePaths compares stored points against a replayed path.
// Uses FloatTolerance for prices and log returns.
func ComparePricePaths(stored []*domain.PricePoint, replayed *domain.PricePath) []FieldDivergence {
	var d divergences

	if len(stored) != replayed.Len() {
		d.add("PathLen", -1, len(stored), replayed.Len())
	}

	n := min(len(stored), replayed.Len())
	for i := 0; i < n; i++ {
		pt := stored[i]
		if pt.Day != int64(i) {
			d.add("Day", i, pt.Day, int64(i))
			continue
		}
		if !floatEquals(pt.Price, replayed.Prices[i]) {
			d.add("Price", i, pt.Price, replayed.Prices[i])
		}
		want := 0.0
		if i > 0 {
			want = replayed.Returns[i-1]
		}
		if !floatEquals(pt.LogReturn, want) {
			d.add("LogReturn", i, pt.LogReturn, want)
		}
	}

	return d.list
}

// CompareDatasetRows compares stored rows against replayed rows, both in
// horizon then date order. Uses FloatTolerance for z and sigma.
func CompareDatasetRows(stored, replayed []domain.HorizonRow) []FieldDivergence {
	var d divergences

	if len(stored) != len(replayed) {
		d.add("RowCount", -1, len(stored), len(replayed))
	}

	n := min(len(stored), len(replayed))
	for i := 0; i < n; i++ {
		s, r := stored[i], replayed[i]
		if s.T != r.T || s.Date != r.Date {
			// Keys out of step: later rows cannot be paired.
			d.add("Key", i, [2]int{s.T, s.Date}, [2]int{r.T, r.Date})
			break
		}
		if s.Ticker != r.Ticker {
			d.add("Ticker", i, s.Ticker, r.Ticker)
		}
		if !floatEquals(s.Z, r.Z) {
			d.add("Z", i, s.Z, r.Z)
		}
		if !floatEquals(s.Sigma, r.Sigma) {
			d.add("Sigma", i, s.Sigma, r.Sigma)
		}
	}

	return d.list
}

// floatEquals compares two float64 values within FloatTolerance relative
// to the larger magnitude (absolute below 1).
func floatEquals(a, b float64) bool {
	if a == b {
		return true
	}
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= FloatTolerance*scale
}
