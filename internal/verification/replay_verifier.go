package verification

import (
	"context"
	"errors"
	"fmt"

	"qvariance-lab/internal/domain"
	"qvariance-lab/internal/idhash"
	"qvariance-lab/internal/qvariance"
	"qvariance-lab/internal/simulation"
	"qvariance-lab/internal/storage"
)

// ErrRunNotFound is returned when run ID doesn't exist.
var ErrRunNotFound = errors.New("run not found")

// ReplayVerifier implements Verifier interface.
type ReplayVerifier struct {
	runStore   storage.RunStore
	priceStore storage.PricePathStore  // optional
	rowStore   storage.HorizonRowStore // optional
	builder    *qvariance.Builder
}

// ReplayVerifierOptions contains configuration for creating a ReplayVerifier.
type ReplayVerifierOptions struct {
	RunStore   storage.RunStore
	PriceStore storage.PricePathStore  // nil skips the price comparison
	RowStore   storage.HorizonRowStore // nil skips the dataset comparison
	Workers    int                     // horizon concurrency; <= 0 means unbounded
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(opts ReplayVerifierOptions) *ReplayVerifier {
	return &ReplayVerifier{
		runStore:   opts.RunStore,
		priceStore: opts.PriceStore,
		rowStore:   opts.RowStore,
		builder:    qvariance.NewBuilder(qvariance.Options{Workers: opts.Workers}),
	}
}

// VerifyRun verifies a single run by replaying its simulation.
func (v *ReplayVerifier) VerifyRun(ctx context.Context, runID string) (*VerificationResult, error) {
	// 1. Load stored run
	run, err := v.runStore.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}

	// 2. Replay simulation
	path, err := simulation.Simulate(run.Params)
	if err != nil {
		return nil, fmt.Errorf("replay run %s: %w", runID, err)
	}

	result := &VerificationResult{
		RunID:          runID,
		Ticker:         run.Ticker,
		ParamsHash:     idhash.ComputeParamsHash(run.Params),
		ReplayedPrices: path.Len(),
	}

	if run.PathLen != path.Len() {
		result.Divergences = append(result.Divergences, FieldDivergence{
			Field: "PathLen", Index: -1, Expected: run.PathLen, Actual: path.Len(),
		})
	}

	// 3. Compare price path
	if v.priceStore != nil {
		points, err := v.priceStore.GetByRunID(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("load prices for run %s: %w", runID, err)
		}
		result.StoredPrices = len(points)
		result.Divergences = append(result.Divergences, ComparePricePaths(points, path)...)
	}

	// 4. Rebuild and compare dataset
	if v.rowStore != nil {
		divs, err := v.verifyRows(ctx, run, path, result)
		if err != nil {
			return nil, err
		}
		result.Divergences = append(result.Divergences, divs...)
	}

	result.Match = len(result.Divergences) == 0
	return result, nil
}

// verifyRows rebuilds the dataset over the horizons present in storage.
// Horizons that emitted no rows rebuild to nothing, so the stored set is
// sufficient to reproduce every stored row.
func (v *ReplayVerifier) verifyRows(ctx context.Context, run *domain.SimulationRun, path *domain.PricePath, result *VerificationResult) ([]FieldDivergence, error) {
	stored, err := v.rowStore.GetByRunID(ctx, run.RunID)
	if err != nil {
		return nil, fmt.Errorf("load rows for run %s: %w", run.RunID, err)
	}

	rows := make([]domain.HorizonRow, len(stored))
	for i, r := range stored {
		rows[i] = r.HorizonRow
	}
	result.StoredRows = len(rows)

	var divs []FieldDivergence
	if run.RowCount != len(rows) {
		divs = append(divs, FieldDivergence{Field: "RunRowCount", Index: -1, Expected: run.RowCount, Actual: len(rows)})
	}

	horizons := horizonsOf(rows)
	var replayed []domain.HorizonRow
	if len(horizons) > 0 {
		ds, err := v.builder.Build(ctx, path.Prices, run.Ticker, horizons)
		if err != nil {
			return nil, fmt.Errorf("rebuild dataset for run %s: %w", run.RunID, err)
		}
		replayed = ds.Rows
	}
	result.ReplayedRows = len(replayed)
	result.DatasetHash = idhash.ComputeDatasetHash(replayed)

	return append(divs, CompareDatasetRows(rows, replayed)...), nil
}

// VerifyTicker verifies all stored runs of a ticker.
func (v *ReplayVerifier) VerifyTicker(ctx context.Context, ticker string) (*VerificationReport, error) {
	runs, err := v.runStore.GetByTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{
		TotalRuns: len(runs),
		Results:   make([]VerificationResult, 0, len(runs)),
	}

	for _, run := range runs {
		result, err := v.VerifyRun(ctx, run.RunID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Record error as divergence
			report.Results = append(report.Results, VerificationResult{
				RunID:  run.RunID,
				Ticker: run.Ticker,
				Match:  false,
				Divergences: []FieldDivergence{
					{Field: "Error", Index: -1, Expected: nil, Actual: err.Error()},
				},
			})
			report.DivergentRuns++
			continue
		}

		report.Results = append(report.Results, *result)
		if result.Match {
			report.MatchedRuns++
		} else {
			report.DivergentRuns++
		}
	}

	return report, nil
}

// horizonsOf returns the distinct horizons of rows in first-seen order.
func horizonsOf(rows []domain.HorizonRow) domain.HorizonSet {
	var hs domain.HorizonSet
	seen := make(map[int]struct{})
	for _, r := range rows {
		if _, ok := seen[r.T]; !ok {
			seen[r.T] = struct{}{}
			hs = append(hs, r.T)
		}
	}
	return hs
}

var _ Verifier = (*ReplayVerifier)(nil)
