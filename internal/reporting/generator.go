package reporting

import (
	"context"
	"fmt"
	"time"

	"qvariance-lab/internal/domain"
	"qvariance-lab/internal/storage"
)

// Generator produces reports from stored runs.
type Generator struct {
	runStore storage.RunStore
	rowStore storage.HorizonRowStore
	curve    CurveOptions
	now      func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(runStore storage.RunStore, rowStore storage.HorizonRowStore) *Generator {
	return &Generator{
		runStore: runStore,
		rowStore: rowStore,
		curve:    DefaultCurveOptions(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithCurve overrides the q-variance curve options.
func (g *Generator) WithCurve(opts CurveOptions) *Generator {
	g.curve = opts
	return g
}

// Generate loads the given runs and their dataset rows and summarizes them.
// Runs appear in argument order.
func (g *Generator) Generate(ctx context.Context, runIDs ...string) (*Report, error) {
	report := &Report{GeneratedAt: g.now()}

	for _, id := range runIDs {
		run, err := g.runStore.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load run %s: %w", id, err)
		}

		stored, err := g.rowStore.GetByRunID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load rows for run %s: %w", id, err)
		}

		rows := make([]domain.HorizonRow, len(stored))
		for i, r := range stored {
			rows[i] = r.HorizonRow
		}

		rr, err := NewRunReport(*run, nil, rows, g.curve)
		if err != nil {
			return nil, err
		}
		report.Runs = append(report.Runs, rr)
	}

	return report, nil
}

// GenerateForTicker reports every stored run of a ticker, oldest first.
func (g *Generator) GenerateForTicker(ctx context.Context, ticker string) (*Report, error) {
	runs, err := g.runStore.GetByTicker(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("load runs for ticker %s: %w", ticker, err)
	}

	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.RunID
	}
	return g.Generate(ctx, ids...)
}
