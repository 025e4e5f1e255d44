// Package pipeline runs the end-to-end flow:
// simulate → build dataset → persist → summarize → export artifacts.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"qvariance-lab/internal/config"
	"qvariance-lab/internal/domain"
	"qvariance-lab/internal/observability"
	"qvariance-lab/internal/qvariance"
	"qvariance-lab/internal/reporting"
	"qvariance-lab/internal/simulation"
	"qvariance-lab/internal/storage"
)

// Output file names. Multi-seed runs write per-run files under a
// directory named after the run ticker.
const (
	PricesFile  = "prices.csv"
	DatasetFile = "dataset.parquet"
	ReportFile  = "report.md"
	SummaryFile = "summary.xlsx"
	SummaryCSV  = "summary.csv"
)

// Stores groups the optional persistence targets. A nil store is skipped.
type Stores struct {
	Runs   storage.RunStore
	Prices storage.PricePathStore
	Rows   storage.HorizonRowStore
}

// Options for creating Pipeline.
type Options struct {
	Stores  Stores
	Metrics *observability.Metrics // defaults to observability.DefaultMetrics
	Logger  *log.Logger            // defaults to stderr with a [pipeline] prefix
	Verbose bool

	Clock    func() time.Time // injectable for deterministic output
	NewRunID func() string    // defaults to uuid.NewString
}

// Pipeline coordinates one configured run end to end.
type Pipeline struct {
	stores   Stores
	metrics  *observability.Metrics
	logger   *log.Logger
	verbose  bool
	clock    func() time.Time
	newRunID func() string
}

// New creates a new Pipeline.
func New(opts Options) *Pipeline {
	p := &Pipeline{
		stores:   opts.Stores,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		verbose:  opts.Verbose,
		clock:    opts.Clock,
		newRunID: opts.NewRunID,
	}
	if p.metrics == nil {
		p.metrics = observability.DefaultMetrics
	}
	if p.logger == nil {
		p.logger = log.New(os.Stderr, "[pipeline] ", log.LstdFlags)
	}
	if p.clock == nil {
		p.clock = func() time.Time { return time.Now().UTC() }
	}
	if p.newRunID == nil {
		p.newRunID = uuid.NewString
	}
	return p
}

// RunSummary describes one simulated run.
type RunSummary struct {
	RunID    string
	Ticker   string
	Seed     int64
	PathLen  int
	RowCount int
	Stats    []qvariance.HorizonStats
}

// RunResult contains results from pipeline execution.
type RunResult struct {
	Runs      []RunSummary
	Artifacts []string // written file paths, in write order
	Report    *reporting.Report
}

// run carries one seed through the stages.
type run struct {
	record  domain.SimulationRun
	path    *domain.PricePath
	dataset *qvariance.Dataset
}

// Run executes the full pipeline for cfg.
// Phases:
//  1. Validate configuration
//  2. Simulate one path per seed
//  3. Build the horizon dataset of each path
//  4. Persist runs, paths and rows
//  5. Summarize and write artifacts
func (p *Pipeline) Run(ctx context.Context, cfg config.Config) (result *RunResult, err error) {
	defer func() {
		status := "success"
		if err != nil {
			status = "failure"
		}
		p.metrics.RecordPipelineRun(status, float64(p.clock().Unix()))
	}()

	// Phase 1: Validate
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Phase 2: Simulate
	seeds := cfg.RunSeeds()
	p.log("Phase 2: Simulating %d path(s) of %d days...", len(seeds), cfg.Sim.NDays)
	runs, err := p.simulate(ctx, cfg, seeds)
	if err != nil {
		return nil, fmt.Errorf("phase 2 (simulate) failed: %w", err)
	}

	// Phase 3: Build datasets
	p.log("Phase 3: Building datasets over %d horizons...", len(cfg.Horizons))
	if err := p.build(ctx, cfg, runs); err != nil {
		return nil, fmt.Errorf("phase 3 (build) failed: %w", err)
	}

	// Phase 4: Persist
	if p.persistent() {
		p.log("Phase 4: Persisting %d run(s)...", len(runs))
		if err := p.persist(ctx, runs); err != nil {
			return nil, fmt.Errorf("phase 4 (persist) failed: %w", err)
		}
	} else {
		p.log("Phase 4: Skipping persistence (no stores configured)")
	}

	// Phase 5: Summarize and export
	p.log("Phase 5: Summarizing and writing artifacts...")
	result = &RunResult{}
	report, err := p.summarize(cfg, runs)
	if err != nil {
		return nil, fmt.Errorf("phase 5 (summarize) failed: %w", err)
	}
	result.Report = report

	if cfg.OutputDir != "" {
		artifacts, err := p.export(cfg, runs, report)
		if err != nil {
			return nil, fmt.Errorf("phase 5 (export) failed: %w", err)
		}
		result.Artifacts = artifacts
	}

	for _, r := range runs {
		result.Runs = append(result.Runs, RunSummary{
			RunID:    r.record.RunID,
			Ticker:   r.record.Ticker,
			Seed:     r.record.Params.Seed,
			PathLen:  r.record.PathLen,
			RowCount: r.record.RowCount,
			Stats:    r.dataset.Stats,
		})
	}

	p.log("Pipeline completed: %d run(s), %d artifact(s)", len(result.Runs), len(result.Artifacts))
	return result, nil
}

func (p *Pipeline) simulate(ctx context.Context, cfg config.Config, seeds []int64) ([]*run, error) {
	start := time.Now()

	params := make([]domain.SimulationParams, len(seeds))
	for i, s := range seeds {
		params[i] = cfg.Sim
		params[i].Seed = s
	}

	paths, err := simulation.SimulateBatch(ctx, params, cfg.Workers)
	if err != nil {
		return nil, err
	}

	runs := make([]*run, len(paths))
	for i, path := range paths {
		p.metrics.RecordPath(params[i].NDays + params[i].BurnIn)
		runs[i] = &run{
			record: domain.SimulationRun{
				RunID:     p.newRunID(),
				Ticker:    TickerFor(cfg.Ticker, params[i].Seed, len(seeds) > 1),
				Params:    params[i],
				PathLen:   path.Len(),
				CreatedAt: p.clock(),
			},
			path: path,
		}
		p.log("  %s: %d prices, last %.4f", runs[i].record.Ticker, path.Len(), path.Prices[path.Len()-1])
	}

	p.metrics.RecordStage("simulate", time.Since(start).Seconds())
	return runs, nil
}

func (p *Pipeline) build(ctx context.Context, cfg config.Config, runs []*run) error {
	start := time.Now()
	builder := qvariance.NewBuilder(qvariance.Options{Workers: cfg.Workers})

	for _, r := range runs {
		ds, err := builder.Build(ctx, r.path.Prices, r.record.Ticker, cfg.Horizons)
		if err != nil {
			return fmt.Errorf("build %s: %w", r.record.Ticker, err)
		}
		r.dataset = ds
		r.record.RowCount = len(ds.Rows)

		for _, s := range ds.Stats {
			p.metrics.RecordHorizon(strconv.Itoa(s.T), s.RawWindows, s.Dropped, s.Emitted)
		}
		p.log("  %s: %d rows", r.record.Ticker, len(ds.Rows))
	}

	p.metrics.RecordStage("build", time.Since(start).Seconds())
	return nil
}

func (p *Pipeline) persistent() bool {
	return p.stores.Runs != nil || p.stores.Prices != nil || p.stores.Rows != nil
}

func (p *Pipeline) persist(ctx context.Context, runs []*run) error {
	start := time.Now()
	defer func() { p.metrics.RecordStage("persist", time.Since(start).Seconds()) }()

	for _, r := range runs {
		id := r.record.RunID

		if p.stores.Runs != nil {
			// Row count is recorded after the rows land.
			record := r.record
			record.RowCount = 0
			if err := p.timed("postgres", "insert_run", func() error {
				return p.stores.Runs.Insert(ctx, &record)
			}); err != nil {
				return fmt.Errorf("insert run %s: %w", id, err)
			}
		}

		if p.stores.Prices != nil {
			points := PricePoints(id, r.path)
			if err := p.timed("clickhouse", "insert_prices", func() error {
				return p.stores.Prices.InsertBulk(ctx, points)
			}); err != nil {
				return fmt.Errorf("insert prices for run %s: %w", id, err)
			}
		}

		if p.stores.Rows != nil {
			rows := DatasetRows(id, r.dataset.Rows)
			if err := p.timed("clickhouse", "insert_rows", func() error {
				return p.stores.Rows.InsertBulk(ctx, rows)
			}); err != nil {
				return fmt.Errorf("insert rows for run %s: %w", id, err)
			}
		}

		if p.stores.Runs != nil {
			if err := p.timed("postgres", "update_row_count", func() error {
				return p.stores.Runs.UpdateRowCount(ctx, id, r.record.RowCount)
			}); err != nil {
				return fmt.Errorf("update row count for run %s: %w", id, err)
			}
		}

		p.log("  persisted run %s (%s)", id, r.record.Ticker)
	}
	return nil
}

func (p *Pipeline) timed(database, operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	p.metrics.RecordDBQuery(database, operation, time.Since(start).Seconds(), err)
	return err
}

func (p *Pipeline) summarize(cfg config.Config, runs []*run) (*reporting.Report, error) {
	start := time.Now()
	curve := reporting.CurveOptions{Horizon: cfg.Horizons[0], Bins: cfg.CurveBins}

	report := &reporting.Report{GeneratedAt: p.clock()}
	for _, r := range runs {
		rr, err := reporting.NewRunReport(r.record, r.dataset.Stats, r.dataset.Rows, curve)
		if err != nil {
			return nil, err
		}
		report.Runs = append(report.Runs, rr)
	}

	p.metrics.RecordStage("summarize", time.Since(start).Seconds())
	return report, nil
}

func (p *Pipeline) log(format string, args ...interface{}) {
	if p.verbose {
		p.logger.Printf(format, args...)
	}
}

// TickerFor returns the dataset label of a run: the base ticker for a
// single-seed run, "<ticker>_<seed>" when several seeds run together.
func TickerFor(base string, seed int64, multi bool) string {
	if !multi {
		return base
	}
	return fmt.Sprintf("%s_%d", base, seed)
}

// PricePoints converts a path into storable points. LogReturn at day 0 is 0.
func PricePoints(runID string, path *domain.PricePath) []*domain.PricePoint {
	points := make([]*domain.PricePoint, path.Len())
	for day, price := range path.Prices {
		pt := &domain.PricePoint{RunID: runID, Day: int64(day), Price: price}
		if day > 0 {
			pt.LogReturn = path.Returns[day-1]
		}
		points[day] = pt
	}
	return points
}

// DatasetRows attaches dataset rows to their run.
func DatasetRows(runID string, rows []domain.HorizonRow) []*domain.DatasetRow {
	out := make([]*domain.DatasetRow, len(rows))
	for i, r := range rows {
		out[i] = &domain.DatasetRow{RunID: runID, HorizonRow: r}
	}
	return out
}

// SimulationCSVName names the simulation export after its row count,
// e.g. qvariance_simulation_100k.csv.
func SimulationCSVName(rows int) string {
	if rows > 0 && rows%1000 == 0 {
		return fmt.Sprintf("qvariance_simulation_%dk.csv", rows/1000)
	}
	return fmt.Sprintf("qvariance_simulation_%d.csv", rows)
}

func runDir(outputDir string, r *run, multi bool) string {
	if multi {
		return filepath.Join(outputDir, r.record.Ticker)
	}
	return outputDir
}
