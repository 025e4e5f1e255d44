// Package qvariance builds the q-variance horizon dataset: standardized,
// per-horizon de-meaned cumulative returns over overlapping windows.
package qvariance

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"qvariance-lab/internal/domain"
)

var sqrtYear = math.Sqrt(domain.TradingDaysPerYear)

// HorizonStats reports window accounting for one horizon.
type HorizonStats struct {
	T          int     // horizon in trading days
	RawWindows int     // windows scanned: L-T+1, or 0 when T > L
	Dropped    int     // windows rejected before centering
	Emitted    int     // rows in the output
	MeanZRaw   float64 // centering constant, 0 for an empty group
}

// Dataset is the output of one build.
// Rows are ordered by horizon (in HorizonSet order), then by date.
type Dataset struct {
	Ticker string
	Rows   []domain.HorizonRow
	Stats  []HorizonStats
}

// Options configures a Builder.
type Options struct {
	Workers int // concurrent horizons, <= 0 means one per horizon
}

// Builder computes horizon datasets.
type Builder struct {
	workers int
}

// NewBuilder creates a Builder.
func NewBuilder(opts Options) *Builder {
	return &Builder{workers: opts.Workers}
}

// Build computes the dataset from a price path with the default builder.
func Build(ctx context.Context, prices []float64, ticker string, horizons domain.HorizonSet) (*Dataset, error) {
	return NewBuilder(Options{}).Build(ctx, prices, ticker, horizons)
}

// Build computes the dataset from a price path.
func (b *Builder) Build(ctx context.Context, prices []float64, ticker string, horizons domain.HorizonSet) (*Dataset, error) {
	if err := horizons.Validate(); err != nil {
		return nil, err
	}
	return b.BuildFromReturns(ctx, LogReturns(prices), ticker, horizons)
}

// BuildFromReturns computes the dataset from a log-return series.
//
// Each horizon is independent: the first pass collects every surviving
// (z_raw, sigma) pair, the second subtracts the group mean of z_raw.
// The centering constant depends on the whole group, later windows included.
func (b *Builder) BuildFromReturns(ctx context.Context, ret []float64, ticker string, horizons domain.HorizonSet) (*Dataset, error) {
	if err := horizons.Validate(); err != nil {
		return nil, err
	}

	s := newSeries(ret)
	parts := make([]horizonPart, len(horizons))

	g, ctx := errgroup.WithContext(ctx)
	if b.workers > 0 {
		g.SetLimit(b.workers)
	}

	for i, t := range horizons {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			parts[i] = buildHorizon(s, ticker, t)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, p := range parts {
		total += len(p.rows)
	}

	ds := &Dataset{
		Ticker: ticker,
		Rows:   make([]domain.HorizonRow, 0, total),
		Stats:  make([]HorizonStats, len(parts)),
	}
	for i, p := range parts {
		ds.Rows = append(ds.Rows, p.rows...)
		ds.Stats[i] = p.stats
	}

	return ds, nil
}

// horizonPart is the disjoint output partition of one horizon.
type horizonPart struct {
	rows  []domain.HorizonRow
	stats HorizonStats
}

// window is a surviving raw window.
type window struct {
	date  int
	zRaw  float64
	sigma float64
}

// scanHorizon runs the sliding window over every start index.
// Sums are updated incrementally and recomputed exactly every t starts,
// which bounds floating-point drift at amortized O(1) per window.
func scanHorizon(s *series, t int) ([]window, HorizonStats) {
	stats := HorizonStats{T: t}
	n := s.len()
	if t > n {
		return nil, stats
	}

	ft := float64(t)
	horizonScale := math.Sqrt(ft / domain.TradingDaysPerYear)
	windows := make([]window, 0, n-t+1)

	var sum, sumSq float64
	for i := 0; i <= n-t; i++ {
		if i%t == 0 {
			sum, sumSq = 0, 0
			for _, v := range s.clean[i : i+t] {
				sum += v
				sumSq += v * v
			}
		} else {
			out, in := s.clean[i-1], s.clean[i+t-1]
			sum += in - out
			sumSq += in*in - out*out
		}
		stats.RawWindows++

		if s.hasBad(i, t) {
			stats.Dropped++
			continue
		}

		variance := 0.0
		if !s.constant(i, t) {
			mean := sum / ft
			variance = sumSq/ft - mean*mean
			if variance < 0 {
				variance = 0
			}
		}

		sigma := math.Sqrt(variance) * sqrtYear
		zRaw := sum / horizonScale

		if !(sigma > 0) || math.IsInf(sigma, 0) || math.IsNaN(zRaw) || math.IsInf(zRaw, 0) {
			stats.Dropped++
			continue
		}

		windows = append(windows, window{date: i, zRaw: zRaw, sigma: sigma})
	}

	return windows, stats
}

// buildHorizon scans one horizon and centers it on its own mean.
func buildHorizon(s *series, ticker string, t int) horizonPart {
	windows, stats := scanHorizon(s, t)
	if len(windows) == 0 {
		return horizonPart{stats: stats}
	}

	zRaw := make([]float64, len(windows))
	for i, w := range windows {
		zRaw[i] = w.zRaw
	}
	mean := stat.Mean(zRaw, nil)
	stats.MeanZRaw = mean

	rows := make([]domain.HorizonRow, 0, len(windows))
	for _, w := range windows {
		z := w.zRaw - mean
		if math.IsNaN(z) || math.IsInf(z, 0) {
			continue
		}
		rows = append(rows, domain.HorizonRow{
			Ticker: ticker,
			Date:   w.date,
			T:      t,
			Z:      z,
			Sigma:  w.sigma,
		})
	}
	stats.Emitted = len(rows)

	return horizonPart{rows: rows, stats: stats}
}
