// Package summary computes descriptive per-horizon aggregates of a q-variance dataset.
package summary

import (
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"

	"qvariance-lab/internal/domain"
)

// Summarize groups rows by horizon and computes descriptive aggregates.
// Output is ordered by T ascending. Horizons without rows are absent.
// Sigma percentiles use the nearest-rank method.
func Summarize(rows []domain.HorizonRow) ([]domain.HorizonSummary, error) {
	groups := groupByHorizon(rows)

	horizons := make([]int, 0, len(groups))
	for t := range groups {
		horizons = append(horizons, t)
	}
	sort.Ints(horizons)

	out := make([]domain.HorizonSummary, 0, len(horizons))
	for _, t := range horizons {
		s, err := summarizeGroup(t, groups[t])
		if err != nil {
			return nil, fmt.Errorf("summarize horizon %d: %w", t, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func groupByHorizon(rows []domain.HorizonRow) map[int][]domain.HorizonRow {
	groups := make(map[int][]domain.HorizonRow)
	for _, r := range rows {
		groups[r.T] = append(groups[r.T], r)
	}
	return groups
}

func summarizeGroup(t int, rows []domain.HorizonRow) (domain.HorizonSummary, error) {
	z := make(stats.Float64Data, len(rows))
	z2 := make(stats.Float64Data, len(rows))
	sigma := make(stats.Float64Data, len(rows))
	for i, r := range rows {
		z[i] = r.Z
		z2[i] = r.Z * r.Z
		sigma[i] = r.Sigma
	}

	s := domain.HorizonSummary{T: t, Count: len(rows)}
	var err error

	if s.MeanZ, err = stats.Mean(z); err != nil {
		return s, err
	}
	if s.StdZ, err = stats.StandardDeviationPopulation(z); err != nil {
		return s, err
	}
	if s.MeanZ2, err = stats.Mean(z2); err != nil {
		return s, err
	}
	if s.MeanSigma, err = stats.Mean(sigma); err != nil {
		return s, err
	}
	if s.MedianSigma, err = stats.Median(sigma); err != nil {
		return s, err
	}
	if s.SigmaP10, err = stats.PercentileNearestRank(sigma, 10); err != nil {
		return s, err
	}
	if s.SigmaP90, err = stats.PercentileNearestRank(sigma, 90); err != nil {
		return s, err
	}

	return s, nil
}
