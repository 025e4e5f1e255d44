package summary

import (
	"errors"
	"sort"

	"github.com/montanaflynn/stats"

	"qvariance-lab/internal/domain"
)

// ErrNoRows is returned when a horizon has no rows to bin.
var ErrNoRows = errors.New("no rows for horizon")

// CurvePoint is one sigma bin of the q-variance curve.
type CurvePoint struct {
	SigmaLow  float64 // smallest sigma in the bin
	SigmaHigh float64 // largest sigma in the bin
	MeanSigma float64
	MeanZ2    float64 // mean squared standardized return
	Count     int
}

// QVarianceCurve sorts the rows of horizon t by sigma and splits them into
// equal-count bins, reporting mean z^2 against mean sigma for each bin.
// The last bin absorbs the remainder.
func QVarianceCurve(rows []domain.HorizonRow, t, bins int) ([]CurvePoint, error) {
	if bins <= 0 {
		return nil, errors.New("bins must be positive")
	}

	var group []domain.HorizonRow
	for _, r := range rows {
		if r.T == t {
			group = append(group, r)
		}
	}
	if len(group) == 0 {
		return nil, ErrNoRows
	}
	if bins > len(group) {
		bins = len(group)
	}

	sort.Slice(group, func(i, j int) bool {
		if group[i].Sigma != group[j].Sigma {
			return group[i].Sigma < group[j].Sigma
		}
		return group[i].Date < group[j].Date
	})

	size := len(group) / bins
	points := make([]CurvePoint, 0, bins)
	for b := 0; b < bins; b++ {
		lo := b * size
		hi := lo + size
		if b == bins-1 {
			hi = len(group)
		}
		chunk := group[lo:hi]

		sigma := make(stats.Float64Data, len(chunk))
		z2 := make(stats.Float64Data, len(chunk))
		for i, r := range chunk {
			sigma[i] = r.Sigma
			z2[i] = r.Z * r.Z
		}

		meanSigma, err := stats.Mean(sigma)
		if err != nil {
			return nil, err
		}
		meanZ2, err := stats.Mean(z2)
		if err != nil {
			return nil, err
		}

		points = append(points, CurvePoint{
			SigmaLow:  chunk[0].Sigma,
			SigmaHigh: chunk[len(chunk)-1].Sigma,
			MeanSigma: meanSigma,
			MeanZ2:    meanZ2,
			Count:     len(chunk),
		})
	}

	return points, nil
}
