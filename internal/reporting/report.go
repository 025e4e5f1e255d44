package reporting

import (
	"errors"
	"fmt"
	"time"

	"qvariance-lab/internal/domain"
	"qvariance-lab/internal/qvariance"
	"qvariance-lab/internal/summary"
)

// Report is the summary document of one or more simulate+build runs.
type Report struct {
	GeneratedAt time.Time
	Runs        []RunReport // in run order
}

// RunReport describes a single run.
type RunReport struct {
	Run domain.SimulationRun

	// Window accounting per horizon. Empty when the report is generated from
	// storage, which keeps emitted rows only.
	Stats []qvariance.HorizonStats

	Summaries []domain.HorizonSummary

	// q-variance curve for one horizon; nil when that horizon has no rows.
	CurveHorizon int
	Curve        []summary.CurvePoint
}

// CurveOptions selects the horizon and bin count of the q-variance curve.
type CurveOptions struct {
	Horizon int
	Bins    int
}

// DefaultCurveOptions bins the 5-day horizon into 20 sigma buckets.
func DefaultCurveOptions() CurveOptions {
	return CurveOptions{Horizon: domain.HorizonStepDays, Bins: 20}
}

// NewRunReport summarizes rows of a run and computes its q-variance curve.
func NewRunReport(run domain.SimulationRun, stats []qvariance.HorizonStats, rows []domain.HorizonRow, curve CurveOptions) (RunReport, error) {
	summaries, err := summary.Summarize(rows)
	if err != nil {
		return RunReport{}, fmt.Errorf("summarize run %s: %w", run.RunID, err)
	}

	rr := RunReport{
		Run:          run,
		Stats:        stats,
		Summaries:    summaries,
		CurveHorizon: curve.Horizon,
	}

	if curve.Bins > 0 {
		points, err := summary.QVarianceCurve(rows, curve.Horizon, curve.Bins)
		switch {
		case errors.Is(err, summary.ErrNoRows):
		case err != nil:
			return RunReport{}, fmt.Errorf("curve for run %s: %w", run.RunID, err)
		default:
			rr.Curve = points
		}
	}

	return rr, nil
}
