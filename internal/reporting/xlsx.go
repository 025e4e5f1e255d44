package reporting

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	curveSheet   = "Curve"
)

var (
	summaryHeaders = []string{"T", "count", "mean_z", "std_z", "mean_z2", "mean_sigma", "median_sigma", "sigma_p10", "sigma_p90"}
	curveHeaders   = []string{"T", "sigma_low", "sigma_high", "mean_sigma", "mean_z2", "count"}
)

// WriteSummaryXLSX writes the per-horizon summaries of every run to the
// Summary sheet and their q-variance curves to the Curve sheet. Each row is
// prefixed with the run's ticker.
func WriteSummaryXLSX(path string, r *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(curveSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	if err := writeHeader(f, summarySheet, summaryHeaders); err != nil {
		return err
	}
	if err := writeHeader(f, curveSheet, curveHeaders); err != nil {
		return err
	}

	summaryRow, curveRow := 2, 2
	for _, rr := range r.Runs {
		for _, s := range rr.Summaries {
			values := []interface{}{rr.Run.Ticker, s.T, s.Count, s.MeanZ, s.StdZ, s.MeanZ2,
				s.MeanSigma, s.MedianSigma, s.SigmaP10, s.SigmaP90}
			if err := writeRow(f, summarySheet, summaryRow, values); err != nil {
				return err
			}
			summaryRow++
		}
		for _, c := range rr.Curve {
			values := []interface{}{rr.Run.Ticker, rr.CurveHorizon, c.SigmaLow, c.SigmaHigh,
				c.MeanSigma, c.MeanZ2, c.Count}
			if err := writeRow(f, curveSheet, curveRow, values); err != nil {
				return err
			}
			curveRow++
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	values := make([]interface{}, 0, len(headers)+1)
	values = append(values, "ticker")
	for _, h := range headers {
		values = append(values, h)
	}
	return writeRow(f, sheet, 1, values)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
