package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"qvariance-lab/internal/config"
	"qvariance-lab/internal/reporting"
)

// export writes per-run files and the combined report.
func (p *Pipeline) export(cfg config.Config, runs []*run, report *reporting.Report) ([]string, error) {
	start := time.Now()
	defer func() { p.metrics.RecordStage("export", time.Since(start).Seconds()) }()

	multi := len(runs) > 1
	var written []string

	for _, r := range runs {
		dir := runDir(cfg.OutputDir, r, multi)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return written, fmt.Errorf("create output directory: %w", err)
		}

		nOut := cfg.ExportDays
		if nOut <= 0 || nOut > r.path.Len() {
			nOut = r.path.Len()
		}

		simPath := filepath.Join(dir, SimulationCSVName(nOut))
		if err := writeFile(simPath, func(f *os.File) error {
			return reporting.WriteSimulationCSV(f, r.path, nOut)
		}); err != nil {
			return written, err
		}
		written = append(written, p.artifact("simulation_csv", simPath))

		pricesPath := filepath.Join(dir, PricesFile)
		if err := writeFile(pricesPath, func(f *os.File) error {
			return reporting.WritePricesCSV(f, r.path.Prices)
		}); err != nil {
			return written, err
		}
		written = append(written, p.artifact("prices_csv", pricesPath))

		datasetPath := filepath.Join(dir, DatasetFile)
		if err := reporting.WriteDatasetParquet(datasetPath, r.dataset.Rows); err != nil {
			return written, err
		}
		written = append(written, p.artifact("parquet", datasetPath))
		p.log("  Saved %s with %d rows", datasetPath, len(r.dataset.Rows))
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return written, fmt.Errorf("create output directory: %w", err)
	}

	reportPath := filepath.Join(cfg.OutputDir, ReportFile)
	if err := os.WriteFile(reportPath, []byte(reporting.RenderMarkdown(report)), 0644); err != nil {
		return written, fmt.Errorf("write report: %w", err)
	}
	written = append(written, p.artifact("markdown", reportPath))

	var summaries []byte
	for _, rr := range report.Runs {
		if multi {
			summaries = append(summaries, []byte("# "+rr.Run.Ticker+"\n")...)
		}
		summaries = append(summaries, []byte(reporting.RenderSummaryCSV(rr.Summaries))...)
	}
	csvPath := filepath.Join(cfg.OutputDir, SummaryCSV)
	if err := os.WriteFile(csvPath, summaries, 0644); err != nil {
		return written, fmt.Errorf("write summary csv: %w", err)
	}
	written = append(written, p.artifact("summary_csv", csvPath))

	xlsxPath := filepath.Join(cfg.OutputDir, SummaryFile)
	if err := reporting.WriteSummaryXLSX(xlsxPath, report); err != nil {
		return written, err
	}
	written = append(written, p.artifact("xlsx", xlsxPath))

	return written, nil
}

func (p *Pipeline) artifact(kind, path string) string {
	p.metrics.RecordArtifact(kind)
	return path
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
