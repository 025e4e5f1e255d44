// Package main builds the q-variance horizon dataset from a prices CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"qvariance-lab/internal/config"
	"qvariance-lab/internal/domain"
	"qvariance-lab/internal/qvariance"
	"qvariance-lab/internal/reporting"
)

func main() {
	input := flag.String("input", "prices.csv", "Prices CSV with a Price column")
	output := flag.String("output", "dataset.parquet", "Output parquet path")
	ticker := flag.String("ticker", domain.DefaultTicker, "Ticker label of the dataset")
	horizons := flag.String("horizons", "official", "Comma-separated window lengths, or \"official\"")
	workers := flag.Int("workers", 0, "Concurrent horizons (<= 0 unbounded)")
	summaryXLSX := flag.String("summary-xlsx", "", "Optional summary workbook path")
	curveBins := flag.Int("curve-bins", config.DefaultCurveBins, "Sigma bins of the q-variance curve (0 to skip)")
	flag.Parse()

	logger := log.New(os.Stderr, "[dataset] ", log.LstdFlags)

	hs, err := config.ParseHorizons(*horizons)
	if err != nil {
		logger.Fatalf("Invalid --horizons: %v", err)
	}

	f, err := os.Open(*input)
	if err != nil {
		logger.Fatalf("open %s: %v", *input, err)
	}
	prices, err := reporting.ReadPricesCSV(f)
	f.Close()
	if err != nil {
		logger.Fatalf("read %s: %v", *input, err)
	}
	logger.Printf("Loaded %d prices from %s", len(prices), *input)

	builder := qvariance.NewBuilder(qvariance.Options{Workers: *workers})
	ds, err := builder.Build(context.Background(), prices, *ticker, hs)
	if err != nil {
		logger.Fatalf("build dataset: %v", err)
	}

	if err := reporting.WriteDatasetParquet(*output, ds.Rows); err != nil {
		logger.Fatalf("write dataset: %v", err)
	}
	logger.Printf("Saved %s with %d rows", *output, len(ds.Rows))

	run := domain.SimulationRun{Ticker: *ticker, PathLen: len(prices), RowCount: len(ds.Rows)}
	rr, err := reporting.NewRunReport(run, ds.Stats, ds.Rows, reporting.CurveOptions{Horizon: hs[0], Bins: *curveBins})
	if err != nil {
		logger.Fatalf("summarize: %v", err)
	}

	if *summaryXLSX != "" {
		report := &reporting.Report{GeneratedAt: time.Now().UTC(), Runs: []reporting.RunReport{rr}}
		if err := reporting.WriteSummaryXLSX(*summaryXLSX, report); err != nil {
			logger.Fatalf("write summary: %v", err)
		}
		logger.Printf("Saved %s", *summaryXLSX)
	}

	fmt.Print(reporting.RenderSummaryCSV(rr.Summaries))
}
