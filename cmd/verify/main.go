// Package main re-simulates stored runs and checks them against storage.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"qvariance-lab/internal/config"
	chstore "qvariance-lab/internal/storage/clickhouse"
	pgstore "qvariance-lab/internal/storage/postgres"
	"qvariance-lab/internal/verification"
)

func main() {
	logger := log.New(os.Stderr, "[verify] ", log.LstdFlags)

	if err := config.LoadEnvFile(); err != nil {
		logger.Fatalf("load .env: %v", err)
	}

	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	runIDs := flag.String("run-id", "", "Comma-separated run IDs to verify")
	ticker := flag.String("ticker", "", "Verify every stored run of this ticker")
	workers := flag.Int("workers", 0, "Concurrent horizons (<= 0 unbounded)")
	flag.Parse()

	if *postgresDSN == "" || *clickhouseDSN == "" {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required")
	}
	if (*runIDs == "") == (*ticker == "") {
		logger.Fatal("exactly one of --run-id or --ticker is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	conn, err := chstore.NewConn(ctx, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("connect to clickhouse: %v", err)
	}
	defer conn.Close()

	verifier := verification.NewReplayVerifier(verification.ReplayVerifierOptions{
		RunStore:   pgstore.NewRunStore(pool),
		PriceStore: chstore.NewPricePathStore(conn),
		RowStore:   chstore.NewHorizonRowStore(conn),
		Workers:    *workers,
	})

	var report *verification.VerificationReport
	if *ticker != "" {
		report, err = verifier.VerifyTicker(ctx, *ticker)
	} else {
		report, err = verifyRuns(ctx, verifier, strings.Split(*runIDs, ","))
	}
	if err != nil {
		logger.Fatalf("verify: %v", err)
	}

	for _, r := range report.Results {
		status := "OK"
		if !r.Match {
			status = "DIVERGENT"
		}
		fmt.Printf("%-9s %s (%s) prices %d/%d rows %d/%d\n",
			status, r.RunID, r.Ticker, r.StoredPrices, r.ReplayedPrices, r.StoredRows, r.ReplayedRows)
		for _, d := range r.Divergences {
			fmt.Printf("          %s[%d]: stored %v, replayed %v\n", d.Field, d.Index, d.Expected, d.Actual)
		}
	}
	fmt.Printf("\nVerified %d run(s): %d matched, %d divergent\n",
		report.TotalRuns, report.MatchedRuns, report.DivergentRuns)

	if report.DivergentRuns > 0 {
		pool.Close()
		conn.Close()
		os.Exit(1)
	}
}

func verifyRuns(ctx context.Context, v verification.Verifier, ids []string) (*verification.VerificationReport, error) {
	report := &verification.VerificationReport{}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		result, err := v.VerifyRun(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", id, err)
		}
		report.TotalRuns++
		report.Results = append(report.Results, *result)
		if result.Match {
			report.MatchedRuns++
		} else {
			report.DivergentRuns++
		}
	}
	return report, nil
}
