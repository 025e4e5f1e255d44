// Package main provides the end-to-end q-variance pipeline entry point.
// Executes: simulation → horizon dataset → storage → summary → artifacts
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"qvariance-lab/internal/config"
	"qvariance-lab/internal/observability"
	"qvariance-lab/internal/pipeline"
	chstore "qvariance-lab/internal/storage/clickhouse"
	"qvariance-lab/internal/storage/memory"
	"qvariance-lab/internal/storage/migrations"
	pgstore "qvariance-lab/internal/storage/postgres"
)

func main() {
	logger := log.New(os.Stderr, "[pipeline] ", log.LstdFlags)

	if err := config.LoadEnvFile(); err != nil {
		logger.Fatalf("load .env: %v", err)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatalf("read environment: %v", err)
	}

	// Simulation
	nDays := flag.Int("n-days", cfg.Sim.NDays, "Number of simulated days")
	burnIn := flag.Int("burn-in", cfg.Sim.BurnIn, "Leading observations to discard")
	s0 := flag.Float64("s0", cfg.Sim.S0, "Initial price")
	sigma0 := flag.Float64("sigma0", cfg.Sim.Sigma0, "Target annualised volatility")
	kappa := flag.Float64("kappa", cfg.Sim.Kappa, "Mean-reversion speed of the latent precision")
	cInt := flag.Float64("c-int", cfg.Sim.CInt, "Poisson intensity coefficient")
	aShape := flag.Float64("a-shape", cfg.Sim.AShape, "Stationary shape of the latent precision")
	lamCap := flag.Float64("lam-cap", cfg.Sim.LamCap, "Cap on the per-day Poisson intensity")
	seed := flag.Int64("seed", cfg.Sim.Seed, "Random seed")
	seeds := flag.String("seeds", joinSeeds(cfg.Seeds), "Comma-separated seeds, one run each (overrides -seed)")

	// Dataset
	horizons := flag.String("horizons", joinHorizons(cfg.Horizons), "Comma-separated window lengths, or \"official\"")
	ticker := flag.String("ticker", cfg.Ticker, "Ticker label of the dataset")
	workers := flag.Int("workers", cfg.Workers, "Concurrent simulations and horizons (<= 0 unbounded)")

	// Output
	outputDir := flag.String("output-dir", cfg.OutputDir, "Output directory for generated files (empty to skip)")
	exportDays := flag.Int("export-days", cfg.ExportDays, "Rows of the simulation CSV (<= 0 for the whole path)")
	curveBins := flag.Int("curve-bins", cfg.CurveBins, "Sigma bins of the q-variance curve (0 to skip)")

	// Storage
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", cfg.UseMemory, "Use in-memory storage")

	metricsAddr := flag.String("metrics-addr", cfg.MetricsAddr, "Prometheus metrics HTTP address (empty to disable)")
	verbose := flag.Bool("verbose", cfg.Verbose, "Verbose output")
	flag.Parse()

	cfg.Sim.NDays = *nDays
	cfg.Sim.BurnIn = *burnIn
	cfg.Sim.S0 = *s0
	cfg.Sim.Sigma0 = *sigma0
	cfg.Sim.Kappa = *kappa
	cfg.Sim.CInt = *cInt
	cfg.Sim.AShape = *aShape
	cfg.Sim.LamCap = *lamCap
	cfg.Sim.Seed = *seed
	cfg.Seeds = nil
	if *seeds != "" {
		if cfg.Seeds, err = config.ParseSeeds(*seeds); err != nil {
			logger.Fatalf("Invalid --seeds: %v", err)
		}
	}
	if cfg.Horizons, err = config.ParseHorizons(*horizons); err != nil {
		logger.Fatalf("Invalid --horizons: %v", err)
	}
	cfg.Ticker = *ticker
	cfg.Workers = *workers
	cfg.OutputDir = *outputDir
	cfg.ExportDays = *exportDays
	cfg.CurveBins = *curveBins
	cfg.PostgresDSN = *postgresDSN
	cfg.ClickhouseDSN = *clickhouseDSN
	cfg.UseMemory = *useMemory
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	// Start metrics server if enabled
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling pipeline...", sig)
		cancel()
	}()

	stores, closeStores, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open storage: %v", err)
	}
	defer closeStores()

	p := pipeline.New(pipeline.Options{
		Stores:  stores,
		Logger:  logger,
		Verbose: cfg.Verbose,
	})

	result, err := p.Run(ctx, cfg)
	if err != nil {
		logger.Printf("Pipeline error: %v", err)
		closeStores()
		os.Exit(1)
	}

	fmt.Println("q-variance pipeline completed:")
	for _, r := range result.Runs {
		fmt.Printf("  %s (seed %d, run %s): %d prices, %d rows\n", r.Ticker, r.Seed, r.RunID, r.PathLen, r.RowCount)
	}
	for _, a := range result.Artifacts {
		fmt.Printf("  - %s\n", a)
	}
}

// openStores selects storage for the run: in-memory with -use-memory,
// Postgres and ClickHouse when both DSNs are set, none otherwise.
func openStores(ctx context.Context, cfg config.Config, logger *log.Logger) (pipeline.Stores, func(), error) {
	noop := func() {}

	if cfg.UseMemory {
		logger.Printf("Using in-memory storage")
		return pipeline.Stores{
			Runs:   memory.NewRunStore(),
			Prices: memory.NewPricePathStore(),
			Rows:   memory.NewHorizonRowStore(),
		}, noop, nil
	}
	if !cfg.Persistent() {
		return pipeline.Stores{}, noop, nil
	}

	logger.Printf("Connecting to PostgreSQL...")
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return pipeline.Stores{}, noop, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return pipeline.Stores{}, noop, fmt.Errorf("postgres migrations: %w", err)
	}

	logger.Printf("Connecting to ClickHouse...")
	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return pipeline.Stores{}, noop, fmt.Errorf("clickhouse migrations: %w", err)
	}

	var closed bool
	closeAll := func() {
		if closed {
			return
		}
		closed = true
		conn.Close()
		pool.Close()
	}

	return pipeline.Stores{
		Runs:   pgstore.NewRunStore(pool),
		Prices: chstore.NewPricePathStore(conn),
		Rows:   chstore.NewHorizonRowStore(conn),
	}, closeAll, nil
}

func joinSeeds(seeds []int64) string {
	parts := make([]string, len(seeds))
	for i, s := range seeds {
		parts[i] = strconv.FormatInt(s, 10)
	}
	return strings.Join(parts, ",")
}

func joinHorizons(hs []int) string {
	parts := make([]string, len(hs))
	for i, h := range hs {
		parts[i] = strconv.Itoa(h)
	}
	return strings.Join(parts, ",")
}
