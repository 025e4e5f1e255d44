// Package config loads run configuration from the environment and .env files.
// Command-line flags in each binary override these values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"qvariance-lab/internal/domain"
)

// Defaults of the reference pipeline run.
const (
	DefaultPipelineDays  = 120_000
	DefaultPipelineKappa = 0.02
	DefaultPipelineCInt  = 10.0
	DefaultPipelineSeed  = 3
	DefaultExportDays    = 100_000
	DefaultOutputDir     = "output"
	DefaultCurveBins     = 20
)

// Config is the complete configuration of a pipeline run.
type Config struct {
	Sim      domain.SimulationParams
	Seeds    []int64 // one run per seed; empty means Sim.Seed only
	Ticker   string
	Horizons domain.HorizonSet

	OutputDir  string
	ExportDays int // rows of the simulation CSV; <= 0 writes the whole path
	CurveBins  int
	Workers    int // horizon and batch concurrency; <= 0 means unbounded

	PostgresDSN   string
	ClickhouseDSN string
	UseMemory     bool
	MetricsAddr   string
	Verbose       bool
}

// Default returns the reference pipeline configuration: 120k days,
// kappa 0.02, c_int 10, seed 3, official horizons.
func Default() Config {
	sim := domain.DefaultSimulationParams()
	sim.NDays = DefaultPipelineDays
	sim.Kappa = DefaultPipelineKappa
	sim.CInt = DefaultPipelineCInt
	sim.Seed = DefaultPipelineSeed

	return Config{
		Sim:        sim,
		Ticker:     domain.DefaultTicker,
		Horizons:   domain.OfficialHorizons(),
		OutputDir:  DefaultOutputDir,
		ExportDays: DefaultExportDays,
		CurveBins:  DefaultCurveBins,
	}
}

// LoadEnvFile loads variables from the given .env files (".env" when none
// are given) without overriding variables already set. Missing files are
// skipped.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load env file %s: %w", p, err)
		}
	}
	return nil
}

// FromEnv returns Default overlaid with QV_* and DSN environment variables.
// Malformed values are reported, not ignored.
func FromEnv() (Config, error) {
	cfg := Default()
	e := envReader{}

	cfg.Sim.NDays = e.getInt("QV_N_DAYS", cfg.Sim.NDays)
	cfg.Sim.BurnIn = e.getInt("QV_BURN_IN", cfg.Sim.BurnIn)
	cfg.Sim.S0 = e.getFloat("QV_S0", cfg.Sim.S0)
	cfg.Sim.Sigma0 = e.getFloat("QV_SIGMA0", cfg.Sim.Sigma0)
	cfg.Sim.Kappa = e.getFloat("QV_KAPPA", cfg.Sim.Kappa)
	cfg.Sim.CInt = e.getFloat("QV_C_INT", cfg.Sim.CInt)
	cfg.Sim.AShape = e.getFloat("QV_A_SHAPE", cfg.Sim.AShape)
	cfg.Sim.LamCap = e.getFloat("QV_LAM_CAP", cfg.Sim.LamCap)
	cfg.Sim.Seed = int64(e.getInt("QV_SEED", int(cfg.Sim.Seed)))

	if v := os.Getenv("QV_SEEDS"); v != "" {
		seeds, err := ParseSeeds(v)
		if err != nil {
			e.fail("QV_SEEDS", err)
		}
		cfg.Seeds = seeds
	}
	if v := os.Getenv("QV_HORIZONS"); v != "" {
		hs, err := ParseHorizons(v)
		if err != nil {
			e.fail("QV_HORIZONS", err)
		}
		cfg.Horizons = hs
	}

	cfg.Ticker = e.getString("QV_TICKER", cfg.Ticker)
	cfg.OutputDir = e.getString("QV_OUTPUT_DIR", cfg.OutputDir)
	cfg.ExportDays = e.getInt("QV_EXPORT_DAYS", cfg.ExportDays)
	cfg.CurveBins = e.getInt("QV_CURVE_BINS", cfg.CurveBins)
	cfg.Workers = e.getInt("QV_WORKERS", cfg.Workers)
	cfg.MetricsAddr = e.getString("QV_METRICS_ADDR", cfg.MetricsAddr)
	cfg.UseMemory = e.getBool("QV_USE_MEMORY", cfg.UseMemory)
	cfg.Verbose = e.getBool("QV_VERBOSE", cfg.Verbose)
	cfg.PostgresDSN = e.getString("POSTGRES_DSN", cfg.PostgresDSN)
	cfg.ClickhouseDSN = e.getString("CLICKHOUSE_DSN", cfg.ClickhouseDSN)

	if e.err != nil {
		return Config{}, e.err
	}
	return cfg, nil
}

// Validate checks the configuration before any work begins.
func (c Config) Validate() error {
	if err := c.Sim.Validate(); err != nil {
		return err
	}
	if err := c.Horizons.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Ticker) == "" {
		return fmt.Errorf("%w: ticker is empty", domain.ErrInvalidConfig)
	}
	if c.CurveBins < 0 {
		return fmt.Errorf("%w: curve bins must be >= 0, got %d", domain.ErrInvalidConfig, c.CurveBins)
	}
	seen := make(map[int64]struct{}, len(c.Seeds))
	for _, s := range c.Seeds {
		if _, dup := seen[s]; dup {
			return fmt.Errorf("%w: seed %d listed twice", domain.ErrInvalidConfig, s)
		}
		seen[s] = struct{}{}
	}
	if !c.UseMemory && (c.PostgresDSN == "") != (c.ClickhouseDSN == "") {
		return fmt.Errorf("%w: postgres and clickhouse DSNs must be set together", domain.ErrInvalidConfig)
	}
	return nil
}

// Persistent reports whether runs are written to Postgres and ClickHouse.
func (c Config) Persistent() bool {
	return !c.UseMemory && c.PostgresDSN != "" && c.ClickhouseDSN != ""
}

// RunSeeds returns the seeds to simulate, in order.
func (c Config) RunSeeds() []int64 {
	if len(c.Seeds) == 0 {
		return []int64{c.Sim.Seed}
	}
	return c.Seeds
}

// ParseSeeds parses a comma-separated list of integer seeds.
func ParseSeeds(s string) ([]int64, error) {
	var seeds []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse seed %q: %w", part, err)
		}
		seeds = append(seeds, v)
	}
	if len(seeds) == 0 {
		return nil, fmt.Errorf("%w: no seeds in %q", domain.ErrInvalidConfig, s)
	}
	return seeds, nil
}

// ParseHorizons parses "official" or a comma-separated list of window lengths.
func ParseHorizons(s string) (domain.HorizonSet, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "official") {
		return domain.OfficialHorizons(), nil
	}

	var hs domain.HorizonSet
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("parse horizon %q: %w", part, err)
		}
		hs = append(hs, v)
	}
	if err := hs.Validate(); err != nil {
		return nil, err
	}
	return hs, nil
}

// envReader reads typed variables and keeps the first parse error.
type envReader struct {
	err error
}

func (e *envReader) fail(key string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("%w: %s: %v", domain.ErrInvalidConfig, key, err)
	}
}

func (e *envReader) getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (e *envReader) getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return n
}

func (e *envReader) getFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return f
}

func (e *envReader) getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return b
}
