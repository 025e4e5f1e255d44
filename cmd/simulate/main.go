// Package main simulates one synthetic price path and writes it as CSV.
package main

import (
	"flag"
	"log"
	"os"

	"qvariance-lab/internal/domain"
	"qvariance-lab/internal/reporting"
	"qvariance-lab/internal/simulation"
)

func main() {
	def := domain.DefaultSimulationParams()

	nDays := flag.Int("n-days", def.NDays, "Number of simulated days")
	burnIn := flag.Int("burn-in", def.BurnIn, "Leading observations to discard")
	s0 := flag.Float64("s0", def.S0, "Initial price")
	sigma0 := flag.Float64("sigma0", def.Sigma0, "Target annualised volatility")
	kappa := flag.Float64("kappa", def.Kappa, "Mean-reversion speed of the latent precision")
	cInt := flag.Float64("c-int", def.CInt, "Poisson intensity coefficient")
	aShape := flag.Float64("a-shape", def.AShape, "Stationary shape of the latent precision")
	lamCap := flag.Float64("lam-cap", def.LamCap, "Cap on the per-day Poisson intensity")
	seed := flag.Int64("seed", def.Seed, "Random seed")

	output := flag.String("output", "", "Output CSV path (default stdout)")
	rows := flag.Int("rows", 0, "Rows to write (<= 0 for the whole path)")
	pricesOnly := flag.Bool("prices-only", false, "Write a single Price column instead of Day,Price,y")
	flag.Parse()

	logger := log.New(os.Stderr, "[simulate] ", log.LstdFlags)

	params := domain.SimulationParams{
		NDays:  *nDays,
		S0:     *s0,
		Sigma0: *sigma0,
		Kappa:  *kappa,
		CInt:   *cInt,
		AShape: *aShape,
		LamCap: *lamCap,
		Seed:   *seed,
		BurnIn: *burnIn,
	}

	path, err := simulation.Simulate(params)
	if err != nil {
		logger.Fatalf("simulate: %v", err)
	}

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			logger.Fatalf("create %s: %v", *output, err)
		}
		defer f.Close()
		out = f
	}

	if *pricesOnly {
		prices := path.Prices
		if *rows > 0 && *rows < len(prices) {
			prices = prices[:*rows]
		}
		err = reporting.WritePricesCSV(out, prices)
	} else {
		nOut := *rows
		if nOut <= 0 || nOut > path.Len() {
			nOut = path.Len()
		}
		err = reporting.WriteSimulationCSV(out, path, nOut)
	}
	if err != nil {
		logger.Fatalf("write csv: %v", err)
	}

	if *output != "" {
		logger.Printf("Saved %s (%d days, last price %.4f)", *output, path.Len(), path.Prices[path.Len()-1])
	}
}
