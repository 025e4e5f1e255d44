package domain

import "time"

// SimulationRun is the persisted record of one simulate+build run.
// Corresponds to simulation_runs table in PostgreSQL.
type SimulationRun struct {
	RunID     string           // uuid
	Ticker    string           // dataset label
	Params    SimulationParams // full parameter set, seed included
	PathLen   int              // number of prices produced
	RowCount  int              // number of dataset rows emitted
	CreatedAt time.Time
}

// PricePoint is one observation of a simulated path.
// Corresponds to price_paths table in ClickHouse.
type PricePoint struct {
	RunID     string  // owning run
	Day       int64   // index into the path
	Price     float64 // simulated price
	LogReturn float64 // log return into this day, 0 at day 0
}

// DatasetRow is a HorizonRow attached to its run.
// Corresponds to qvariance_rows table in ClickHouse.
type DatasetRow struct {
	RunID string
	HorizonRow
}
