package reporting

import (
	"fmt"

	"github.com/parquet-go/parquet-go"

	"qvariance-lab/internal/domain"
)

// datasetRecord is the on-disk layout of a dataset row.
// Column order is ticker, date, T, z, sigma.
type datasetRecord struct {
	Ticker string  `parquet:"ticker"`
	Date   int64   `parquet:"date"`
	T      int64   `parquet:"T"`
	Z      float64 `parquet:"z"`
	Sigma  float64 `parquet:"sigma"`
}

// WriteDatasetParquet writes rows to a parquet file at path, in row order.
func WriteDatasetParquet(path string, rows []domain.HorizonRow) error {
	records := make([]datasetRecord, len(rows))
	for i, r := range rows {
		records[i] = datasetRecord{
			Ticker: r.Ticker,
			Date:   int64(r.Date),
			T:      int64(r.T),
			Z:      r.Z,
			Sigma:  r.Sigma,
		}
	}

	if err := parquet.WriteFile(path, records); err != nil {
		return fmt.Errorf("write parquet %s: %w", path, err)
	}
	return nil
}

// ReadDatasetParquet reads a file written by WriteDatasetParquet.
func ReadDatasetParquet(path string) ([]domain.HorizonRow, error) {
	records, err := parquet.ReadFile[datasetRecord](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}

	rows := make([]domain.HorizonRow, len(records))
	for i, r := range records {
		rows[i] = domain.HorizonRow{
			Ticker: r.Ticker,
			Date:   int(r.Date),
			T:      int(r.T),
			Z:      r.Z,
			Sigma:  r.Sigma,
		}
	}
	return rows, nil
}
