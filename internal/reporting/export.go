package reporting

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"qvariance-lab/internal/domain"
)

// ErrNoPriceColumn is returned when a prices CSV has no Price column.
var ErrNoPriceColumn = errors.New("csv has no Price column")

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteSimulationCSV writes the first nOut observations of path as
// Day,Price,y where y is the log return into the day and y at day 0 is 0.
// nOut <= 0 or larger than the path writes the whole path.
func WriteSimulationCSV(w io.Writer, path *domain.PricePath, nOut int) error {
	n := path.Len()
	if nOut > 0 && nOut < n {
		n = nOut
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Day", "Price", "y"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for day := 0; day < n; day++ {
		y := 0.0
		if day > 0 {
			y = path.Returns[day-1]
		}
		record := []string{strconv.Itoa(day), formatFloat(path.Prices[day]), formatFloat(y)}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write day %d: %w", day, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WritePricesCSV writes prices as a single Price column.
func WritePricesCSV(w io.Writer, prices []float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Price"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, p := range prices {
		if err := cw.Write([]string{formatFloat(p)}); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadPricesCSV reads the Price column of a CSV with a header row. Both the
// single-column prices layout and the Day,Price,y simulation layout are
// accepted; the header match is case-insensitive.
func ReadPricesCSV(r io.Reader) ([]float64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoPriceColumn
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), "price") {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, ErrNoPriceColumn
	}

	var prices []float64
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		if col >= len(record) {
			return nil, fmt.Errorf("line %d: missing price field", line)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse price: %w", line, err)
		}
		prices = append(prices, v)
	}

	return prices, nil
}
