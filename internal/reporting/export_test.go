package reporting

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"qvariance-lab/internal/domain"
)

func testPath() *domain.PricePath {
	prices := []float64{100, 101, 99.5, 99.5}
	returns := make([]float64, len(prices)-1)
	for i := range returns {
		returns[i] = math.Log(prices[i+1]) - math.Log(prices[i])
	}
	return &domain.PricePath{Prices: prices, Returns: returns}
}

func TestWriteSimulationCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSimulationCSV(&buf, testPath(), 0); err != nil {
		t.Fatalf("WriteSimulationCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header + 4 rows, got %d lines", len(lines))
	}
	if lines[0] != "Day,Price,y" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if lines[1] != "0,100,0" {
		t.Errorf("expected first row 0,100,0, got %q", lines[1])
	}
	if lines[4] != "3,99.5,0" {
		t.Errorf("expected flat last row, got %q", lines[4])
	}
}

func TestWriteSimulationCSV_Truncates(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSimulationCSV(&buf, testPath(), 2); err != nil {
		t.Fatalf("WriteSimulationCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Errorf("expected header + 2 rows, got %d lines", len(lines))
	}
}

func TestPricesCSV_RoundTrip(t *testing.T) {
	prices := []float64{100, 100.12345678901234, 1e-3, 250.5}

	var buf bytes.Buffer
	if err := WritePricesCSV(&buf, prices); err != nil {
		t.Fatalf("WritePricesCSV failed: %v", err)
	}

	got, err := ReadPricesCSV(&buf)
	if err != nil {
		t.Fatalf("ReadPricesCSV failed: %v", err)
	}
	if len(got) != len(prices) {
		t.Fatalf("expected %d prices, got %d", len(prices), len(got))
	}
	for i := range prices {
		if got[i] != prices[i] {
			t.Errorf("price %d: got %v, want %v", i, got[i], prices[i])
		}
	}
}

func TestReadPricesCSV_SimulationLayout(t *testing.T) {
	var buf bytes.Buffer
	path := testPath()
	if err := WriteSimulationCSV(&buf, path, 0); err != nil {
		t.Fatalf("WriteSimulationCSV failed: %v", err)
	}

	got, err := ReadPricesCSV(&buf)
	if err != nil {
		t.Fatalf("ReadPricesCSV failed: %v", err)
	}
	for i := range path.Prices {
		if got[i] != path.Prices[i] {
			t.Errorf("price %d: got %v, want %v", i, got[i], path.Prices[i])
		}
	}
}

func TestReadPricesCSV_Errors(t *testing.T) {
	if _, err := ReadPricesCSV(strings.NewReader("")); !errors.Is(err, ErrNoPriceColumn) {
		t.Errorf("empty input: expected ErrNoPriceColumn, got %v", err)
	}
	if _, err := ReadPricesCSV(strings.NewReader("Close\n1\n")); !errors.Is(err, ErrNoPriceColumn) {
		t.Errorf("wrong header: expected ErrNoPriceColumn, got %v", err)
	}
	if _, err := ReadPricesCSV(strings.NewReader("price\nabc\n")); err == nil {
		t.Error("expected parse error for non-numeric price")
	}
}
