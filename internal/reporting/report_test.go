package reporting

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"qvariance-lab/internal/domain"
	"qvariance-lab/internal/idhash"
	"qvariance-lab/internal/qvariance"
	"qvariance-lab/internal/storage"
	"qvariance-lab/internal/storage/memory"
)

var fixedTime = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func testRows() []domain.HorizonRow {
	var rows []domain.HorizonRow
	for d := 0; d < 8; d++ {
		z := 0.5
		if d%2 == 1 {
			z = -0.5
		}
		rows = append(rows, domain.HorizonRow{Ticker: "DRAGON", Date: d, T: 5, Z: z, Sigma: 0.1 + 0.01*float64(d)})
	}
	rows = append(rows, domain.HorizonRow{Ticker: "DRAGON", Date: 0, T: 10, Z: 0, Sigma: 0.2})
	return rows
}

func testRun() domain.SimulationRun {
	return domain.SimulationRun{
		RunID:     "run-1",
		Ticker:    "DRAGON",
		Params:    domain.DefaultSimulationParams(),
		PathLen:   300000,
		RowCount:  9,
		CreatedAt: fixedTime,
	}
}

func TestNewRunReport(t *testing.T) {
	rr, err := NewRunReport(testRun(), nil, testRows(), CurveOptions{Horizon: 5, Bins: 4})
	if err != nil {
		t.Fatalf("NewRunReport failed: %v", err)
	}
	if len(rr.Summaries) != 2 {
		t.Errorf("expected 2 horizon summaries, got %d", len(rr.Summaries))
	}
	if len(rr.Curve) != 4 {
		t.Errorf("expected 4 curve bins, got %d", len(rr.Curve))
	}
}

func TestNewRunReport_CurveHorizonWithoutRows(t *testing.T) {
	rr, err := NewRunReport(testRun(), nil, testRows(), CurveOptions{Horizon: 130, Bins: 4})
	if err != nil {
		t.Fatalf("NewRunReport failed: %v", err)
	}
	if rr.Curve != nil {
		t.Errorf("expected no curve for empty horizon, got %d bins", len(rr.Curve))
	}
}

func TestRenderMarkdown(t *testing.T) {
	stats := []qvariance.HorizonStats{{T: 5, RawWindows: 10, Dropped: 2, Emitted: 8, MeanZRaw: 0.01}}
	rr, err := NewRunReport(testRun(), stats, testRows(), CurveOptions{Horizon: 5, Bins: 2})
	if err != nil {
		t.Fatalf("NewRunReport failed: %v", err)
	}

	md := RenderMarkdown(&Report{GeneratedAt: fixedTime, Runs: []RunReport{rr}})

	for _, want := range []string{
		"# q-variance Report",
		"Generated: 2024-01-15T12:00:00Z",
		"## DRAGON",
		"| Run ID | run-1 |",
		"| Params hash | " + idhash.ComputeParamsHash(domain.DefaultSimulationParams()) + " |",
		"### Window Accounting",
		"| 5 | 10 | 2 | 8 |",
		"### Horizon Summary",
		"### q-variance Curve (T=5)",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderMarkdown_Empty(t *testing.T) {
	md := RenderMarkdown(&Report{GeneratedAt: fixedTime})
	if !strings.Contains(md, "No runs available.") {
		t.Errorf("expected empty report notice, got:\n%s", md)
	}
}

func TestRenderSummaryCSV(t *testing.T) {
	csv := RenderSummaryCSV([]domain.HorizonSummary{{T: 5, Count: 3, MeanZ: 0, StdZ: 1, MeanZ2: 1, MeanSigma: 0.2}})

	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], "5,3,0.000000,1.000000,1.000000,0.200000") {
		t.Errorf("unexpected row: %q", lines[1])
	}
}

func TestWriteSummaryXLSX(t *testing.T) {
	rr, err := NewRunReport(testRun(), nil, testRows(), CurveOptions{Horizon: 5, Bins: 2})
	if err != nil {
		t.Fatalf("NewRunReport failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "summary.xlsx")

	if err := WriteSummaryXLSX(path, &Report{GeneratedAt: fixedTime, Runs: []RunReport{rr}}); err != nil {
		t.Fatalf("WriteSummaryXLSX failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(summarySheet)
	if err != nil {
		t.Fatalf("read summary sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 summary rows, got %d", len(rows))
	}
	if rows[0][0] != "ticker" || rows[0][1] != "T" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "DRAGON" || rows[1][1] != "5" {
		t.Errorf("unexpected first summary row: %v", rows[1])
	}

	curve, err := f.GetRows(curveSheet)
	if err != nil {
		t.Fatalf("read curve sheet: %v", err)
	}
	if len(curve) != 3 {
		t.Errorf("expected header + 2 curve rows, got %d", len(curve))
	}
}

func TestGenerator_Generate(t *testing.T) {
	ctx := context.Background()
	runStore := memory.NewRunStore()
	rowStore := memory.NewHorizonRowStore()

	run := testRun()
	if err := runStore.Insert(ctx, &run); err != nil {
		t.Fatalf("Insert run failed: %v", err)
	}

	var stored []*domain.DatasetRow
	for _, r := range testRows() {
		stored = append(stored, &domain.DatasetRow{RunID: run.RunID, HorizonRow: r})
	}
	if err := rowStore.InsertBulk(ctx, stored); err != nil {
		t.Fatalf("InsertBulk rows failed: %v", err)
	}

	gen := NewGenerator(runStore, rowStore).
		WithClock(func() time.Time { return fixedTime }).
		WithCurve(CurveOptions{Horizon: 5, Bins: 2})

	report, err := gen.GenerateForTicker(ctx, "DRAGON")
	if err != nil {
		t.Fatalf("GenerateForTicker failed: %v", err)
	}
	if !report.GeneratedAt.Equal(fixedTime) {
		t.Errorf("expected injected clock, got %v", report.GeneratedAt)
	}
	if len(report.Runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(report.Runs))
	}

	rr := report.Runs[0]
	if len(rr.Summaries) != 2 || rr.Summaries[0].Count != 8 {
		t.Errorf("unexpected summaries: %+v", rr.Summaries)
	}
	if rr.Stats != nil {
		t.Errorf("stored reports carry no window accounting")
	}
	if len(rr.Curve) != 2 {
		t.Errorf("expected 2 curve bins, got %d", len(rr.Curve))
	}
}

func TestGenerator_UnknownRun(t *testing.T) {
	gen := NewGenerator(memory.NewRunStore(), memory.NewHorizonRowStore())

	_, err := gen.Generate(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
