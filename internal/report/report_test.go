package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"dicipfinance/internal/core"
)

func seedReport(period Period) Report {
	return Build(period, core.SeedCategories(), core.SeedTransactions(), core.SeedBudgetGoals(), "")
}

func TestParsePeriod(t *testing.T) {
	cases := []struct {
		year, month string
		want        Period
		wantErr     bool
	}{
		{"", "", Period{}, false},
		{"2024", "7", Period{Year: 2024, Month: 7}, false},
		{"2024", "13", Period{}, true},
		{"2024", "", Period{}, true},
		{"", "7", Period{}, true},
		{"abc", "1", Period{}, true},
	}
	for _, tc := range cases {
		got, err := ParsePeriod(tc.year, tc.month)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q/%q: expected error", tc.year, tc.month)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%q/%q: got %+v, %v", tc.year, tc.month, got, err)
		}
	}
}

func TestPeriodPrevious(t *testing.T) {
	if got := (Period{Year: 2024, Month: 1}).Previous(); got != (Period{Year: 2023, Month: 12}) {
		t.Fatalf("got %v", got)
	}
	if got := (Period{Year: 2024, Month: 7}).Previous(); got.String() != "2024-06" {
		t.Fatalf("got %v", got)
	}
	if got := (Period{}).String(); got != "Todo" {
		t.Fatalf("got %q", got)
	}
}

func TestBuild(t *testing.T) {
	r := seedReport(Period{Year: 2024, Month: 7})

	if r.Currency != DefaultCurrency {
		t.Fatalf("expected default currency, got %s", r.Currency)
	}
	if r.TotalIncome.Cents != core.FromMajor(3255000).Cents || r.TotalExpenses.Cents != core.FromMajor(1623315).Cents {
		t.Fatalf("unexpected totals %s / %s", r.TotalIncome, r.TotalExpenses)
	}
	if r.Balance.Cents != r.TotalIncome.Cents-r.TotalExpenses.Cents {
		t.Fatalf("balance mismatch")
	}
	if got := r.SpendingByCategory["Alimentación"]; got.Cents != core.FromMajor(167865).Cents {
		t.Fatalf("Alimentación spend: %s", got)
	}
	if got := r.BudgetGoals["Transporte"]; got.Cents != core.FromMajor(139500).Cents {
		t.Fatalf("Transporte goal: %s", got)
	}
	if len(r.Lines) != 14 || len(r.Chart) != 6 || len(r.BudgetDetails) != 5 {
		t.Fatalf("unexpected sizes %d/%d/%d", len(r.Lines), len(r.Chart), len(r.BudgetDetails))
	}
	for i := 1; i < len(r.Lines); i++ {
		if r.Lines[i].Date.Before(r.Lines[i-1].Date.Time) {
			t.Fatalf("lines not sorted by date")
		}
	}

	empty := seedReport(Period{Year: 2024, Month: 8})
	if len(empty.Lines) != 0 || empty.TotalExpenses.Cents != 0 {
		t.Fatalf("expected empty August report")
	}
	if len(empty.BudgetDetails) != 5 {
		t.Fatalf("goals are listed even without spending")
	}
}

func TestRenderSpendingChart(t *testing.T) {
	r := seedReport(Period{})
	png, err := RenderSpendingChart(r.Chart)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatalf("expected PNG output")
	}

	if _, err := RenderSpendingChart(nil); !errors.Is(err, ErrNoChartData) {
		t.Fatalf("expected ErrNoChartData, got %v", err)
	}
	if _, err := RenderSpendingChart([]core.ChartSlice{{Name: "x", Value: 0, Fill: "#000000"}}); !errors.Is(err, ErrNoChartData) {
		t.Fatalf("expected ErrNoChartData for zero values, got %v", err)
	}
}

func TestWriteXLSX(t *testing.T) {
	r := seedReport(Period{Year: 2024, Month: 7})

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, r, "Buen mes."); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != SummarySheet || sheets[1] != TransactionsSheet {
		t.Fatalf("unexpected sheets %v", sheets)
	}

	title, _ := f.GetCellValue(SummarySheet, "A1")
	if title != "Informe Financiero 2024-07" {
		t.Fatalf("unexpected title %q", title)
	}
	insight, _ := f.GetCellValue(SummarySheet, "A2")
	if insight != "Buen mes." {
		t.Fatalf("unexpected insight %q", insight)
	}
	income, _ := f.GetCellValue(SummarySheet, "B5", excelize.Options{RawCellValue: true})
	if income != "3255000" {
		t.Fatalf("unexpected income cell %q", income)
	}

	rows, err := f.GetRows(TransactionsSheet)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 15 {
		t.Fatalf("expected header + 14 rows, got %d", len(rows))
	}
	if rows[0][0] != "Fecha" || rows[1][0] != "2024-07-01" {
		t.Fatalf("unexpected transactions sheet start %v / %v", rows[0], rows[1])
	}
}
