package sheets

import (
	"testing"

	"dicipfinance/internal/core"
	"dicipfinance/internal/report"
)

func TestTransactionRows(t *testing.T) {
	cats := core.SeedCategories()
	txs := []core.Transaction{
		{ID: "b", Date: core.NewDate(2024, 7, 20), Description: "Cine", Amount: core.FromMajor(27900), Type: core.Expense, CategoryID: "entertainment"},
		{ID: "a", Date: core.NewDate(2024, 7, 1), Description: "Sueldo", Amount: core.FromMajor(2790000), Type: core.Income, CategoryID: "salary"},
		{ID: "c", Date: core.NewDate(2024, 7, 25), Description: "Regalo", Amount: core.FromMajor(1000), Type: core.Expense, CategoryID: "gone"},
	}
	rows := TransactionRows(cats, txs)
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(rows))
	}
	if rows[1][0] != "a" || rows[1][4] != "Ingreso" || rows[1][5] != 2790000.0 {
		t.Fatalf("unexpected first row %v", rows[1])
	}
	if rows[3][3] != core.UnknownCategoryName {
		t.Fatalf("expected placeholder category, got %v", rows[3][3])
	}
	if txs[0].ID != "b" {
		t.Fatalf("input slice must not be reordered")
	}
}

func TestBudgetAndReportRows(t *testing.T) {
	details := core.BudgetDetails(core.SeedBudgetGoals(), core.SeedCategories(), core.SeedTransactions())
	rows := BudgetRows(details)
	if len(rows) != 6 || rows[0][0] != "Categoría" {
		t.Fatalf("unexpected budget rows %v", rows)
	}

	r := report.Build(report.Period{Year: 2024, Month: 7}, core.SeedCategories(), core.SeedTransactions(), core.SeedBudgetGoals(), "CLP")
	rr := ReportRows(r, "Todo bien.")
	if rr[0][1] != "2024-07" || rr[6][1] != "Todo bien." {
		t.Fatalf("unexpected report rows head %v / %v", rr[0], rr[6])
	}
	if got := ReportTab(r.Period); got != "Informe 2024-07" {
		t.Fatalf("unexpected report tab %q", got)
	}
}
