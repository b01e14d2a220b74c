package core

import (
	"math"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
)

func fakeTransactions(f *gofakeit.Faker, n int) []Transaction {
	txs := make([]Transaction, 0, n)
	for i := 0; i < n; i++ {
		typ := Expense
		if f.Bool() {
			typ = Income
		}
		txs = append(txs, Transaction{
			ID:          f.UUID(),
			Date:        NewDate(2024, f.Number(1, 12), f.Number(1, 28)),
			Description: f.Sentence(3),
			Amount:      Money{Cents: int64(f.Price(1, 500000) * 100)},
			Type:        typ,
			CategoryID:  f.RandomString([]string{"food", "transport", "salary", "freelance"}),
		})
	}
	return txs
}

func TestBalanceIdentity(t *testing.T) {
	f := gofakeit.New(42)
	for round := 0; round < 50; round++ {
		txs := fakeTransactions(f, f.Number(0, 40))
		income := TotalByType(txs, Income)
		expense := TotalByType(txs, Expense)
		if got := Balance(txs); got.Cents != income.Cents-expense.Cents {
			t.Fatalf("round %d: balance %d != %d - %d", round, got.Cents, income.Cents, expense.Cents)
		}
	}
}

func TestBudgetProgressBounds(t *testing.T) {
	f := gofakeit.New(7)
	for i := 0; i < 200; i++ {
		goal := BudgetGoal{CategoryID: "food", Amount: Money{Cents: int64(f.Number(1, 1_000_000))}}
		spent := Money{Cents: int64(f.Number(0, 2_000_000))}
		progress, over := BudgetProgress(goal, spent)
		if progress < 0 || progress > 100 {
			t.Fatalf("progress out of range: %v", progress)
		}
		if over != (spent.Cents > goal.Amount.Cents) {
			t.Fatalf("overBudget mismatch for spent=%d goal=%d", spent.Cents, goal.Amount.Cents)
		}
	}
}

func TestBudgetProgressScenarios(t *testing.T) {
	goal := BudgetGoal{ID: "budget_food", CategoryID: "food", Amount: FromMajor(372000)}

	cases := []struct {
		name     string
		txs      []Transaction
		spent    int64
		progress float64
		over     bool
	}{
		{
			name:     "single expense under goal",
			txs:      []Transaction{{Type: Expense, CategoryID: "food", Amount: FromMajor(70215)}},
			spent:    70215,
			progress: 18.875,
			over:     false,
		},
		{
			name: "over budget is capped",
			txs: []Transaction{
				{Type: Expense, CategoryID: "food", Amount: FromMajor(300000)},
				{Type: Expense, CategoryID: "food", Amount: FromMajor(100000)},
				{Type: Income, CategoryID: "food", Amount: FromMajor(999999)},
			},
			spent:    400000,
			progress: 100,
			over:     true,
		},
		{
			name:     "no spending",
			txs:      nil,
			spent:    0,
			progress: 0,
			over:     false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spent := SpentForCategory(tc.txs, "food")
			if spent.Cents != FromMajor(tc.spent).Cents {
				t.Fatalf("spent: expected %d, got %d", FromMajor(tc.spent).Cents, spent.Cents)
			}
			progress, over := BudgetProgress(goal, spent)
			if math.Abs(progress-tc.progress) > 0.01 {
				t.Fatalf("progress: expected %.3f, got %.3f", tc.progress, progress)
			}
			if over != tc.over {
				t.Fatalf("over: expected %v, got %v", tc.over, over)
			}
		})
	}
}

func TestBudgetProgressZeroGoal(t *testing.T) {
	progress, over := BudgetProgress(BudgetGoal{}, FromMajor(10))
	if progress != 0 {
		t.Fatalf("expected 0 progress, got %v", progress)
	}
	if !over {
		t.Fatalf("expected overBudget when spending exceeds a zero goal")
	}
}

func TestSeedOverview(t *testing.T) {
	ov := NewOverview(SeedCategories(), SeedTransactions(), SeedBudgetGoals())
	if ov.TotalIncome.Cents != FromMajor(3255000).Cents {
		t.Fatalf("income: got %s", ov.TotalIncome)
	}
	if ov.TotalExpenses.Cents != FromMajor(1623315).Cents {
		t.Fatalf("expenses: got %s", ov.TotalExpenses)
	}
	if ov.Balance.Cents != FromMajor(1631685).Cents {
		t.Fatalf("balance: got %s", ov.Balance)
	}
	if len(ov.Spending) != 6 {
		t.Fatalf("expected 6 chart slices, got %d", len(ov.Spending))
	}
	if ov.Spending[0].Name != "Alimentación" || ov.Spending[0].Value != 167865 || ov.Spending[0].Fill != "#FF6384" {
		t.Fatalf("unexpected first slice %+v", ov.Spending[0])
	}
	if len(ov.Budgets) != 5 {
		t.Fatalf("expected 5 budget details, got %d", len(ov.Budgets))
	}
	for i := 1; i < len(ov.Budgets); i++ {
		if ov.Budgets[i-1].CategoryName > ov.Budgets[i].CategoryName {
			t.Fatalf("budget details not sorted by name")
		}
	}
}

func TestBudgetDetailsUnknownCategory(t *testing.T) {
	goals := []BudgetGoal{{ID: "g", CategoryID: "gone", Amount: FromMajor(100)}}
	details := BudgetDetails(goals, SeedCategories(), nil)
	if len(details) != 1 {
		t.Fatalf("expected 1 detail")
	}
	d := details[0]
	if d.CategoryName != UnknownCategoryName || d.CategoryColor != UnknownCategoryColor || d.CategoryIcon != DefaultIcon {
		t.Fatalf("expected placeholder, got %+v", d)
	}
}

func TestExpenseTotalsByName(t *testing.T) {
	totals := ExpenseTotalsByName(SeedCategories(), SeedTransactions())
	if _, ok := totals["Salario"]; ok {
		t.Fatalf("income categories must not appear")
	}
	if _, ok := totals["Vivienda"]; !ok {
		t.Fatalf("expected Vivienda in totals")
	}
	if got := totals["Transporte"]; got.Cents != FromMajor(55800).Cents {
		t.Fatalf("Transporte: got %s", got)
	}
}

func TestFilterByMonth(t *testing.T) {
	txs := append(SeedTransactions(), Transaction{ID: "x", Date: NewDate(2024, 8, 1), Type: Expense, Amount: FromMajor(1), CategoryID: "food"})
	if got := len(FilterByMonth(txs, 2024, 7)); got != 14 {
		t.Fatalf("expected 14 July transactions, got %d", got)
	}
	if got := len(FilterByMonth(txs, 2024, 8)); got != 1 {
		t.Fatalf("expected 1 August transaction, got %d", got)
	}
}
