package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ChartSlice is one wedge of the spending chart.
type ChartSlice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Fill  string  `json:"fill"`
}

// CategoryLabel is what a record shows for its category.
type CategoryLabel struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// BudgetDetail is a goal joined with its category and current spend.
type BudgetDetail struct {
	Goal          BudgetGoal `json:"goal"`
	CategoryName  string     `json:"categoryName"`
	CategoryColor string     `json:"categoryColor"`
	CategoryIcon  string     `json:"categoryIcon"`
	Spent         Money      `json:"spent"`
	Progress      float64    `json:"progress"`
	OverBudget    bool       `json:"overBudget"`
}

// Overview is the dashboard payload.
type Overview struct {
	TotalIncome   Money          `json:"totalIncome"`
	TotalExpenses Money          `json:"totalExpenses"`
	Balance       Money          `json:"balance"`
	Spending      []ChartSlice   `json:"spendingByCategory"`
	Budgets       []BudgetDetail `json:"budgetDetails"`
}

func TotalByType(txs []Transaction, typ TransactionType) Money {
	var total Money
	for _, tx := range txs {
		if tx.Type == typ {
			total.Cents += tx.Amount.Cents
		}
	}
	return total
}

// SpentForCategory sums expense transactions for one category.
func SpentForCategory(txs []Transaction, categoryID string) Money {
	var total Money
	for _, tx := range txs {
		if tx.Type == Expense && tx.CategoryID == categoryID {
			total.Cents += tx.Amount.Cents
		}
	}
	return total
}

// BudgetProgress returns the share of the goal spent, capped at 100, and
// whether spending exceeded the goal. A goal with no amount reports 0.
func BudgetProgress(goal BudgetGoal, spent Money) (float64, bool) {
	over := spent.Cents > goal.Amount.Cents
	if goal.Amount.Cents <= 0 {
		return 0, over
	}
	pct := decimal.NewFromInt(spent.Cents).
		Div(decimal.NewFromInt(goal.Amount.Cents)).
		Mul(decimal.NewFromInt(100))
	if pct.GreaterThan(decimal.NewFromInt(100)) {
		pct = decimal.NewFromInt(100)
	}
	if pct.IsNegative() {
		pct = decimal.Zero
	}
	f, _ := pct.Float64()
	return f, over
}

func Balance(txs []Transaction) Money {
	return TotalByType(txs, Income).Sub(TotalByType(txs, Expense))
}

// ResolveCategory looks up id, falling back to the unknown-category placeholder.
func ResolveCategory(categories []Category, id string) CategoryLabel {
	for _, c := range categories {
		if c.ID == id {
			return CategoryLabel{Name: c.Name, Color: c.Color, Icon: IconOrDefault(c.IconName)}
		}
	}
	return CategoryLabel{Name: UnknownCategoryName, Color: UnknownCategoryColor, Icon: DefaultIcon}
}

// SpendingByCategory returns one slice per expense category with spending,
// in category order.
func SpendingByCategory(categories []Category, txs []Transaction) []ChartSlice {
	slices := make([]ChartSlice, 0, len(categories))
	for _, c := range categories {
		if c.Type != Expense {
			continue
		}
		spent := SpentForCategory(txs, c.ID)
		if spent.Cents <= 0 {
			continue
		}
		slices = append(slices, ChartSlice{Name: c.Name, Value: spent.Major(), Fill: c.Color})
	}
	return slices
}

// ExpenseTotalsByName maps category name to spend for expense categories with spending.
func ExpenseTotalsByName(categories []Category, txs []Transaction) map[string]Money {
	out := make(map[string]Money)
	for _, c := range categories {
		if c.Type != Expense {
			continue
		}
		if spent := SpentForCategory(txs, c.ID); spent.Cents > 0 {
			out[c.Name] = spent
		}
	}
	return out
}

func BudgetDetails(goals []BudgetGoal, categories []Category, txs []Transaction) []BudgetDetail {
	details := make([]BudgetDetail, 0, len(goals))
	for _, g := range goals {
		label := ResolveCategory(categories, g.CategoryID)
		spent := SpentForCategory(txs, g.CategoryID)
		progress, over := BudgetProgress(g, spent)
		details = append(details, BudgetDetail{
			Goal:          g,
			CategoryName:  label.Name,
			CategoryColor: label.Color,
			CategoryIcon:  label.Icon,
			Spent:         spent,
			Progress:      progress,
			OverBudget:    over,
		})
	}
	sort.SliceStable(details, func(i, j int) bool {
		return details[i].CategoryName < details[j].CategoryName
	})
	return details
}

// FilterByMonth keeps the transactions dated in the given calendar month.
func FilterByMonth(txs []Transaction, year, month int) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Date.Year() == year && tx.Date.Month() == month {
			out = append(out, tx)
		}
	}
	return out
}

func NewOverview(categories []Category, txs []Transaction, goals []BudgetGoal) Overview {
	income := TotalByType(txs, Income)
	expenses := TotalByType(txs, Expense)
	return Overview{
		TotalIncome:   income,
		TotalExpenses: expenses,
		Balance:       income.Sub(expenses),
		Spending:      SpendingByCategory(categories, txs),
		Budgets:       BudgetDetails(goals, categories, txs),
	}
}
