// Package report builds the period financial report and its exports.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"dicipfinance/internal/core"
)

const DefaultCurrency = "CLP"

// Period is a calendar month. The zero Period covers every transaction.
type Period struct {
	Year  int `json:"year,omitempty"`
	Month int `json:"month,omitempty"`
}

// ParsePeriod reads optional year and month query values. Both empty means
// the whole history; a month needs a year.
func ParsePeriod(year, month string) (Period, error) {
	if year == "" && month == "" {
		return Period{}, nil
	}
	y, err := strconv.Atoi(year)
	if err != nil || y < 1900 || y > 9999 {
		return Period{}, fmt.Errorf("invalid year %q", year)
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", core.ErrInvalidMonth, month)
	}
	if m < 1 || m > 12 {
		return Period{}, fmt.Errorf("%w: %d", core.ErrInvalidMonth, m)
	}
	return Period{Year: y, Month: m}, nil
}

// PeriodOf returns the month containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// Previous returns the month before p.
func (p Period) Previous() Period {
	if p.IsZero() {
		return p
	}
	if p.Month == 1 {
		return Period{Year: p.Year - 1, Month: 12}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

func (p Period) IsZero() bool { return p.Year == 0 && p.Month == 0 }

func (p Period) String() string {
	if p.IsZero() {
		return "Todo"
	}
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Filter keeps the transactions inside p.
func (p Period) Filter(txs []core.Transaction) []core.Transaction {
	if p.IsZero() {
		return txs
	}
	return core.FilterByMonth(txs, p.Year, p.Month)
}

// Line is one transaction as printed in a report.
type Line struct {
	Date         core.Date            `json:"date"`
	Description  string               `json:"description"`
	CategoryName string               `json:"categoryName"`
	Type         core.TransactionType `json:"type"`
	Amount       core.Money           `json:"amount"`
}

type Report struct {
	Period             Period                `json:"period"`
	Currency           string                `json:"currency"`
	GeneratedAt        time.Time             `json:"generatedAt"`
	TotalIncome        core.Money            `json:"totalIncome"`
	TotalExpenses      core.Money            `json:"totalExpenses"`
	Balance            core.Money            `json:"balance"`
	SpendingByCategory map[string]core.Money `json:"spendingByCategory"`
	BudgetGoals        map[string]core.Money `json:"budgetGoals"`
	BudgetDetails      []core.BudgetDetail   `json:"budgetDetails"`
	Chart              []core.ChartSlice     `json:"chart"`
	Lines              []Line                `json:"transactions"`
}

// Build computes the report for the transactions inside period.
func Build(period Period, categories []core.Category, txs []core.Transaction, goals []core.BudgetGoal, currency string) Report {
	if currency == "" {
		currency = DefaultCurrency
	}
	in := period.Filter(txs)

	goalsByName := make(map[string]core.Money, len(goals))
	for _, g := range goals {
		name := core.ResolveCategory(categories, g.CategoryID).Name
		goalsByName[name] = goalsByName[name].Add(g.Amount)
	}

	lines := make([]Line, 0, len(in))
	for _, tx := range in {
		lines = append(lines, Line{
			Date:         tx.Date,
			Description:  tx.Description,
			CategoryName: core.ResolveCategory(categories, tx.CategoryID).Name,
			Type:         tx.Type,
			Amount:       tx.Amount,
		})
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Date.Before(lines[j].Date.Time) })

	return Report{
		Period:             period,
		Currency:           currency,
		GeneratedAt:        time.Now().UTC(),
		TotalIncome:        core.TotalByType(in, core.Income),
		TotalExpenses:      core.TotalByType(in, core.Expense),
		Balance:            core.Balance(in),
		SpendingByCategory: core.ExpenseTotalsByName(categories, in),
		BudgetGoals:        goalsByName,
		BudgetDetails:      core.BudgetDetails(goals, categories, in),
		Chart:              core.SpendingByCategory(categories, in),
		Lines:              lines,
	}
}
