package sheets

import (
	"context"

	"dicipfinance/internal/core"
	"dicipfinance/internal/report"
)

// Base names of the list tabs. Each data mode writes its own copy, see ModeTab.
const (
	CategoriesTab   = "Categorías"
	TransactionsTab = "Transacciones"
	BudgetsTab      = "Presupuestos"
)

// ModeTab names the copy of a list tab that mirrors mode.
func ModeTab(tab string, mode core.DataMode) string {
	return tab + " (" + string(mode) + ")"
}

// ReportTab names the tab holding the report for p.
func ReportTab(p report.Period) string {
	return "Informe " + p.String()
}

// Ports for outbound adapters.
type (
	// TabWriter replaces the whole content of a tab, creating it if needed.
	TabWriter interface {
		ReplaceTab(ctx context.Context, tab string, rows [][]any) error
	}
)
