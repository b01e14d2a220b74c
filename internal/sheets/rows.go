package sheets

import (
	"sort"

	"dicipfinance/internal/core"
	"dicipfinance/internal/report"
)

// CategoryRows lays out the categories tab.
func CategoryRows(categories []core.Category) [][]any {
	rows := [][]any{{"ID", "Nombre", "Tipo", "Color", "Icono"}}
	for _, c := range categories {
		rows = append(rows, []any{c.ID, c.Name, typeLabel(c.Type), c.Color, core.IconOrDefault(c.IconName)})
	}
	return rows
}

// TransactionRows lays out the transactions tab, oldest first.
func TransactionRows(categories []core.Category, txs []core.Transaction) [][]any {
	sorted := append([]core.Transaction(nil), txs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date.Time) })

	rows := [][]any{{"ID", "Fecha", "Descripción", "Categoría", "Tipo", "Monto"}}
	for _, tx := range sorted {
		rows = append(rows, []any{
			tx.ID,
			tx.Date.String(),
			tx.Description,
			core.ResolveCategory(categories, tx.CategoryID).Name,
			typeLabel(tx.Type),
			tx.Amount.Major(),
		})
	}
	return rows
}

// BudgetRows lays out the budgets tab with current progress.
func BudgetRows(details []core.BudgetDetail) [][]any {
	rows := [][]any{{"Categoría", "Objetivo", "Gastado", "Progreso %", "Estado"}}
	for _, d := range details {
		rows = append(rows, []any{
			d.CategoryName,
			d.Goal.Amount.Major(),
			d.Spent.Major(),
			d.Progress,
			statusLabel(d.OverBudget),
		})
	}
	return rows
}

// ReportRows lays out a report tab: totals, the insight, then the category
// breakdown and budget compliance.
func ReportRows(r report.Report, insight string) [][]any {
	rows := [][]any{
		{"Informe Financiero", r.Period.String()},
		{"Moneda", r.Currency},
		{"Ingresos Totales", r.TotalIncome.Major()},
		{"Gastos Totales", r.TotalExpenses.Major()},
		{"Saldo", r.Balance.Major()},
		{},
		{"Análisis", insight},
		{},
		{"Categoría", "Gasto"},
	}
	for _, s := range r.Chart {
		rows = append(rows, []any{s.Name, s.Value})
	}
	rows = append(rows, []any{}, []any{"Presupuesto", "Objetivo", "Gastado", "Progreso %", "Estado"})
	for _, d := range r.BudgetDetails {
		rows = append(rows, []any{d.CategoryName, d.Goal.Amount.Major(), d.Spent.Major(), d.Progress, statusLabel(d.OverBudget)})
	}
	return rows
}

func typeLabel(t core.TransactionType) string {
	if t == core.Income {
		return "Ingreso"
	}
	return "Gasto"
}

func statusLabel(over bool) string {
	if over {
		return "Excedido"
	}
	return "En presupuesto"
}
