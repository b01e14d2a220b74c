package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"dicipfinance/internal/core"
)

const (
	SummarySheet      = "Resumen"
	TransactionsSheet = "Transacciones"

	colorPrimary = "#2E7D32"
	colorIncome  = "#2ECC71"
	colorExpense = "#D63031"
	colorMuted   = "#636E72"
)

var hundred = decimal.NewFromInt(100)

type styles struct {
	title, subtitle, header, label, number, income, expense, balance, over int
}

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.title, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 16, Color: "#FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{colorPrimary}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}},
		{&s.subtitle, &excelize.Style{
			Font:      &excelize.Font{Size: 11, Italic: true, Color: colorMuted},
			Alignment: &excelize.Alignment{Horizontal: "center", WrapText: true, Vertical: "top"},
		}},
		{&s.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{colorPrimary}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}},
		{&s.label, &excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Alignment: &excelize.Alignment{Horizontal: "right"},
		}},
		{&s.number, &excelize.Style{NumFmt: 3}},
		{&s.income, &excelize.Style{Font: &excelize.Font{Bold: true, Color: colorIncome}, NumFmt: 3}},
		{&s.expense, &excelize.Style{Font: &excelize.Font{Bold: true, Color: colorExpense}, NumFmt: 3}},
		{&s.balance, &excelize.Style{
			Font:   &excelize.Font{Bold: true, Size: 12, Color: colorPrimary},
			Fill:   excelize.Fill{Type: "pattern", Color: []string{"#E8F5E9"}, Pattern: 1},
			NumFmt: 3,
		}},
		{&s.over, &excelize.Style{Font: &excelize.Font{Bold: true, Color: colorExpense}}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return styles{}, fmt.Errorf("create style: %w", err)
		}
		*d.dst = id
	}
	return s, nil
}

// WriteXLSX writes the report as a workbook with a summary sheet and a
// transactions sheet. insight is printed under the title when non-empty.
func WriteXLSX(w io.Writer, r Report, insight string) error {
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return err
	}
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(TransactionsSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	sw := sheetWriter{f: f, sheet: SummarySheet}
	sw.merge("A1", "D1")
	sw.set("A1", fmt.Sprintf("Informe Financiero %s", r.Period), st.title)
	sw.f.SetRowHeight(SummarySheet, 1, 30)

	row := 2
	if insight != "" {
		sw.merge("A2", "D2")
		sw.set("A2", insight, st.subtitle)
		sw.f.SetRowHeight(SummarySheet, 2, 120)
		row = 3
	}

	row++
	sw.set(cell(1, row), "Moneda", st.label)
	sw.set(cell(2, row), r.Currency, 0)
	row++
	sw.set(cell(1, row), "Ingresos Totales", st.label)
	sw.set(cell(2, row), r.TotalIncome.Major(), st.income)
	row++
	sw.set(cell(1, row), "Gastos Totales", st.label)
	sw.set(cell(2, row), r.TotalExpenses.Major(), st.expense)
	row++
	sw.set(cell(1, row), "Saldo", st.label)
	sw.set(cell(2, row), r.Balance.Major(), st.balance)

	row += 2
	sw.header(row, st.header, "Categoría", "Gasto", "% del Total")
	names := make([]string, 0, len(r.SpendingByCategory))
	for name := range r.SpendingByCategory {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return r.SpendingByCategory[names[i]].Cents > r.SpendingByCategory[names[j]].Cents
	})
	for _, name := range names {
		row++
		spent := r.SpendingByCategory[name]
		share := 0.0
		if r.TotalExpenses.Cents > 0 {
			share, _ = spent.Decimal().Div(r.TotalExpenses.Decimal()).Mul(hundred).Round(1).Float64()
		}
		sw.set(cell(1, row), name, 0)
		sw.set(cell(2, row), spent.Major(), st.number)
		sw.set(cell(3, row), share, 0)
	}

	row += 2
	sw.header(row, st.header, "Presupuesto", "Objetivo", "Gastado", "Progreso %", "Estado")
	for _, d := range r.BudgetDetails {
		row++
		status, style := "En presupuesto", 0
		if d.OverBudget {
			status, style = "Excedido", st.over
		}
		sw.set(cell(1, row), d.CategoryName, 0)
		sw.set(cell(2, row), d.Goal.Amount.Major(), st.number)
		sw.set(cell(3, row), d.Spent.Major(), st.number)
		sw.set(cell(4, row), d.Progress, 0)
		sw.set(cell(5, row), status, style)
	}
	f.SetColWidth(SummarySheet, "A", "A", 24)
	f.SetColWidth(SummarySheet, "B", "E", 16)

	tw := sheetWriter{f: f, sheet: TransactionsSheet}
	tw.header(1, st.header, "Fecha", "Descripción", "Categoría", "Tipo", "Monto")
	for i, l := range r.Lines {
		row := i + 2
		typ, style := "Gasto", st.expense
		if l.Type == core.Income {
			typ, style = "Ingreso", st.income
		}
		tw.set(cell(1, row), l.Date.String(), 0)
		tw.set(cell(2, row), l.Description, 0)
		tw.set(cell(3, row), l.CategoryName, 0)
		tw.set(cell(4, row), typ, 0)
		tw.set(cell(5, row), l.Amount.Major(), style)
	}
	f.SetColWidth(TransactionsSheet, "A", "A", 12)
	f.SetColWidth(TransactionsSheet, "B", "B", 32)
	f.SetColWidth(TransactionsSheet, "C", "D", 18)
	f.SetColWidth(TransactionsSheet, "E", "E", 16)

	if sw.err != nil {
		return sw.err
	}
	if tw.err != nil {
		return tw.err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// sheetWriter keeps the first error so the layout code stays linear.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (s *sheetWriter) set(ref string, v any, style int) {
	if s.err != nil {
		return
	}
	if err := s.f.SetCellValue(s.sheet, ref, v); err != nil {
		s.err = fmt.Errorf("set %s!%s: %w", s.sheet, ref, err)
		return
	}
	if style != 0 {
		if err := s.f.SetCellStyle(s.sheet, ref, ref, style); err != nil {
			s.err = fmt.Errorf("style %s!%s: %w", s.sheet, ref, err)
		}
	}
}

func (s *sheetWriter) merge(from, to string) {
	if s.err != nil {
		return
	}
	if err := s.f.MergeCell(s.sheet, from, to); err != nil {
		s.err = fmt.Errorf("merge %s!%s:%s: %w", s.sheet, from, to, err)
	}
}

func (s *sheetWriter) header(row, style int, titles ...string) {
	for i, t := range titles {
		s.set(cell(i+1, row), t, style)
	}
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
