package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"golang.org/x/sync/errgroup"

	"dicipfinance/internal/core"
	"dicipfinance/internal/report"
)

// Messages returned instead of model output.
const (
	NoSpendingData  = "No hay suficientes datos de gastos para generar un resumen."
	NoTipsData      = "No hay suficientes datos para generar consejos de presupuesto. Agrega transacciones y establece objetivos de presupuesto."
	SummaryFallback = "No se pudo generar el resumen de gastos en este momento."
	TipsFallback    = "No se pudieron generar los consejos de presupuesto en este momento."
	ReportFallback  = "No se pudo generar el análisis del informe en este momento."
)

var ErrEmptyOutput = errors.New("model returned an empty field")

// Insight is the text of one flow. Failed is set when Text is a fallback
// caused by an error, so callers can show an error notification.
type Insight struct {
	Text   string `json:"text"`
	Failed bool   `json:"failed"`
}

// Dashboard bundles the two texts shown on the dashboard.
type Dashboard struct {
	Summary Insight `json:"summary"`
	Tips    Insight `json:"tips"`
}

type Service struct {
	gen     Generator
	timeout time.Duration
}

func NewService(gen Generator, timeout time.Duration) *Service {
	if gen == nil {
		gen = Disabled{}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{gen: gen, timeout: timeout}
}

var templateFuncs = template.FuncMap{
	"amount": func(m core.Money) string { return m.String() },
}

var summaryTemplate = template.Must(template.New("summary").Funcs(templateFuncs).Parse(
	`Eres un experto en finanzas personales. Estás ayudando a un usuario a comprender sus hábitos de gasto durante el último mes.

Aquí tienes un registro de sus gastos, donde la clave es la categoría y el valor es la cantidad gastada:
{{range $name, $spent := .}}
- {{$name}}: {{amount $spent}}
{{- end}}

Genera un resumen conciso de los hábitos de gasto del usuario, destacando las categorías en las que gastó más y cualquier área potencial de mejora.
Responde solo con un objeto JSON de la forma {"summary": "..."}.
`))

var tipsTemplate = template.Must(template.New("tips").Parse(
	`Eres un asistente de presupuesto. Analiza los datos de gastos y los objetivos de presupuesto del usuario para darle consejos personalizados sobre cómo administrar mejor su presupuesto y optimizar sus gastos.

Datos de gastos: {{.SpendingData}}
Objetivos de presupuesto: {{.BudgetGoals}}

Entrega un resumen de consejos accionables basados en estos datos, no consejos generales.
Responde solo con un objeto JSON de la forma {"tips": "..."}.
`))

var reportTemplate = template.Must(template.New("report").Funcs(templateFuncs).Parse(
	`Eres un asesor financiero experto encargado de redactar un breve análisis para un informe financiero.
Analiza los siguientes datos financieros para el período {{.Period}}:

Moneda: {{.Currency}}
Ingresos Totales: {{amount .TotalIncome}}
Gastos Totales: {{amount .TotalExpenses}}
Saldo Final: {{amount .Balance}}

Desglose de Gastos por Categoría:
{{- range $name, $spent := .SpendingByCategory}}
- {{$name}}: {{amount $spent}}
{{- else}}
- No se registraron gastos detallados por categoría.
{{- end}}

Objetivos de Presupuesto por Categoría:
{{- range $name, $goal := .BudgetGoals}}
- {{$name}}: {{amount $goal}}
{{- else}}
- No se establecieron objetivos de presupuesto.
{{- end}}

Redacta un análisis conciso y profesional que:
1. Comience con una evaluación general de la salud financiera.
2. Destaque los puntos positivos y las áreas de mejora.
3. Compare los gastos reales con los objetivos de presupuesto.
4. Mantenga un tono formal y no exceda los 3 o 4 párrafos.
5. Use la moneda indicada al referirse a montos.
Responde solo con un objeto JSON de la forma {"reportSummary": "..."}.
`))

// SummarizeSpending describes the spending per category. spending maps
// category names to totals; non-positive totals are ignored.
func (s *Service) SummarizeSpending(ctx context.Context, spending map[string]core.Money) Insight {
	data := make(map[string]core.Money, len(spending))
	for name, m := range spending {
		if m.Cents > 0 {
			data[name] = m
		}
	}
	if len(data) == 0 {
		return Insight{Text: NoSpendingData}
	}

	var out struct {
		Summary string `json:"summary"`
	}
	if err := s.run(ctx, "summarize_spending", summaryTemplate, data, &out, func() string { return out.Summary }); err != nil {
		return Insight{Text: SummaryFallback, Failed: true}
	}
	return Insight{Text: out.Summary}
}

type tipsTransaction struct {
	Category string               `json:"category"`
	Amount   core.Money           `json:"amount"`
	Type     core.TransactionType `json:"type"`
	Date     core.Date            `json:"date"`
}

type tipsGoal struct {
	Category string     `json:"category"`
	Goal     core.Money `json:"goal"`
}

// BudgetTips gives advice from every transaction and goal.
func (s *Service) BudgetTips(ctx context.Context, categories []core.Category, txs []core.Transaction, goals []core.BudgetGoal) Insight {
	if len(txs) == 0 || len(goals) == 0 {
		return Insight{Text: NoTipsData}
	}

	spending := make([]tipsTransaction, 0, len(txs))
	for _, tx := range txs {
		spending = append(spending, tipsTransaction{
			Category: core.ResolveCategory(categories, tx.CategoryID).Name,
			Amount:   tx.Amount,
			Type:     tx.Type,
			Date:     tx.Date,
		})
	}
	goalData := make([]tipsGoal, 0, len(goals))
	for _, g := range goals {
		goalData = append(goalData, tipsGoal{
			Category: core.ResolveCategory(categories, g.CategoryID).Name,
			Goal:     g.Amount,
		})
	}

	spendingJSON, err := json.Marshal(spending)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode spending data", "error", err)
		return Insight{Text: TipsFallback, Failed: true}
	}
	goalsJSON, err := json.Marshal(goalData)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode budget goals", "error", err)
		return Insight{Text: TipsFallback, Failed: true}
	}

	input := struct{ SpendingData, BudgetGoals string }{string(spendingJSON), string(goalsJSON)}
	var out struct {
		Tips string `json:"tips"`
	}
	if err := s.run(ctx, "budget_tips", tipsTemplate, input, &out, func() string { return out.Tips }); err != nil {
		return Insight{Text: TipsFallback, Failed: true}
	}
	return Insight{Text: out.Tips}
}

// ReportInsight writes the formal analysis for a financial report.
func (s *Service) ReportInsight(ctx context.Context, r report.Report) Insight {
	if r.Currency == "" {
		r.Currency = report.DefaultCurrency
	}
	var out struct {
		ReportSummary string `json:"reportSummary"`
	}
	if err := s.run(ctx, "report_insight", reportTemplate, r, &out, func() string { return out.ReportSummary }); err != nil {
		return Insight{Text: ReportFallback, Failed: true}
	}
	return Insight{Text: out.ReportSummary}
}

// All runs the spending summary and the budget tips concurrently.
func (s *Service) All(ctx context.Context, categories []core.Category, txs []core.Transaction, goals []core.BudgetGoal) Dashboard {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.Summary = s.SummarizeSpending(gctx, core.ExpenseTotalsByName(categories, txs))
		return nil
	})
	g.Go(func() error {
		d.Tips = s.BudgetTips(gctx, categories, txs, goals)
		return nil
	})
	_ = g.Wait()
	return d
}

// run renders the prompt, calls the model once and decodes its answer into
// out. field returns the output field that must not be empty.
func (s *Service) run(ctx context.Context, flow string, tmpl *template.Template, data any, out any, field func() string) error {
	err := s.generate(ctx, tmpl, data, out, field)
	if err != nil {
		slog.ErrorContext(ctx, "AI flow failed", "flow", flow, "error", err)
		return err
	}
	slog.DebugContext(ctx, "AI flow completed", "flow", flow)
	return nil
}

func (s *Service) generate(ctx context.Context, tmpl *template.Template, data any, out any, field func() string) error {
	var prompt bytes.Buffer
	if err := tmpl.Execute(&prompt, data); err != nil {
		return fmt.Errorf("render prompt: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.gen.Generate(ctx, prompt.String())
	if err != nil {
		return err
	}

	dec := json.NewDecoder(strings.NewReader(stripFences(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode model output: %w", err)
	}
	if strings.TrimSpace(field()) == "" {
		return ErrEmptyOutput
	}
	return nil
}

// stripFences removes a markdown code fence some models wrap around JSON.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
