package http

import (
	"bytes"
	"errors"
	"net/http"

	"dicipfinance/internal/backend"
	"dicipfinance/internal/core"
	"dicipfinance/internal/insights"
	applog "dicipfinance/internal/log"
	"dicipfinance/internal/report"
)

type dashboardResponse struct {
	Mode     core.DataMode `json:"mode"`
	Source   backend.Kind  `json:"source"`
	Period   report.Period `json:"period"`
	Currency string        `json:"currency"`
	Overview core.Overview `json:"overview"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	// The key is taken before the snapshot so a concurrent change can only
	// make the cached entry unreachable, never stale.
	key := s.dashboardKey(string(s.ledger.Mode()), period)
	resp := s.dashboards.GetOrCompute(key, func() dashboardResponse {
		snap := s.ledger.Snapshot()
		return dashboardResponse{
			Mode:     snap.Mode,
			Source:   snap.Source,
			Period:   period,
			Currency: s.currency,
			Overview: core.NewOverview(snap.Categories, period.Filter(snap.Transactions), snap.BudgetGoals),
		}
	})
	NewResponse().JSON(resp).Write(w)
}

func (s *Server) handleSpendingChart(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap := s.ledger.Snapshot()
	png, err := report.RenderSpendingChart(core.SpendingByCategory(snap.Categories, period.Filter(snap.Transactions)))
	if errors.Is(err, report.ErrNoChartData) {
		NotFoundError("no hay gastos para graficar en el periodo").Write(w)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Header("Cache-Control", "no-store").Bytes("image/png", png).Write(w)
}

const (
	summaryErrorText = "No se pudo generar el resumen de gastos."
	tipsErrorText    = "No se pudieron generar los consejos de presupuesto."
	reportErrorText  = "No se pudo generar el análisis del informe."
)

// writeInsight answers with the insight and raises an error notification
// when the fallback text was used.
func writeInsight(w http.ResponseWriter, in insights.Insight, errorText string) {
	b := NewResponse().JSON(in)
	if in.Failed {
		b.Notify(aiErrorNotification(errorText))
	}
	b.Write(w)
}

func (s *Server) handleSpendingSummary(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap := s.ledger.Snapshot()
	spending := core.ExpenseTotalsByName(snap.Categories, period.Filter(snap.Transactions))
	writeInsight(w, s.insights.SummarizeSpending(r.Context(), spending), summaryErrorText)
}

func (s *Server) handleBudgetTips(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap := s.ledger.Snapshot()
	in := s.insights.BudgetTips(r.Context(), snap.Categories, period.Filter(snap.Transactions), snap.BudgetGoals)
	writeInsight(w, in, tipsErrorText)
}

// handleDashboardInsights asks for the summary and the tips together, the
// way the dashboard shows them.
func (s *Server) handleDashboardInsights(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap := s.ledger.Snapshot()
	d := s.insights.All(r.Context(), snap.Categories, period.Filter(snap.Transactions), snap.BudgetGoals)

	b := NewResponse().JSON(d)
	switch {
	case d.Summary.Failed && d.Tips.Failed:
		b.Notify(aiErrorNotification("No se pudieron generar los análisis de IA."))
	case d.Summary.Failed:
		b.Notify(aiErrorNotification(summaryErrorText))
	case d.Tips.Failed:
		b.Notify(aiErrorNotification(tipsErrorText))
	}
	b.Write(w)
}

type reportResponse struct {
	Report  report.Report    `json:"report"`
	Insight insights.Insight `json:"insight"`
}

// buildReport computes the report for the requested period. The AI insight
// is skipped when the query carries insight=false.
func (s *Server) buildReport(r *http.Request) (reportResponse, error) {
	period, err := parsePeriod(r)
	if err != nil {
		return reportResponse{}, err
	}
	snap := s.ledger.Snapshot()
	rep := report.Build(period, snap.Categories, snap.Transactions, snap.BudgetGoals, s.currency)

	resp := reportResponse{Report: rep}
	if r.URL.Query().Get("insight") != "false" {
		resp.Insight = s.insights.ReportInsight(r.Context(), rep)
	}
	return resp, nil
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	resp, err := s.buildReport(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b := NewResponse().JSON(resp)
	if resp.Insight.Failed {
		b.Notify(aiErrorNotification(reportErrorText))
	}
	b.Write(w)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleReportExport(w http.ResponseWriter, r *http.Request) {
	resp, err := s.buildReport(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, resp.Report, resp.Insight.Text); err != nil {
		writeError(w, r, err)
		return
	}
	filename := "informe-financiero-" + resp.Report.Period.String() + ".xlsx"
	b := NewResponse().
		Header("Content-Disposition", `attachment; filename="`+filename+`"`).
		Bytes(xlsxContentType, buf.Bytes())
	if resp.Insight.Failed {
		b.Notify(aiErrorNotification(reportErrorText))
	}
	b.Write(w)
}

// --- data mode ---

type modeResponse struct {
	Mode   core.DataMode `json:"mode"`
	Source backend.Kind  `json:"source"`
}

func (s *Server) handleGetMode(w http.ResponseWriter, r *http.Request) {
	snap := s.ledger.Snapshot()
	NewResponse().JSON(modeResponse{Mode: snap.Mode, Source: snap.Source}).Write(w)
}

// handleSetMode switches the data mode. A failed switch keeps the current
// mode and still carries the error notification.
func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var in modeInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	mode, err := core.ParseDataMode(in.Mode)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	n, err := s.ledger.SetMode(r.Context(), mode)
	if err != nil {
		status := statusFor(err)
		msg := err.Error()
		if status == http.StatusInternalServerError {
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "Data mode switch failed", "mode", mode, "error", err)
			status = http.StatusServiceUnavailable
			msg = "no se pudo cargar la fuente de datos"
		}
		ErrorResponse(status, msg).Notify(n).Write(w)
		return
	}
	snap := s.ledger.Snapshot()
	NewResponse().Notify(n).JSON(modeResponse{Mode: snap.Mode, Source: snap.Source}).Write(w)
}
