package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"dicipfinance/internal/core"
	"dicipfinance/internal/insights"
	"dicipfinance/internal/report"
	"dicipfinance/internal/services"
	"dicipfinance/internal/sheets"
)

// ReportJob writes the monthly financial report to its own tab.
type ReportJob struct {
	sources  services.SourceSet
	mode     core.DataMode
	insights *insights.Service
	sheets   sheets.TabWriter
	currency string
	now      func() time.Time
}

func NewReportJob(sources services.SourceSet, mode core.DataMode, svc *insights.Service, w sheets.TabWriter, currency string) *ReportJob {
	if currency == "" {
		currency = report.DefaultCurrency
	}
	return &ReportJob{
		sources:  sources,
		mode:     mode,
		insights: svc,
		sheets:   w,
		currency: currency,
		now:      time.Now,
	}
}

// Run reports on the month before the current one.
func (j *ReportJob) Run(ctx context.Context) error {
	return j.RunPeriod(ctx, report.PeriodOf(j.now()).Previous())
}

func (j *ReportJob) RunPeriod(ctx context.Context, period report.Period) error {
	src := j.sources.For(j.mode)
	categories, err := src.LoadCategories(ctx)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	txs, err := src.LoadTransactions(ctx)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	goals, err := src.LoadBudgetGoals(ctx)
	if err != nil {
		return fmt.Errorf("load budget goals: %w", err)
	}

	r := report.Build(period, categories, txs, goals, j.currency)
	insight := j.insights.ReportInsight(ctx, r)

	tab := sheets.ReportTab(period)
	if err := j.sheets.ReplaceTab(ctx, tab, sheets.ReportRows(r, insight.Text)); err != nil {
		return fmt.Errorf("write report tab: %w", err)
	}

	slog.InfoContext(ctx, "Monthly report written",
		"period", period.String(),
		"tab", tab,
		"transactions", len(r.Lines),
		"insight_failed", insight.Failed)
	return nil
}

// Schedule registers fn on c. Every run gets its own context bounded by
// timeout and derived from ctx, so shutdown cancels in-flight runs.
func Schedule(ctx context.Context, c *cron.Cron, spec, name string, timeout time.Duration, fn func(context.Context) error) (cron.EntryID, error) {
	id, err := c.AddFunc(spec, func() {
		runCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		start := time.Now()
		if err := fn(runCtx); err != nil {
			slog.ErrorContext(runCtx, "Scheduled job failed",
				"job", name,
				"duration", time.Since(start),
				"error", err)
			return
		}
		slog.InfoContext(runCtx, "Scheduled job completed",
			"job", name,
			"duration", time.Since(start))
	})
	if err != nil {
		return 0, fmt.Errorf("schedule %s: %w", name, err)
	}
	return id, nil
}
