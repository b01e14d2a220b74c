package worker

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"dicipfinance/internal/amqp"
	"dicipfinance/internal/backend"
	"dicipfinance/internal/core"
	"dicipfinance/internal/services"
	"dicipfinance/internal/sheets"
)

// Mirror keeps the spreadsheet tabs in step with the persisted lists.
type Mirror struct {
	sources services.SourceSet
	sheets  sheets.TabWriter
}

func NewMirror(sources services.SourceSet, w sheets.TabWriter) *Mirror {
	return &Mirror{sources: sources, sheets: w}
}

// tabsFor lists the tabs whose content depends on entity. Category names
// appear in every tab and transactions drive budget progress.
func tabsFor(entity core.Entity) []string {
	switch entity {
	case core.EntityCategory:
		return []string{sheets.CategoriesTab, sheets.TransactionsTab, sheets.BudgetsTab}
	case core.EntityTransaction:
		return []string{sheets.TransactionsTab, sheets.BudgetsTab}
	case core.EntityBudgetGoal:
		return []string{sheets.BudgetsTab}
	default:
		return nil
	}
}

// HandleLedgerChange rewrites the tabs affected by one change event.
func (m *Mirror) HandleLedgerChange(ctx context.Context, msg *amqp.LedgerChangeMessage) error {
	slog.InfoContext(ctx, "Processing ledger change",
		"id", msg.ID,
		"entity", msg.Entity,
		"op", msg.Op,
		"record_id", msg.RecordID,
		"mode", msg.Mode,
		"source", msg.Source)

	if backend.Kind(msg.Source) == backend.SimulatedKind {
		slog.InfoContext(ctx, "Skipping change from simulated source", "id", msg.ID)
		return nil
	}

	src := m.sources.For(msg.Mode)
	if !src.Persists(msg.Entity) {
		slog.WarnContext(ctx, "Source does not persist entity, skipping",
			"id", msg.ID,
			"entity", msg.Entity,
			"source", src.Kind())
		return nil
	}

	if err := m.syncTabs(ctx, src, msg.Mode, tabsFor(msg.Entity)); err != nil {
		return fmt.Errorf("mirror %s change: %w", msg.Entity, err)
	}
	return nil
}

// SyncAll rewrites every list tab of mode from the source serving it. The worker
// runs it at startup and on the resync schedule to recover missed messages.
func (m *Mirror) SyncAll(ctx context.Context, mode core.DataMode) error {
	src := m.sources.For(mode)
	if src.Kind() == backend.SimulatedKind {
		slog.InfoContext(ctx, "Simulated source has nothing to mirror", "mode", mode)
		return nil
	}
	if err := m.syncTabs(ctx, src, mode, []string{sheets.CategoriesTab, sheets.TransactionsTab, sheets.BudgetsTab}); err != nil {
		return fmt.Errorf("full sync: %w", err)
	}
	slog.InfoContext(ctx, "Spreadsheet fully synced", "mode", mode, "source", src.Kind())
	return nil
}

// syncTabs writes to the mode's own copy of each tab, so the offline and
// online lists never overwrite each other.
func (m *Mirror) syncTabs(ctx context.Context, src backend.Source, mode core.DataMode, tabs []string) error {
	categories, err := src.LoadCategories(ctx)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	needTxs := slices.Contains(tabs, sheets.TransactionsTab) || slices.Contains(tabs, sheets.BudgetsTab)
	needGoals := slices.Contains(tabs, sheets.BudgetsTab)

	var txs []core.Transaction
	if needTxs {
		if txs, err = src.LoadTransactions(ctx); err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
	}
	var goals []core.BudgetGoal
	if needGoals {
		if goals, err = src.LoadBudgetGoals(ctx); err != nil {
			return fmt.Errorf("load budget goals: %w", err)
		}
	}

	for _, tab := range tabs {
		var rows [][]any
		switch tab {
		case sheets.CategoriesTab:
			rows = sheets.CategoryRows(categories)
		case sheets.TransactionsTab:
			rows = sheets.TransactionRows(categories, txs)
		case sheets.BudgetsTab:
			rows = sheets.BudgetRows(core.BudgetDetails(goals, categories, txs))
		}
		name := sheets.ModeTab(tab, mode)
		if err := m.sheets.ReplaceTab(ctx, name, rows); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		slog.InfoContext(ctx, "Tab mirrored", "tab", name, "rows", len(rows)-1)
	}
	return nil
}
