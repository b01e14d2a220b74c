package worker

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robfig/cron/v3"

	"dicipfinance/internal/amqp"
	"dicipfinance/internal/backend"
	"dicipfinance/internal/core"
	"dicipfinance/internal/insights"
	"dicipfinance/internal/localstore"
	"dicipfinance/internal/report"
	"dicipfinance/internal/sheets"
	"dicipfinance/internal/sheets/memory"
)

type fakeSources struct {
	offline backend.Source
	online  backend.Source
}

func (f fakeSources) For(mode core.DataMode) backend.Source {
	if mode == core.Online {
		return f.online
	}
	return f.offline
}

func newSources() fakeSources {
	store := localstore.NewMemory()
	return fakeSources{
		offline: backend.NewLocalSource(store),
		online:  backend.NewSimulatedSource(store),
	}
}

type failingTabs struct{}

func (failingTabs) ReplaceTab(context.Context, string, [][]any) error {
	return errors.New("quota exceeded")
}

type fakeGenerator struct {
	text string
	err  error
}

func (f fakeGenerator) Generate(context.Context, string) (string, error) {
	return f.text, f.err
}

func TestMirrorHandleLedgerChange(t *testing.T) {
	tests := []struct {
		name   string
		entity core.Entity
		want   []string
	}{
		{"category", core.EntityCategory, []string{sheets.CategoriesTab, sheets.TransactionsTab, sheets.BudgetsTab}},
		{"transaction", core.EntityTransaction, []string{sheets.TransactionsTab, sheets.BudgetsTab}},
		{"budget goal", core.EntityBudgetGoal, []string{sheets.BudgetsTab}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tabs := memory.New()
			m := NewMirror(newSources(), tabs)

			msg := amqp.NewLedgerChangeMessage(tt.entity, amqp.OpCreate, "1", core.Offline, backend.LocalKind.String())
			if err := m.HandleLedgerChange(context.Background(), msg); err != nil {
				t.Fatalf("handle: %v", err)
			}
			var want []string
			for _, tab := range tt.want {
				want = append(want, sheets.ModeTab(tab, core.Offline))
			}
			got := tabs.Tabs()
			if strings.Join(got, ",") != strings.Join(want, ",") {
				t.Fatalf("tabs = %v, want %v", got, want)
			}
		})
	}
}

func TestMirrorWritesCurrentLists(t *testing.T) {
	tabs := memory.New()
	m := NewMirror(newSources(), tabs)

	msg := amqp.NewLedgerChangeMessage(core.EntityCategory, amqp.OpUpdate, "food", core.Offline, backend.LocalKind.String())
	if err := m.HandleLedgerChange(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if rows := tabs.Rows(sheets.ModeTab(sheets.CategoriesTab, core.Offline)); len(rows) != 9 {
		t.Fatalf("expected header + 8 categories, got %d", len(rows))
	}
	if rows := tabs.Rows(sheets.ModeTab(sheets.TransactionsTab, core.Offline)); len(rows) != 15 {
		t.Fatalf("expected header + 14 transactions, got %d", len(rows))
	}
	budgets := tabs.Rows(sheets.ModeTab(sheets.BudgetsTab, core.Offline))
	if len(budgets) != 6 || budgets[1][0] != "Alimentación" || budgets[1][2] != 167865.0 {
		t.Fatalf("unexpected budgets tab %v", budgets)
	}
}

func TestMirrorSkipsSimulatedSource(t *testing.T) {
	tabs := memory.New()
	m := NewMirror(newSources(), tabs)

	msg := amqp.NewLedgerChangeMessage(core.EntityTransaction, amqp.OpCreate, "1", core.Online, backend.SimulatedKind.String())
	if err := m.HandleLedgerChange(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if err := m.SyncAll(context.Background(), core.Online); err != nil {
		t.Fatalf("sync all: %v", err)
	}
	if len(tabs.Tabs()) != 0 {
		t.Fatalf("expected no writes, got %v", tabs.Tabs())
	}
}

func TestMirrorSyncAll(t *testing.T) {
	tabs := memory.New()
	m := NewMirror(newSources(), tabs)

	if err := m.SyncAll(context.Background(), core.Offline); err != nil {
		t.Fatalf("sync all: %v", err)
	}
	if len(tabs.Tabs()) != 3 {
		t.Fatalf("expected three tabs, got %v", tabs.Tabs())
	}
}

// emptyRemote is a reachable online store with no rows yet.
type emptyRemote struct{}

func (emptyRemote) LoadCategories(context.Context) ([]core.Category, error) { return nil, nil }
func (emptyRemote) LoadTransactions(context.Context) ([]core.Transaction, error) { return nil, nil }
func (emptyRemote) LoadBudgetGoals(context.Context) ([]core.BudgetGoal, error) { return nil, nil }
func (emptyRemote) SaveCategories(context.Context, []core.Category) error { return nil }
func (emptyRemote) SaveTransactions(context.Context, []core.Transaction) error { return nil }
func (emptyRemote) SaveBudgetGoals(context.Context, []core.BudgetGoal) error { return nil }

func TestMirrorKeepsModesApart(t *testing.T) {
	ctx := context.Background()
	tabs := memory.New()
	sources := fakeSources{
		offline: backend.NewLocalSource(localstore.NewMemory()),
		online:  backend.NewRemoteSource(backend.PostgresKind, emptyRemote{}),
	}
	m := NewMirror(sources, tabs)

	if err := m.SyncAll(ctx, core.Offline); err != nil {
		t.Fatalf("offline sync: %v", err)
	}
	if err := m.SyncAll(ctx, core.Online); err != nil {
		t.Fatalf("online sync: %v", err)
	}
	msg := amqp.NewLedgerChangeMessage(core.EntityTransaction, amqp.OpDelete, "1", core.Online, backend.PostgresKind.String())
	if err := m.HandleLedgerChange(ctx, msg); err != nil {
		t.Fatalf("online change: %v", err)
	}

	tests := []struct {
		mode core.DataMode
		want int
	}{
		{core.Offline, 15},
		{core.Online, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			rows := tabs.Rows(sheets.ModeTab(sheets.TransactionsTab, tt.mode))
			if len(rows) != tt.want {
				t.Fatalf("%s transactions tab has %d rows, want %d", tt.mode, len(rows), tt.want)
			}
		})
	}
	if len(tabs.Tabs()) != 6 {
		t.Fatalf("expected three tabs per mode, got %v", tabs.Tabs())
	}
}

func TestMirrorWriteError(t *testing.T) {
	m := NewMirror(newSources(), failingTabs{})
	msg := amqp.NewLedgerChangeMessage(core.EntityBudgetGoal, amqp.OpDelete, "x", core.Offline, backend.LocalKind.String())
	err := m.HandleLedgerChange(context.Background(), msg)
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected write error, got %v", err)
	}
}

func TestReportJobRun(t *testing.T) {
	tabs := memory.New()
	svc := insights.NewService(fakeGenerator{text: `{"reportSummary":"Buen mes."}`}, time.Second)
	job := NewReportJob(newSources(), core.Offline, svc, tabs, "")
	job.now = func() time.Time { return time.Date(2024, 8, 3, 9, 0, 0, 0, time.UTC) }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	rows := tabs.Rows("Informe 2024-07")
	if rows == nil {
		t.Fatalf("report tab missing, tabs: %v", tabs.Tabs())
	}
	if rows[1][1] != report.DefaultCurrency || rows[2][1] != 3255000.0 || rows[6][1] != "Buen mes." {
		t.Fatalf("unexpected report rows %v", rows[:7])
	}
}

func TestReportJobFallbackInsight(t *testing.T) {
	tabs := memory.New()
	svc := insights.NewService(fakeGenerator{err: errors.New("down")}, time.Second)
	job := NewReportJob(newSources(), core.Offline, svc, tabs, "USD")

	if err := job.RunPeriod(context.Background(), report.Period{Year: 2024, Month: 7}); err != nil {
		t.Fatalf("run: %v", err)
	}
	rows := tabs.Rows("Informe 2024-07")
	if rows[1][1] != "USD" || rows[6][1] != insights.ReportFallback {
		t.Fatalf("unexpected report rows %v", rows[:7])
	}
}

func TestSchedule(t *testing.T) {
	c := cron.New()
	var runs atomic.Int32
	if _, err := Schedule(context.Background(), c, "not a schedule", "bad", time.Second, nil); err == nil {
		t.Fatalf("expected error for invalid spec")
	}
	id, err := Schedule(context.Background(), c, "@every 1h", "count", time.Second, func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Errorf("expected a deadline on the job context")
		}
		runs.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	c.Entry(id).Job.Run()
	if runs.Load() != 1 {
		t.Fatalf("expected one run, got %d", runs.Load())
	}
}
