package memory

import (
	"context"
	"testing"

	"dicipfinance/internal/core"
	"dicipfinance/internal/sheets"
)

func TestMemoryStoreReplaceTab(t *testing.T) {
	s := New()
	ctx := context.Background()

	rows := sheets.CategoryRows(core.SeedCategories())
	if err := s.ReplaceTab(ctx, sheets.CategoriesTab, rows); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got := s.Rows(sheets.CategoriesTab)
	if len(got) != 9 || got[0][1] != "Nombre" || got[1][1] != "Alimentación" {
		t.Fatalf("unexpected rows %v", got)
	}

	// stored rows are copies
	rows[1][1] = "changed"
	if s.Rows(sheets.CategoriesTab)[1][1] != "Alimentación" {
		t.Fatalf("store must not alias caller rows")
	}

	if err := s.ReplaceTab(ctx, sheets.CategoriesTab, [][]any{{"only header"}}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(s.Rows(sheets.CategoriesTab)) != 1 || s.Writes(sheets.CategoriesTab) != 2 {
		t.Fatalf("expected whole-tab overwrite")
	}
}

func TestMemoryStoreTabs(t *testing.T) {
	s := New()
	ctx := context.Background()
	_ = s.ReplaceTab(ctx, "B", nil)
	_ = s.ReplaceTab(ctx, "A", nil)
	_ = s.ReplaceTab(ctx, "B", nil)

	tabs := s.Tabs()
	if len(tabs) != 2 || tabs[0] != "B" || tabs[1] != "A" {
		t.Fatalf("unexpected tabs %v", tabs)
	}
	if s.Rows("missing") != nil {
		t.Fatalf("expected nil for missing tab")
	}
	if err := s.ReplaceTab(ctx, "  ", nil); err == nil {
		t.Fatalf("expected error for empty tab name")
	}
}
