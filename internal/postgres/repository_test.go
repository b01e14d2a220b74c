package postgres

import (
	"context"
	"os"
	"reflect"
	"testing"

	"dicipfinance/internal/core"
)

// Runs against a real database only when TEST_DATABASE_URL is set.
func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	repo, err := NewRepository(context.Background(), url)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	cats := core.SeedCategories()
	txs := core.SeedTransactions()
	goals := core.SeedBudgetGoals()

	if err := repo.SaveCategories(ctx, cats); err != nil {
		t.Fatalf("save categories: %v", err)
	}
	if err := repo.SaveTransactions(ctx, txs); err != nil {
		t.Fatalf("save transactions: %v", err)
	}
	if err := repo.SaveBudgetGoals(ctx, goals); err != nil {
		t.Fatalf("save goals: %v", err)
	}

	gotCats, err := repo.LoadCategories(ctx)
	if err != nil || !reflect.DeepEqual(gotCats, cats) {
		t.Fatalf("categories mismatch (err=%v)", err)
	}
	gotTxs, err := repo.LoadTransactions(ctx)
	if err != nil || !reflect.DeepEqual(gotTxs, txs) {
		t.Fatalf("transactions mismatch (err=%v)", err)
	}
	gotGoals, err := repo.LoadBudgetGoals(ctx)
	if err != nil || !reflect.DeepEqual(gotGoals, goals) {
		t.Fatalf("goals mismatch (err=%v)", err)
	}

	if err := repo.SaveBudgetGoals(ctx, nil); err != nil {
		t.Fatalf("clear goals: %v", err)
	}
	gotGoals, err = repo.LoadBudgetGoals(ctx)
	if err != nil || len(gotGoals) != 0 {
		t.Fatalf("expected no goals, got %d (err=%v)", len(gotGoals), err)
	}
}
