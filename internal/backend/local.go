package backend

import (
	"context"
	"log/slog"

	"dicipfinance/internal/core"
	"dicipfinance/internal/localstore"
)

// LocalSource serves offline mode from the local store, falling back to the
// demo data for any list that has not been saved yet.
type LocalSource struct {
	store localstore.Store
}

var _ Source = (*LocalSource)(nil)

func NewLocalSource(store localstore.Store) *LocalSource {
	return &LocalSource{store: store}
}

func (s *LocalSource) Kind() Kind { return LocalKind }

func (s *LocalSource) Persists(core.Entity) bool { return true }

func (s *LocalSource) LoadCategories(ctx context.Context) ([]core.Category, error) {
	return loadOrSeed(ctx, s.store, localstore.KeyCategories, core.SeedCategories)
}

func (s *LocalSource) LoadTransactions(ctx context.Context) ([]core.Transaction, error) {
	return loadOrSeed(ctx, s.store, localstore.KeyOfflineTransactions, core.SeedTransactions)
}

func (s *LocalSource) LoadBudgetGoals(ctx context.Context) ([]core.BudgetGoal, error) {
	return loadOrSeed(ctx, s.store, localstore.KeyOfflineBudgetGoals, core.SeedBudgetGoals)
}

func (s *LocalSource) SaveCategories(ctx context.Context, categories []core.Category) error {
	return localstore.SaveList(ctx, s.store, localstore.KeyCategories, categories)
}

func (s *LocalSource) SaveTransactions(ctx context.Context, txs []core.Transaction) error {
	return localstore.SaveList(ctx, s.store, localstore.KeyOfflineTransactions, txs)
}

func (s *LocalSource) SaveBudgetGoals(ctx context.Context, goals []core.BudgetGoal) error {
	return localstore.SaveList(ctx, s.store, localstore.KeyOfflineBudgetGoals, goals)
}

// loadOrSeed returns the stored list, or the seed when nothing is stored or
// the stored blob cannot be read.
func loadOrSeed[T any](ctx context.Context, store localstore.Store, key string, seed func() []T) ([]T, error) {
	list, ok, err := localstore.LoadList[T](ctx, store, key)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read local data, using demo data",
			"key", key,
			"error", err)
		return seed(), nil
	}
	if !ok {
		slog.DebugContext(ctx, "No local data, using demo data", "key", key)
		return seed(), nil
	}
	return list, nil
}
