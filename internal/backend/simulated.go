package backend

import (
	"context"

	"dicipfinance/internal/core"
	"dicipfinance/internal/localstore"
)

// SimulatedSource stands in for an online database that is not configured.
// Categories are shared with offline mode through the local store;
// transactions and budget goals start empty and are never saved.
type SimulatedSource struct {
	store localstore.Store
}

var _ Source = (*SimulatedSource)(nil)

func NewSimulatedSource(store localstore.Store) *SimulatedSource {
	return &SimulatedSource{store: store}
}

func (s *SimulatedSource) Kind() Kind { return SimulatedKind }

func (s *SimulatedSource) Persists(entity core.Entity) bool {
	return entity == core.EntityCategory
}

func (s *SimulatedSource) LoadCategories(ctx context.Context) ([]core.Category, error) {
	return loadOrSeed(ctx, s.store, localstore.KeyCategories, core.SeedCategories)
}

func (s *SimulatedSource) LoadTransactions(context.Context) ([]core.Transaction, error) {
	return []core.Transaction{}, nil
}

func (s *SimulatedSource) LoadBudgetGoals(context.Context) ([]core.BudgetGoal, error) {
	return []core.BudgetGoal{}, nil
}

func (s *SimulatedSource) SaveCategories(ctx context.Context, categories []core.Category) error {
	return localstore.SaveList(ctx, s.store, localstore.KeyCategories, categories)
}

func (s *SimulatedSource) SaveTransactions(context.Context, []core.Transaction) error {
	return nil
}

func (s *SimulatedSource) SaveBudgetGoals(context.Context, []core.BudgetGoal) error {
	return nil
}
