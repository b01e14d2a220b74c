package backend

import (
	"context"

	"dicipfinance/internal/core"
)

// ListStore loads and overwrites whole lists.
type ListStore interface {
	LoadCategories(ctx context.Context) ([]core.Category, error)
	LoadTransactions(ctx context.Context) ([]core.Transaction, error)
	LoadBudgetGoals(ctx context.Context) ([]core.BudgetGoal, error)

	SaveCategories(ctx context.Context, categories []core.Category) error
	SaveTransactions(ctx context.Context, txs []core.Transaction) error
	SaveBudgetGoals(ctx context.Context, goals []core.BudgetGoal) error
}

// Source is where the ledger reads and writes its lists for one data mode.
type Source interface {
	ListStore
	Kind() Kind
	// Persists reports whether saves of the entity survive a reload.
	Persists(entity core.Entity) bool
}

// Kind identifies a Source implementation.
type Kind string

const (
	LocalKind     Kind = "local"
	SimulatedKind Kind = "simulated"
	PostgresKind  Kind = "postgres"
	SupabaseKind  Kind = "supabase"
)

// String implements fmt.Stringer
func (k Kind) String() string {
	return string(k)
}

// IsValid returns true if the kind is known
func (k Kind) IsValid() bool {
	switch k {
	case LocalKind, SimulatedKind, PostgresKind, SupabaseKind:
		return true
	default:
		return false
	}
}

// IsRemote reports whether the kind is backed by a database.
func (k Kind) IsRemote() bool {
	return k == PostgresKind || k == SupabaseKind
}

// CleanupFunc releases resources held by a source.
type CleanupFunc func() error
