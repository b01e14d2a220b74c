// Package postgres stores the ledger lists in PostgreSQL for online mode.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dicipfinance/internal/core"
)

type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository migrates the schema and opens a connection pool.
func NewRepository(ctx context.Context, databaseURL string) (*Repository, error) {
	if err := RunMigrations(databaseURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) LoadCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, type, color, icon_name
		FROM categories
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Category, error) {
		var c core.Category
		var typ string
		err := row.Scan(&c.ID, &c.Name, &typ, &c.Color, &c.IconName)
		c.Type = core.TransactionType(typ)
		return c, err
	})
}

func (r *Repository) LoadTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, date, description, amount_cents, type, category_id
		FROM transactions
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Transaction, error) {
		var tx core.Transaction
		var date time.Time
		var typ string
		err := row.Scan(&tx.ID, &date, &tx.Description, &tx.Amount.Cents, &typ, &tx.CategoryID)
		tx.Date = core.NewDate(date.Year(), int(date.Month()), date.Day())
		tx.Type = core.TransactionType(typ)
		return tx, err
	})
}

func (r *Repository) LoadBudgetGoals(ctx context.Context) ([]core.BudgetGoal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, category_id, amount_cents
		FROM budget_goals
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query budget goals: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.BudgetGoal, error) {
		var g core.BudgetGoal
		err := row.Scan(&g.ID, &g.CategoryID, &g.Amount.Cents)
		return g, err
	})
}

func (r *Repository) SaveCategories(ctx context.Context, categories []core.Category) error {
	return r.replace(ctx, "categories", func(batch *pgx.Batch) {
		for i, c := range categories {
			batch.Queue(`
				INSERT INTO categories (id, position, name, type, color, icon_name)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				c.ID, i, c.Name, string(c.Type), c.Color, c.IconName)
		}
	})
}

func (r *Repository) SaveTransactions(ctx context.Context, txs []core.Transaction) error {
	return r.replace(ctx, "transactions", func(batch *pgx.Batch) {
		for i, tx := range txs {
			batch.Queue(`
				INSERT INTO transactions (id, position, date, description, amount_cents, type, category_id)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				tx.ID, i, tx.Date.Time, tx.Description, tx.Amount.Cents, string(tx.Type), tx.CategoryID)
		}
	})
}

func (r *Repository) SaveBudgetGoals(ctx context.Context, goals []core.BudgetGoal) error {
	return r.replace(ctx, "budget_goals", func(batch *pgx.Batch) {
		for i, g := range goals {
			batch.Queue(`
				INSERT INTO budget_goals (id, position, category_id, amount_cents)
				VALUES ($1, $2, $3, $4)`,
				g.ID, i, g.CategoryID, g.Amount.Cents)
		}
	})
}

// replace overwrites a whole table inside one transaction.
func (r *Repository) replace(ctx context.Context, table string, fill func(*pgx.Batch)) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin %s replace: %w", table, err)
	}
	defer tx.Rollback(ctx)

	// table is one of the package's own constants, never user input.
	if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}

	batch := &pgx.Batch{}
	fill(batch)
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit %s replace: %w", table, err)
	}
	slog.DebugContext(ctx, "Replaced table", "table", table, "rows", batch.Len())
	return nil
}
