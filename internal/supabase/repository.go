// Package supabase stores the ledger lists in Supabase tables through the
// PostgREST API. The tables mirror the postgres package schema.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/supabase-community/supabase-go"

	"dicipfinance/internal/core"
)

const (
	categoriesTable   = "categories"
	transactionsTable = "transactions"
	budgetGoalsTable  = "budget_goals"
)

type Repository struct {
	client *supabase.Client
}

func NewRepository(url, key string) (*Repository, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return &Repository{client: client}, nil
}

type categoryRow struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Color    string `json:"color"`
	IconName string `json:"icon_name"`
}

type transactionRow struct {
	ID          string `json:"id"`
	Position    int    `json:"position"`
	Date        string `json:"date"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Type        string `json:"type"`
	CategoryID  string `json:"category_id"`
}

type budgetGoalRow struct {
	ID          string `json:"id"`
	Position    int    `json:"position"`
	CategoryID  string `json:"category_id"`
	AmountCents int64  `json:"amount_cents"`
}

func (r *Repository) LoadCategories(ctx context.Context) ([]core.Category, error) {
	var rows []categoryRow
	if err := r.selectAll(categoriesTable, &rows); err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Position < rows[j].Position })
	out := make([]core.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.Category{
			ID:       row.ID,
			Name:     row.Name,
			Type:     core.TransactionType(row.Type),
			Color:    row.Color,
			IconName: row.IconName,
		})
	}
	return out, nil
}

func (r *Repository) LoadTransactions(ctx context.Context) ([]core.Transaction, error) {
	var rows []transactionRow
	if err := r.selectAll(transactionsTable, &rows); err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Position < rows[j].Position })
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		date, err := core.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", row.ID, err)
		}
		out = append(out, core.Transaction{
			ID:          row.ID,
			Date:        date,
			Description: row.Description,
			Amount:      core.Money{Cents: row.AmountCents},
			Type:        core.TransactionType(row.Type),
			CategoryID:  row.CategoryID,
		})
	}
	return out, nil
}

func (r *Repository) LoadBudgetGoals(ctx context.Context) ([]core.BudgetGoal, error) {
	var rows []budgetGoalRow
	if err := r.selectAll(budgetGoalsTable, &rows); err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Position < rows[j].Position })
	out := make([]core.BudgetGoal, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.BudgetGoal{
			ID:         row.ID,
			CategoryID: row.CategoryID,
			Amount:     core.Money{Cents: row.AmountCents},
		})
	}
	return out, nil
}

func (r *Repository) SaveCategories(ctx context.Context, categories []core.Category) error {
	rows := make([]categoryRow, 0, len(categories))
	for i, c := range categories {
		rows = append(rows, categoryRow{
			ID: c.ID, Position: i, Name: c.Name, Type: string(c.Type), Color: c.Color, IconName: c.IconName,
		})
	}
	return r.replace(ctx, categoriesTable, rows, len(rows))
}

func (r *Repository) SaveTransactions(ctx context.Context, txs []core.Transaction) error {
	rows := make([]transactionRow, 0, len(txs))
	for i, tx := range txs {
		rows = append(rows, transactionRow{
			ID:          tx.ID,
			Position:    i,
			Date:        tx.Date.String(),
			Description: tx.Description,
			AmountCents: tx.Amount.Cents,
			Type:        string(tx.Type),
			CategoryID:  tx.CategoryID,
		})
	}
	return r.replace(ctx, transactionsTable, rows, len(rows))
}

func (r *Repository) SaveBudgetGoals(ctx context.Context, goals []core.BudgetGoal) error {
	rows := make([]budgetGoalRow, 0, len(goals))
	for i, g := range goals {
		rows = append(rows, budgetGoalRow{ID: g.ID, Position: i, CategoryID: g.CategoryID, AmountCents: g.Amount.Cents})
	}
	return r.replace(ctx, budgetGoalsTable, rows, len(rows))
}

func (r *Repository) selectAll(table string, dest any) error {
	data, _, err := r.client.From(table).Select("*", "", false).Execute()
	if err != nil {
		return fmt.Errorf("select %s: %w", table, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("parse %s: %w", table, err)
	}
	return nil
}

// replace deletes every row then bulk-inserts the list. PostgREST has no
// multi-statement transaction, so a failed insert leaves the table empty.
func (r *Repository) replace(ctx context.Context, table string, rows any, n int) error {
	// PostgREST refuses an unfiltered DELETE; every id is non-empty.
	if _, _, err := r.client.From(table).Delete("", "").Neq("id", "").Execute(); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	if n == 0 {
		return nil
	}
	if _, _, err := r.client.From(table).Insert(rows, false, "", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	slog.DebugContext(ctx, "Replaced supabase table", "table", table, "rows", n)
	return nil
}
