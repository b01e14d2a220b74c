package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"dicipfinance/internal/amqp"
	"dicipfinance/internal/backend"
	"dicipfinance/internal/core"
	"dicipfinance/internal/localstore"
	applog "dicipfinance/internal/log"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrUnknownCategory        = errors.New("category does not exist")
	ErrCategoryTypeChange     = errors.New("category type cannot change")
	ErrCategoryTypeMismatch   = errors.New("category type does not match transaction type")
	ErrDuplicateGoal          = errors.New("category already has a budget goal")
	ErrGoalCategoryNotExpense = errors.New("budget goals require an expense category")
)

// Publisher sends change notifications; *amqp.Client implements it.
type Publisher interface {
	PublishLedgerChange(ctx context.Context, msg *amqp.LedgerChangeMessage) error
}

// SourceSet picks the data source for a mode; *backend.Result implements it.
type SourceSet interface {
	For(mode core.DataMode) backend.Source
}

// Result is what a mutation returns: the affected record and the message for the user.
type Result[T any] struct {
	Record       T            `json:"record"`
	Notification Notification `json:"notification"`
}

// Snapshot is a consistent copy of the working lists.
type Snapshot struct {
	Mode         core.DataMode
	Source       backend.Kind
	Categories   []core.Category
	Transactions []core.Transaction
	BudgetGoals  []core.BudgetGoal
}

// Ledger owns the working lists for the active data mode. Every operation
// runs under one mutex, so concurrent requests see last-writer-wins.
// Reload must be called once before the ledger is used.
type Ledger struct {
	mu sync.Mutex

	store       localstore.Store
	sources     SourceSet
	publisher   Publisher
	ids         *core.IDGenerator
	defaultMode core.DataMode
	onChange    []func()

	mode         core.DataMode
	source       backend.Source
	categories   []core.Category
	transactions []core.Transaction
	goals        []core.BudgetGoal
}

type LedgerOption func(*Ledger)

// WithPublisher enables change events.
func WithPublisher(p Publisher) LedgerOption {
	return func(l *Ledger) { l.publisher = p }
}

// WithIDGenerator replaces the id generator, mainly for tests.
func WithIDGenerator(g *core.IDGenerator) LedgerOption {
	return func(l *Ledger) { l.ids = g }
}

// WithDefaultMode sets the mode used when none has been stored yet.
func WithDefaultMode(m core.DataMode) LedgerOption {
	return func(l *Ledger) { l.defaultMode = m }
}

func NewLedger(store localstore.Store, sources SourceSet, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		store:       store,
		sources:     sources,
		ids:         core.NewIDGenerator(),
		defaultMode: core.Offline,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OnChange registers fn to run after every mutation and mode switch.
func (l *Ledger) OnChange(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Reload reads the stored data mode and loads every list from its source.
// An unknown stored mode is reset to offline.
func (l *Ledger) Reload(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	mode := l.defaultMode
	stored, ok, err := localstore.LoadString(ctx, l.store, localstore.KeyDataMode)
	switch {
	case err != nil:
		slog.WarnContext(ctx, "Could not read data mode, using default", "error", err, "mode", mode)
	case ok:
		mode = core.ModeOrDefault(stored)
		if string(mode) != stored {
			slog.WarnContext(ctx, "Stored data mode is invalid, resetting", "stored", stored, "mode", mode)
			l.saveMode(ctx, mode)
		}
	default:
		l.saveMode(ctx, mode)
	}

	if err := l.loadLocked(ctx, mode); err != nil {
		return err
	}
	l.changed()
	return nil
}

// SetMode stores the new mode and replaces the working lists with the data
// of that mode's source. On a load failure the current mode stays active.
func (l *Ledger) SetMode(ctx context.Context, mode core.DataMode) (Notification, error) {
	if _, err := core.ParseDataMode(string(mode)); err != nil {
		return modeErrorNotification(), err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.loadLocked(ctx, mode); err != nil {
		return modeErrorNotification(), err
	}
	if !l.saveMode(ctx, mode) {
		l.changed()
		return modeErrorNotification(), nil
	}

	slog.InfoContext(ctx, "Data mode changed", "mode", mode, "source", l.source.Kind())
	l.changed()
	return modeNotification(mode), nil
}

func (l *Ledger) saveMode(ctx context.Context, mode core.DataMode) bool {
	if err := localstore.SaveString(ctx, l.store, localstore.KeyDataMode, string(mode)); err != nil {
		slog.ErrorContext(ctx, "Failed to save data mode", "error", err, "mode", mode)
		return false
	}
	return true
}

func (l *Ledger) loadLocked(ctx context.Context, mode core.DataMode) error {
	src := l.sources.For(mode)

	categories, err := src.LoadCategories(ctx)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	transactions, err := src.LoadTransactions(ctx)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	goals, err := src.LoadBudgetGoals(ctx)
	if err != nil {
		return fmt.Errorf("load budget goals: %w", err)
	}

	l.mode = mode
	l.source = src
	l.categories = categories
	l.transactions = transactions
	l.goals = goals

	slog.InfoContext(ctx, "Ledger loaded",
		"mode", mode,
		"source", src.Kind(),
		"categories", len(categories),
		"transactions", len(transactions),
		"budget_goals", len(goals))
	return nil
}

func (l *Ledger) Mode() core.DataMode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mode
}

func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := Snapshot{
		Mode:         l.mode,
		Categories:   slices.Clone(l.categories),
		Transactions: slices.Clone(l.transactions),
		BudgetGoals:  slices.Clone(l.goals),
	}
	if l.source != nil {
		s.Source = l.source.Kind()
	}
	return s
}

// --- categories ---

func (l *Ledger) ListCategories() []core.Category {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.categories)
}

func (l *Ledger) GetCategory(id string) (core.Category, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.categoryIndex(id)
	if i < 0 {
		return core.Category{}, fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	return l.categories[i], nil
}

func (l *Ledger) CreateCategory(ctx context.Context, c core.Category) (Result[core.Category], error) {
	if err := c.Validate(); err != nil {
		return Result[core.Category]{}, err
	}

	return mutate(ctx, l, func() (Result[core.Category], *amqp.LedgerChangeMessage, error) {
		c.ID = l.ids.Next()
		l.categories = append(l.categories, c)
		n, event := l.persist(ctx, core.EntityCategory, actionCreate, c.ID, c.Name)
		return Result[core.Category]{Record: c, Notification: n}, event, nil
	})
}

// UpdateCategory replaces name, color and icon. The type is fixed at creation.
func (l *Ledger) UpdateCategory(ctx context.Context, id string, c core.Category) (Result[core.Category], error) {
	if err := c.Validate(); err != nil {
		return Result[core.Category]{}, err
	}

	return mutate(ctx, l, func() (Result[core.Category], *amqp.LedgerChangeMessage, error) {
		i := l.categoryIndex(id)
		if i < 0 {
			return Result[core.Category]{}, nil, fmt.Errorf("category %s: %w", id, ErrNotFound)
		}
		if l.categories[i].Type != c.Type {
			return Result[core.Category]{}, nil, ErrCategoryTypeChange
		}
		c.ID = id
		l.categories[i] = c
		n, event := l.persist(ctx, core.EntityCategory, actionUpdate, id, c.Name)
		return Result[core.Category]{Record: c, Notification: n}, event, nil
	})
}

// DeleteCategory removes the category. Transactions and goals that point at
// it are kept and show the unknown-category placeholder. A missing id is a no-op.
func (l *Ledger) DeleteCategory(ctx context.Context, id string) (Result[core.Category], error) {
	return mutate(ctx, l, func() (Result[core.Category], *amqp.LedgerChangeMessage, error) {
		i := l.categoryIndex(id)
		if i < 0 {
			return Result[core.Category]{}, nil, nil
		}
		removed := l.categories[i]
		l.categories = slices.Delete(l.categories, i, i+1)
		n, event := l.persist(ctx, core.EntityCategory, actionDelete, id, removed.Name)
		return Result[core.Category]{Record: removed, Notification: n}, event, nil
	})
}

// --- transactions ---

// ListTransactions returns the transactions newest first.
func (l *Ledger) ListTransactions() []core.Transaction {
	l.mu.Lock()
	out := slices.Clone(l.transactions)
	l.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	return out
}

func (l *Ledger) GetTransaction(id string) (core.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.transactionIndex(id)
	if i < 0 {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return l.transactions[i], nil
}

func (l *Ledger) CreateTransaction(ctx context.Context, tx core.Transaction) (Result[core.Transaction], error) {
	if err := tx.Validate(); err != nil {
		return Result[core.Transaction]{}, err
	}

	return mutate(ctx, l, func() (Result[core.Transaction], *amqp.LedgerChangeMessage, error) {
		if err := l.checkTransactionCategory(tx); err != nil {
			return Result[core.Transaction]{}, nil, err
		}
		tx.ID = l.ids.Next()
		l.transactions = append(l.transactions, tx)
		n, event := l.persist(ctx, core.EntityTransaction, actionCreate, tx.ID, tx.Description)
		return Result[core.Transaction]{Record: tx, Notification: n}, event, nil
	})
}

func (l *Ledger) UpdateTransaction(ctx context.Context, id string, tx core.Transaction) (Result[core.Transaction], error) {
	if err := tx.Validate(); err != nil {
		return Result[core.Transaction]{}, err
	}

	return mutate(ctx, l, func() (Result[core.Transaction], *amqp.LedgerChangeMessage, error) {
		i := l.transactionIndex(id)
		if i < 0 {
			return Result[core.Transaction]{}, nil, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
		}
		if err := l.checkTransactionCategory(tx); err != nil {
			return Result[core.Transaction]{}, nil, err
		}
		tx.ID = id
		l.transactions[i] = tx
		n, event := l.persist(ctx, core.EntityTransaction, actionUpdate, id, tx.Description)
		return Result[core.Transaction]{Record: tx, Notification: n}, event, nil
	})
}

func (l *Ledger) DeleteTransaction(ctx context.Context, id string) (Result[core.Transaction], error) {
	return mutate(ctx, l, func() (Result[core.Transaction], *amqp.LedgerChangeMessage, error) {
		i := l.transactionIndex(id)
		if i < 0 {
			return Result[core.Transaction]{}, nil, nil
		}
		removed := l.transactions[i]
		l.transactions = slices.Delete(l.transactions, i, i+1)
		n, event := l.persist(ctx, core.EntityTransaction, actionDelete, id, removed.Description)
		return Result[core.Transaction]{Record: removed, Notification: n}, event, nil
	})
}

func (l *Ledger) checkTransactionCategory(tx core.Transaction) error {
	i := l.categoryIndex(tx.CategoryID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, tx.CategoryID)
	}
	if l.categories[i].Type != tx.Type {
		return ErrCategoryTypeMismatch
	}
	return nil
}

// --- budget goals ---

func (l *Ledger) ListBudgetGoals() []core.BudgetGoal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.goals)
}

func (l *Ledger) GetBudgetGoal(id string) (core.BudgetGoal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.goalIndex(id)
	if i < 0 {
		return core.BudgetGoal{}, fmt.Errorf("budget goal %s: %w", id, ErrNotFound)
	}
	return l.goals[i], nil
}

// BudgetDetails joins every goal with its category and current spending.
func (l *Ledger) BudgetDetails() []core.BudgetDetail {
	l.mu.Lock()
	defer l.mu.Unlock()
	return core.BudgetDetails(l.goals, l.categories, l.transactions)
}

// AvailableGoalCategories lists the expense categories that have no goal yet.
func (l *Ledger) AvailableGoalCategories() []core.Category {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []core.Category
	for _, c := range l.categories {
		if c.Type == core.Expense && l.goalIndexForCategory(c.ID, "") < 0 {
			out = append(out, c)
		}
	}
	return out
}

func (l *Ledger) CreateBudgetGoal(ctx context.Context, g core.BudgetGoal) (Result[core.BudgetGoal], error) {
	if err := g.Validate(); err != nil {
		return Result[core.BudgetGoal]{}, err
	}

	return mutate(ctx, l, func() (Result[core.BudgetGoal], *amqp.LedgerChangeMessage, error) {
		if err := l.checkGoalCategory(g, ""); err != nil {
			return Result[core.BudgetGoal]{}, nil, err
		}
		g.ID = l.ids.Next()
		l.goals = append(l.goals, g)
		name := core.ResolveCategory(l.categories, g.CategoryID).Name
		n, event := l.persist(ctx, core.EntityBudgetGoal, actionCreate, g.ID, name)
		return Result[core.BudgetGoal]{Record: g, Notification: n}, event, nil
	})
}

func (l *Ledger) UpdateBudgetGoal(ctx context.Context, id string, g core.BudgetGoal) (Result[core.BudgetGoal], error) {
	if err := g.Validate(); err != nil {
		return Result[core.BudgetGoal]{}, err
	}

	return mutate(ctx, l, func() (Result[core.BudgetGoal], *amqp.LedgerChangeMessage, error) {
		i := l.goalIndex(id)
		if i < 0 {
			return Result[core.BudgetGoal]{}, nil, fmt.Errorf("budget goal %s: %w", id, ErrNotFound)
		}
		if err := l.checkGoalCategory(g, id); err != nil {
			return Result[core.BudgetGoal]{}, nil, err
		}
		g.ID = id
		l.goals[i] = g
		name := core.ResolveCategory(l.categories, g.CategoryID).Name
		n, event := l.persist(ctx, core.EntityBudgetGoal, actionUpdate, id, name)
		return Result[core.BudgetGoal]{Record: g, Notification: n}, event, nil
	})
}

func (l *Ledger) DeleteBudgetGoal(ctx context.Context, id string) (Result[core.BudgetGoal], error) {
	return mutate(ctx, l, func() (Result[core.BudgetGoal], *amqp.LedgerChangeMessage, error) {
		i := l.goalIndex(id)
		if i < 0 {
			return Result[core.BudgetGoal]{}, nil, nil
		}
		removed := l.goals[i]
		l.goals = slices.Delete(l.goals, i, i+1)
		name := core.ResolveCategory(l.categories, removed.CategoryID).Name
		n, event := l.persist(ctx, core.EntityBudgetGoal, actionDelete, id, name)
		return Result[core.BudgetGoal]{Record: removed, Notification: n}, event, nil
	})
}

func (l *Ledger) checkGoalCategory(g core.BudgetGoal, selfID string) error {
	i := l.categoryIndex(g.CategoryID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, g.CategoryID)
	}
	if l.categories[i].Type != core.Expense {
		return ErrGoalCategoryNotExpense
	}
	if l.goalIndexForCategory(g.CategoryID, selfID) >= 0 {
		return ErrDuplicateGoal
	}
	return nil
}

// --- shared ---

// mutate runs fn under the lock and publishes the change event it returns
// once the lock is released.
func mutate[T any](ctx context.Context, l *Ledger, fn func() (Result[T], *amqp.LedgerChangeMessage, error)) (Result[T], error) {
	res, event, err := func() (Result[T], *amqp.LedgerChangeMessage, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		return fn()
	}()
	if err != nil {
		return Result[T]{}, err
	}
	l.publish(ctx, event)
	return res, nil
}

// persist saves the whole list for entity when the source keeps it and
// builds the change event to publish. A failed save keeps the in-memory
// change, returns an error notification and no event.
func (l *Ledger) persist(ctx context.Context, entity core.Entity, a action, recordID, name string) (Notification, *amqp.LedgerChangeMessage) {
	defer l.changed()

	var err error
	if l.source.Persists(entity) {
		switch entity {
		case core.EntityCategory:
			err = l.source.SaveCategories(ctx, l.categories)
		case core.EntityTransaction:
			err = l.source.SaveTransactions(ctx, l.transactions)
		case core.EntityBudgetGoal:
			err = l.source.SaveBudgetGoals(ctx, l.goals)
		}
	}
	fields := applog.NewFields().
		WithComponent(applog.ComponentLedger).
		WithChange(string(entity), a.op(), recordID, string(l.mode), l.source.Kind().String())
	if err != nil {
		slog.ErrorContext(ctx, "Failed to save changes", fields.WithError(err).ToSlice()...)
		return saveErrorNotification(l.source, entity, name), nil
	}

	slog.InfoContext(ctx, "Ledger updated", fields.ToSlice()...)

	var event *amqp.LedgerChangeMessage
	if l.publisher != nil {
		event = amqp.NewLedgerChangeMessage(entity, a.op(), recordID, l.mode, l.source.Kind().String())
	}
	return successNotification(l.source, entity, a, name), event
}

func (l *Ledger) publish(ctx context.Context, event *amqp.LedgerChangeMessage) {
	if l.publisher == nil || event == nil {
		return
	}
	if err := l.publisher.PublishLedgerChange(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger change",
			"entity", event.Entity,
			"record_id", event.RecordID,
			"error", err)
	}
}

func (l *Ledger) changed() {
	for _, fn := range l.onChange {
		fn()
	}
}

func (l *Ledger) categoryIndex(id string) int {
	return slices.IndexFunc(l.categories, func(c core.Category) bool { return c.ID == id })
}

func (l *Ledger) transactionIndex(id string) int {
	return slices.IndexFunc(l.transactions, func(t core.Transaction) bool { return t.ID == id })
}

func (l *Ledger) goalIndex(id string) int {
	return slices.IndexFunc(l.goals, func(g core.BudgetGoal) bool { return g.ID == id })
}

func (l *Ledger) goalIndexForCategory(categoryID, exceptID string) int {
	return slices.IndexFunc(l.goals, func(g core.BudgetGoal) bool {
		return g.CategoryID == categoryID && g.ID != exceptID
	})
}
