package memory

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"dicipfinance/internal/sheets"
)

// Store keeps tabs in memory. It stands in for Google Sheets in local runs
// and tests.
type Store struct {
	mu    sync.Mutex
	tabs  map[string][][]any
	order []string
	// writes counts ReplaceTab calls per tab.
	writes map[string]int
}

var _ sheets.TabWriter = (*Store)(nil)

func New() *Store {
	return &Store{tabs: map[string][][]any{}, writes: map[string]int{}}
}

// ReplaceTab stores a copy of rows under tab.
func (s *Store) ReplaceTab(_ context.Context, tab string, rows [][]any) error {
	tab = strings.TrimSpace(tab)
	if tab == "" {
		return errors.New("empty tab name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tabs[tab]; !ok {
		s.order = append(s.order, tab)
	}
	s.tabs[tab] = cloneRows(rows)
	s.writes[tab]++
	return nil
}

// Rows returns a copy of the tab content, or nil when the tab does not exist.
func (s *Store) Rows(tab string) [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tabs[tab]
	if !ok {
		return nil
	}
	return cloneRows(rows)
}

// Tabs lists tab names in creation order.
func (s *Store) Tabs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order)
}

func (s *Store) Writes(tab string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[tab]
}

func cloneRows(rows [][]any) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = slices.Clone(r)
	}
	return out
}
