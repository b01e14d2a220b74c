// Package localstore holds whole-list JSON blobs under fixed keys.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Keys under which the working lists and the data mode are kept.
const (
	KeyDataMode            = "appDataMode"
	KeyCategories          = "customCategories"
	KeyOfflineTransactions = "userTransactions_offline"
	KeyOfflineBudgetGoals  = "userBudgetGoals_offline"
)

// ErrCorrupt is returned when a stored blob cannot be decoded.
var ErrCorrupt = errors.New("stored value is corrupt")

// Store is a string-keyed blob store.
type Store interface {
	// Get returns ok=false when the key has never been written.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

// LoadList decodes the list stored under key. ok is false when nothing is stored.
func LoadList[T any](ctx context.Context, s Store, key string) ([]T, bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	var list []T
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, true, fmt.Errorf("decode %s: %w: %v", key, ErrCorrupt, err)
	}
	if list == nil {
		list = []T{}
	}
	return list, true, nil
}

// SaveList overwrites key with the JSON encoding of the whole list.
func SaveList[T any](ctx context.Context, s Store, key string, list []T) error {
	if list == nil {
		list = []T{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// LoadString returns the raw value under key as a string.
func LoadString(ctx context.Context, s Store, key string) (string, bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}
	return string(raw), true, nil
}

func SaveString(ctx context.Context, s Store, key, value string) error {
	return s.Set(ctx, key, []byte(value))
}
