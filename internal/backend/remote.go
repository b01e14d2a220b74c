package backend

import "dicipfinance/internal/core"

// RemoteSource adapts a database-backed ListStore to a Source.
type RemoteSource struct {
	ListStore
	kind Kind
}

var _ Source = (*RemoteSource)(nil)

func NewRemoteSource(kind Kind, store ListStore) *RemoteSource {
	return &RemoteSource{ListStore: store, kind: kind}
}

func (s *RemoteSource) Kind() Kind { return s.kind }

func (s *RemoteSource) Persists(core.Entity) bool { return true }
