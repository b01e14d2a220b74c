// Package ratelimit throttles ledger writes per client address.
package ratelimit

import (
	"context"
	"net/http"
	"sync"
	"time"
)

const (
	DefaultWritesPerMinute = 60

	windowLen  = time.Minute
	idleAfter  = 10 * time.Minute
	sweepEvery = 5 * time.Minute
)

// Limiter gives every client a budget of writes per one-minute window.
type Limiter struct {
	perMinute int
	now       func() time.Time

	mu       sync.Mutex
	windows  map[string]window
	rejected int64
}

type window struct {
	start time.Time
	count int
}

// Stats is the limiter section of /api/metrics.
type Stats struct {
	Limited int64 `json:"limited"`
	Clients int   `json:"clients"`
}

// New returns a limiter allowing perMinute writes per client, or
// DefaultWritesPerMinute when perMinute is not positive.
func New(perMinute int) *Limiter {
	if perMinute <= 0 {
		perMinute = DefaultWritesPerMinute
	}
	return &Limiter{
		perMinute: perMinute,
		now:       time.Now,
		windows:   make(map[string]window),
	}
}

// Allow counts one write for client and reports whether it fits the budget.
func (l *Limiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w := l.windows[client]
	if now.Sub(w.start) >= windowLen {
		w = window{start: now}
	}
	w.count++
	l.windows[client] = w
	if w.count > l.perMinute {
		l.rejected++
		return false
	}
	return true
}

func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{Limited: l.rejected, Clients: len(l.windows)}
}

// Run forgets idle clients until ctx ends.
func (l *Limiter) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-ctx.Done():
			return
		}
	}
}

func (l *Limiter) sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idleAfter)
	n := 0
	for client, w := range l.windows {
		if w.start.Before(cutoff) {
			delete(l.windows, client)
			n++
		}
	}
	return n
}

// Writes throttles POST, PUT, PATCH and DELETE requests. Over budget, it sets
// Retry-After and hands the request to reject instead of next.
func (l *Limiter) Writes(clientOf func(*http.Request) string, reject http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isRead(r.Method) || l.Allow(clientOf(r)) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Retry-After", "60")
			reject(w, r)
		})
	}
}

func isRead(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}
