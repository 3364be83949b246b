package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/shopbot/core/logger"
)

type memoryEntry[S any] struct {
	session S
	touched time.Time
}

// MemoryStore keeps sessions in process memory. A zero TTL never expires entries.
type MemoryStore[S any] struct {
	mu       sync.RWMutex
	sessions map[int64]memoryEntry[S]
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore constructs an in-memory store.
func NewMemoryStore[S any](ttl time.Duration) *MemoryStore[S] {
	return &MemoryStore[S]{
		sessions: make(map[int64]memoryEntry[S]),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemoryStore[S]) expired(e memoryEntry[S]) bool {
	return m.ttl > 0 && m.now().Sub(e.touched) > m.ttl
}

// Get returns the live session for userID.
func (m *MemoryStore[S]) Get(_ context.Context, userID int64) (S, bool, error) {
	m.mu.RLock()
	e, ok := m.sessions[userID]
	m.mu.RUnlock()
	if !ok || m.expired(e) {
		var zero S
		return zero, false, nil
	}
	return e.session, true, nil
}

// Put stores s and refreshes its expiry.
func (m *MemoryStore[S]) Put(_ context.Context, userID int64, s S) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = memoryEntry[S]{session: s, touched: m.now()}
	return nil
}

// Delete removes the session for userID.
func (m *MemoryStore[S]) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore[S]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (m *MemoryStore[S]) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.sessions {
		if m.expired(e) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *MemoryStore[S]) RunSweeper(ctx context.Context, interval time.Duration) {
	if m.ttl <= 0 || interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(); n > 0 {
				logger.Debug(ctx, "session", "session.sweep", slog.Int("count", n))
			}
		}
	}
}
