// apps/go-server/internal/store/memory.go
//
// In-memory registry of tile sessions.
// Sessions are never persisted: state is lost when the process restarts,
// matching the lifetime of a page in the browser.
//
// Characteristics:
//   - Stores *tiles.Controller objects keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Tracks last access so idle sessions can be swept.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/robalobadob/lettertiles/apps/go-server/internal/metrics"
	"github.com/robalobadob/lettertiles/apps/go-server/internal/tiles"
)

var ErrNotFound = errors.New("session not found")

// Store defines the registry interface for tile sessions.
type Store interface {
	// Save adds or replaces a session.
	Save(ctx context.Context, c *tiles.Controller) error

	// Get retrieves a session by ID and marks it as used.
	// Returns ErrNotFound if the session is unknown.
	Get(ctx context.Context, id string) (*tiles.Controller, error)

	// Delete removes a session and cancels its in-flight lookup.
	Delete(ctx context.Context, id string) error

	// Sweep removes sessions idle for longer than maxIdle and returns how many.
	Sweep(ctx context.Context, maxIdle time.Duration) int

	// Len is the number of sessions held.
	Len() int
}

type entry struct {
	ctrl     *tiles.Controller
	lastSeen time.Time
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex
	clock    clockwork.Clock
	sessions map[string]*entry
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore(clock clockwork.Clock) Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &memory{clock: clock, sessions: make(map[string]*entry)}
}

func (m *memory) Save(ctx context.Context, c *tiles.Controller) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.sessions[c.ID]; ok && old.ctrl != c {
		old.ctrl.Close()
	}
	m.sessions[c.ID] = &entry{ctrl: c, lastSeen: m.clock.Now()}
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*tiles.Controller, error) {
	// write lock: lastSeen is updated on every access
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.lastSeen = m.clock.Now()
	return e.ctrl, nil
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	e.ctrl.Close()
	delete(m.sessions, id)
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	return nil
}

func (m *memory) Sweep(ctx context.Context, maxIdle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.clock.Now().Add(-maxIdle)
	n := 0
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			e.ctrl.Close()
			delete(m.sessions, id)
			n++
		}
	}
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	return n
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
