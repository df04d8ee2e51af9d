package session

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Session records one connected client.
type Session struct {
	ID      uuid.UUID
	Addr    string
	Started time.Time

	tiles   atomic.Int64
	samples atomic.Int64
}

// New creates a Session with a fresh random ID.
func New(addr string) *Session {
	return &Session{ID: uuid.New(), Addr: addr, Started: time.Now()}
}

// TileServed counts a tile sent to the client.
func (s *Session) TileServed() { s.tiles.Add(1) }

// SampleServed counts a point sample sent to the client.
func (s *Session) SampleServed() { s.samples.Add(1) }

// Info is a point-in-time view of a Session.
type Info struct {
	ID      string    `json:"id"`
	Addr    string    `json:"addr"`
	Started time.Time `json:"started"`
	Tiles   int64     `json:"tiles"`
	Samples int64     `json:"samples"`
}

// Info returns the current counters of s.
func (s *Session) Info() Info {
	return Info{
		ID:      s.ID.String(),
		Addr:    s.Addr,
		Started: s.Started,
		Tiles:   s.tiles.Load(),
		Samples: s.samples.Load(),
	}
}

// Manager tracks all connected sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	accepted atomic.Int64
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[uuid.UUID]*Session)}
}

// Add registers s.
func (m *Manager) Add(s *Session) {
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	m.accepted.Add(1)
}

// Remove unregisters the session with the given ID.
func (m *Manager) Remove(id uuid.UUID) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Get returns the session with the given ID.
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Count returns the number of connected sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Accepted returns how many sessions were ever registered.
func (m *Manager) Accepted() int64 {
	return m.accepted.Load()
}

// Snapshot returns the connected sessions, oldest first.
func (m *Manager) Snapshot() []Info {
	m.mu.RLock()
	out := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Info())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Started.Equal(out[j].Started) {
			return out[i].ID < out[j].ID
		}
		return out[i].Started.Before(out[j].Started)
	})
	return out
}
