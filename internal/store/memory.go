package store

import (
	"sync"

	"github.com/i474232898/weather-bot/internal/weather"
)

// sessionEntry holds one session's location behind its own lock.
type sessionEntry struct {
	mu  sync.RWMutex
	loc *weather.Location
}

// MemoryStore is a concurrency-safe in-memory session → location store.
// Entries are locked individually so unrelated sessions never contend.
// There is no eviction: entries live as long as the process.
type MemoryStore struct {
	// key: session id, value: *sessionEntry
	sessions sync.Map
}

var _ weather.SessionStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns the last location shared in the session.
func (s *MemoryStore) Get(sessionID string) (weather.Location, bool) {
	v, ok := s.sessions.Load(sessionID)
	if !ok {
		return weather.Location{}, false
	}
	e := v.(*sessionEntry)

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.loc == nil {
		return weather.Location{}, false
	}
	return *e.loc, true
}

// Set replaces the session's location.
func (s *MemoryStore) Set(sessionID string, loc weather.Location) {
	v, _ := s.sessions.LoadOrStore(sessionID, &sessionEntry{})
	e := v.(*sessionEntry)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.loc = &loc
}

// Len returns the number of sessions that have shared a location.
func (s *MemoryStore) Len() int {
	n := 0
	s.sessions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
