package state

import "sync"

type memoryManager[S any] struct {
	mu       sync.RWMutex
	sessions map[int64]S
}

// NewMemoryManager constructs an in-memory Manager.
func NewMemoryManager[S any]() Manager[S] {
	return &memoryManager[S]{sessions: make(map[int64]S)}
}

func (m *memoryManager[S]) Get(userID int64) (S, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	return s, ok
}

func (m *memoryManager[S]) Set(userID int64, s S) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = s
}

func (m *memoryManager[S]) Update(userID int64, fn func(S) S) S {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := fn(m.sessions[userID])
	m.sessions[userID] = next
	return next
}

// Clear removes the entire session for a user.
func (m *memoryManager[S]) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

func (m *memoryManager[S]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
