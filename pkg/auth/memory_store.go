package auth

import (
	"sync"
)

// MemoryStore implements SessionStore in memory. Errors can be injected
// per operation.
type MemoryStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex

	StoreError    error
	RetrieveError error
	ListError     error
	DeleteError   error
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func copySession(s *Session) *Session {
	out := *s
	out.Cookies = append(out.Cookies[:0:0], s.Cookies...)
	return &out
}

// Store saves a copy of the session
func (m *MemoryStore) Store(session *Session) error {
	if m.StoreError != nil {
		return m.StoreError
	}
	if session == nil || session.Account == "" {
		return ErrInvalidSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.Account] = copySession(session)
	return nil
}

// Retrieve returns a copy of the stored session
func (m *MemoryStore) Retrieve(account string) (*Session, error) {
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[account]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return copySession(s), nil
}

// List returns copies of every stored session
func (m *MemoryStore) List() ([]*Session, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, copySession(s))
	}
	return out, nil
}

// Delete removes a session
func (m *MemoryStore) Delete(account string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[account]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, account)
	return nil
}

// Exists checks if a session is stored
func (m *MemoryStore) Exists(account string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[account]
	return ok
}

// Count returns the number of stored sessions
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
