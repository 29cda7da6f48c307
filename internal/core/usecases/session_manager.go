package usecases

import (
	"sync"

	"github.com/samirrijal/geopick/internal/pkg/metrics"
)

// SessionManager tracks live map sessions by id.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*MapSession
}

// NewSessionManager creates an empty manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*MapSession)}
}

// Put registers a session, replacing any previous one with the same id.
func (m *SessionManager) Put(s *MapSession) {
	m.mu.Lock()
	_, existed := m.sessions[s.ID()]
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	if !existed {
		metrics.ActiveSessions.Inc()
	}
}

// Get returns the session with the given id.
func (m *SessionManager) Get(id string) (*MapSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete removes a session.
func (m *SessionManager) Delete(id string) {
	m.mu.Lock()
	_, existed := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if existed {
		metrics.ActiveSessions.Dec()
	}
}

// List returns all live sessions in unspecified order.
func (m *SessionManager) List() []*MapSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*MapSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
