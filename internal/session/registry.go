package session

import (
	"sync"
)

// entry pairs a session with the lock that serializes its submissions.
type entry struct {
	mu sync.Mutex
	s  *Session
}

// Registry keeps the sessions of a long-running process. Finished sessions
// stay registered so late submissions can be told apart from unknown ids;
// callers Remove them when the client is done.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*entry)}
}

// Add registers s under its id.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = &entry{s: s}
}

// Do runs fn with the session locked against concurrent requests for the
// same id. Other sessions stay usable while fn runs.
// It reports false when no session has that id.
func (r *Registry) Do(id string, fn func(s *Session) error) (bool, error) {
	r.mu.Lock()
	e, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return false, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return true, fn(e.s)
}

// Remove forgets a session. It reports whether the id was registered.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
