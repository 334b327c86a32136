package intake

import (
	"log/slog"
	"sync"
)

// Registry is the process-wide mapping from sender identity to active
// session. Sessions are ephemeral: created on first contact, removed on
// completion, never persisted across restarts.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the session for the given sender, creating one
// atomically if absent. The second return value reports whether a new
// session was created; a concurrent first contact from the same sender
// never yields duplicate sessions.
func (r *Registry) GetOrCreate(sender string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sender]; ok {
		return s, false
	}
	s := newSession(sender)
	r.sessions[sender] = s
	slog.Debug("Registry created session", "sender", sender)
	return s, true
}

// Get returns the active session for the sender, if any.
func (r *Registry) Get(sender string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sender]
	return s, ok
}

// Remove deletes the sender's session from the registry.
func (r *Registry) Remove(sender string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sender)
	slog.Debug("Registry removed session", "sender", sender)
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
