package loginsession

import (
	"fmt"
	"sync"
	"time"
)

var _ Repo = (*InMemoryLoginSessionRepo)(nil)

// InMemoryLoginSessionRepo is an in-memory implementation of Repo
type InMemoryLoginSessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]Session // sessionID -> Session
}

// NewInMemoryLoginSessionRepo creates a new in-memory login session repository
func NewInMemoryLoginSessionRepo() *InMemoryLoginSessionRepo {
	return &InMemoryLoginSessionRepo{
		sessions: make(map[string]Session),
	}
}

// Upsert creates or updates a login session
func (r *InMemoryLoginSessionRepo) Upsert(sessionID string, session Session) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}
	if session.Manager == nil {
		return fmt.Errorf("session manager is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	session.ID = sessionID
	r.sessions[sessionID] = session
	return nil
}

// Get retrieves a login session by its cookie id
func (r *InMemoryLoginSessionRepo) Get(sessionID string) (Session, error) {
	if sessionID == "" {
		return Session{}, fmt.Errorf("sessionID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return Session{}, ErrNotFound
	}
	return session, nil
}

// Delete removes a login session and returns it so the caller can stop it.
func (r *InMemoryLoginSessionRepo) Delete(sessionID string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return Session{}, ErrNotFound
	}
	delete(r.sessions, sessionID)
	return session, nil
}

// Expired removes and returns every session whose cookie lifetime has passed.
func (r *InMemoryLoginSessionRepo) Expired(now time.Time) []Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []Session
	for id, s := range r.sessions {
		if !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	return expired
}

// DeleteAll empties the repo, returning what it held.
func (r *InMemoryLoginSessionRepo) DeleteAll() []Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.sessions = make(map[string]Session)
	return all
}
