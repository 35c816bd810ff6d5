package authflowrepo

import (
	"errors"
	"strings"
	"sync"
)

var ErrNotFound = errors.New("auth flow not found")

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu     sync.RWMutex
	states map[string]*AuthFlowState
}

// NewInMemoryRepo creates a new in-memory auth flow state repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		states: make(map[string]*AuthFlowState),
	}
}

// emails are matched case-insensitively
func key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Upsert stores or updates the flow for email
func (r *InMemoryRepo) Upsert(email string, authState *AuthFlowState) error {
	if key(email) == "" {
		return errors.New("email cannot be empty")
	}
	if authState == nil {
		return errors.New("authState cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Copy to prevent external modifications
	stored := *authState
	r.states[key(email)] = &stored
	return nil
}

// Get retrieves the flow started for email
func (r *InMemoryRepo) Get(email string) (*AuthFlowState, error) {
	if key(email) == "" {
		return nil, errors.New("email cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	authState, exists := r.states[key(email)]
	if !exists {
		return nil, ErrNotFound
	}

	out := *authState
	return &out, nil
}

// Delete removes the flow for email
func (r *InMemoryRepo) Delete(email string) error {
	if key(email) == "" {
		return errors.New("email cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.states, key(email))
	return nil
}
