package loginsession

import (
	"errors"
	"time"

	"github.com/jrsteele09/cactus-garden/session"
)

var ErrNotFound = errors.New("login session not found")

// Session binds an admin browser cookie to the manager holding that user's tokens.
type Session struct {
	ID        string
	Email     string
	Manager   *session.Manager
	CreatedAt time.Time
	ExpiresAt time.Time
	// Stop ends the manager's background refresh loop.
	Stop func()
}

type Repo interface {
	Upsert(sessionID string, session Session) error
	Get(sessionID string) (Session, error)
	Delete(sessionID string) (Session, error)
	Expired(now time.Time) []Session
	DeleteAll() []Session
}
