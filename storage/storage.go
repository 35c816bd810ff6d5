package storage

import "errors"

var (
	ErrNotFound      = errors.New("storage key not found")
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// Storage is the persisted client state: the access token copy and cache entries.
// Nothing stored here is durable or authoritative; losing it must always be safe.
//
//go:generate mockgen -source=storage.go -destination=mocks/mock_storage.go -package=mocks
type Storage interface {
	// Get returns ErrNotFound when key has never been set or was removed
	Get(key string) (string, error)

	// Set overwrites any value stored under key
	Set(key, value string) error

	// Remove deletes key; removing a missing key is not an error
	Remove(key string) error
}
