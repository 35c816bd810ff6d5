package token

import (
	"errors"

	"github.com/jrsteele09/cactus-garden/storage"
	"github.com/rs/zerolog"
)

// Store is the persisted copy of the in-memory access token. It is a cache of the
// session's value: read only as a fallback, overwritten on every successful auth call.
type Store struct {
	storage storage.Storage
	key     string
	log     zerolog.Logger
}

func NewStore(s storage.Storage, key string, log zerolog.Logger) *Store {
	return &Store{storage: s, key: key, log: log}
}

// Load returns "" when nothing is persisted or storage is unavailable.
func (s *Store) Load() string {
	v, err := s.storage.Get(s.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Debug().Err(err).Str("key", s.key).Msg("token store read failed")
		}
		return ""
	}
	return v
}

func (s *Store) Save(raw string) {
	if raw == "" {
		s.Clear()
		return
	}
	if err := s.storage.Set(s.key, raw); err != nil {
		s.log.Debug().Err(err).Str("key", s.key).Msg("token store write failed")
	}
}

func (s *Store) Clear() {
	if err := s.storage.Remove(s.key); err != nil {
		s.log.Debug().Err(err).Str("key", s.key).Msg("token store clear failed")
	}
}
