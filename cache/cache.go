package cache

import (
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/jrsteele09/cactus-garden/storage"
	"github.com/rs/zerolog"
)

const (
	sectorKeyPrefix = "sector_cache_"
	// SectorListKey holds the full sector list shown on the kiosk home screen
	SectorListKey = "sectors_cache"
)

// Entry is the stored representation of one cached lookup.
type Entry struct {
	Timestamp int64           `json:"timestamp"` // epoch milliseconds of the successful fetch
	Payload   json.RawMessage `json:"payload"`
}

// Cache is a best-effort, storage-backed lookup cache. It is an optimisation only:
// reads never fail and writes never surface errors.
type Cache struct {
	storage storage.Storage
	ttl     time.Duration
	nowTime func() time.Time
	log     zerolog.Logger
}

// Option defines a function type to modify the Cache instance.
type Option func(*Cache)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(c *Cache) {
		c.nowTime = nowFunc
	}
}

// WithLogger sets the logger for storage failures, which are otherwise swallowed.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Cache) {
		c.log = log
	}
}

// New creates a Cache over s whose entries are fresh for ttl.
func New(s storage.Storage, ttl time.Duration, options ...Option) *Cache {
	c := &Cache{
		storage: s,
		ttl:     ttl,
		nowTime: time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Read returns the payload stored under key if it was written no more than TTL ago.
func (c *Cache) Read(key string) (json.RawMessage, bool) {
	raw, err := c.storage.Get(key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			c.log.Debug().Err(err).Str("key", key).Msg("cache read failed")
		}
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil || entry.Timestamp <= 0 || len(entry.Payload) == 0 {
		c.log.Debug().Str("key", key).Msg("cache entry malformed, treating as miss")
		return nil, false
	}

	age := c.nowTime().UnixMilli() - entry.Timestamp
	if age > c.ttl.Milliseconds() {
		return nil, false
	}
	return entry.Payload, true
}

// ReadInto decodes a hit into v. A payload that no longer fits v is a miss.
func (c *Cache) ReadInto(key string, v any) bool {
	payload, ok := c.Read(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(payload, v); err != nil {
		c.log.Debug().Err(err).Str("key", key).Msg("cache payload mismatch, treating as miss")
		return false
	}
	return true
}

// Write stores payload stamped with the current time, replacing any previous entry.
func (c *Cache) Write(key string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		c.log.Debug().Err(err).Str("key", key).Msg("cache payload not serialisable")
		return
	}

	entry, err := json.Marshal(Entry{Timestamp: c.nowTime().UnixMilli(), Payload: body})
	if err != nil {
		return
	}

	if err := c.storage.Set(key, string(entry)); err != nil {
		c.log.Debug().Err(err).Str("key", key).Msg("cache write dropped")
	}
}

// Clear removes key so the next Read is a miss.
func (c *Cache) Clear(key string) {
	if err := c.storage.Remove(key); err != nil {
		c.log.Debug().Err(err).Str("key", key).Msg("cache clear failed")
	}
}

// SectorKey is the cache key for a QR code sector lookup.
func SectorKey(code string) string {
	return sectorKeyPrefix + code
}

// KeyFor derives a key for a parameterised lookup. url.Values.Encode sorts by key,
// so equal parameter sets always hash the same.
func KeyFor(prefix string, params url.Values) string {
	if len(params) == 0 {
		return prefix
	}
	return prefix + "_" + strconv.FormatUint(xxhash.Sum64String(params.Encode()), 16)
}
