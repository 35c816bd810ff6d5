package filestore

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/cactus-garden/storage"
	"golang.org/x/crypto/nacl/secretbox"
)

var _ storage.Storage = (*FileStore)(nil)

var errSealedCorrupt = errors.New("sealed store could not be opened")

// FileStore keeps every key in one JSON snapshot that is rewritten after each
// mutation. When a key is configured the snapshot is sealed with NaCl secretbox.
type FileStore struct {
	mu     sync.Mutex
	path   string
	key    *[32]byte
	values map[string]string
}

type Option func(*FileStore)

// WithSecret seals the snapshot at rest. Any passphrase is accepted; it is hashed to 32 bytes.
func WithSecret(secret string) Option {
	return func(f *FileStore) {
		if secret == "" {
			return
		}
		k := sha256.Sum256([]byte(secret))
		f.key = &k
	}
}

// Open loads path if it exists. A snapshot that cannot be read or unsealed is
// discarded, since everything persisted here is safe to lose.
func Open(path string, options ...Option) (*FileStore, error) {
	f := &FileStore{path: path, values: make(map[string]string)}
	for _, opt := range options {
		opt(f)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("[filestore Open] create dir: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("[filestore Open] read %s: %w", path, err)
	}

	if values, err := f.decode(data); err == nil {
		f.values = values
	}
	return f, nil
}

func (f *FileStore) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.values[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (f *FileStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, existed := f.values[key]
	f.values[key] = value
	if err := f.flush(); err != nil {
		if existed {
			f.values[key] = prev
		} else {
			delete(f.values, key)
		}
		return err
	}
	return nil
}

func (f *FileStore) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.values[key]; !ok {
		return nil
	}
	delete(f.values, key)
	return f.flush()
}

func (f *FileStore) flush() error {
	data, err := json.Marshal(f.values)
	if err != nil {
		return fmt.Errorf("[filestore flush] marshal: %w", err)
	}

	if f.key != nil {
		if data, err = f.seal(data); err != nil {
			return err
		}
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("[filestore flush] write: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("[filestore flush] rename: %w", err)
	}
	return nil
}

func (f *FileStore) seal(plain []byte) ([]byte, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("[filestore seal] nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plain, &nonce, f.key), nil
}

func (f *FileStore) decode(data []byte) (map[string]string, error) {
	if f.key != nil {
		if len(data) < 24 {
			return nil, errSealedCorrupt
		}
		var nonce [24]byte
		copy(nonce[:], data[:24])
		plain, ok := secretbox.Open(nil, data[24:], &nonce, f.key)
		if !ok {
			return nil, errSealedCorrupt
		}
		data = plain
	}

	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}
