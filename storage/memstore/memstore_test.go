package memstore_test

import (
	"testing"

	"github.com/jrsteele09/cactus-garden/storage"
	"github.com/jrsteele09/cactus-garden/storage/memstore"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_SetGetRemove(t *testing.T) {
	s := memstore.New()

	_, err := s.Get("access_token")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Set("access_token", "abc"))
	v, err := s.Get("access_token")
	require.NoError(t, err)
	require.Equal(t, "abc", v)

	require.NoError(t, s.Remove("access_token"))
	require.NoError(t, s.Remove("access_token"))
	_, err = s.Get("access_token")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestInMemoryStore_Quota(t *testing.T) {
	s := memstore.New(memstore.WithQuota(10))

	require.NoError(t, s.Set("k", "12345"))
	require.ErrorIs(t, s.Set("j", "123456789"), storage.ErrQuotaExceeded)

	// previous value survives a rejected write
	v, err := s.Get("k")
	require.NoError(t, err)
	require.Equal(t, "12345", v)

	// overwriting reclaims the old value's space
	require.NoError(t, s.Set("k", "123456789"))
}
