package kiosk_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/cactus-garden/kiosk"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func imageServer(t *testing.T, requireToken bool, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if requireToken && r.Header.Get("Authorization") != "Bearer kiosk-token" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestImageLoader_DirectFetch(t *testing.T) {
	var calls atomic.Int32
	srv := imageServer(t, false, &calls)
	loader := kiosk.NewImageLoader(srv.Client(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "kiosk-token"}))

	img, err := loader.Load(t.Context(), srv.URL+"/img/1.jpg")
	require.NoError(t, err)
	require.Equal(t, "jpeg-bytes", string(img.Data))
	require.Equal(t, "image/jpeg", img.ContentType)
	require.False(t, img.Authenticated)
	require.EqualValues(t, 1, calls.Load())
}

func TestImageLoader_FallsBackToToken(t *testing.T) {
	var calls atomic.Int32
	srv := imageServer(t, true, &calls)
	loader := kiosk.NewImageLoader(srv.Client(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "kiosk-token"}))

	img, err := loader.Load(t.Context(), srv.URL+"/img/1.jpg")
	require.NoError(t, err)
	require.True(t, img.Authenticated)
	require.EqualValues(t, 2, calls.Load())
}

func TestImageLoader_NoTokenSource(t *testing.T) {
	var calls atomic.Int32
	srv := imageServer(t, true, &calls)

	_, err := kiosk.NewImageLoader(srv.Client(), nil).Load(t.Context(), srv.URL+"/img/1.jpg")
	require.Error(t, err)
	require.EqualValues(t, 1, calls.Load())
}

func TestImageLoader_BothFetchesFail(t *testing.T) {
	var calls atomic.Int32
	srv := imageServer(t, true, &calls)
	loader := kiosk.NewImageLoader(srv.Client(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "wrong"}))

	_, err := loader.Load(t.Context(), srv.URL+"/img/1.jpg")
	require.Error(t, err)
	require.EqualValues(t, 2, calls.Load())
}

func TestImageLoader_RejectsOversizedImage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(bytes.Repeat([]byte{0xff}, 65))
	}))
	t.Cleanup(srv.Close)

	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "kiosk-token"})
	_, err := kiosk.NewImageLoader(srv.Client(), tokens, kiosk.WithMaxImageBytes(64)).Load(t.Context(), srv.URL+"/img/big.jpg")
	require.ErrorIs(t, err, kiosk.ErrImageTooLarge)
	require.EqualValues(t, 1, calls.Load(), "an oversized image is not fetched again with the token")

	img, err := kiosk.NewImageLoader(srv.Client(), nil, kiosk.WithMaxImageBytes(65)).Load(t.Context(), srv.URL+"/img/big.jpg")
	require.NoError(t, err)
	require.Len(t, img.Data, 65)
}
