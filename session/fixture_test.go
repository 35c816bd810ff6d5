package session_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/cactus-garden/internal/config"
	"github.com/jrsteele09/cactus-garden/session"
	"github.com/jrsteele09/cactus-garden/storage/memstore"
	"github.com/jrsteele09/cactus-garden/token"
	"github.com/jrsteele09/cactus-garden/token/tokentest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testEmail   = "curator@garden.test"
	testOTP     = "123456"
	testUserID  = "u-1"
	staffRoute  = "/api/staff/species"
	refreshName = "refresh_token"
)

var baseline = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

// fakeAPI is a minimal garden backend: OTP login, identity, cookie based refresh and
// one bearer-protected staff route that echoes its request body.
type fakeAPI struct {
	srv *httptest.Server

	mu                sync.Mutex
	valid             map[string]bool
	issued            int
	refreshCalls      int
	verifyCalls       int
	meCalls           int
	staffCalls        int
	logoutCalls       int
	refreshFails      bool
	rejectStaff       bool
	meUnauthenticated bool
	refreshGate       chan struct{}
	refreshEntered    chan struct{}
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	f := &fakeAPI{valid: make(map[string]bool)}
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+session.RouteVerifyOTP, f.verifyOTP)
	mux.HandleFunc("POST "+session.RouteRequestOTP, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("GET "+session.RouteMe, f.me)
	mux.HandleFunc("POST "+session.RouteRefresh, f.refresh)
	mux.HandleFunc("POST "+session.RouteLogout, func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.logoutCalls++
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc(staffRoute, f.staff)

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) issue() string {
	f.issued++
	tok := tokentest.WithExpiry(fmt.Sprintf("%s-%d", testUserID, f.issued), baseline.Add(time.Hour))
	f.valid[tok] = true
	return tok
}

func (f *fakeAPI) revokeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.valid = make(map[string]bool)
}

func (f *fakeAPI) authorised(r *http.Request) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.valid[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
}

func (f *fakeAPI) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyCalls++

	if body.Code != testOTP {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "Código inválido"})
		return
	}

	http.SetCookie(w, &http.Cookie{Name: refreshName, Value: "rt-" + body.Email, Path: "/", HttpOnly: true})
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": f.issue(),
		"user":         map[string]any{"id": testUserID, "email": body.Email},
	})
}

func (f *fakeAPI) me(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.meCalls++
	unauthenticated := f.meUnauthenticated
	f.mu.Unlock()

	if unauthenticated {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	if !f.authorised(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Not authenticated"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          map[string]any{"id": testUserID, "email": testEmail},
	})
}

func (f *fakeAPI) refresh(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.refreshCalls++
	gate, entered := f.refreshGate, f.refreshEntered
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := r.Cookie(refreshName); err != nil || f.refreshFails {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "refresh rejected"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"access_token": f.issue()})
}

func (f *fakeAPI) staff(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.staffCalls++
	reject := f.rejectStaff
	f.mu.Unlock()

	if reject || !f.authorised(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "token expired"})
		return
	}
	body, _ := io.ReadAll(r.Body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (f *fakeAPI) counts() (refresh, staff int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls, f.staffCalls
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// clock is a settable time source shared with background goroutines
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// testFixture holds all test dependencies
type testFixture struct {
	api     *fakeAPI
	clock   *clock
	store   *token.Store
	manager *session.Manager
	cleared int
	mu      sync.Mutex
}

func setupTestFixture(t *testing.T, options ...session.ManagerOption) *testFixture {
	t.Helper()

	f := &testFixture{
		api:   newFakeAPI(t),
		clock: &clock{now: baseline},
	}
	f.store = token.NewStore(memstore.New(), "access_token", zerolog.Nop())

	opts := append([]session.ManagerOption{
		session.WithNowTime(f.clock.Now),
		session.WithOnSessionCleared(func() {
			f.mu.Lock()
			f.cleared++
			f.mu.Unlock()
		}),
	}, options...)

	m, err := session.New(f.api.srv.URL, f.store, config.Session{}, opts...)
	require.NoError(t, err)
	f.manager = m
	return f
}

func (f *testFixture) login(t *testing.T) *session.User {
	t.Helper()
	user, err := f.manager.VerifyOTP(t.Context(), testEmail, testOTP)
	require.NoError(t, err)
	return user
}

func (f *testFixture) clearedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cleared
}
