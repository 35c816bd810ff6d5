package server_test

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

	"github.com/jrsteele09/cactus-garden/cache"
	"github.com/jrsteele09/cactus-garden/garden"
	"github.com/jrsteele09/cactus-garden/internal/config"
	"github.com/jrsteele09/cactus-garden/kiosk"
	"github.com/jrsteele09/cactus-garden/server"
	"github.com/jrsteele09/cactus-garden/server/authflowrepo"
	"github.com/jrsteele09/cactus-garden/server/loginsession"
	"github.com/jrsteele09/cactus-garden/storage/memstore"
	"github.com/jrsteele09/cactus-garden/token/tokentest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testEmail = "curator@garden.test"
	testOTP   = "123456"
)

// gardenAPI fakes the garden backend: OTP login, identity, staff species and
// the public sector and species lookups.
type gardenAPI struct {
	srv *httptest.Server

	mu          sync.Mutex
	valid       map[string]bool
	species     []map[string]any
	otpRequests int
	logouts     int
	publicDown  bool
	publicHits  int
}

func newGardenAPI(t *testing.T) *gardenAPI {
	t.Helper()

	g := &gardenAPI{valid: map[string]bool{}}
	for i := 1; i <= 25; i++ {
		g.species = append(g.species, map[string]any{
			"id":                fmt.Sprint(i),
			"nombre_científico": fmt.Sprintf("Echinopsis sp. %02d", i),
			"familia":           "Cactaceae",
		})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/request-otp", func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		g.otpRequests++
		g.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /auth/verify-otp", g.verifyOTP)
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		if !g.authorised(r) {
			respond(w, http.StatusUnauthorized, map[string]string{"detail": "No autenticado"})
			return
		}
		respond(w, http.StatusOK, map[string]any{"authenticated": true, "user": map[string]string{"id": "u-1", "email": testEmail}})
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusUnauthorized, map[string]string{"detail": "Sesión expirada"})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		g.logouts++
		g.valid = map[string]bool{}
		g.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /api/staff/species", g.staff(func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		defer g.mu.Unlock()
		respond(w, http.StatusOK, map[string]any{"items": g.species})
	}))
	mux.HandleFunc("POST /api/staff/species", g.staff(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		body["id"] = "99"
		respond(w, http.StatusCreated, body)
	}))
	mux.HandleFunc("DELETE /api/staff/species/{id}", g.staff(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "1" {
			respond(w, http.StatusNotFound, map[string]string{"detail": "Especie no encontrada"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	mux.HandleFunc("GET /api/staff/sectors", g.staff(func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, []map[string]any{{"id": "1", "nombre": "Desierto"}, {"id": "2", "nombre": "Andes"}})
	}))
	mux.HandleFunc("GET /api/staff/ejemplares", g.staff(func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, []map[string]any{{"id": "7", "especie_id": "1", "sector_id": "1", "tipo_ingreso": "donación"}})
	}))

	mux.HandleFunc("GET /api/public/sectors", g.public(func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, []map[string]any{
			{"id": "1", "nombre": "Desierto de Atacama", "qr_code": "SEC-1"},
			{"id": "2", "nombre": "Andes", "qr_code": "SEC-2"},
		})
	}))
	mux.HandleFunc("GET /api/public/sectors/qr/{code}", g.public(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("code") != "SEC-1" {
			respond(w, http.StatusNotFound, map[string]string{"detail": "Sector no encontrado"})
			return
		}
		respond(w, http.StatusOK, map[string]any{
			"sector":   map[string]any{"id": "1", "nombre": "Desierto de Atacama", "qr_code": "SEC-1"},
			"especies": []map[string]any{{"id": "3", "nombre_cientifico": "Copiapoa cinerea", "nombre_común": "Copiapoa"}},
		})
	}))
	mux.HandleFunc("GET /api/public/species/{id}", g.public(func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, map[string]any{"id": r.PathValue("id"), "scientific_name": "Copiapoa cinerea"})
	}))
	mux.HandleFunc("GET /media/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = io.WriteString(w, "png-bytes")
	})

	g.srv = httptest.NewServer(mux)
	t.Cleanup(g.srv.Close)
	return g
}

func (g *gardenAPI) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Code != testOTP {
		respond(w, http.StatusBadRequest, map[string]string{"detail": "Código inválido"})
		return
	}

	tok := tokentest.WithExpiry("u-1", time.Now().Add(time.Hour))
	g.mu.Lock()
	g.valid[tok] = true
	g.mu.Unlock()
	respond(w, http.StatusOK, map[string]any{"access_token": tok, "user": map[string]string{"id": "u-1", "email": body.Email}})
}

func (g *gardenAPI) authorised(r *http.Request) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.valid[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
}

func (g *gardenAPI) staff(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !g.authorised(r) {
			respond(w, http.StatusUnauthorized, map[string]string{"detail": "No autenticado"})
			return
		}
		next(w, r)
	}
}

func (g *gardenAPI) public(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		g.publicHits++
		down := g.publicDown
		g.mu.Unlock()
		if down {
			respond(w, http.StatusServiceUnavailable, map[string]string{"detail": "Mantenimiento"})
			return
		}
		next(w, r)
	}
}

func (g *gardenAPI) revokeAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.valid = map[string]bool{}
}

func (g *gardenAPI) counts() (otpRequests, logouts int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.otpRequests, g.logouts
}

func (g *gardenAPI) setPublicDown(down bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.publicDown = down
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// testFixture holds all test dependencies
type testFixture struct {
	api      *gardenAPI
	cfg      config.Config
	sessions *loginsession.InMemoryLoginSessionRepo
	flows    *authflowrepo.InMemoryRepo
	admin    *server.Admin
	handler  http.Handler
	now      time.Time
}

func setupTestFixture(t *testing.T, options ...server.AdminOption) *testFixture {
	t.Helper()

	api := newGardenAPI(t)
	t.Setenv("ENV", "TEST")
	t.Setenv("BYPASS_AUTH", "")
	t.Setenv("DEBUG_OVERLAY", "true")
	t.Setenv("API_BASE_URL", api.srv.URL)
	t.Setenv("ALLOWED_ORIGINS", "https://panel.garden.test")

	f := &testFixture{
		api:      api,
		cfg:      config.New(),
		sessions: loginsession.NewInMemoryLoginSessionRepo(),
		flows:    authflowrepo.NewInMemoryRepo(),
		now:      time.Now(),
	}

	opts := append([]server.AdminOption{server.WithNowTime(func() time.Time { return f.now })}, options...)
	admin, err := server.NewAdmin(f.cfg, zerolog.Nop(), f.sessions, f.flows, opts...)
	require.NoError(t, err)
	f.admin = admin
	f.handler = admin.Handler(admin.SessionGate)
	return f
}

func (f *testFixture) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// login runs the OTP flow and returns the session cookie.
func (f *testFixture) login(t *testing.T) *http.Cookie {
	t.Helper()

	rec := f.do(t, http.MethodPost, server.RouteAPIRequestOTP, `{"email":"`+testEmail+`"}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, server.RouteAPIVerifyOTP, `{"email":"`+testEmail+`","code":"`+testOTP+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return sessionCookie(t, rec, f.cfg.GetSessionCookieName())
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no %s cookie set", name)
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// newKiosk builds a kiosk front end against the fixture API with its own cache.
func (f *testFixture) newKiosk(t *testing.T) http.Handler {
	t.Helper()

	api, err := garden.NewClient(f.cfg.GetAPIBaseURL(), garden.Public, f.api.srv.Client())
	require.NoError(t, err)

	k, err := server.NewKiosk(f.cfg, zerolog.Nop(), api,
		cache.New(memstore.New(), f.cfg.GetCacheTTL()),
		kiosk.NewImageLoader(f.api.srv.Client(), nil),
	)
	require.NoError(t, err)
	return k.Handler()
}
