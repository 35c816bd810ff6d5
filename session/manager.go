package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/cactus-garden/internal/config"
	garderrors "github.com/jrsteele09/cactus-garden/internal/errors"
	"github.com/jrsteele09/cactus-garden/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/singleflight"
)

var devUser = User{ID: "dev", Email: "dev@localhost"}

// Manager owns one authenticated identity and mediates every authenticated call
// to the garden API. It is the only writer of the access token.
type Manager struct {
	baseURL       string
	client        *http.Client
	store         *token.Store
	cfg           config.SessionConfig
	log           zerolog.Logger
	nowTime       func() time.Time
	checkInterval time.Duration
	bypass        bool
	onCleared     func()

	refreshGroup singleflight.Group

	mu          sync.RWMutex
	user        *User
	accessToken string
	state       State
	generation  uint64
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithHTTPClient replaces the default cookie-jar client. A client without a jar
// gets one, since refresh relies on cookies.
func WithHTTPClient(client *http.Client) ManagerOption {
	return func(m *Manager) {
		m.client = client
	}
}

// WithLogger sets the logger used for session lifecycle events.
func WithLogger(log zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

// WithCheckInterval overrides the background refresh check period.
func WithCheckInterval(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.checkInterval = d
	}
}

// WithDevBypass installs a fixed development identity instead of calling the API.
func WithDevBypass(enabled bool) ManagerOption {
	return func(m *Manager) {
		m.bypass = enabled
	}
}

// WithOnSessionCleared registers a callback run whenever the session is dropped,
// e.g. to send the user back to the login screen.
func WithOnSessionCleared(fn func()) ManagerOption {
	return func(m *Manager) {
		m.onCleared = fn
	}
}

// New creates a Manager for the API rooted at baseURL.
func New(baseURL string, store *token.Store, cfg config.SessionConfig, options ...ManagerOption) (*Manager, error) {
	if baseURL == "" {
		return nil, errors.New("[session New] baseURL is required")
	}
	if store == nil {
		return nil, errors.New("[session New] token store is required")
	}
	if cfg == nil {
		return nil, errors.New("[session New] session config is required")
	}

	m := &Manager{
		baseURL:       strings.TrimRight(baseURL, "/"),
		store:         store,
		cfg:           cfg,
		log:           zerolog.Nop(),
		nowTime:       time.Now,
		checkInterval: cfg.GetRefreshCheckInterval(),
		state:         StateAnonymous,
	}

	for _, opt := range options {
		opt(m)
	}

	if m.client == nil {
		m.client = &http.Client{Timeout: 30 * time.Second}
	}
	if m.client.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, errors.Wrap(err, "[session New] cookie jar")
		}
		client := *m.client
		client.Jar = jar
		m.client = &client
	}

	return m, nil
}

// Snapshot returns a copy of the current session.
func (m *Manager) Snapshot() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var user *User
	if m.user != nil {
		u := *m.user
		user = &u
	}
	return Session{
		User:        user,
		AccessToken: m.accessToken,
		Loading:     m.state == StateAuthenticating,
		State:       m.state,
	}
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// FetchCurrentUser asks the API who the current credentials belong to.
func (m *Manager) FetchCurrentUser(ctx context.Context) (*User, error) {
	if m.bypass {
		u := devUser
		m.setAuthenticated(&u, m.currentToken())
		return &u, nil
	}

	prev := m.beginAuthenticating()

	req, err := m.newRequest(ctx, http.MethodGet, RouteMe, nil)
	if err != nil {
		m.restoreState(prev)
		return nil, err
	}

	resp, err := m.Do(req)
	if err != nil {
		// Only a transport failure; keep a still-valid token and let the API decide later.
		if token.IsExpired(m.currentToken(), m.nowTime(), 0) {
			m.clearSession("identity fetch failed without a valid token")
		} else {
			m.restoreState(prev)
		}
		return nil, errors.Wrap(err, "[FetchCurrentUser] request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := garderrors.FromResponse(resp)
		m.clearSession("identity fetch rejected")
		return nil, errors.Wrap(apiErr, "[FetchCurrentUser]")
	}

	var me meResponse
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		m.clearSession("identity payload unreadable")
		return nil, errors.Wrap(err, "[FetchCurrentUser] decode")
	}

	user := me.User
	if user == nil && me.ID != nil {
		user = &User{ID: fmt.Sprint(me.ID), Email: me.Email}
	}
	if (me.Authenticated != nil && !*me.Authenticated) || user == nil {
		m.clearSession("identity reports unauthenticated")
		return nil, garderrors.ErrUnauthenticated
	}

	accessToken := me.AccessToken
	if accessToken == "" {
		accessToken = m.currentToken()
	}
	m.setAuthenticated(user, accessToken)
	return user, nil
}

// RequestOTP asks the API to email a one-time passcode to email.
func (m *Manager) RequestOTP(ctx context.Context, email string) error {
	req, err := m.newJSONRequest(ctx, http.MethodPost, RouteRequestOTP, map[string]string{"email": email})
	if err != nil {
		return err
	}

	resp, err := m.Do(req)
	if err != nil {
		return errors.Wrap(err, "[RequestOTP] request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Wrap(garderrors.FromResponse(resp), "[RequestOTP]")
	}
	return nil
}

// VerifyOTP exchanges an emailed passcode for an access token and identity.
func (m *Manager) VerifyOTP(ctx context.Context, email, code string) (*User, error) {
	prev := m.beginAuthenticating()

	req, err := m.newJSONRequest(ctx, http.MethodPost, RouteVerifyOTP, map[string]string{"email": email, "code": code})
	if err != nil {
		m.restoreState(prev)
		return nil, err
	}

	resp, err := m.Do(req)
	if err != nil {
		m.restoreState(prev)
		return nil, errors.Wrap(err, "[VerifyOTP] request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := garderrors.FromResponse(resp)
		m.restoreState(prev)
		return nil, errors.Wrap(apiErr, "[VerifyOTP]")
	}

	var payload verifyOTPResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		m.restoreState(prev)
		return nil, errors.Wrap(err, "[VerifyOTP] decode")
	}
	if payload.AccessToken == "" || payload.User == nil {
		m.restoreState(prev)
		return nil, errors.Wrap(garderrors.ErrInvalidOTP, "[VerifyOTP] response missing access_token or user")
	}

	m.setAuthenticated(payload.User, payload.AccessToken)
	m.log.Info().Str("user", payload.User.Email).Msg("signed in")
	return payload.User, nil
}

// Logout tells the API to end the session and always drops local state.
func (m *Manager) Logout(ctx context.Context) error {
	var logoutErr error

	req, err := m.newRequest(ctx, http.MethodPost, RouteLogout, nil)
	if err == nil {
		var resp *http.Response
		if resp, err = m.Do(req); err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode >= 300 {
				logoutErr = errors.Errorf("[Logout] server answered %d", resp.StatusCode)
			}
		}
	}
	if err != nil {
		logoutErr = errors.Wrap(err, "[Logout] request failed")
	}

	m.clearSession("logout")
	return logoutErr
}

func (m *Manager) url(route string) string {
	return m.baseURL + route
}

func (m *Manager) newRequest(ctx context.Context, method, route string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, m.url(route), body)
	if err != nil {
		return nil, errors.Wrapf(err, "[session] build %s %s", method, route)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (m *Manager) newJSONRequest(ctx context.Context, method, route string, payload any) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "[session] encode %s", route)
	}
	req, err := m.newRequest(ctx, method, route, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// Discard drops the session locally without calling the API, removing the
// persisted token. A refresh still in flight cannot restore it.
func (m *Manager) Discard() {
	m.clearSession("discarded")
}

// currentToken prefers the in-memory token and falls back to the persisted copy.
func (m *Manager) currentToken() string {
	m.mu.RLock()
	accessToken := m.accessToken
	m.mu.RUnlock()

	if accessToken != "" {
		return accessToken
	}
	return m.store.Load()
}

func (m *Manager) beginAuthenticating() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.state
	if m.state == StateAnonymous {
		m.state = StateAuthenticating
	}
	return prev
}

func (m *Manager) restoreState(prev State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateAuthenticating {
		m.state = prev
	}
}

func (m *Manager) setAuthenticated(user *User, accessToken string) {
	m.mu.Lock()
	u := *user
	m.user = &u
	m.accessToken = accessToken
	m.state = StateAuthenticated
	m.mu.Unlock()

	if accessToken != "" {
		m.store.Save(accessToken)
	}
}

// currentGeneration reports how many times the session has been cleared.
func (m *Manager) currentGeneration() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

// setTokenIfCurrent stores accessToken only while the session has not been
// cleared since gen was read. It reports whether the token was stored.
func (m *Manager) setTokenIfCurrent(accessToken string, gen uint64) bool {
	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		return false
	}
	m.accessToken = accessToken
	// Saved under the lock so a concurrent clearSession cannot run between
	// the check and the write to the store.
	m.store.Save(accessToken)
	m.mu.Unlock()
	return true
}

func (m *Manager) clearSession(reason string) {
	m.mu.Lock()
	hadSession := m.user != nil || m.accessToken != ""
	m.user = nil
	m.accessToken = ""
	m.state = StateAnonymous
	m.generation++
	m.store.Clear()
	m.mu.Unlock()

	if !hadSession {
		return
	}
	m.log.Info().Str("reason", reason).Msg("session cleared")
	if m.onCleared != nil {
		m.onCleared()
	}
}
