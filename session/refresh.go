package session

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	garderrors "github.com/jrsteele09/cactus-garden/internal/errors"
	"github.com/jrsteele09/cactus-garden/token"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

var _ oauth2.TokenSource = (*Manager)(nil)

const refreshKey = "refresh"

// Refresh obtains a new access token. Concurrent callers share one in-flight
// request and all observe its result. A caller whose ctx ends stops waiting
// without cancelling the shared refresh.
func (m *Manager) Refresh(ctx context.Context) error {
	result := m.refreshGroup.DoChan(refreshKey, func() (any, error) {
		return nil, m.doRefresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-result:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) doRefresh(ctx context.Context) error {
	gen := m.currentGeneration()
	prev := m.beginRefreshing()

	accessToken, err := m.requestRefresh(ctx)
	if err != nil {
		// A failed refresh only ends a session whose token is already gone or dead.
		if token.IsExpired(m.currentToken(), m.nowTime(), 0) {
			m.clearSession("refresh failed with no valid token")
		} else {
			m.endRefreshing(prev)
		}
		m.log.Debug().Err(err).Msg("token refresh failed")
		return err
	}

	if !m.setTokenIfCurrent(accessToken, gen) {
		m.log.Debug().Msg("session cleared during refresh, discarding token")
		return garderrors.ErrSessionCleared
	}
	m.endRefreshing(prev)
	m.log.Debug().Msg("token refreshed")
	return nil
}

func (m *Manager) requestRefresh(ctx context.Context) (string, error) {
	req, err := m.newRequest(ctx, http.MethodPost, RouteRefresh, nil)
	if err != nil {
		return "", err
	}

	resp, err := m.send(req)
	if err != nil {
		return "", errors.Wrap(garderrors.ErrRefreshFailed, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := garderrors.FromResponse(resp)
		return "", errors.Wrapf(garderrors.ErrRefreshFailed, "[Refresh] %d %s", apiErr.Status, apiErr.Message)
	}

	var payload refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.AccessToken == "" {
		return "", errors.Wrap(garderrors.ErrRefreshFailed, "[Refresh] response missing access_token")
	}
	return payload.AccessToken, nil
}

func (m *Manager) beginRefreshing() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.state
	if m.state == StateAuthenticated {
		m.state = StateRefreshing
	}
	return prev
}

func (m *Manager) endRefreshing(prev State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateRefreshing {
		m.state = prev
	}
}

// Run periodically refreshes a token that has expired (with the configured skew) or
// is inside the refresh window. It returns when ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.checkToken(ctx)
		}
	}
}

func (m *Manager) checkToken(ctx context.Context) {
	accessToken := m.currentToken()
	if accessToken == "" {
		return
	}

	now := m.nowTime()
	if token.IsExpired(accessToken, now, m.cfg.GetExpirySkew()) || token.ExpiringSoon(accessToken, now, m.cfg.GetRefreshWindow()) {
		if err := m.Refresh(ctx); err != nil {
			m.log.Debug().Err(err).Msg("scheduled refresh failed")
		}
	}
}

// Token implements oauth2.TokenSource over the managed token, refreshing it first
// when it is inside the refresh window.
func (m *Manager) Token() (*oauth2.Token, error) {
	accessToken := m.currentToken()
	if accessToken != "" && token.ExpiringSoon(accessToken, m.nowTime(), m.cfg.GetRefreshWindow()) {
		if err := m.Refresh(context.Background()); err == nil {
			accessToken = m.currentToken()
		}
	}
	if accessToken == "" {
		return nil, garderrors.ErrUnauthenticated
	}

	tok := &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
	if exp, ok := token.ExpiresAt(accessToken); ok {
		tok.Expiry = exp
	}
	return tok, nil
}
