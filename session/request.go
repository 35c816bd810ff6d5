package session

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	garderrors "github.com/jrsteele09/cactus-garden/internal/errors"
	"github.com/jrsteele09/cactus-garden/token"
)

// Do sends req with the managed credentials. It refreshes first when the token is
// about to expire and, on a 401 with a replayable body, refreshes and retries exactly
// once. A call never triggers more than one refresh, so a 401 after a proactive
// refresh ends the session instead of refreshing again. Callers never need their
// own 401 handling; they get the final response. Transport failures are returned
// as errors wrapping ErrTransport.
func (m *Manager) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	authFlow := isAuthFlowRoute(req.URL.Path)

	refreshed := false
	if !authFlow && token.ExpiringSoon(m.currentToken(), m.nowTime(), m.cfg.GetRefreshWindow()) {
		refreshed = true
		if err := m.Refresh(ctx); err != nil {
			m.log.Debug().Err(err).Msg("proactive refresh failed, sending with current token")
		}
	}

	resp, err := m.send(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || authFlow {
		return resp, nil
	}

	if !replayable(req) {
		m.log.Debug().Str("path", req.URL.Path).Msg("401 on a streamed body, not retrying")
		return resp, nil
	}

	if refreshed {
		m.clearSession("rejected after proactive refresh")
		return resp, nil
	}

	if err := m.Refresh(ctx); err != nil {
		if ctx.Err() != nil {
			// The caller stopped waiting; the shared refresh decides the session's fate.
			drain(resp)
			return nil, err
		}
		m.clearSession("refresh after 401 failed")
		return resp, nil
	}
	drain(resp)

	retryReq, err := cloneForRetry(req)
	if err != nil {
		m.clearSession("request could not be replayed")
		return nil, err
	}

	retryResp, err := m.send(retryReq)
	if err != nil {
		m.clearSession("retry after refresh failed")
		return nil, err
	}
	if retryResp.StatusCode == http.StatusUnauthorized {
		m.clearSession("retry after refresh rejected")
	}
	return retryResp, nil
}

func (m *Manager) send(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	if accessToken := m.currentToken(); accessToken != "" {
		out.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := m.client.Do(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", garderrors.ErrTransport, req.Method, req.URL.Path, err)
	}
	return resp, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func isAuthFlowRoute(path string) bool {
	for _, route := range authFlowRoutes {
		if strings.HasSuffix(path, route) {
			return true
		}
	}
	return false
}

// replayable reports whether req's body can be sent a second time.
func replayable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}

func cloneForRetry(req *http.Request) (*http.Request, error) {
	out := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", garderrors.ErrNotReplayable, err)
		}
		out.Body = body
	}
	return out, nil
}
