package session_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/cactus-garden/session"
	"github.com/stretchr/testify/require"
)

func (f *testFixture) staffRequest(t *testing.T, body io.Reader) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, f.api.srv.URL+staffRoute, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestDo_SendsBearerToken(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	resp, err := f.manager.Do(f.staffRequest(t, strings.NewReader(`{"nombre":"Echinopsis"}`)))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	refreshes, calls := f.api.counts()
	require.Zero(t, refreshes)
	require.Equal(t, 1, calls)
}

func TestDo_401RefreshesAndRetriesOnce(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	before := f.manager.Snapshot().AccessToken
	f.api.revokeAll()

	resp, err := f.manager.Do(f.staffRequest(t, bytes.NewReader([]byte(`{"nombre":"Opuntia"}`))))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.JSONEq(t, `{"nombre":"Opuntia"}`, string(body), "retried request must carry the original body")

	refreshes, calls := f.api.counts()
	require.Equal(t, 1, refreshes)
	require.Equal(t, 2, calls)

	snap := f.manager.Snapshot()
	require.Equal(t, session.StateAuthenticated, snap.State)
	require.NotEqual(t, before, snap.AccessToken)
	require.Equal(t, snap.AccessToken, f.store.Load())
}

func TestDo_Persistent401ClearsSessionAfterOneRetry(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	f.api.mu.Lock()
	f.api.rejectStaff = true
	f.api.mu.Unlock()

	resp, err := f.manager.Do(f.staffRequest(t, strings.NewReader(`{}`)))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	refreshes, calls := f.api.counts()
	require.Equal(t, 1, refreshes)
	require.Equal(t, 2, calls)

	require.Equal(t, session.StateAnonymous, f.manager.State())
	require.Empty(t, f.store.Load())
	require.Equal(t, 1, f.clearedCount())
}

func TestDo_FailedRefreshAfter401ClearsSession(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.api.revokeAll()

	f.api.mu.Lock()
	f.api.refreshFails = true
	f.api.mu.Unlock()

	resp, err := f.manager.Do(f.staffRequest(t, strings.NewReader(`{}`)))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	refreshes, calls := f.api.counts()
	require.Equal(t, 1, refreshes)
	require.Equal(t, 1, calls)
	require.Equal(t, session.StateAnonymous, f.manager.State())
}

func TestDo_StreamedBodyIsNotRetried(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.api.revokeAll()

	resp, err := f.manager.Do(f.staffRequest(t, io.MultiReader(strings.NewReader(`{}`))))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	refreshes, calls := f.api.counts()
	require.Zero(t, refreshes)
	require.Equal(t, 1, calls)
}

func TestDo_ProactiveRefreshInsideWindow(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	before := f.manager.Snapshot().AccessToken

	// issued tokens expire at baseline+1h; exactly five minutes out counts as soon
	f.clock.Set(baseline.Add(55 * time.Minute))

	resp, err := f.manager.Do(f.staffRequest(t, strings.NewReader(`{}`)))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	refreshes, calls := f.api.counts()
	require.Equal(t, 1, refreshes)
	require.Equal(t, 1, calls)
	require.NotEqual(t, before, f.manager.Snapshot().AccessToken)
}

func TestDo_NoProactiveRefreshOutsideWindow(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.clock.Set(baseline.Add(54 * time.Minute))

	resp, err := f.manager.Do(f.staffRequest(t, strings.NewReader(`{}`)))
	require.NoError(t, err)
	defer resp.Body.Close()

	refreshes, _ := f.api.counts()
	require.Zero(t, refreshes)
}

func TestDo_AuthFlowRoutesSkipProactiveRefresh(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.clock.Set(baseline.Add(58 * time.Minute))

	require.NoError(t, f.manager.RequestOTP(t.Context(), testEmail))
	require.NoError(t, f.manager.Logout(t.Context()))

	refreshes, _ := f.api.counts()
	require.Zero(t, refreshes)
}

func TestDo_401AfterProactiveRefreshDoesNotRefreshAgain(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.clock.Set(baseline.Add(58 * time.Minute))

	f.api.mu.Lock()
	f.api.rejectStaff = true
	f.api.mu.Unlock()

	resp, err := f.manager.Do(f.staffRequest(t, strings.NewReader(`{}`)))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	refreshes, calls := f.api.counts()
	require.Equal(t, 1, refreshes)
	require.Equal(t, 1, calls)
	require.Equal(t, session.StateAnonymous, f.manager.State())
}

func TestDo_CallerDeadlineDuringRefreshKeepsSession(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.api.revokeAll()

	gate := make(chan struct{})
	entered := make(chan struct{}, 1)
	f.api.mu.Lock()
	f.api.refreshGate = gate
	f.api.refreshEntered = entered
	f.api.mu.Unlock()

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	req := f.staffRequest(t, strings.NewReader(`{"nombre":"Mammillaria"}`)).WithContext(ctx)
	resp, err := f.manager.Do(req)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Nil(t, resp)
	require.NotNil(t, f.manager.Snapshot().User, "a caller giving up must not end the session")
	require.Zero(t, f.clearedCount())

	<-entered
	close(gate)
	require.NoError(t, f.manager.Refresh(t.Context()))

	snap := f.manager.Snapshot()
	require.Equal(t, session.StateAuthenticated, snap.State)
	require.NotEmpty(t, snap.AccessToken)
	require.Equal(t, snap.AccessToken, f.store.Load())
	require.Zero(t, f.clearedCount())
}
