package server

import (
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/jrsteele09/cactus-garden/garden"
	garderrors "github.com/jrsteele09/cactus-garden/internal/errors"
	"github.com/jrsteele09/cactus-garden/server/authflowrepo"
	"github.com/jrsteele09/cactus-garden/session"
	"github.com/jrsteele09/cactus-garden/token"
	"golang.org/x/sync/errgroup"
)

type requestOTPRequest struct {
	Email     string `json:"email"`
	ReturnURL string `json:"return_url"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type loginResponse struct {
	User     *session.User `json:"user"`
	Redirect string        `json:"redirect"`
}

type dashboardResponse struct {
	User       *session.User `json:"user"`
	Species    int           `json:"species"`
	Sectors    int           `json:"sectors"`
	Ejemplares int           `json:"ejemplares"`
}

type debugOverlayResponse struct {
	State          string        `json:"state"`
	User           *session.User `json:"user"`
	TokenExpiresAt *time.Time    `json:"token_expires_at,omitempty"`
	SessionID      string        `json:"session_id"`
	SessionExpiry  time.Time     `json:"session_expires_at"`
	Routes         []string      `json:"routes"`
}

// LoginPageHandler describes the login screen to the front end.
func (a *Admin) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"app":         a.config.GetAppName(),
			"request_otp": RouteAPIRequestOTP,
			"verify_otp":  RouteAPIVerifyOTP,
		})
	}
}

// DashboardHandler returns the signed-in user with the collection totals.
func (a *Admin) DashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.withStaffClient(w, r, func(c *garden.Client) {
			ls, _ := loginSessionFrom(r.Context())
			resp := dashboardResponse{User: ls.Manager.Snapshot().User}

			g, ctx := errgroup.WithContext(r.Context())
			g.Go(func() error {
				items, err := c.ListSpecies(ctx, nil)
				resp.Species = len(items)
				return err
			})
			g.Go(func() error {
				items, err := c.ListSectors(ctx, nil)
				resp.Sectors = len(items)
				return err
			})
			g.Go(func() error {
				items, err := c.ListEjemplares(ctx, nil)
				resp.Ejemplares = len(items)
				return err
			})
			if err := g.Wait(); err != nil {
				a.fail(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, resp)
		})
	}
}

// RequestOTPHandler asks the API to email a passcode. Repeat requests for the
// same address inside otpResendWait are refused.
func (a *Admin) RequestOTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req requestOTPRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		email, err := normaliseEmail(req.Email)
		if err != nil {
			writeError(w, r, err)
			return
		}

		now := a.nowTime()
		state, err := a.flows.Get(email)
		if err != nil {
			state = &authflowrepo.AuthFlowState{Email: email}
		} else if now.Sub(state.RequestedAt) < otpResendWait {
			w.Header().Set("Retry-After", "30")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "Espera unos segundos antes de pedir otro código"})
			return
		}

		m, err := a.newManager("otp-" + newSessionID())
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := m.RequestOTP(r.Context(), email); err != nil {
			writeError(w, r, err)
			return
		}

		state.RequestedAt = now
		state.Requests++
		state.ReturnURL = safeReturnURL(req.ReturnURL)
		if err := a.flows.Upsert(email, state); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
	}
}

// VerifyOTPHandler exchanges the passcode for a session and sets the session cookie.
func (a *Admin) VerifyOTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyOTPRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		email, err := normaliseEmail(req.Email)
		if err != nil {
			writeError(w, r, err)
			return
		}
		code := strings.TrimSpace(req.Code)
		if code == "" {
			writeError(w, r, garderrors.NewValidationError("code", "El código es obligatorio"))
			return
		}

		sessionID := newSessionID()
		m, err := a.newManager(sessionID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		user, err := m.VerifyOTP(r.Context(), email, code)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if _, err := a.startSession(sessionID, user.Email, m); err != nil {
			writeError(w, r, err)
			return
		}

		redirect := RouteAdminDashboard
		if state, err := a.flows.Get(email); err == nil {
			if state.ReturnURL != "" {
				redirect = state.ReturnURL
			}
			_ = a.flows.Delete(email)
		}

		a.setSessionCookie(w, r, sessionID, a.config.GetSessionMaxAge())
		writeJSON(w, http.StatusOK, loginResponse{User: user, Redirect: redirect})
	}
}

// LogoutHandler ends the session at the API when it can and always locally.
func (a *Admin) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(a.config.GetSessionCookieName()); err == nil {
			if ls, err := a.sessions.Get(cookie.Value); err == nil && ls.Manager != nil {
				if err := ls.Manager.Logout(r.Context()); err != nil {
					a.log.Warn().Err(err).Str("session", ls.ID).Msg("API logout failed, session dropped locally")
				}
				a.dropSession(ls.ID, "logout")
			}
		}
		a.clearSessionCookie(w, r)
		writeJSON(w, http.StatusOK, redirectResponse{Redirect: RouteLogin})
	}
}

// MeHandler re-validates the session against the API.
func (a *Admin) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ls, ok := loginSessionFrom(r.Context())
		if !ok {
			writeLoginRedirect(w)
			return
		}
		user, err := ls.Manager.FetchCurrentUser(r.Context())
		if err != nil {
			a.fail(w, r, err)
			return
		}
		if user == nil {
			a.clearSessionCookie(w, r)
			writeLoginRedirect(w)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

// DebugOverlayHandler exposes the session internals for the development overlay.
func (a *Admin) DebugOverlayHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ls, ok := loginSessionFrom(r.Context())
		if !ok {
			writeLoginRedirect(w)
			return
		}
		snap := ls.Manager.Snapshot()
		resp := debugOverlayResponse{
			State:         snap.State.String(),
			User:          snap.User,
			SessionID:     ls.ID,
			SessionExpiry: ls.ExpiresAt,
			Routes:        a.Routes(),
		}
		if exp, ok := token.ExpiresAt(snap.AccessToken); ok {
			resp.TokenExpiresAt = &exp
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func normaliseEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", garderrors.NewValidationError("email", "Introduce un correo válido")
	}
	return strings.ToLower(addr.Address), nil
}

// safeReturnURL keeps only same-origin paths.
func safeReturnURL(raw string) string {
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, `\`) {
		return ""
	}
	return raw
}
