package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/cactus-garden/server/loginsession"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyLoginSession stores the admin login session
const ContextKeyLoginSession ContextKey = "login_session"

// SessionGate is the edge check for admin pages. It only looks at whether the
// session cookie is present: protected pages without it go to login, and the
// login page with it goes to the dashboard. Validation happens in RequireSession.
func (a *Admin) SessionGate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.bypass {
			next(w, r)
			return
		}

		_, err := r.Cookie(a.config.GetSessionCookieName())
		hasCookie := err == nil

		switch {
		case isProtectedPage(r.URL.Path) && !hasCookie:
			http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
			return
		case r.URL.Path == RouteLogin && hasCookie:
			http.Redirect(w, r, RouteAdminDashboard, http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

func isProtectedPage(path string) bool {
	return path == RouteAdmin || strings.HasPrefix(path, RouteAdmin+"/")
}

// RequireSession resolves the cookie to a live login session. API callers without
// one get 401 with a redirect to the login page.
func (a *Admin) RequireSession() Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if a.bypass {
				next(w, r.WithContext(context.WithValue(r.Context(), ContextKeyLoginSession, a.devSession)))
				return
			}

			cookie, err := r.Cookie(a.config.GetSessionCookieName())
			if err != nil {
				writeLoginRedirect(w)
				return
			}

			ls, err := a.sessions.Get(cookie.Value)
			if err != nil || ls.Manager == nil {
				a.clearSessionCookie(w, r)
				writeLoginRedirect(w)
				return
			}

			if !ls.ExpiresAt.IsZero() && !a.nowTime().Before(ls.ExpiresAt) {
				a.dropSession(ls.ID, "cookie lifetime ended")
				a.clearSessionCookie(w, r)
				writeLoginRedirect(w)
				return
			}

			next(w, r.WithContext(context.WithValue(r.Context(), ContextKeyLoginSession, ls)))
		}
	}
}

func loginSessionFrom(ctx context.Context) (loginsession.Session, bool) {
	ls, ok := ctx.Value(ContextKeyLoginSession).(loginsession.Session)
	return ls, ok && ls.Manager != nil
}
