package server

import (
	"encoding/json"
	"net/http"
	"time"

	garderrors "github.com/jrsteele09/cactus-garden/internal/errors"
	"github.com/rs/zerolog"
)

const contentTypeJSON = "application/json; charset=utf-8"

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// redirectResponse tells the front end where to send the user.
type redirectResponse struct {
	Redirect string `json:"redirect"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeLoginRedirect(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, redirectResponse{Redirect: RouteLogin})
}

// writeError maps the error taxonomy onto responses: validation 400, API errors keep
// their status and message, auth failures send the user to login, transport 502.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := zerolog.Ctx(r.Context())

	var validation *garderrors.ValidationError
	if garderrors.As(err, &validation) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validation.Message, Field: validation.Field})
		return
	}

	var apiErr *garderrors.APIError
	if garderrors.As(err, &apiErr) && apiErr.Status != http.StatusUnauthorized {
		writeJSON(w, apiErr.Status, errorResponse{Error: apiErr.Message})
		return
	}

	switch {
	case garderrors.KindOf(err) == garderrors.KindAuth:
		writeLoginRedirect(w)
	case garderrors.Is(err, garderrors.ErrUnsupported):
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: err.Error()})
	case garderrors.KindOf(err) == garderrors.KindTransport:
		logger.Warn().Err(err).Msg("garden API unreachable")
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "garden API unavailable"})
	default:
		logger.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		return garderrors.NewValidationError("", "request body must be valid JSON")
	}
	return nil
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.GetSessionCookieName(),
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.GetSessionCookieName(),
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
