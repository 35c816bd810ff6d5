package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Common error types for the garden front ends
var (
	// Authentication errors
	ErrUnauthenticated = errors.New("not authenticated")
	ErrRefreshFailed   = errors.New("token refresh failed")
	ErrSessionCleared  = errors.New("session cleared")
	ErrInvalidOTP      = errors.New("invalid one-time passcode")

	// Token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Request errors
	ErrNotReplayable = errors.New("request body cannot be replayed")
	ErrTransport     = errors.New("transport failure")
	ErrDecode        = errors.New("malformed response body")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// Kind classifies failures the way the screens need to react to them.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransport
	KindAuth
	KindValidation
	KindBusiness
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindBusiness:
		return "business"
	default:
		return "unknown"
	}
}

// APIError is a non-2xx response from the garden API. Message is passed to the UI verbatim.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// ValidationError is a missing or malformed field detected before submission.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// KindOf reports the taxonomy bucket of err.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var validation *ValidationError
	if errors.As(err, &validation) {
		return KindValidation
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == http.StatusUnauthorized {
			return KindAuth
		}
		return KindBusiness
	}

	if errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrRefreshFailed) || errors.Is(err, ErrSessionCleared) || errors.Is(err, ErrInvalidOTP) {
		return KindAuth
	}

	if errors.Is(err, ErrTransport) || errors.Is(err, context.DeadlineExceeded) {
		return KindTransport
	}
	return KindUnknown
}

// Message extracts the text a screen should show for err.
func Message(err error) string {
	var validation *ValidationError
	if errors.As(err, &validation) {
		return validation.Error()
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
