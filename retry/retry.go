package retry

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jrsteele09/cactus-garden/internal/config"
	garderrors "github.com/jrsteele09/cactus-garden/internal/errors"
)

// Policy retries transient transport failures with exponential backoff.
// HTTP error responses are never retried.
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	Retryable       func(error) bool
}

// FromConfig builds the policy shared by all API client calls.
func FromConfig(cfg config.RetryConfig) Policy {
	return Policy{
		MaxAttempts:     cfg.GetRetryMaxAttempts(),
		InitialInterval: cfg.GetRetryInitialInterval(),
		MaxInterval:     cfg.GetRetryMaxInterval(),
		Multiplier:      2,
		Retryable:       IsTransient,
	}
}

// None runs an operation exactly once.
func None() Policy {
	return Policy{MaxAttempts: 1}
}

// Do runs op until it succeeds, returns a non-retryable error, runs out of attempts,
// or ctx is done. The last error from op is returned.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	exp := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		exp.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		exp.MaxInterval = p.MaxInterval
	}
	if p.Multiplier > 0 {
		exp.Multiplier = p.Multiplier
	}
	exp.MaxElapsedTime = 0

	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)

	return backoff.Retry(func() error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}

// IsTransient reports whether err is a network or timeout failure worth another attempt.
func IsTransient(err error) bool {
	// A decode failure means the server already answered; resending is not safe.
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, garderrors.ErrDecode) {
		return false
	}

	var apiErr *garderrors.APIError
	var validation *garderrors.ValidationError
	if errors.As(err, &apiErr) || errors.As(err, &validation) {
		return false
	}

	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, garderrors.ErrTransport) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}
