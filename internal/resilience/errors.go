package resilience

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
)

// TransientError marks an error as retryable regardless of the default
// classification heuristics.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	if e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError wraps err so IsTransient always reports true for it.
func NewTransientError(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is likely to succeed on retry:
// explicit TransientError wraps, timeouts, temporary network failures,
// connection resets/refusals, and rate-limit or server-overload
// responses surfaced in the error text.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	// Context cancellation is deliberate, never retryable.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"rate limit",
		"too many requests",
		"overloaded",
		"service unavailable",
		"internal server error",
		"bad gateway",
		"gateway timeout",
		"connection reset",
		"temporarily unavailable",
		"tls handshake timeout",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus reports whether an HTTP status code indicates a
// retryable condition.
func IsTransientHTTPStatus(status int) bool {
	switch status {
	case 408, 429:
		return true
	}
	return status >= 500 && status < 600
}
