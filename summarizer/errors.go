package summarizer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Kind classifies a failed generation call
type Kind string

const (
	KindRateLimit  Kind = "rate_limit"
	KindTransient  Kind = "transient"
	KindTimeout    Kind = "timeout"
	KindMalformed  Kind = "malformed_response"
	KindAuth       Kind = "auth"
	KindBadRequest Kind = "bad_request"
)

// Retryable reports whether a call failing with this kind may be retried
func (k Kind) Retryable() bool {
	switch k {
	case KindRateLimit, KindTransient, KindTimeout, KindMalformed:
		return true
	}
	return false
}

// CallError is a classified generation failure
type CallError struct {
	Kind       Kind
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

func (e *CallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// Classify maps any error from a generator to a CallError. Generators may
// return a *CallError directly; anything else is classified by inspection.
func Classify(err error) *CallError {
	if err == nil {
		return nil
	}
	var ce *CallError
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &CallError{Kind: KindTimeout, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &CallError{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &CallError{Kind: KindTimeout, Err: err}
		}
		return &CallError{Kind: KindTransient, Err: err}
	}
	return &CallError{Kind: KindTransient, Err: err}
}

// StatusError classifies an HTTP status from a text-generation API
func StatusError(status int, err error) *CallError {
	ce := &CallError{StatusCode: status, Err: err}
	switch {
	case status == http.StatusTooManyRequests:
		ce.Kind = KindRateLimit
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		ce.Kind = KindAuth
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		ce.Kind = KindTimeout
	case status >= 500:
		ce.Kind = KindTransient
	case status >= 400:
		ce.Kind = KindBadRequest
	default:
		ce.Kind = KindMalformed
	}
	return ce
}
