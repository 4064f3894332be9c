package graph

import (
	"fmt"
	"time"
)

// RetryPolicy controls recovery from rate-limit and service-busy
// responses. Authentication failures are never retried.
type RetryPolicy struct {
	MaxRetries        int           // total attempts for one request
	DefaultRetryAfter time.Duration // wait when the server sends no Retry-After
}

// DefaultRetryPolicy matches the service's documented throttling
// guidance: honor Retry-After, give up after a handful of attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        5,
		DefaultRetryAfter: 2 * time.Second,
	}
}

// RetryableError is a rate-limit or service-busy response (429/503).
type RetryableError struct {
	StatusCode int
	RetryAfter time.Duration
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// AuthError is an authentication failure. It is fatal immediately:
// retrying with the same credential cannot succeed.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("unauthorized (status %d): access token expired or invalid: %s",
		e.StatusCode, truncate(e.Message, 200))
}

// StatusError is any other non-success response. Not retried.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed (status %d): %s", e.StatusCode, truncate(e.Message, 500))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
