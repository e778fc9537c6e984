package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSelector marks a window or target selector that is missing,
	// ambiguous, or malformed.
	ErrInvalidSelector = errors.New("invalid selector")
	// ErrInvalidInterval marks a date interval whose start is after its end.
	ErrInvalidInterval = errors.New("invalid interval")
	// ErrTargetNotFound marks an account name that could not be resolved.
	ErrTargetNotFound = errors.New("target not found")
	// ErrCapabilityRequired marks a query that needs full-archive search
	// while the configuration only allows recent search.
	ErrCapabilityRequired = errors.New("full-archive capability required")
)

// RateLimitExhaustedError is returned when the retry budget for rate-limited
// or transient failures has been spent. Last carries the final underlying error.
type RateLimitExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RateLimitExhaustedError) Error() string {
	return fmt.Sprintf("rate limit retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RateLimitExhaustedError) Unwrap() error { return e.Last }

// UpstreamError is a non-2xx response from the external API. Retryable
// distinguishes 429/5xx (retried by the throttle) from permanent client
// errors that must propagate immediately.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the throttle may retry this response.
func (e *UpstreamError) Retryable() bool {
	return e.StatusCode == 429 || (e.StatusCode >= 500 && e.StatusCode < 600)
}

// MalformedResponseError marks a response body the client could not decode.
// Never retried.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed upstream response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// TruncatedError reports that pagination stopped early after some pages were
// already produced. Callers keep the posts retrieved before the truncation.
type TruncatedError struct {
	PagesRead int
	Posts     int
	Err       error
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("pagination truncated after %d pages (%d posts): %v", e.PagesRead, e.Posts, e.Err)
}

func (e *TruncatedError) Unwrap() error { return e.Err }
