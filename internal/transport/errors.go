package transport

import (
	"errors"
	"fmt"
	"time"
)

// NetworkError means the transport never reached the upstream: a
// connectivity-level failure, not an HTTP status. It is returned only after
// the fallback execution path (when configured) has also failed.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network unreachable for %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RateLimitError means the upstream kept answering 429 until the retry
// budget ran out. RetryAfter carries the last Retry-After hint, if any.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("upstream rate limited (retry after %s)", e.RetryAfter)
	}
	return "upstream rate limited"
}

// UpstreamError is any other non-success HTTP status. 503/504 are retried
// before this surfaces; everything else fails immediately.
type UpstreamError struct {
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}

// AsRateLimit unwraps err into a RateLimitError.
func AsRateLimit(err error) (*RateLimitError, bool) {
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return rlErr, true
	}
	return nil, false
}

// AsUpstream unwraps err into an UpstreamError.
func AsUpstream(err error) (*UpstreamError, bool) {
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr, true
	}
	return nil, false
}

// AsNetwork unwraps err into a NetworkError.
func AsNetwork(err error) (*NetworkError, bool) {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr, true
	}
	return nil, false
}
