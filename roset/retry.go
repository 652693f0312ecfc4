package roset

import (
	"errors"
	"math"
	"time"
)

// retryable reports whether err is worth repeating at all. Rate limits,
// 503s, other 5xx and transport failures are transient; everything else is
// terminal. 504 is deliberately terminal: a repeated identical request is
// unlikely to land inside the same server-side deadline.
func retryable(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	switch apiErr.Kind {
	case KindRateLimited, KindServiceUnavailable, KindServerError:
		return true
	default:
		return false
	}
}

// retryDelay decides, for a given error and attempt index, whether to retry
// and how long to sleep first. attempt starts at 0; the total attempt budget
// is maxRetries+1. A server-suggested Retry-After is honored exactly,
// otherwise the wait is backoffFactor * 2^attempt seconds.
func retryDelay(err error, attempt, maxRetries int, backoffFactor float64) (time.Duration, bool) {
	if attempt >= maxRetries || !retryable(err) {
		return 0, false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter, true
	}

	seconds := backoffFactor * math.Pow(2, float64(attempt))
	return time.Duration(seconds * float64(time.Second)), true
}
