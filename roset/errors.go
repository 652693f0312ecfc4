package roset

import (
	"errors"
	"fmt"
	"time"
)

// Kind is the closed classification of API error variants. Retry and
// propagation decisions key off the Kind, never off the raw status code.
type Kind int

const (
	KindGenericAPI Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindRateLimited
	KindQuotaExceeded
	KindServerError
	KindServiceUnavailable
	KindGatewayTimeout
)

// String returns the machine-readable name of the kind
func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate_limited"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindServerError:
		return "server_error"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindGatewayTimeout:
		return "gateway_timeout"
	default:
		return "api_error"
	}
}

// APIError is an error returned by the Roset API. Every API-originating
// failure is one of these; the Kind discriminant identifies the variant.
type APIError struct {
	Kind       Kind
	StatusCode int
	Code       string
	Message    string
	Details    map[string]any

	// RetryAfter is the server-suggested wait before retrying, parsed from
	// the Retry-After header on 429/503 responses. Zero when absent.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%d] %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("[%d] %s", e.StatusCode, e.Message)
}

// ValidationError is raised client-side before any request is sent
// (malformed arguments, unusable configuration). It never triggers
// network I/O or retries.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation: %s: %v", e.Message, e.Err)
	}
	return "validation: " + e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NetworkError is a transport-level failure: DNS, connection refused, TLS,
// or a client-side timeout. Distinct from GatewayTimeout, which is a server
// verdict carried on an HTTP response.
type NetworkError struct {
	Message string
	Cause   error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network: %s: %v", e.Message, e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// CommitFailedError reports that a commit reached the terminal failed state
// server-side. It is distinct from transport errors: the poll itself
// succeeded, the operation did not.
type CommitFailedError struct {
	CommitID string
	Commit   *Commit
}

func (e *CommitFailedError) Error() string {
	return fmt.Sprintf("commit %s failed", e.CommitID)
}

// WaitTimeoutError reports a client-side give-up while a commit was still
// pending. The underlying commit may still complete later; callers needing
// certainty should re-poll with Commits.Get.
type WaitTimeoutError struct {
	CommitID string
	Timeout  time.Duration
}

func (e *WaitTimeoutError) Error() string {
	return fmt.Sprintf("commit %s still pending after %s", e.CommitID, e.Timeout)
}

// apiKind reports whether err is an APIError of the given kind
func apiKind(err error, kind Kind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// IsNotFound reports whether err is a 404 API error
func IsNotFound(err error) bool { return apiKind(err, KindNotFound) }

// IsUnauthorized reports whether err is a 401 API error
func IsUnauthorized(err error) bool { return apiKind(err, KindUnauthorized) }

// IsForbidden reports whether err is a 403 API error
func IsForbidden(err error) bool { return apiKind(err, KindForbidden) }

// IsConflict reports whether err is a 409 API error (e.g. a CAS mismatch)
func IsConflict(err error) bool { return apiKind(err, KindConflict) }

// IsRateLimited reports whether err is a 429 API error
func IsRateLimited(err error) bool { return apiKind(err, KindRateLimited) }

// IsCommitFailed reports whether err is a server-side commit failure
func IsCommitFailed(err error) bool {
	var cf *CommitFailedError
	return errors.As(err, &cf)
}

// IsWaitTimeout reports whether err is a client-side wait give-up
func IsWaitTimeout(err error) bool {
	var wt *WaitTimeoutError
	return errors.As(err, &wt)
}
