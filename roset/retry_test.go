package roset

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", &APIError{Kind: KindRateLimited, StatusCode: 429}, true},
		{"service unavailable", &APIError{Kind: KindServiceUnavailable, StatusCode: 503}, true},
		{"server error 500", &APIError{Kind: KindServerError, StatusCode: 500}, true},
		{"server error 502", &APIError{Kind: KindServerError, StatusCode: 502}, true},
		{"network", &NetworkError{Message: "dial", Cause: errors.New("connection refused")}, true},
		{"unauthorized", &APIError{Kind: KindUnauthorized, StatusCode: 401}, false},
		{"forbidden", &APIError{Kind: KindForbidden, StatusCode: 403}, false},
		{"not found", &APIError{Kind: KindNotFound, StatusCode: 404}, false},
		{"conflict", &APIError{Kind: KindConflict, StatusCode: 409}, false},
		{"quota exceeded", &APIError{Kind: KindQuotaExceeded, StatusCode: 402}, false},
		{"gateway timeout", &APIError{Kind: KindGatewayTimeout, StatusCode: 504}, false},
		{"generic 400", &APIError{Kind: KindGenericAPI, StatusCode: 400}, false},
		{"validation", &ValidationError{Message: "bad input"}, false},
		{"plain error", errors.New("whatever"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryable(tt.err))
		})
	}
}

func TestRetryDelayExponentialBackoff(t *testing.T) {
	err := &APIError{Kind: KindServerError, StatusCode: 500}

	// backoff_factor * 2^attempt seconds, attempt starting at 0
	delay, retry := retryDelay(err, 0, 3, 0.5)
	require.True(t, retry)
	assert.Equal(t, 500*time.Millisecond, delay)

	delay, retry = retryDelay(err, 1, 3, 0.5)
	require.True(t, retry)
	assert.Equal(t, 1*time.Second, delay)

	delay, retry = retryDelay(err, 2, 3, 0.5)
	require.True(t, retry)
	assert.Equal(t, 2*time.Second, delay)
}

func TestRetryDelayHonorsRetryAfter(t *testing.T) {
	err := &APIError{Kind: KindRateLimited, StatusCode: 429, RetryAfter: 2 * time.Second}

	delay, retry := retryDelay(err, 0, 3, 0.5)
	require.True(t, retry)
	assert.Equal(t, 2*time.Second, delay, "server-suggested wait must win over the exponential default")
}

func TestRetryDelayBudgetExhausted(t *testing.T) {
	err := &APIError{Kind: KindServerError, StatusCode: 500}

	_, retry := retryDelay(err, 3, 3, 0.5)
	assert.False(t, retry, "attempt index == maxRetries means the budget is spent")
}

func TestRetryDelayNonRetryableKind(t *testing.T) {
	_, retry := retryDelay(&APIError{Kind: KindConflict, StatusCode: 409}, 0, 3, 0.5)
	assert.False(t, retry)
}
