package roset

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock records sleeps instead of blocking
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) recorded() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

func testClient(t *testing.T, serverURL string, clock Clock, maxRetries int) *Client {
	t.Helper()
	client, err := NewClient(Config{
		APIKey:     "rsk_test",
		BaseURL:    serverURL,
		MaxRetries: maxRetries,
		clock:      clock,
	})
	require.NoError(t, err)
	return client
}

func TestStatusCodeMapping(t *testing.T) {
	tests := []struct {
		status int
		kind   Kind
	}{
		{401, KindUnauthorized},
		{403, KindForbidden},
		{404, KindNotFound},
		{409, KindConflict},
		{402, KindQuotaExceeded},
		{429, KindRateLimited},
		{503, KindServiceUnavailable},
		{504, KindGatewayTimeout},
		{500, KindServerError},
		{502, KindServerError},
		{418, KindGenericAPI},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"boom","code":"BOOM"}`))
			}))
			defer server.Close()

			client := testClient(t, server.URL, newFakeClock(), -1)
			_, err := client.Transport().Do(context.Background(), "GET", "/v1/test", nil)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.kind, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.StatusCode, "original status must be preserved")
			assert.Equal(t, "BOOM", apiErr.Code)
			assert.Equal(t, "boom", apiErr.Message)
		})
	}
}

func TestQuotaExceededOn429WithCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(429)
		_, _ = w.Write([]byte(`{"error":"quota exhausted","code":"QUOTA_EXCEEDED"}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL, newFakeClock(), 3)
	_, err := client.Transport().Do(context.Background(), "GET", "/v1/test", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindQuotaExceeded, apiErr.Kind)
	assert.False(t, retryable(apiErr), "quota exhaustion is terminal even on a 429")
}

func TestRetriesUntilSuccess(t *testing.T) {
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(500)
			_, _ = w.Write([]byte(`{"error":"flaky"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	clock := newFakeClock()
	client := testClient(t, server.URL, clock, 3)

	body, err := client.Transport().Do(context.Background(), "GET", "/v1/test", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, 3, attempts, "success on the final needed attempt, no extra retries")
	assert.Len(t, clock.recorded(), 2)
}

func TestRetryBudgetExhaustedSurfacesLastError(t *testing.T) {
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(503)
		_, _ = w.Write([]byte(`{"error":"down"}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL, newFakeClock(), 2)
	_, err := client.Transport().Do(context.Background(), "GET", "/v1/test", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindServiceUnavailable, apiErr.Kind)
	assert.Equal(t, 503, apiErr.StatusCode, "last error surfaced verbatim, not re-wrapped")
	assert.Equal(t, 3, attempts, "total attempts = max_retries + 1")
}

func TestRetryAfterHeaderHonored(t *testing.T) {
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(429)
			_, _ = w.Write([]byte(`{"error":"slow down"}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	clock := newFakeClock()
	client := testClient(t, server.URL, clock, 3)

	_, err := client.Transport().Do(context.Background(), "GET", "/v1/test", nil)
	require.NoError(t, err)
	require.Len(t, clock.recorded(), 1)
	assert.Equal(t, 2*time.Second, clock.recorded()[0], "Retry-After wins over exponential backoff")
}

func TestNonRetryableSendsExactlyOneRequest(t *testing.T) {
	for _, status := range []int{401, 403, 404, 409, 402, 504, 400} {
		var attempts int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts++
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"nope"}`))
		}))

		client := testClient(t, server.URL, newFakeClock(), 3)
		_, err := client.Transport().Do(context.Background(), "GET", "/v1/test", nil)
		require.Error(t, err)
		assert.Equal(t, 1, attempts, "status %d must not be retried", status)

		server.Close()
	}
}

func TestNetworkErrorRetriedThenSurfaced(t *testing.T) {
	// A closed server produces connection-refused transport errors.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	clock := newFakeClock()
	client := testClient(t, server.URL, clock, 2)

	_, err := client.Transport().Do(context.Background(), "GET", "/v1/test", nil)
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Error(t, netErr.Unwrap(), "underlying cause preserved")
	assert.Len(t, clock.recorded(), 2, "transport failures use the retry budget")
}

func TestNilQueryValuesDropped(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL, newFakeClock(), 0)
	_, err := client.Transport().Do(context.Background(), "GET", "/v1/test", &RequestOptions{
		Query: map[string]any{"page": 2, "type": nil, "sortBy": "name"},
	})
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "page=2")
	assert.Contains(t, gotQuery, "sortBy=name")
	assert.NotContains(t, gotQuery, "type")
}

func TestAuthAndIdempotencyHeaders(t *testing.T) {
	var gotAuth, gotIdem, gotMount string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotIdem = r.Header.Get("Idempotency-Key")
		gotMount = r.Header.Get("X-Mount-Id")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{
		APIKey:  "rsk_secret",
		BaseURL: server.URL,
		MountID: "mount-7",
		clock:   newFakeClock(),
	})
	require.NoError(t, err)

	_, err = client.Transport().Do(context.Background(), "POST", "/v1/nodes", &RequestOptions{
		Body:    map[string]any{"name": "x"},
		Headers: map[string]string{"Idempotency-Key": "idem-123"},
	})
	require.NoError(t, err)

	assert.Equal(t, "ApiKey rsk_secret", gotAuth)
	assert.Equal(t, "idem-123", gotIdem, "Idempotency-Key passed through unmodified")
	assert.Equal(t, "mount-7", gotMount)
}

func TestNoContentYieldsEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := testClient(t, server.URL, newFakeClock(), 0)
	body, err := client.Transport().Do(context.Background(), "DELETE", "/v1/refs/latest", nil)
	require.NoError(t, err)
	assert.Nil(t, body)
}

func TestNonJSONErrorBodyFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer server.Close()

	client := testClient(t, server.URL, newFakeClock(), -1)
	_, err := client.Transport().Do(context.Background(), "GET", "/v1/test", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "HTTP 500", apiErr.Message)
}

func TestContextCancellationStopsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		_, _ = w.Write([]byte(`{"error":"down"}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := testClient(t, server.URL, newFakeClock(), 3)
	_, err := client.Transport().Do(ctx, "GET", "/v1/test", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSuccessBodyDecodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ref":{"name":"latest","commit_id":"c1","updated_at":"2026-01-01T00:00:00Z"}}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL, newFakeClock(), 0)
	body, err := client.Transport().Do(context.Background(), "GET", "/v1/refs/latest", nil)
	require.NoError(t, err)

	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &envelope))
	assert.Contains(t, envelope, "ref")
}
