package roset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/roset-dev/roset-go/logger"
)

// RequestOptions carries the optional parts of an API request.
type RequestOptions struct {
	// Body is JSON-marshalled into the request body.
	Body any

	// Query holds query string parameters. Nil values are dropped before
	// transmission, so callers may pass optional filters unconditionally.
	Query map[string]any

	// Headers are merged into the request. The Idempotency-Key header is
	// passed through unmodified for callers guarding non-idempotent
	// operations against duplicate delivery.
	Headers map[string]string

	// Content is a raw byte body, mutually exclusive with Body.
	Content     []byte
	ContentType string
}

// Transport is the resilient request layer. It owns the authenticated
// connection, serializes requests, maps every response to the error
// taxonomy, and retries transient failures with bounded backoff.
//
// A single Transport is shared by reference across all resource facades.
// It holds no mutable state beyond construction-time configuration, so it
// is safe for concurrent use.
type Transport struct {
	baseURL       string
	apiKey        string
	mountID       string
	maxRetries    int
	backoffFactor float64

	client *http.Client
	clock  Clock
	log    *logger.Logger
}

// Do sends an HTTP request and returns the raw JSON response body.
//
// Transient failures (429, 503, other 5xx, transport errors) are retried
// with exponential backoff, honoring a server-suggested Retry-After. The
// entire request is repeated each attempt. On a non-retryable error the
// mapped *APIError is returned immediately; on budget exhaustion the last
// observed error is returned unchanged. A 204 response yields a nil body.
func (t *Transport) Do(ctx context.Context, method, path string, opts *RequestOptions) (json.RawMessage, error) {
	for attempt := 0; ; attempt++ {
		body, err := t.send(ctx, method, path, opts)
		if err == nil {
			return body, nil
		}

		delay, retry := retryDelay(err, attempt, t.maxRetries, t.backoffFactor)
		if !retry {
			return nil, err
		}

		t.log.Warn("transient error, retrying",
			"method", method,
			"path", path,
			"attempt", attempt+1,
			"max_attempts", t.maxRetries+1,
			"sleep", delay,
			"error", err)

		if sleepErr := t.clock.Sleep(ctx, delay); sleepErr != nil {
			return nil, sleepErr
		}
	}
}

// send performs a single attempt
func (t *Transport) send(ctx context.Context, method, path string, opts *RequestOptions) (json.RawMessage, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}

	reqURL := t.baseURL + path
	if query := encodeQuery(opts.Query); query != "" {
		reqURL += "?" + query
	}

	var reqBody io.Reader
	contentType := ""
	switch {
	case opts.Content != nil:
		reqBody = bytes.NewReader(opts.Content)
		contentType = opts.ContentType
	case opts.Body != nil:
		encoded, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, &ValidationError{Message: "request body is not JSON-serializable", Err: err}
		}
		reqBody = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, &ValidationError{Message: "failed to build request", Err: err}
	}

	req.Header.Set("Authorization", "ApiKey "+t.apiKey)
	req.Header.Set("User-Agent", userAgent)
	if t.mountID != "" {
		req.Header.Set("X-Mount-Id", t.mountID)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		// Caller cancellation is not a transport fault; surface it as-is.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &NetworkError{Message: fmt.Sprintf("%s %s", method, path), Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Message: "failed to read response body", Cause: err}
	}

	if apiErr := mapStatus(resp, respBody); apiErr != nil {
		return nil, apiErr
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	return respBody, nil
}

// mapStatus translates a non-2xx response into its taxonomy member. The
// mapping is total: every status the layer can receive lands on exactly
// one Kind.
func mapStatus(resp *http.Response, body []byte) *APIError {
	status := resp.StatusCode
	if status >= 200 && status < 300 {
		return nil
	}

	message, code, details := parseErrorBody(body, status)
	apiErr := &APIError{
		StatusCode: status,
		Code:       code,
		Message:    message,
		Details:    details,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}

	switch {
	case status == http.StatusUnauthorized:
		apiErr.Kind = KindUnauthorized
	case status == http.StatusForbidden:
		apiErr.Kind = KindForbidden
	case status == http.StatusNotFound:
		apiErr.Kind = KindNotFound
	case status == http.StatusConflict:
		apiErr.Kind = KindConflict
	case status == http.StatusPaymentRequired:
		apiErr.Kind = KindQuotaExceeded
	case status == http.StatusTooManyRequests:
		// 429 doubles as a quota signal when the server says so.
		if code == "QUOTA_EXCEEDED" {
			apiErr.Kind = KindQuotaExceeded
		} else {
			apiErr.Kind = KindRateLimited
		}
	case status == http.StatusServiceUnavailable:
		apiErr.Kind = KindServiceUnavailable
	case status == http.StatusGatewayTimeout:
		apiErr.Kind = KindGatewayTimeout
	case status >= 500:
		apiErr.Kind = KindServerError
	default:
		apiErr.Kind = KindGenericAPI
	}

	return apiErr
}

// parseErrorBody extracts message/code/details from an API error payload,
// falling back to "HTTP <status>" when the body is not JSON.
func parseErrorBody(body []byte, status int) (message, code string, details map[string]any) {
	var payload struct {
		Error   string         `json:"error"`
		Message string         `json:"message"`
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Sprintf("HTTP %d", status), "", nil
	}

	message = payload.Error
	if message == "" {
		message = payload.Message
	}
	if message == "" {
		message = fmt.Sprintf("HTTP %d", status)
	}
	return message, payload.Code, payload.Details
}

// parseRetryAfter parses the Retry-After header as integer seconds.
// Missing or malformed values yield zero.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// encodeQuery builds a query string, dropping nil values so callers can
// pass optional filters unconditionally.
func encodeQuery(query map[string]any) string {
	if len(query) == 0 {
		return ""
	}
	values := url.Values{}
	for key, value := range query {
		if value == nil {
			continue
		}
		values.Set(key, fmt.Sprint(value))
	}
	return values.Encode()
}
