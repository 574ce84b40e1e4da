package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o deadline reached" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorCategory
	}{
		{name: "nil error", err: nil, expected: ""},
		{name: "api rate limit message", err: fmt.Errorf("API rate limit exceeded for user ID 1"), expected: CategoryRateLimit},
		{name: "secondary rate limit", err: fmt.Errorf("You have exceeded a secondary rate limit"), expected: CategoryRateLimit},
		{name: "graphql rate limited type", err: fmt.Errorf("graphql error RATE_LIMITED"), expected: CategoryRateLimit},
		{name: "connection reset", err: fmt.Errorf("read tcp: connection reset by peer"), expected: CategoryTransient},
		{name: "dns failure", err: fmt.Errorf("dial tcp: lookup api.github.com: no such host"), expected: CategoryTransient},
		{name: "bad gateway status", err: fmt.Errorf("status 502: Bad Gateway"), expected: CategoryTransient},
		{name: "upstream status in message", err: fmt.Errorf("github API returned 503: unavailable"), expected: CategoryTransient},
		{name: "client timeout", err: fmt.Errorf("net/http: TLS handshake timeout"), expected: CategoryTransient},
		{name: "digits in a repository name", err: fmt.Errorf("Could not resolve to a Repository with the name 'acme/api-500'"), expected: CategoryFatal},
		{name: "timeout in a field name", err: fmt.Errorf("Field 'timeoutMinutes' doesn't exist on type 'Workflow'"), expected: CategoryFatal},
		{name: "net timeout", err: timeoutErr{}, expected: CategoryTransient},
		{name: "not found is fatal", err: fmt.Errorf("Not Found"), expected: CategoryFatal},
		{name: "unauthorized is fatal", err: fmt.Errorf("Bad credentials"), expected: CategoryFatal},
		{name: "cancelled context is fatal", err: context.Canceled, expected: CategoryFatal},
		{name: "typed error keeps category", err: NewTransientError("boom", nil), expected: CategoryTransient},
		{name: "wrapped typed error", err: fmt.Errorf("outer: %w", NewRateLimitError("slow down", time.Time{}, nil)), expected: CategoryRateLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.err))
		})
	}
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, IsRetryableError(NewRateLimitError("limited", time.Now(), nil)))
	assert.True(t, IsRetryableError(NewTransientError("flaky", nil)))
	assert.False(t, IsRetryableError(NewFatalError("Not Found", nil)))
	assert.False(t, IsRetryableError(NewValidationError("bad weight")))
	assert.False(t, IsRetryableError(nil))
}

func TestRateLimitErrorCarriesReset(t *testing.T) {
	reset := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	err := fmt.Errorf("fetch: %w", NewRateLimitError("quota exhausted", reset, nil))

	got, ok := ResetAt(err)
	require.True(t, ok)
	assert.Equal(t, reset, got)

	_, ok = ResetAt(NewRateLimitError("no reset", time.Time{}, nil))
	assert.False(t, ok)

	_, ok = ResetAt(NewTransientError("flaky", nil))
	assert.False(t, ok)
}

func TestAppErrorMessages(t *testing.T) {
	validationErr := NewValidationError("test validation error", "field1")
	assert.Equal(t, "[VALIDATION_ERROR] test validation error", validationErr.Error())
	assert.Equal(t, http.StatusBadRequest, validationErr.HTTPStatus)

	transient := NewTransientError("upstream failed", fmt.Errorf("connection refused"))
	assert.Equal(t, "[TRANSIENT_ERROR] upstream failed: connection refused", transient.Error())
	assert.ErrorContains(t, transient.Unwrap(), "connection refused")

	fatal := NewFatalError("user not found", nil).WithHTTPStatus(http.StatusNotFound)
	assert.Equal(t, http.StatusNotFound, fatal.HTTPStatus)
	assert.Equal(t, CategoryFatal, fatal.Category)
}

func TestNewValidationErrorWithMap(t *testing.T) {
	err := NewValidationErrorWithMap(map[string]string{
		"weights.code_reviews":    "must be within [0, 1]",
		"analysis_window_months": "must be greater than 0",
	})

	assert.Equal(t, CategoryValidation, err.Category)
	assert.Equal(t,
		"[VALIDATION_ERROR] invalid configuration: analysis_window_months: must be greater than 0; weights.code_reviews: must be within [0, 1]",
		err.Error())
}

func TestToAppError(t *testing.T) {
	assert.Nil(t, ToAppError(nil))

	original := NewFatalError("boom", nil)
	assert.Same(t, original, ToAppError(original))

	converted := ToAppError(fmt.Errorf("503 Service Unavailable"))
	assert.Equal(t, CategoryTransient, converted.Category)

	converted = ToAppError(fmt.Errorf("API rate limit exceeded"))
	assert.Equal(t, CategoryRateLimit, converted.Category)
	assert.Equal(t, http.StatusTooManyRequests, converted.HTTPStatus)
}
