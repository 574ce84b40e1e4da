package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
)

// ErrorCategory defines the type of error for proper handling
type ErrorCategory string

const (
	// CategoryRateLimit is retried after the quota reset instant
	CategoryRateLimit ErrorCategory = "rate_limit"
	// CategoryTransient is retried with bounded exponential backoff
	CategoryTransient ErrorCategory = "transient"
	// CategoryFatal is surfaced immediately and never retried
	CategoryFatal ErrorCategory = "fatal"
	// CategoryValidation marks bad configuration or input; never retried
	CategoryValidation ErrorCategory = "validation"
)

// Message signatures used to classify errors that arrive as plain strings
// from the transport or the remote API.
var (
	rateLimitSignatures = []string{
		"rate limit",
		"ratelimit",
		"rate_limited",
		"too many requests",
		"abuse detection",
	}
	// Status codes only count with a status word in front of them, so names
	// like "api-500" or "timeoutMinutes" stay fatal.
	transientSignatures = []string{
		"econnreset",
		"connection reset",
		"etimedout",
		"i/o timeout",
		"tls handshake timeout",
		"timeout awaiting response headers",
		"timed out",
		"enotfound",
		"no such host",
		"temporary failure",
		"connection refused",
		"socket hang up",
		"unexpected eof",
		"bad gateway",
		"service unavailable",
		"gateway timeout",
		"internal server error",
		"something went wrong while executing your query",
		"status 500",
		"status 502",
		"status 503",
		"status 504",
		"returned 500",
		"returned 502",
		"returned 503",
		"returned 504",
	}
)

// AppError wraps an errbuilder error with the retry category and, for
// rate-limit errors, the instant the quota resets
type AppError struct {
	*errbuilder.ErrBuilder
	Category   ErrorCategory `json:"category"`
	HTTPStatus int           `json:"http_status"`
	ResetAt    time.Time     `json:"reset_at,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	codeStr := "UNKNOWN_ERROR"
	switch e.ErrBuilder.ErrCode() {
	case errbuilder.CodeInvalidArgument:
		codeStr = "VALIDATION_ERROR"
	case errbuilder.CodeUnavailable:
		codeStr = "TRANSIENT_ERROR"
	case errbuilder.CodeDeadlineExceeded:
		codeStr = "TIMEOUT_ERROR"
	case errbuilder.CodeResourceExhausted:
		codeStr = "RATE_LIMIT_EXCEEDED"
	case errbuilder.CodeInternal, errbuilder.CodeFailedPrecondition:
		codeStr = "FATAL_ERROR"
	}

	if cause := e.ErrBuilder.Unwrap(); cause != nil {
		return fmt.Sprintf("[%s] %s: %v", codeStr, e.ErrBuilder.Msg, cause)
	}
	return fmt.Sprintf("[%s] %s", codeStr, e.ErrBuilder.Msg)
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

// WithHTTPStatus overrides the status used when the error reaches an HTTP client
func (e *AppError) WithHTTPStatus(status int) *AppError {
	e.HTTPStatus = status
	return e
}

// NewAppError creates an AppError from errbuilder with additional context
func NewAppError(builder *errbuilder.ErrBuilder, category ErrorCategory, httpStatus int) *AppError {
	return &AppError{
		ErrBuilder: builder,
		Category:   category,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
	}
}

// NewRateLimitError creates a rate limit error. A zero resetAt means the
// remote side did not report when the quota refills.
func NewRateLimitError(message string, resetAt time.Time, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeResourceExhausted).
		WithMsg(message)

	if !resetAt.IsZero() {
		errorMap := errbuilder.ErrorMap{}
		errorMap.Set("reset_at", errors.New(resetAt.UTC().Format(time.RFC3339)))
		builder = builder.WithDetails(errbuilder.NewErrDetails(errorMap))
	}
	if cause != nil {
		builder = builder.WithCause(cause)
	}

	appErr := NewAppError(builder, CategoryRateLimit, http.StatusTooManyRequests)
	appErr.ResetAt = resetAt
	return appErr
}

// NewTransientError creates a retryable network or upstream error
func NewTransientError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryTransient, http.StatusBadGateway)
}

// NewFatalError creates an error that must not be retried
func NewFatalError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryFatal, http.StatusBadGateway)
}

// NewValidationError creates a validation error using errbuilder
func NewValidationError(message string, details ...interface{}) *AppError {
	detailStr := ""
	if len(details) > 0 {
		detailStr = fmt.Sprintf("%v", details[0])
	}

	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message)

	if detailStr != "" {
		errorMap := errbuilder.ErrorMap{}
		errorMap.Set("validation_details", errors.New(detailStr))
		builder = builder.WithDetails(errbuilder.NewErrDetails(errorMap))
	}

	return NewAppError(builder, CategoryValidation, http.StatusBadRequest)
}

// NewValidationErrorWithMap creates one validation error describing every
// offending field. Fields are listed in sorted order so the message is stable.
func NewValidationErrorWithMap(validationErrors map[string]string) *AppError {
	errMap := errbuilder.ErrorMap{}
	fields := make([]string, 0, len(validationErrors))

	for field, message := range validationErrors {
		errMap.Set(field, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(message))
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+validationErrors[field])
	}

	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("invalid configuration: " + strings.Join(parts, "; ")).
		WithDetails(errbuilder.NewErrDetails(errMap))

	return NewAppError(builder, CategoryValidation, http.StatusBadRequest)
}

// Classify maps any error to exactly one category. Typed AppErrors keep their
// category; everything else is matched on message signatures.
func Classify(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Category
	}

	msg := strings.ToLower(err.Error())
	for _, sig := range rateLimitSignatures {
		if strings.Contains(msg, sig) {
			return CategoryRateLimit
		}
	}

	// Per-request timeouts surface as net.Error; a cancelled caller context
	// is stopped by the retry loop itself before the next attempt.
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CategoryTransient
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CategoryFatal
	}

	for _, sig := range transientSignatures {
		if strings.Contains(msg, sig) {
			return CategoryTransient
		}
	}

	return CategoryFatal
}

// ToAppError converts any error to an AppError
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch Classify(err) {
	case CategoryRateLimit:
		return NewRateLimitError("rate limit exceeded", time.Time{}, err)
	case CategoryTransient:
		return NewTransientError("transient upstream failure", err)
	default:
		return NewFatalError("request failed", err)
	}
}

// IsRetryableError checks if an error should trigger a retry
func IsRetryableError(err error) bool {
	switch Classify(err) {
	case CategoryRateLimit, CategoryTransient:
		return true
	default:
		return false
	}
}

// ResetAt returns the quota reset instant carried by a rate-limit error
func ResetAt(err error) (time.Time, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Category == CategoryRateLimit && !appErr.ResetAt.IsZero() {
		return appErr.ResetAt, true
	}
	return time.Time{}, false
}

// ErrorHandler is a Gin middleware that renders the last handler error
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		appErr := ToAppError(c.Errors.Last().Err)
		LogError(c, appErr)

		body := gin.H{
			"error":    appErr.Error(),
			"category": appErr.Category,
		}
		if !appErr.ResetAt.IsZero() {
			body["reset_at"] = appErr.ResetAt.UTC().Format(time.RFC3339)
		}
		c.JSON(appErr.HTTPStatus, body)
	}
}

// LogError logs an error with appropriate level and request context
func LogError(c *gin.Context, err *AppError) {
	logEntry := slog.With(
		"error_category", err.Category,
		"error_code", err.ErrBuilder.ErrCode(),
		"http_status", err.HTTPStatus,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", c.GetHeader("X-Request-ID"),
	)

	switch err.Category {
	case CategoryValidation, CategoryRateLimit:
		logEntry.Warn(err.ErrBuilder.Msg)
	case CategoryTransient:
		logEntry.Info(err.ErrBuilder.Msg, "cause", err.ErrBuilder.Unwrap())
	default:
		logEntry.Error(err.ErrBuilder.Msg, "cause", err.ErrBuilder.Unwrap())
	}
}

// WrapError wraps an error with additional context
func WrapError(err error, message string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	contextMsg := fmt.Sprintf(message, args...)
	return fmt.Errorf("%s: %w", contextMsg, err)
}

// SafeClose safely closes a resource and logs any errors
func SafeClose(closer interface{ Close() error }, resourceName string) {
	if closer == nil {
		return
	}

	if err := closer.Close(); err != nil {
		slog.Warn("Failed to close resource",
			"resource", resourceName,
			"error", err)
	}
}
