package monitoring

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger provides structured logging with domain helpers
type Logger struct {
	*slog.Logger
}

// ParseLevel maps a config level name to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a logger writing to stderr, so stdout stays free for results
func NewLogger(level, format string) *Logger {
	return NewLoggerTo(os.Stderr, level, format)
}

// NewLoggerTo creates a logger writing to w
func NewLoggerTo(w io.Writer, level, format string) *Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// WithRun returns a logger tagged with a run ID and contributor login
func (l *Logger) WithRun(runID, login string) *Logger {
	return &Logger{Logger: l.With("run_id", runID, "login", login)}
}

// EvaluationLogger logs the outcome of one scoring run
func (l *Logger) EvaluationLogger(login string, finalScore int, passed bool, decayFactor float64, penalty int, duration time.Duration) {
	l.Info("Evaluation Completed",
		"login", login,
		"final_score", finalScore,
		"passed", passed,
		"decay_factor", decayFactor,
		"spam_penalty", penalty,
		"duration_ms", duration.Milliseconds(),
	)
}

// ExternalAPILogger logs external API calls
func (l *Logger) ExternalAPILogger(apiName, method, endpoint string, statusCode int, duration time.Duration, success bool) {
	level := slog.LevelInfo
	if !success {
		level = slog.LevelWarn
	}

	l.Log(context.Background(), level, "External API Call",
		"api_name", apiName,
		"method", method,
		"endpoint", endpoint,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
		"success", success,
	)
}

// RetryLogger logs a failed attempt that is about to be retried
func (l *Logger) RetryLogger(operation string, attempt, maxAttempts int, category string, wait time.Duration, err error) {
	l.Warn("Retrying request",
		"operation", operation,
		"attempt", attempt,
		"max_attempts", maxAttempts,
		"error_category", category,
		"wait_ms", wait.Milliseconds(),
		"error", err,
	)
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(method, path, ip string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}
