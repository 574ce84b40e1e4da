package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/jdiegosierra/contributor-quality/internal/config"
	"github.com/jdiegosierra/contributor-quality/internal/errors"
	"github.com/jdiegosierra/contributor-quality/internal/monitoring"
)

// RetryConfig holds configuration for retry behavior
type RetryConfig struct {
	MaxAttempts   int           `json:"max_attempts"`
	InitialDelay  time.Duration `json:"initial_delay"`
	MaxDelay      time.Duration `json:"max_delay"`
	BackoffFactor float64       `json:"backoff_factor"`
	JitterEnabled bool          `json:"jitter_enabled"`

	// MaxRateLimitWait caps the wait for a rate-limit reset
	MaxRateLimitWait time.Duration `json:"max_rate_limit_wait"`

	// Now is the clock used to turn reset instants into waits
	Now func() time.Time `json:"-"`
}

// DefaultRetryConfig returns sensible defaults for retry behavior
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:      3,
		InitialDelay:     time.Second,
		MaxDelay:         30 * time.Second,
		BackoffFactor:    2.0,
		JitterEnabled:    true,
		MaxRateLimitWait: 60 * time.Second,
		Now:              time.Now,
	}
}

// FromFetchConfig builds the retry policy of the fetch client
func FromFetchConfig(f config.FetchConfig) RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = f.MaxAttempts
	cfg.InitialDelay = f.InitialDelay
	cfg.MaxDelay = f.MaxDelay
	cfg.MaxRateLimitWait = f.MaxRateLimitWait
	return cfg
}

// RetryableFunc represents a function that can be retried
type RetryableFunc func() error

// Hooks receives retry notifications. Both fields are optional.
type Hooks struct {
	Logger  *monitoring.Logger
	Metrics *monitoring.Metrics
}

// Do runs fn until it succeeds, returns a non-retryable error, or the attempt
// budget is spent. Rate-limit errors wait for the reported reset, capped at
// MaxRateLimitWait; transient errors back off exponentially. The last error
// is returned unchanged so callers can still classify it.
func Do(ctx context.Context, cfg RetryConfig, operation string, hooks Hooks, fn RetryableFunc) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	return retry.Do(
		func() error { return fn() },
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		// the library has already counted the failed attempt when it asks
		// for a delay, so n is 1-based here
		retry.DelayType(func(n uint, err error, _ *retry.Config) time.Duration {
			failed := int(n)
			if failed < 1 {
				failed = 1
			}
			wait := cfg.DelayFor(failed-1, err)

			category := errors.Classify(err)
			if hooks.Metrics != nil {
				hooks.Metrics.RecordRetry(string(category))
			}
			if hooks.Logger != nil {
				hooks.Logger.RetryLogger(operation, failed, attempts, string(category), wait, err)
			}
			return wait
		}),
		retry.RetryIf(errors.IsRetryableError),
		retry.LastErrorOnly(true),
	)
}

// DelayFor returns the wait before the attempt following attempt n (0-based)
// that failed with err.
func (c RetryConfig) DelayFor(n int, err error) time.Duration {
	if errors.Classify(err) == errors.CategoryRateLimit {
		return c.rateLimitDelay(n, err)
	}
	return calculateDelay(c, n)
}

func (c RetryConfig) rateLimitDelay(n int, err error) time.Duration {
	resetAt, ok := errors.ResetAt(err)
	if !ok {
		// no reset reported: back off, but never past the rate-limit cap
		return capDuration(calculateDelay(c, n), c.MaxRateLimitWait)
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	wait := resetAt.Sub(now())
	if wait < 0 {
		wait = 0
	}
	return capDuration(wait, c.MaxRateLimitWait)
}

// calculateDelay computes the delay for the next retry attempt
func calculateDelay(config RetryConfig, attempt int) time.Duration {
	factor := config.BackoffFactor
	if factor < 1 {
		factor = 1
	}

	// Exponential backoff: initial_delay * (backoff_factor ^ attempt)
	delay := time.Duration(float64(config.InitialDelay) * math.Pow(factor, float64(attempt)))

	if delay < 0 {
		delay = math.MaxInt64
	}

	// Up to 10% jitter to prevent thundering herd
	if config.JitterEnabled && delay >= 10 && delay < math.MaxInt64/2 {
		delay += time.Duration(rand.Int63n(int64(delay / 10)))
	}

	// The cap applies after jitter so MaxDelay is a hard bound
	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}

	return delay
}

func capDuration(d, max time.Duration) time.Duration {
	if max > 0 && d > max {
		return max
	}
	return d
}
