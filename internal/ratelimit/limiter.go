package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Response headers the platform uses to report quota
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderUsed      = "X-RateLimit-Used"
	HeaderReset     = "X-RateLimit-Reset"
	HeaderRetry     = "Retry-After"
)

// Status is the last known quota of the remote API
type Status struct {
	Remaining int       `json:"remaining"`
	Limit     int       `json:"limit"`
	Used      int       `json:"used"`
	ResetAt   time.Time `json:"reset_at"`
}

// Config holds tracker configuration
type Config struct {
	// LowWaterMark triggers a proactive wait when Remaining drops below it
	LowWaterMark int
	// MaxWait caps any wait for a reset
	MaxWait time.Duration
	// RequestsPerSecond paces outgoing requests; burst is one request
	RequestsPerSecond float64
}

// Tracker owns the quota bookkeeping of exactly one fetch client. It is not
// shared between clients so concurrent evaluations cannot see each other's
// retry state.
type Tracker struct {
	mu      sync.RWMutex
	status  Status
	known   bool
	config  Config
	limiter *rate.Limiter
	now     func() time.Time

	// handled is the reset instant some caller has already waited for
	handled time.Time
}

// NewTracker creates a tracker with no known quota
func NewTracker(config Config) *Tracker {
	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}
	return &Tracker{
		config:  config,
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
	}
}

// Status returns the last known quota and whether any response reported one
func (t *Tracker) Status() (Status, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status, t.known
}

// Update replaces the known quota
func (t *Tracker) Update(s Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = s
	t.known = true
}

// UpdateFromHeaders refreshes the quota from response headers. It returns
// false when the response carried no quota headers.
func (t *Tracker) UpdateFromHeaders(h http.Header) bool {
	s, ok := ParseHeaders(h)
	if ok {
		t.Update(s)
	}
	return ok
}

// ParseHeaders reads the quota headers of a response
func ParseHeaders(h http.Header) (Status, bool) {
	remaining, err := strconv.Atoi(h.Get(HeaderRemaining))
	if err != nil {
		return Status{}, false
	}

	s := Status{Remaining: remaining}
	if v, err := strconv.Atoi(h.Get(HeaderLimit)); err == nil {
		s.Limit = v
	}
	if v, err := strconv.Atoi(h.Get(HeaderUsed)); err == nil {
		s.Used = v
	}
	if v, err := strconv.ParseInt(h.Get(HeaderReset), 10, 64); err == nil {
		s.ResetAt = time.Unix(v, 0)
	}
	return s, true
}

// RetryAfter converts a Retry-After header (seconds) into an absolute instant
func RetryAfter(h http.Header, now time.Time) (time.Time, bool) {
	secs, err := strconv.Atoi(h.Get(HeaderRetry))
	if err != nil || secs < 0 {
		return time.Time{}, false
	}
	return now.Add(time.Duration(secs) * time.Second), true
}

// ProactiveWait returns how long to hold the next request because the known
// quota is below the low-water mark. Zero means go ahead.
func (t *Tracker) ProactiveWait() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.known || t.status.Remaining >= t.config.LowWaterMark || t.status.ResetAt.IsZero() {
		return 0
	}
	if t.status.ResetAt.Equal(t.handled) {
		return 0
	}
	return capWait(t.status.ResetAt.Sub(t.now()), t.config.MaxWait)
}

// MarkResetHandled records that the current reset is already being waited
// for elsewhere, so no proactive wait is taken for it again. A later reset
// instant reported by the API re-arms the proactive wait.
func (t *Tracker) MarkResetHandled() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.known {
		t.handled = t.status.ResetAt
	}
}

// Wait blocks for any proactive wait and then for the pacing limiter. It
// returns the proactive wait that was taken.
func (t *Tracker) Wait(ctx context.Context) (time.Duration, error) {
	wait := t.ProactiveWait()
	if wait > 0 {
		if err := Sleep(ctx, wait); err != nil {
			return 0, err
		}
		t.MarkResetHandled()
	}
	if err := t.limiter.Wait(ctx); err != nil {
		return wait, err
	}
	return wait, nil
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func capWait(d, max time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if max > 0 && d > max {
		return max
	}
	return d
}
