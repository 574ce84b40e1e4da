package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jdiegosierra/contributor-quality/internal/config"
	"github.com/jdiegosierra/contributor-quality/internal/errors"
	"github.com/jdiegosierra/contributor-quality/internal/monitoring"
	"github.com/jdiegosierra/contributor-quality/internal/ratelimit"
	"github.com/jdiegosierra/contributor-quality/internal/resilience"
)

const (
	userAgent       = "contributor-quality/1.0"
	maxResponseSize = 10 << 20
)

// GitHubClient is the resilient GraphQL fetch client. Each instance owns its
// own quota tracker; concurrent evaluations should each build their own.
type GitHubClient struct {
	httpClient *http.Client
	endpoint   string
	token      string
	pageSize   int
	tracker    *ratelimit.Tracker
	retry      resilience.RetryConfig
	logger     *monitoring.Logger
	metrics    *monitoring.Metrics
}

// NewGitHubClient creates a client from the fetch configuration. Logger and
// metrics may be nil.
func NewGitHubClient(cfg config.FetchConfig, logger *monitoring.Logger, metrics *monitoring.Metrics) *GitHubClient {
	return &GitHubClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   cfg.Endpoint,
		token:      cfg.Token,
		pageSize:   cfg.PageSize,
		tracker: ratelimit.NewTracker(ratelimit.Config{
			LowWaterMark:      cfg.LowWaterMark,
			MaxWait:           cfg.MaxRateLimitWait,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}),
		retry:   resilience.FromFetchConfig(cfg),
		logger:  logger,
		metrics: metrics,
	}
}

// RateLimit returns the last quota reported by the API
func (c *GitHubClient) RateLimit() (ratelimit.Status, bool) {
	return c.tracker.Status()
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

type rateLimitNode struct {
	RateLimit *struct {
		Limit     int       `json:"limit"`
		Remaining int       `json:"remaining"`
		Used      int       `json:"used"`
		ResetAt   time.Time `json:"resetAt"`
	} `json:"rateLimit"`
}

// Query runs one GraphQL query and decodes its data into out. Failures are
// classified as rate-limit, transient or fatal; only the first two are retried.
func (c *GitHubClient) Query(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return errors.NewFatalError("failed to marshal GraphQL request", err)
	}

	hooks := resilience.Hooks{Logger: c.logger, Metrics: c.metrics}
	return resilience.Do(ctx, c.retry, "graphql", hooks, func() error {
		return c.do(ctx, body, out)
	})
}

func (c *GitHubClient) do(ctx context.Context, body []byte, out any) error {
	waited, err := c.tracker.Wait(ctx)
	if err != nil {
		return err
	}
	if waited > 0 {
		if c.metrics != nil {
			c.metrics.IncrementProactiveWait()
		}
		if c.logger != nil {
			c.logger.Info("Quota below low-water mark, waited for reset", "wait_ms", waited.Milliseconds())
		}
	}

	// a fresh request per attempt; the body reader is consumed by each send
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.NewFatalError("failed to create GraphQL request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	if c.metrics != nil {
		c.metrics.IncrementGitHubCalls()
	}
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logCall(0, start, false)
		return fmt.Errorf("graphql request failed: %w", err)
	}
	defer errors.SafeClose(resp.Body, "graphql response body")

	c.tracker.UpdateFromHeaders(resp.Header)

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.logCall(resp.StatusCode, start, false)
		return errors.NewTransientError("failed to read GraphQL response", err)
	}

	if err := c.statusError(resp, payload); err != nil {
		c.logCall(resp.StatusCode, start, false)
		c.claimReset(err)
		return err
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(payload, &envelope); err != nil {
		c.logCall(resp.StatusCode, start, false)
		return errors.NewFatalError("failed to decode GraphQL response", err)
	}

	if len(envelope.Data) > 0 {
		var rl rateLimitNode
		if json.Unmarshal(envelope.Data, &rl) == nil && rl.RateLimit != nil {
			c.tracker.Update(ratelimit.Status{
				Remaining: rl.RateLimit.Remaining,
				Limit:     rl.RateLimit.Limit,
				Used:      rl.RateLimit.Used,
				ResetAt:   rl.RateLimit.ResetAt,
			})
		}
	}

	if err := c.graphQLError(envelope.Errors); err != nil {
		c.logCall(resp.StatusCode, start, false)
		c.claimReset(err)
		return err
	}

	c.logCall(resp.StatusCode, start, true)
	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return errors.NewFatalError("failed to decode GraphQL data", err)
	}
	return nil
}

// claimReset hands the wait for the current reset to the retry loop, which
// already sleeps until the reset reported with a rate-limit error. Without
// this the next attempt would wait for the same reset a second time.
func (c *GitHubClient) claimReset(err error) {
	if errors.Classify(err) == errors.CategoryRateLimit {
		c.tracker.MarkResetHandled()
	}
}

// statusError maps a non-2xx response onto the error taxonomy
func (c *GitHubClient) statusError(resp *http.Response, payload []byte) error {
	status := resp.StatusCode
	if status >= 200 && status < 300 {
		return nil
	}

	msg := fmt.Sprintf("github API returned %d: %s", status, strings.TrimSpace(string(payload)))
	if c.isRateLimited(resp, payload) {
		return errors.NewRateLimitError(msg, c.resetAt(resp.Header), nil)
	}
	if status >= 500 {
		return errors.NewTransientError(msg, nil)
	}

	fatal := errors.NewFatalError(msg, nil)
	if status == http.StatusNotFound {
		fatal = errors.NewFatalError("Not Found", nil)
	}
	return fatal.WithHTTPStatus(status)
}

func (c *GitHubClient) isRateLimited(resp *http.Response, payload []byte) bool {
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return true
	case http.StatusForbidden:
		if resp.Header.Get(ratelimit.HeaderRemaining) == "0" || resp.Header.Get(ratelimit.HeaderRetry) != "" {
			return true
		}
		// secondary limits arrive as a 403 with an explanatory body
		return strings.Contains(strings.ToLower(string(payload)), "rate limit")
	}
	return false
}

// resetAt prefers Retry-After and falls back to the quota reset header
func (c *GitHubClient) resetAt(h http.Header) time.Time {
	if at, ok := ratelimit.RetryAfter(h, time.Now()); ok {
		return at
	}
	if s, ok := ratelimit.ParseHeaders(h); ok && !s.ResetAt.IsZero() {
		return s.ResetAt
	}
	return time.Time{}
}

// transientGraphQLTypes are service-side failures worth another attempt
var transientGraphQLTypes = map[string]bool{
	"SERVICE_UNAVAILABLE": true,
	"INTERNAL":            true,
	"TIMEOUT":             true,
}

// graphQLError maps the errors array of a 200 response onto the taxonomy.
// A typed error is classified by its type alone; only untyped errors fall
// back to message signatures.
func (c *GitHubClient) graphQLError(errs []graphQLError) error {
	if len(errs) == 0 {
		return nil
	}

	msgs := make([]string, 0, len(errs))
	var rateLimited, notFound, transient, fatal bool
	for _, e := range errs {
		msgs = append(msgs, e.Message)
		switch {
		case e.Type == "RATE_LIMITED":
			rateLimited = true
		case e.Type == "NOT_FOUND":
			notFound = true
		case transientGraphQLTypes[e.Type]:
			transient = true
		case e.Type != "":
			fatal = true
		}
	}
	msg := "graphql errors: " + strings.Join(msgs, "; ")

	switch {
	case rateLimited:
		var resetAt time.Time
		if s, ok := c.tracker.Status(); ok {
			resetAt = s.ResetAt
		}
		return errors.NewRateLimitError(msg, resetAt, nil)
	case notFound:
		return errors.NewFatalError(msg, nil).WithHTTPStatus(http.StatusNotFound)
	case fatal:
		return errors.NewFatalError(msg, nil)
	case transient:
		return errors.NewTransientError(msg, nil)
	default:
		return errors.ToAppError(fmt.Errorf("%s", msg))
	}
}

func (c *GitHubClient) logCall(status int, start time.Time, success bool) {
	if c.logger == nil {
		return
	}
	c.logger.ExternalAPILogger("github", http.MethodPost, c.endpoint, status, time.Since(start), success)
}
