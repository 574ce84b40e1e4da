package monitoring

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds in-process counters for the fetch layer and evaluations
type Metrics struct {
	RequestCount      int64
	ErrorCount        int64
	GitHubAPICalls    int64
	Evaluations       int64
	EvaluationsPassed int64
	ProactiveWaits    int64
	CacheHits         int64
	CacheMisses       int64
	StartTime         time.Time

	// Retries keyed by error category
	retries      map[string]int64
	retriesMutex sync.RWMutex

	// Status code tracking
	requestCountByStatus map[int]int64
	statusMutex          sync.RWMutex
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:            time.Now(),
		retries:              make(map[string]int64),
		requestCountByStatus: make(map[int]int64),
	}
}

// IncrementRequest increments the inbound HTTP request counter
func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

// IncrementError increments the inbound HTTP error counter
func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

// IncrementGitHubCalls counts one outgoing GraphQL request
func (m *Metrics) IncrementGitHubCalls() {
	atomic.AddInt64(&m.GitHubAPICalls, 1)
}

// IncrementProactiveWait counts a wait taken because quota ran low
func (m *Metrics) IncrementProactiveWait() {
	atomic.AddInt64(&m.ProactiveWaits, 1)
}

// IncrementCacheHit counts a score served from the result cache
func (m *Metrics) IncrementCacheHit() {
	atomic.AddInt64(&m.CacheHits, 1)
}

// IncrementCacheMiss counts a score that had to be computed
func (m *Metrics) IncrementCacheMiss() {
	atomic.AddInt64(&m.CacheMisses, 1)
}

// RecordRetry counts one retry for the given error category
func (m *Metrics) RecordRetry(category string) {
	m.retriesMutex.Lock()
	defer m.retriesMutex.Unlock()
	m.retries[category]++
}

// RecordEvaluation counts a completed scoring run
func (m *Metrics) RecordEvaluation(passed bool) {
	atomic.AddInt64(&m.Evaluations, 1)
	if passed {
		atomic.AddInt64(&m.EvaluationsPassed, 1)
	}
}

// RecordRequestByStatus records an inbound request by status code
func (m *Metrics) RecordRequestByStatus(statusCode int) {
	m.statusMutex.Lock()
	defer m.statusMutex.Unlock()
	m.requestCountByStatus[statusCode]++
}

// GetStats returns a snapshot of all counters
func (m *Metrics) GetStats() map[string]interface{} {
	m.retriesMutex.RLock()
	retries := make(map[string]int64, len(m.retries))
	for k, v := range m.retries {
		retries[k] = v
	}
	m.retriesMutex.RUnlock()

	m.statusMutex.RLock()
	statuses := make(map[int]int64, len(m.requestCountByStatus))
	for k, v := range m.requestCountByStatus {
		statuses[k] = v
	}
	m.statusMutex.RUnlock()

	return map[string]interface{}{
		"uptime_seconds":     int64(time.Since(m.StartTime).Seconds()),
		"requests":           atomic.LoadInt64(&m.RequestCount),
		"errors":             atomic.LoadInt64(&m.ErrorCount),
		"github_api_calls":   atomic.LoadInt64(&m.GitHubAPICalls),
		"evaluations":        atomic.LoadInt64(&m.Evaluations),
		"evaluations_passed": atomic.LoadInt64(&m.EvaluationsPassed),
		"proactive_waits":    atomic.LoadInt64(&m.ProactiveWaits),
		"cache_hits":         atomic.LoadInt64(&m.CacheHits),
		"cache_misses":       atomic.LoadInt64(&m.CacheMisses),
		"retries":            retries,
		"requests_by_status": statuses,
	}
}
