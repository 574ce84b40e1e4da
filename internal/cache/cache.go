package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jdiegosierra/contributor-quality/internal/analysis"
	"github.com/jdiegosierra/contributor-quality/internal/config"
)

// Item is a cached scoring result with expiration
type Item struct {
	Result    *analysis.ScoringResult `json:"result"`
	ExpiresAt time.Time               `json:"expires_at"`
}

func (i *Item) expired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// Cache holds recent scoring results in memory with a fixed TTL. A zero TTL
// disables it: every Get misses and Set is a no-op.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*Item
	ttl   time.Duration
	now   func() time.Time
}

// New creates a cache whose entries live for ttl
func New(ttl time.Duration) *Cache {
	return &Cache{
		items: make(map[string]*Item),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Key identifies a result by login and every setting that changes the score.
// Logins are case-insensitive on GitHub.
func Key(login string, cfg *config.Config) string {
	return fmt.Sprintf("%s|%s|%d|%d|%d",
		strings.ToLower(login), cfg.Mode, cfg.MinimumScoreThreshold,
		cfg.AnalysisWindowMonths, cfg.MinimumStarsForQuality)
}

// Get returns the cached result for key if it has not expired
func (c *Cache) Get(key string) (*analysis.ScoringResult, bool) {
	if c.ttl <= 0 {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[key]
	if !ok || item.expired(c.now()) {
		return nil, false
	}
	return item.Result, true
}

// Set stores result under key
func (c *Cache) Set(key string, result *analysis.ScoringResult) {
	if c.ttl <= 0 || result == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &Item{
		Result:    result,
		ExpiresAt: c.now().Add(c.ttl),
	}
}

// Clear removes all items. Called when the configuration is reloaded.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*Item)
}

// Prune drops expired items and returns how many were removed
func (c *Cache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, item := range c.items {
		if item.expired(now) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// Run prunes expired items every interval until ctx is cancelled
func (c *Cache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Prune(); n > 0 {
				slog.Debug("cache: pruned expired results", "count", n)
			}
		}
	}
}

// Size returns the number of stored items, expired or not
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Stats returns cache statistics
func (c *Cache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	expired := 0
	for _, item := range c.items {
		if item.expired(now) {
			expired++
		}
	}

	return map[string]interface{}{
		"total_items":   len(c.items),
		"expired_items": expired,
		"active_items":  len(c.items) - expired,
		"ttl_seconds":   c.ttl.Seconds(),
	}
}
