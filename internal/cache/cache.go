// Package cache memoizes upstream news responses and shields the provider's
// rate limit.
package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mkovalev/newsstand/internal/metrics"
	"github.com/mkovalev/newsstand/internal/news"
)

// Source fetches one validated page of search results.
type Source interface {
	Fetch(ctx context.Context, query string, page int) (*news.Response, error)
}

// Status describes how a lookup was served.
type Status string

// Lookup outcomes.
const (
	StatusHit   Status = "hit"
	StatusMiss  Status = "miss"
	StatusStale Status = "stale"
)

type entry struct {
	query    string
	page     int
	payload  *news.Response
	storedAt time.Time
}

// Cache keeps the single most recent upstream response. A fresh entry for the
// exact (query, page) key is served without contacting upstream; on a
// rate-limit failure the entry is served regardless of key or age. Concurrent
// fetches for different keys race to the slot and the last write wins.
type Cache struct {
	source Source
	clock  news.Clock
	ttl    time.Duration
	logger *zap.Logger

	mu    sync.RWMutex
	entry *entry
}

// New creates a Cache in front of source.
func New(source Source, clock news.Clock, ttl time.Duration, logger *zap.Logger) *Cache {
	return &Cache{
		source: source,
		clock:  clock,
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the response for (query, page), serving from cache when fresh
// and falling back to stale data when the upstream is rate limited. Returned
// payloads are shared and must be treated as read-only.
func (c *Cache) Get(ctx context.Context, query string, page int) (*news.Response, Status, error) {
	key := normalizeQuery(query)

	if payload, ok := c.lookup(key, page); ok {
		metrics.ObserveCacheLookup(string(StatusHit))
		return payload, StatusHit, nil
	}

	payload, err := c.source.Fetch(ctx, key, page)
	if err != nil {
		if errors.Is(err, news.ErrRateLimited) {
			if stale := c.anyEntry(); stale != nil {
				c.logger.Warn("upstream rate limited, serving stale cache",
					zap.String("query", key),
					zap.Int("page", page),
					zap.Time("stored_at", stale.storedAt),
				)
				metrics.ObserveCacheLookup(string(StatusStale))
				return stale.payload, StatusStale, nil
			}
		}
		// Non-429 failures never touch the cache.
		return nil, StatusMiss, err
	}

	c.store(key, page, payload)
	metrics.ObserveCacheLookup(string(StatusMiss))
	return payload, StatusMiss, nil
}

// lookup returns the cached payload when the exact key matches and is fresh.
func (c *Cache) lookup(key string, page int) (*news.Response, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e := c.entry
	if e == nil || e.query != key || e.page != page {
		return nil, false
	}
	if c.clock.Now().Sub(e.storedAt) >= c.ttl {
		// Stale entries are left in place; they only serve as 429 fallback.
		return nil, false
	}
	return e.payload, true
}

// anyEntry returns whatever is cached, regardless of key or age.
func (c *Cache) anyEntry() *entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entry
}

func (c *Cache) store(key string, page int, payload *news.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = &entry{
		query:    key,
		page:     page,
		payload:  payload,
		storedAt: c.clock.Now(),
	}
}

func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
