// Package cache provides an in-memory cache whose validity window adapts to
// liveness: categories that recently stored live data expire on a shorter
// duration than idle ones. ETag helpers are included for the API layer.
package cache

import (
	"context"
	"crypto/md5"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/matchwatch/matchwatch/internal/clock"
)

// Category identifies a class of cached values with its own durations.
type Category string

const (
	CategorySchedule Category = "schedule"
	CategoryDetails  Category = "details"
	CategoryMedia    Category = "media"
)

// Durations configures how long entries of a category stay valid. Live is
// used instead of Base while the most recent Put for the category was
// flagged live; zero Live means the category does not adapt.
type Durations struct {
	Base time.Duration
	Live time.Duration
}

type entryKey struct {
	category Category
	key      string
}

type entry struct {
	value     any
	writtenAt time.Time
	isLive    bool
}

// Cache is a thread-safe adaptive-duration cache.
type Cache struct {
	mu        sync.RWMutex
	clock     clock.Clock
	durations map[Category]Durations
	entries   map[entryKey]entry
	lastLive  map[Category]bool // liveness of the most recent Put per category
	group     singleflight.Group
}

// New creates a cache with the given per-category durations.
func New(clk clock.Clock, durations map[Category]Durations) *Cache {
	return &Cache{
		clock:     clk,
		durations: durations,
		entries:   make(map[entryKey]entry),
		lastLive:  make(map[Category]bool),
	}
}

// Get retrieves a cached value. Returns ok=false if no entry exists or the
// entry has outlived the category's effective duration.
func (c *Cache) Get(category Category, key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[entryKey{category, key}]
	if !exists {
		return nil, false
	}
	if c.clock.Now().Sub(e.writtenAt) >= c.effectiveDuration(category) {
		return nil, false
	}
	return e.value, true
}

// Put stores a value. isLive marks the underlying data as live, switching
// the whole category to its shorter live duration until a non-live Put.
func (c *Cache) Put(category Category, key string, value any, isLive bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[entryKey{category, key}] = entry{
		value:     value,
		writtenAt: c.clock.Now(),
		isLive:    isLive,
	}
	c.lastLive[category] = isLive
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[entryKey]entry)
	c.lastLive = make(map[Category]bool)
}

// FetchFunc fills a cache miss. It returns the value and whether the
// underlying data is currently live.
type FetchFunc func(ctx context.Context) (any, bool, error)

// GetOrFetch returns the cached value or fills it via fetch. Concurrent
// callers for the same (category, key) share a single fetch.
func (c *Cache) GetOrFetch(ctx context.Context, category Category, key string, fetch FetchFunc) (any, error) {
	if v, ok := c.Get(category, key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(string(category)+"/"+key, func() (any, error) {
		// Re-check: another caller may have filled the entry while we
		// waited on the group.
		if v, ok := c.Get(category, key); ok {
			return v, nil
		}
		value, isLive, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.Put(category, key, value, isLive)
		return value, nil
	})
	return v, err
}

// Stats returns cache statistics for the API layer.
func (c *Cache) Stats() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	active := 0
	now := c.clock.Now()
	for k, e := range c.entries {
		if now.Sub(e.writtenAt) < c.effectiveDuration(k.category) {
			active++
		}
	}
	live := make([]string, 0, len(c.lastLive))
	for cat, isLive := range c.lastLive {
		if isLive {
			live = append(live, string(cat))
		}
	}
	return map[string]any{
		"total_keys":      len(c.entries),
		"active_keys":     active,
		"expired_keys":    len(c.entries) - active,
		"live_categories": live,
	}
}

// effectiveDuration resolves the validity window for a category. Callers
// must hold at least the read lock.
func (c *Cache) effectiveDuration(category Category) time.Duration {
	d, ok := c.durations[category]
	if !ok {
		return 0
	}
	if c.lastLive[category] && d.Live > 0 {
		return d.Live
	}
	return d.Base
}

// ComputeETag generates a weak ETag from response data using MD5.
func ComputeETag(data []byte) string {
	hash := md5.Sum(data)
	return fmt.Sprintf(`W/"%x"`, hash[:8])
}

// CheckETagMatch checks if If-None-Match header matches the current ETag.
func CheckETagMatch(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" {
		return false
	}
	if ifNoneMatch == "*" {
		return true
	}
	return ifNoneMatch == etag
}
