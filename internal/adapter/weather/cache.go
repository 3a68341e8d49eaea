// Package weather provides decorators that layer caching and rate limiting
// over any domain.SnowSource without the providers knowing.
package weather

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/powderline/snowfall-alert-service/internal/domain"
)

// CachedSource wraps a SnowSource with an in-memory TTL+LRU cache keyed by
// location. Repeated evaluations within the TTL reuse the provider's last
// answer instead of burning API quota.
type CachedSource struct {
	inner domain.SnowSource
	ttl   time.Duration
	cache *lruCache
	clock clockwork.Clock
}

// NewCachedSource creates a cache decorator around a snow source.
func NewCachedSource(inner domain.SnowSource, ttl time.Duration, maxEntries int) *CachedSource {
	return &CachedSource{
		inner: inner,
		ttl:   ttl,
		cache: newLRUCache(maxEntries),
		clock: clockwork.NewRealClock(),
	}
}

// Name implements domain.SnowSource, passing through the inner provider's
// identifier so cached records stay attributed to their real origin.
func (c *CachedSource) Name() string { return c.inner.Name() }

// FetchSnow returns the cached record for loc when fresh, otherwise fetches
// from the inner source. Errors are never cached.
func (c *CachedSource) FetchSnow(ctx context.Context, loc domain.Location) (domain.SnowRecord, error) {
	now := c.clock.Now()
	if rec, ok := c.cache.get(loc.ID, now); ok {
		return rec, nil
	}
	rec, err := c.inner.FetchSnow(ctx, loc)
	if err != nil {
		return rec, err
	}
	c.cache.put(loc.ID, rec, now.Add(c.ttl))
	return rec, nil
}

// lruCache is a thread-safe LRU cache of snow records with per-entry expiry.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key       string
	value     domain.SnowRecord
	expiresAt time.Time
	prev      *entry
	next      *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string, now time.Time) (domain.SnowRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.SnowRecord{}, false
	}
	if !now.Before(e.expiresAt) {
		delete(c.entries, key)
		c.remove(e)
		return domain.SnowRecord{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.SnowRecord, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expiresAt: expiresAt}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
