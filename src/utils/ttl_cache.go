package utils

import (
	"sync"
	"time"

	"crypto-advisor/src/metrics"
)

// -----------------------------------------------------------------------------
// TTLCache is a mutex-guarded key/value store whose entries expire. Expired
// entries are never returned and are purged by a background sweep every
// checkPeriod.
// -----------------------------------------------------------------------------

type TTLCache[V any] struct {
	name        string
	defaultTTL  time.Duration
	checkPeriod time.Duration
	now         func() time.Time

	mu     sync.RWMutex
	items  map[string]ttlEntry[V]
	hits   int64
	misses int64

	stop     chan struct{}
	stopOnce sync.Once
}

type ttlEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// CacheStats mirrors the counters exposed by the readiness and stats routes.
type CacheStats struct {
	Keys   int   `json:"keys"`
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// CacheOption customises a TTLCache at construction.
type CacheOption func(*cacheOptions)

type cacheOptions struct {
	now func() time.Time
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(o *cacheOptions) { o.now = now }
}

// -----------------------------------------------------------------------------

// NewTTLCache creates a cache and starts its sweeper when checkPeriod > 0.
func NewTTLCache[V any](name string, defaultTTL, checkPeriod time.Duration, opts ...CacheOption) *TTLCache[V] {
	o := cacheOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	c := &TTLCache[V]{
		name:        name,
		defaultTTL:  defaultTTL,
		checkPeriod: checkPeriod,
		now:         o.now,
		items:       make(map[string]ttlEntry[V]),
		stop:        make(chan struct{}),
	}

	if checkPeriod > 0 {
		go c.sweepLoop()
	}
	return c
}

// -----------------------------------------------------------------------------

func (c *TTLCache[V]) Name() string {
	return c.name
}

// -----------------------------------------------------------------------------

// Get returns the live value for key.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if ok && !c.now().Before(e.expiresAt) {
		delete(c.items, key)
		ok = false
	}

	if !ok {
		c.misses++
		metrics.CacheLookups.WithLabelValues(c.name, "miss").Inc()
		var zero V
		return zero, false
	}

	c.hits++
	metrics.CacheLookups.WithLabelValues(c.name, "hit").Inc()
	return e.value, true
}

// -----------------------------------------------------------------------------

// Set stores value under key. A non-positive ttl uses the cache default.
func (c *TTLCache[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	c.items[key] = ttlEntry[V]{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

// -----------------------------------------------------------------------------

// Clear drops every entry. Hit and miss counters are kept.
func (c *TTLCache[V]) Clear() {
	c.mu.Lock()
	c.items = make(map[string]ttlEntry[V])
	c.mu.Unlock()
}

// -----------------------------------------------------------------------------

// Len counts live entries.
func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	n := 0
	for _, e := range c.items {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}

// -----------------------------------------------------------------------------

func (c *TTLCache[V]) Stats() CacheStats {
	keys := c.Len()

	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{Keys: keys, Hits: c.hits, Misses: c.misses}
}

// -----------------------------------------------------------------------------

// Sweep purges expired entries and returns how many were removed.
func (c *TTLCache[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, e := range c.items {
		if !now.Before(e.expiresAt) {
			delete(c.items, k)
			removed++
		}
	}
	return removed
}

// -----------------------------------------------------------------------------

// Close stops the sweeper. Safe to call more than once.
func (c *TTLCache[V]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// -----------------------------------------------------------------------------

func (c *TTLCache[V]) sweepLoop() {
	ticker := time.NewTicker(c.checkPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Sweep()
		case <-c.stop:
			return
		}
	}
}
