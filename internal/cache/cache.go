// Package cache provides read-mostly, process-local caches with explicit invalidation.
//
// Caches are coherent only within one process. Another process writing to the
// same database is not observed until this process invalidates or the entry
// expires.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader fetches the authoritative value for a cache.
type Loader[T any] func(ctx context.Context) (T, error)

// Cache holds a single lazily loaded value.
type Cache[T any] struct {
	expires time.Time
	value   T
	load    Loader[T]
	now     func() time.Time
	group   singleflight.Group
	name    string
	ttl     time.Duration
	mu      sync.RWMutex
	gen     uint64
	loaded  bool
}

// New creates a cache backed by load. A ttl of zero means entries never expire
// and only Invalidate forces a reload.
func New[T any](name string, ttl time.Duration, load Loader[T]) *Cache[T] {
	return &Cache[T]{
		name: name,
		ttl:  ttl,
		load: load,
		now:  time.Now,
	}
}

// Get returns the cached value, loading it if absent, invalidated, or expired.
// Concurrent misses share a single load.
func (c *Cache[T]) Get(ctx context.Context) (T, error) {
	if v, ok := c.fresh(); ok {
		return v, nil
	}

	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()

	v, err, _ := c.group.Do(c.name, func() (any, error) {
		if value, ok := c.fresh(); ok {
			return value, nil
		}

		value, loadErr := c.load(ctx)
		if loadErr != nil {
			return value, loadErr
		}

		c.mu.Lock()
		// A write that invalidated during the load wins; keep the value
		// unpublished so the next Get reloads.
		if c.gen == gen {
			c.value = value
			c.loaded = true
			c.expires = c.now().Add(c.ttl)
		}
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (c *Cache[T]) fresh() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.loaded && (c.ttl == 0 || c.now().Before(c.expires)) {
		return c.value, true
	}
	var zero T
	return zero, false
}

// Invalidate drops the cached value so the next Get reloads it.
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	c.value = zero
	c.loaded = false
	c.gen++
	c.group.Forget(c.name)
}
