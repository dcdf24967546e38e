package client

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// keySep never appears in a key segment built by this package.
const keySep = "\x1f"

type cacheEntry struct {
	key       []string
	value     any
	fetchedAt time.Time
}

// QueryCache holds query results under hierarchical keys. Concurrent fetches
// of one key share a single call, and Invalidate drops every entry under a
// key prefix.
type QueryCache struct {
	mu        sync.Mutex
	entries   map[string]cacheEntry
	gen       uint64
	group     singleflight.Group
	staleTime time.Duration
	now       func() time.Time
}

// NewQueryCache creates a cache. A zero staleTime keeps entries until they
// are invalidated.
func NewQueryCache(staleTime time.Duration) *QueryCache {
	return &QueryCache{
		entries:   make(map[string]cacheEntry),
		staleTime: staleTime,
		now:       time.Now,
	}
}

// Get returns the fresh value cached under key.
func (c *QueryCache) Get(key []string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookup(encodeKey(key))
}

func (c *QueryCache) lookup(k string) (any, bool) {
	e, ok := c.entries[k]
	if !ok {
		return nil, false
	}
	if c.staleTime > 0 && c.now().Sub(e.fetchedAt) > c.staleTime {
		delete(c.entries, k)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key.
func (c *QueryCache) Set(key []string, value any) {
	c.mu.Lock()
	c.entries[encodeKey(key)] = cacheEntry{key: cloneKey(key), value: value, fetchedAt: c.now()}
	c.mu.Unlock()
}

// Fetch returns the value cached under key, or runs fn and caches its result.
// Callers asking for the same key while fn runs wait for that call. Errors
// are not cached. A result that lands after an Invalidate is returned to its
// callers but not stored.
func (c *QueryCache) Fetch(ctx context.Context, key []string, fn func(context.Context) (any, error)) (any, error) {
	k := encodeKey(key)

	c.mu.Lock()
	if v, ok := c.lookup(k); ok {
		c.mu.Unlock()
		return v, nil
	}
	gen := c.gen
	c.mu.Unlock()

	ch := c.group.DoChan(strconv.FormatUint(gen, 10)+keySep+k, func() (any, error) {
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.entries[k] = cacheEntry{key: cloneKey(key), value: v, fetchedAt: c.now()}
		}
		c.mu.Unlock()
		return v, nil
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops every entry whose key starts with prefix. An empty prefix
// drops everything.
func (c *QueryCache) Invalidate(prefix []string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	n := 0
	for k, e := range c.entries {
		if hasPrefix(e.key, prefix) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Clear drops every entry.
func (c *QueryCache) Clear() {
	c.Invalidate(nil)
}

// Len returns the number of stored entries, fresh or not.
func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func hasPrefix(key, prefix []string) bool {
	if len(prefix) > len(key) {
		return false
	}
	for i, p := range prefix {
		if key[i] != p {
			return false
		}
	}
	return true
}

func encodeKey(key []string) string {
	return strings.Join(key, keySep)
}

func cloneKey(key []string) []string {
	return append([]string(nil), key...)
}

// fetchAs is Fetch with a typed result.
func fetchAs[T any](ctx context.Context, c *QueryCache, key []string, fn func(context.Context) (T, error)) (T, error) {
	v, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
