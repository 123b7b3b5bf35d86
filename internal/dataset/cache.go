package dataset

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// LoadFunc produces a fresh snapshot.
type LoadFunc func(ctx context.Context) (*Table, error)

// Cache holds a single snapshot for a fixed TTL.
//
// Failed loads are never stored. Concurrent misses share one load.
type Cache struct {
	ttl      time.Duration
	clock    Clock
	recorder Recorder

	mu        sync.Mutex
	value     *Table
	expiresAt time.Time

	group singleflight.Group
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithClock replaces the wall clock.
func WithClock(clock Clock) CacheOption {
	return func(c *Cache) { c.clock = clock }
}

// WithCacheRecorder reports hits and misses to r.
func WithCacheRecorder(r Recorder) CacheOption {
	return func(c *Cache) { c.recorder = r }
}

// NewCache creates a cache whose entries live for ttl.
func NewCache(ttl time.Duration, opts ...CacheOption) *Cache {
	c := &Cache{
		ttl:   ttl,
		clock: ClockFunc(time.Now),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached snapshot while it is fresh, otherwise calls load.
func (c *Cache) Get(ctx context.Context, load LoadFunc) (*Table, error) {
	if t, ok := c.peek(); ok {
		if c.recorder != nil {
			c.recorder.RecordCacheHit(ctx)
		}
		return t, nil
	}
	if c.recorder != nil {
		c.recorder.RecordCacheMiss(ctx)
	}

	// The shared load outlives any single caller that gives up.
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("snapshot", func() (interface{}, error) {
		if t, ok := c.peek(); ok {
			return t, nil
		}
		t, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.value = t
		c.expiresAt = c.clock.Now().Add(c.ttl)
		c.mu.Unlock()
		return t, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Table), nil
	}
}

// Peek returns the cached snapshot without loading, fresh or not.
func (c *Cache) Peek() (*Table, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.expiresAt, c.value != nil
}

// Invalidate drops the cached snapshot.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.value = nil
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}

// TTL returns the configured lifetime.
func (c *Cache) TTL() time.Duration { return c.ttl }

func (c *Cache) peek() (*Table, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.value != nil && c.clock.Now().Before(c.expiresAt) {
		return c.value, true
	}
	return nil, false
}
