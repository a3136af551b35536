package cache

import (
	"context"
	"encoding/json"
	"time"
)

// TypedCache stores JSON-encoded values of type T in a Cacher.
type TypedCache[T any] struct {
	cache Cacher
	ttl   time.Duration
}

// NewTypedCache wraps cache. A zero ttl uses the backend default.
func NewTypedCache[T any](cache Cacher, ttl time.Duration) *TypedCache[T] {
	return &TypedCache[T]{cache: cache, ttl: ttl}
}

// Get returns the cached value and true, or nil and false on a miss or a
// value that no longer decodes.
func (c *TypedCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, false
	}
	return &value, true
}

// Set stores value under key.
func (c *TypedCache[T]) Set(ctx context.Context, key string, value *T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.cache.Set(ctx, key, data, c.ttl)
}

// Delete removes a key from the cache.
func (c *TypedCache[T]) Delete(ctx context.Context, key string) error {
	return c.cache.Delete(ctx, key)
}

// GetOrSet returns the cached value, or computes it with fn and stores it.
// Cache write failures are ignored; the computed value is still returned.
func (c *TypedCache[T]) GetOrSet(ctx context.Context, key string, fn func(context.Context) (*T, error)) (*T, error) {
	if value, ok := c.Get(ctx, key); ok {
		return value, nil
	}
	value, err := fn(ctx)
	if err != nil {
		return nil, err
	}
	_ = c.Set(ctx, key, value)
	return value, nil
}
