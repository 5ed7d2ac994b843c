package content

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	DefaultTTL      = 10 * time.Minute
	cleanupInterval = time.Minute
)

// Cache holds the items of one content domain for the active identity.
type Cache[T any] struct {
	name string
	c    *gocache.Cache
}

func NewCache[T any](name string, ttl time.Duration) *Cache[T] {
	return &Cache[T]{name: name, c: gocache.New(ttl, cleanupInterval)}
}

func (c *Cache[T]) Name() string { return c.name }

func (c *Cache[T]) Put(key string, v T) { c.c.SetDefault(key, v) }

func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T
	v, ok := c.c.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

func (c *Cache[T]) Delete(key string) { c.c.Delete(key) }

// Items returns the unexpired entries keyed as stored.
func (c *Cache[T]) Items() map[string]T {
	raw := c.c.Items()
	out := make(map[string]T, len(raw))
	for k, item := range raw {
		if t, ok := item.Object.(T); ok {
			out[k] = t
		}
	}
	return out
}

func (c *Cache[T]) Len() int { return c.c.ItemCount() }

// Reset drops every entry. Resetting an empty cache is a no-op.
func (c *Cache[T]) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.c.Flush()
	return nil
}
