package cache

import (
	"context"
	"time"
)

// NullCache stands in for the result cache when caching is off. Reason says
// why, so that serve and estimate can log it instead of silently recomputing.
type NullCache struct {
	Reason string
}

// NewNullCache creates a null cache for a runner built without one.
func NewNullCache() Cache {
	return Disabled("no cache configured")
}

// Disabled creates a null cache that reports reason, e.g. "--no-cache".
func Disabled(reason string) Cache {
	return &NullCache{Reason: reason}
}

// DisabledReason returns why c does not cache, or "" if it is a real cache.
func DisabledReason(c Cache) string {
	if n, ok := c.(*NullCache); ok {
		if n.Reason == "" {
			return "disabled"
		}
		return n.Reason
	}
	return ""
}

// Get always returns a cache miss.
func (c *NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set discards data.
func (c *NullCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

// Delete does nothing.
func (c *NullCache) Delete(ctx context.Context, key string) error {
	return nil
}

// Close does nothing.
func (c *NullCache) Close() error {
	return nil
}

var _ Cache = (*NullCache)(nil)
