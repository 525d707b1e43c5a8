package driven

import (
	"context"
	"time"
)

// Cache is a string key-value store with per-key TTLs (Redis).
// Keys are colon-delimited, e.g. "merged:dish:carrot,tomato|type=" or "dish:<id>".
type Cache interface {
	// Get returns the value stored under key. found is false on a miss.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set stores value under key. A zero ttl stores without expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Del removes keys. Missing keys are ignored.
	Del(ctx context.Context, keys ...string) error

	// Expire resets the TTL of an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Ping checks if the cache backend is healthy.
	Ping(ctx context.Context) error
}
