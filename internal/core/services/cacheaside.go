package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/pantrylab/pantry-core/internal/core/domain"
	"github.com/pantrylab/pantry-core/internal/core/ports/driven"
	"github.com/pantrylab/pantry-core/internal/metrics"
)

// Cache namespaces and default TTLs.
const (
	NamespaceMerged     = "merged"
	NamespaceGeneration = "generation"

	DefaultMergedTTL   = 12 * time.Hour
	DefaultSnapshotTTL = 24 * time.Hour
)

// MergedKey is the cache key of an aggregated search within one generation
// of the kind's merged namespace.
func MergedKey(kind domain.EntityKind, generation, canonicalQuery string) string {
	return NamespaceMerged + ":" + string(kind) + ":" + generation + ":" + canonicalQuery
}

// GenerationKey holds the current generation of a kind's merged namespace.
func GenerationKey(kind domain.EntityKind) string {
	return NamespaceGeneration + ":" + string(kind)
}

// initialGeneration is used until the first catalog change, and whenever
// the generation cannot be read.
const initialGeneration = "0"

// SnapshotKey is the cache key of an entity detail record.
func SnapshotKey(kind domain.EntityKind, id string) string {
	return string(kind) + ":" + id
}

// cacheAside wraps a Cache so that every failure degrades to a miss.
// The cache is never a hard dependency of a request.
type cacheAside struct {
	cache  driven.Cache
	logger *slog.Logger
}

func newCacheAside(cache driven.Cache, logger *slog.Logger) cacheAside {
	return cacheAside{cache: cache, logger: logger}
}

// get decodes the value under key into out and reports whether it did.
func (c cacheAside) get(ctx context.Context, key string, out any) bool {
	if c.cache == nil {
		return false
	}
	raw, found, err := c.cache.Get(ctx, key)
	metrics.RecordCacheLookup(namespaceOf(key), found, err)
	if err != nil {
		c.logger.Warn("cache read failed, treating as miss", "key", key, "error", err)
		return false
	}
	if !found {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		c.logger.Warn("cache entry undecodable, treating as miss", "key", key, "error", err)
		return false
	}
	return true
}

// set encodes v under key. Failures are logged and dropped.
func (c cacheAside) set(ctx context.Context, key string, v any, ttl time.Duration) {
	if c.cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.cache.Set(ctx, key, string(data), ttl); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// del evicts keys. Failures are logged and dropped.
func (c cacheAside) del(ctx context.Context, keys ...string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Del(ctx, keys...); err != nil {
		c.logger.Warn("cache evict failed", "keys", keys, "error", err)
	}
}

// generation returns the current generation of kind's merged namespace.
func (c cacheAside) generation(ctx context.Context, kind domain.EntityKind) string {
	if c.cache == nil {
		return initialGeneration
	}
	raw, found, err := c.cache.Get(ctx, GenerationKey(kind))
	metrics.RecordCacheLookup(NamespaceGeneration, found, err)
	if err != nil {
		c.logger.Warn("cache generation read failed", "kind", string(kind), "error", err)
		return initialGeneration
	}
	if !found || raw == "" {
		return initialGeneration
	}
	return raw
}

// bumpGeneration orphans every merged result of kind. Orphans expire with
// the merged TTL.
func (c cacheAside) bumpGeneration(ctx context.Context, kind domain.EntityKind) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, GenerationKey(kind), uuid.NewString(), 0); err != nil {
		c.logger.Warn("cache generation bump failed", "kind", string(kind), "error", err)
	}
}

func namespaceOf(key string) string {
	ns, _, _ := strings.Cut(key, ":")
	return ns
}
