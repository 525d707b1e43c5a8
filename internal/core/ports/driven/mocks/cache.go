package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/pantrylab/pantry-core/internal/core/ports/driven"
)

// Ensure MockCache implements Cache
var _ driven.Cache = (*MockCache)(nil)

// MockCache is an in-memory Cache with TTL tracking and error injection.
type MockCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time

	// Custom behavior hooks (optional)
	GetErr error
	SetErr error

	gets int
	sets int
}

type cacheEntry struct {
	value  string
	expiry time.Time // zero means no expiry
}

// NewMockCache creates a new MockCache
func NewMockCache() *MockCache {
	return &MockCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (m *MockCache) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.GetErr != nil {
		return "", false, m.GetErr
	}
	entry, ok := m.entries[key]
	if !ok {
		return "", false, nil
	}
	if !entry.expiry.IsZero() && m.now().After(entry.expiry) {
		delete(m.entries, key)
		return "", false, nil
	}
	return entry.value, true, nil
}

func (m *MockCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.SetErr != nil {
		return m.SetErr
	}
	entry := cacheEntry{value: value}
	if ttl > 0 {
		entry.expiry = m.now().Add(ttl)
	}
	m.entries[key] = entry
	return nil
}

func (m *MockCache) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *MockCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return nil
	}
	entry.expiry = m.now().Add(ttl)
	m.entries[key] = entry
	return nil
}

func (m *MockCache) Ping(ctx context.Context) error {
	return nil
}

// Helper methods for testing

// Peek returns a stored value without counting a lookup.
func (m *MockCache) Peek(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[key]
	return entry.value, ok
}

// TTL returns the remaining lifetime of key, or 0 when absent or unbounded.
func (m *MockCache) TTL(key string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[key]
	if !ok || entry.expiry.IsZero() {
		return 0
	}
	return entry.expiry.Sub(m.now())
}

func (m *MockCache) Gets() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gets
}

func (m *MockCache) Sets() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sets
}

func (m *MockCache) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MockCache) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]cacheEntry)
	m.gets, m.sets = 0, 0
	m.GetErr, m.SetErr = nil, nil
}
