package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/pantrylab/pantry-core/internal/core/domain"
	"github.com/pantrylab/pantry-core/internal/core/ports/driven"
)

// Ensure MockQueryLogStore implements QueryLogStore
var _ driven.QueryLogStore = (*MockQueryLogStore)(nil)

// MockQueryLogStore is an in-memory QueryLogStore
type MockQueryLogStore struct {
	mu   sync.RWMutex
	logs []*domain.SearchQueryLog

	ListErr error
}

// NewMockQueryLogStore creates a new MockQueryLogStore
func NewMockQueryLogStore() *MockQueryLogStore {
	return &MockQueryLogStore{}
}

func (m *MockQueryLogStore) Append(ctx context.Context, log *domain.SearchQueryLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *log
	m.logs = append(m.logs, &c)
	return nil
}

func (m *MockQueryLogStore) ListSince(ctx context.Context, userID string, kind domain.EntityKind, since time.Time) ([]*domain.SearchQueryLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var result []*domain.SearchQueryLog
	for _, l := range m.logs {
		if l.UserID == userID && l.Kind == kind && !l.CreatedAt.Before(since) {
			result = append(result, l)
		}
	}
	return result, nil
}

func (m *MockQueryLogStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.logs[:0]
	var removed int64
	for _, l := range m.logs {
		if l.CreatedAt.Before(before) {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	m.logs = kept
	return removed, nil
}

// Helper methods for testing

func (m *MockQueryLogStore) All() []*domain.SearchQueryLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.SearchQueryLog(nil), m.logs...)
}

func (m *MockQueryLogStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.logs)
}
