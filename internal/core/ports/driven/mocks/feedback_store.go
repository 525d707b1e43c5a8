package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/pantrylab/pantry-core/internal/core/domain"
	"github.com/pantrylab/pantry-core/internal/core/ports/driven"
)

var (
	_ driven.CommentStore = (*MockCommentStore)(nil)
	_ driven.RatingStore  = (*MockRatingStore)(nil)
)

// MockCommentStore is an in-memory CommentStore
type MockCommentStore struct {
	mu       sync.RWMutex
	comments map[string]*domain.Comment
}

// NewMockCommentStore creates a new MockCommentStore
func NewMockCommentStore() *MockCommentStore {
	return &MockCommentStore{comments: make(map[string]*domain.Comment)}
}

func (m *MockCommentStore) Create(ctx context.Context, comment *domain.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *comment
	m.comments[comment.ID] = &c
	return nil
}

func (m *MockCommentStore) Get(ctx context.Context, id string) (*domain.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.comments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (m *MockCommentStore) ListByEntity(ctx context.Context, kind domain.EntityKind, entityID string, offset, limit int) ([]*domain.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []*domain.Comment
	for _, c := range m.comments {
		if c.Kind == kind && c.EntityID == entityID {
			matched = append(matched, c)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if offset >= len(matched) {
		return []*domain.Comment{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *MockCommentStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.comments[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.comments, id)
	return nil
}

func (m *MockCommentStore) DeleteByEntity(ctx context.Context, kind domain.EntityKind, entityID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, c := range m.comments {
		if c.Kind == kind && c.EntityID == entityID {
			delete(m.comments, id)
			n++
		}
	}
	return n, nil
}

func (m *MockCommentStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.comments)
}

// MockRatingStore is an in-memory RatingStore
type MockRatingStore struct {
	mu      sync.RWMutex
	ratings map[string]*domain.Rating

	// DeleteErr fails DeleteByEntity when set
	DeleteErr error
}

// NewMockRatingStore creates a new MockRatingStore
func NewMockRatingStore() *MockRatingStore {
	return &MockRatingStore{ratings: make(map[string]*domain.Rating)}
}

func (m *MockRatingStore) GetByUser(ctx context.Context, kind domain.EntityKind, entityID, userID string) (*domain.Rating, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.ratings {
		if r.Kind == kind && r.EntityID == entityID && r.UserID == userID {
			c := *r
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockRatingStore) Save(ctx context.Context, rating *domain.Rating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *rating
	m.ratings[rating.ID] = &c
	return nil
}

func (m *MockRatingStore) Values(ctx context.Context, kind domain.EntityKind, entityID string) ([]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var values []int
	for _, r := range m.ratings {
		if r.Kind == kind && r.EntityID == entityID {
			values = append(values, r.Value)
		}
	}
	return values, nil
}

func (m *MockRatingStore) DeleteByEntity(ctx context.Context, kind domain.EntityKind, entityID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return 0, m.DeleteErr
	}
	var n int64
	for id, r := range m.ratings {
		if r.Kind == kind && r.EntityID == entityID {
			delete(m.ratings, id)
			n++
		}
	}
	return n, nil
}

func (m *MockRatingStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ratings)
}
