package mocks

import (
	"context"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"github.com/pantrylab/pantry-core/internal/core/domain"
	"github.com/pantrylab/pantry-core/internal/core/ports/driven"
)

// Ensure MockEntityStore implements EntityStore
var _ driven.EntityStore = (*MockEntityStore)(nil)

// MockEntityStore is an in-memory EntityStore. IDs are 24-char hex strings
// like the MongoDB store issues.
type MockEntityStore struct {
	mu       sync.RWMutex
	kind     domain.EntityKind
	entities map[string]*domain.LocalEntity
	order    []string
	seq      int

	// Custom behavior hooks (optional)
	FindErr error
	GetErr  error

	finds int
}

// NewMockEntityStore creates a new MockEntityStore for kind
func NewMockEntityStore(kind domain.EntityKind) *MockEntityStore {
	return &MockEntityStore{
		kind:     kind,
		entities: make(map[string]*domain.LocalEntity),
	}
}

func (m *MockEntityStore) Kind() domain.EntityKind {
	return m.kind
}

func (m *MockEntityStore) IsValidID(id string) bool {
	if len(id) != 24 {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}

func (m *MockEntityStore) FindByIngredients(ctx context.Context, ingredients []string, entityType string) ([]*domain.LocalEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds++
	if m.FindErr != nil {
		return nil, m.FindErr
	}

	wanted := make(map[string]struct{}, len(ingredients))
	for _, ing := range ingredients {
		wanted[ing] = struct{}{}
	}

	var result []*domain.LocalEntity
	for _, id := range m.order {
		e := m.entities[id]
		if !e.PubliclyVisible() {
			continue
		}
		if entityType != "" && e.Type != entityType {
			continue
		}
		for _, ing := range e.Ingredients {
			if _, ok := wanted[ing.Name]; ok {
				result = append(result, clone(e))
				break
			}
		}
	}
	return result, nil
}

func (m *MockEntityStore) Get(ctx context.Context, id string) (*domain.LocalEntity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	e, ok := m.entities[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(e), nil
}

func (m *MockEntityStore) Create(ctx context.Context, entity *domain.LocalEntity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entity.ID == "" {
		m.seq++
		entity.ID = fmt.Sprintf("%024x", m.seq)
	}
	entity.Kind = m.kind
	m.entities[entity.ID] = clone(entity)
	m.order = append(m.order, entity.ID)
	return nil
}

func (m *MockEntityStore) Update(ctx context.Context, entity *domain.LocalEntity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entities[entity.ID]; !ok {
		return domain.ErrNotFound
	}
	m.entities[entity.ID] = clone(entity)
	return nil
}

func (m *MockEntityStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entities[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.entities, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MockEntityStore) ListByState(ctx context.Context, states ...domain.LifecycleState) ([]*domain.LocalEntity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.LocalEntity
	for _, id := range m.order {
		e := m.entities[id]
		for _, s := range states {
			if e.State == s {
				result = append(result, clone(e))
				break
			}
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockEntityStore) Ping(ctx context.Context) error {
	return nil
}

// Helper methods for testing

// Put stores entity as-is, bypassing lifecycle rules.
func (m *MockEntityStore) Put(entity *domain.LocalEntity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entity.Kind = m.kind
	if _, exists := m.entities[entity.ID]; !exists {
		m.order = append(m.order, entity.ID)
	}
	m.entities[entity.ID] = clone(entity)
}

func (m *MockEntityStore) Finds() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.finds
}

func (m *MockEntityStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entities)
}

func clone(e *domain.LocalEntity) *domain.LocalEntity {
	c := *e
	return &c
}
