package mocks

import (
	"context"
	"sync"

	"github.com/pantrylab/pantry-core/internal/core/domain"
	"github.com/pantrylab/pantry-core/internal/core/ports/driven"
)

// Ensure MockRecipeProvider implements RecipeProvider
var _ driven.RecipeProvider = (*MockRecipeProvider)(nil)

// MockRecipeProvider is a scripted RecipeProvider.
type MockRecipeProvider struct {
	mu      sync.Mutex
	name    string
	results []domain.RatedEntity
	details map[string]*domain.DetailedEntity

	// Custom behavior hooks (optional)
	GetEntitiesFn func(ingredients []string, entityType string) ([]domain.RatedEntity, error)
	DetailsErr    error

	searches     int
	detailProbes int
}

// NewMockRecipeProvider creates a provider that returns results for every search
func NewMockRecipeProvider(name string, results ...domain.RatedEntity) *MockRecipeProvider {
	for i := range results {
		results[i].Provider = name
	}
	return &MockRecipeProvider{
		name:    name,
		results: results,
		details: make(map[string]*domain.DetailedEntity),
	}
}

func (m *MockRecipeProvider) Name() string {
	return m.name
}

func (m *MockRecipeProvider) GetEntities(ctx context.Context, ingredients []string, entityType string) ([]domain.RatedEntity, error) {
	m.mu.Lock()
	m.searches++
	fn := m.GetEntitiesFn
	results := append([]domain.RatedEntity(nil), m.results...)
	m.mu.Unlock()

	if fn != nil {
		return fn(ingredients, entityType)
	}
	return results, nil
}

func (m *MockRecipeProvider) GetEntityDetails(ctx context.Context, id string) (*domain.DetailedEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detailProbes++
	if m.DetailsErr != nil {
		return nil, m.DetailsErr
	}
	d, ok := m.details[id]
	if !ok {
		return nil, nil
	}
	c := *d
	return &c, nil
}

// Helper methods for testing

// AddDetails registers a detail record served for its ID.
func (m *MockRecipeProvider) AddDetails(d *domain.DetailedEntity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.Provider = m.name
	m.details[d.ID] = d
}

func (m *MockRecipeProvider) Searches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searches
}

func (m *MockRecipeProvider) DetailProbes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detailProbes
}
