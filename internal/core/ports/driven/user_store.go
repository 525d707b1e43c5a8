package driven

import (
	"context"

	"github.com/pantrylab/pantry-core/internal/core/domain"
)

// UserStore handles user persistence (PostgreSQL)
type UserStore interface {
	// Save creates or updates a user
	Save(ctx context.Context, user *domain.User) error

	// Get retrieves a user by ID
	Get(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByLogin retrieves a user by login name
	GetByLogin(ctx context.Context, login string) (*domain.User, error)

	// List retrieves all users ordered by login
	List(ctx context.Context) ([]*domain.User, error)

	// Count returns the number of users
	Count(ctx context.Context) (int, error)

	// Delete deletes a user
	Delete(ctx context.Context, id string) error

	// UpdateLastLogin updates the last login timestamp
	UpdateLastLogin(ctx context.Context, id string) error
}
