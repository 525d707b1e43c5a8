package driven

import (
	"context"
	"time"

	"github.com/pantrylab/pantry-core/internal/core/domain"
)

// QueryLogStore persists search query logs (MongoDB). Rows are append-only.
type QueryLogStore interface {
	// Append records a search
	Append(ctx context.Context, log *domain.SearchQueryLog) error

	// ListSince returns the user's logs for kind created at or after since
	ListSince(ctx context.Context, userID string, kind domain.EntityKind, since time.Time) ([]*domain.SearchQueryLog, error)

	// DeleteBefore purges logs older than before and returns the number removed
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}
