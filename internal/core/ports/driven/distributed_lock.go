package driven

import (
	"context"
	"time"
)

// DistributedLock coordinates background jobs across instances so that
// only one instance runs a job cycle at a time.
type DistributedLock interface {
	// Acquire attempts to take the named lock for ttl.
	// Returns false without error when another instance holds it.
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release gives the lock up. Safe to call when the lock has already expired.
	Release(ctx context.Context, name string) error

	// Ping checks if the lock backend is healthy.
	Ping(ctx context.Context) error
}
