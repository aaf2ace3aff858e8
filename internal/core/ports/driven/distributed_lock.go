package driven

import (
	"context"
	"time"
)

// DistributedLock guards a named resource across API instances.
// The lifecycle service holds "document:<id>" for the whole of a mutation,
// extending it while a slow transaction is still running.
type DistributedLock interface {
	// Acquire takes name for ttl. It returns false without error when another
	// owner holds it; callers poll.
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)

	// Release drops name if this owner holds it. Releasing an expired or
	// foreign lock is a no-op.
	Release(ctx context.Context, name string) error

	// Extend resets the expiry of a lock this owner holds. It fails when the
	// lock was lost.
	Extend(ctx context.Context, name string, ttl time.Duration) error

	// Ping reports backend reachability for readiness checks.
	Ping(ctx context.Context) error
}
