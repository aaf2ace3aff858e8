package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/custodia-labs/docledger/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*AdvisoryLock)(nil)

// AdvisoryLock implements DistributedLock using PostgreSQL session advisory locks.
//
// Advisory locks belong to a connection, so each held lock pins one pooled
// connection until Release while the work under the lock needs another. With
// a bounded pool at most half of MaxOpenConns locks are held at once; further
// acquires report busy instead of starving transactions. TTL is ignored: the
// lock lives until released or until the connection drops. Redis locks are
// preferred when available.
type AdvisoryLock struct {
	db    *DB
	slots *semaphore.Weighted // nil when the pool is unbounded

	mu    sync.Mutex
	conns map[string]*sql.Conn
}

// NewAdvisoryLock creates a new PostgreSQL advisory lock adapter. Call it
// after the pool limits are set.
func NewAdvisoryLock(db *DB) *AdvisoryLock {
	l := &AdvisoryLock{db: db, conns: make(map[string]*sql.Conn)}
	if maxOpen := db.Stats().MaxOpenConnections; maxOpen > 0 {
		l.slots = semaphore.NewWeighted(int64(max(maxOpen/2, 1)))
	}
	return l
}

// hashLockName converts a string lock name to a 64-bit integer for PostgreSQL advisory locks.
// Uses FNV-1a hash for consistent, well-distributed values.
func hashLockName(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte("docledger:lock:" + name))
	return int64(h.Sum64())
}

// Acquire attempts to acquire a named advisory lock without blocking.
func (l *AdvisoryLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, held := l.conns[name]; held {
		return false, nil
	}
	if l.slots != nil && !l.slots.TryAcquire(1) {
		return false, nil
	}

	acquired, conn, err := l.tryLock(ctx, name)
	if !acquired {
		if l.slots != nil {
			l.slots.Release(1)
		}
		return false, err
	}
	l.conns[name] = conn
	return true, nil
}

func (l *AdvisoryLock) tryLock(ctx context.Context, name string) (bool, *sql.Conn, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, nil, mapError(err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", hashLockName(name)).Scan(&acquired); err != nil {
		conn.Close()
		return false, nil, mapError(err)
	}
	if !acquired {
		conn.Close()
		return false, nil, nil
	}
	return true, conn, nil
}

// Release unlocks name on the connection that acquired it and returns the
// connection to the pool. Releasing a lock that is not held is a no-op.
func (l *AdvisoryLock) Release(ctx context.Context, name string) error {
	l.mu.Lock()
	conn, held := l.conns[name]
	delete(l.conns, name)
	l.mu.Unlock()

	if !held {
		return nil
	}
	defer func() {
		conn.Close()
		if l.slots != nil {
			l.slots.Release(1)
		}
	}()

	var released bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", hashLockName(name)).Scan(&released); err != nil {
		return fmt.Errorf("release %s: %w", name, mapError(err))
	}
	return nil
}

// Extend checks that the lock is still held. Advisory locks have no TTL.
func (l *AdvisoryLock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.conns[name]; !held {
		return fmt.Errorf("lock %s not held", name)
	}
	return nil
}

// Ping checks if the PostgreSQL backend is healthy.
func (l *AdvisoryLock) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}
