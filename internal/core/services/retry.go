package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/docledger/internal/core/domain"
	"github.com/custodia-labs/docledger/internal/core/ports/driven"
)

// Retry defaults for transient storage failures.
const (
	DefaultRetryAttempts = 3
	DefaultRetryBackoff  = 50 * time.Millisecond
	DefaultLockTTL       = 30 * time.Second
	DefaultLockWait      = 5 * time.Second
)

// retrier reruns an operation while it fails with domain.ErrTransient.
type retrier struct {
	attempts int
	backoff  time.Duration
	logger   *slog.Logger
}

func (r retrier) do(ctx context.Context, op string, fn func() error) error {
	var err error
	delay := r.backoff
	for attempt := 1; attempt <= r.attempts; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, domain.ErrTransient) {
			return err
		}
		if attempt == r.attempts {
			break
		}

		r.logger.Warn("transient failure, retrying",
			"op", op, "attempt", attempt, "backoff", delay, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, r.attempts, err)
}

// documentLocker serializes mutations of one document across API instances.
type documentLocker struct {
	lock   driven.DistributedLock
	ttl    time.Duration
	wait   time.Duration
	logger *slog.Logger
}

func documentLockName(id string) string {
	return "document:" + id
}

// with runs fn while holding the document's lock. Without a lock backend fn
// runs directly; row locks in the store still serialize writers.
func (l documentLocker) with(ctx context.Context, id string, fn func() error) error {
	if l.lock == nil {
		return fn()
	}

	name := documentLockName(id)
	deadline := time.Now().Add(l.wait)
	poll := 10 * time.Millisecond
	for {
		acquired, err := l.lock.Acquire(ctx, name, l.ttl)
		if err != nil {
			return fmt.Errorf("acquire %s: %v: %w", name, err, domain.ErrTransient)
		}
		if acquired {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("document %s is busy: %w", id, domain.ErrTransient)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(poll):
		}
		if poll < 200*time.Millisecond {
			poll *= 2
		}
	}

	stop := l.keepAlive(ctx, name)
	defer func() {
		stop()
		if err := l.lock.Release(context.WithoutCancel(ctx), name); err != nil {
			l.logger.Warn("failed to release document lock", "lock", name, "error", err)
		}
	}()
	return fn()
}

// keepAlive extends the lock every ttl/2 until the returned stop is called,
// so slow transactions do not outlive their lock.
func (l documentLocker) keepAlive(ctx context.Context, name string) (stop func()) {
	if l.ttl <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		ticker := time.NewTicker(l.ttl / 2)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := l.lock.Extend(ctx, name, l.ttl); err != nil {
					l.logger.Warn("failed to extend document lock", "lock", name, "error", err)
					return
				}
			}
		}
	}()
	return func() {
		close(done)
		<-exited
	}
}
