package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestLock_OwnerIDUnique(t *testing.T) {
	client, _ := setupTestRedis(t)

	lock1 := NewLock(client)
	lock2 := NewLock(client)
	assert.NotEmpty(t, lock1.OwnerID())
	assert.NotEqual(t, lock1.OwnerID(), lock2.OwnerID())
}

func TestLock_AcquireExcludesOtherInstances(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	lock1 := NewLock(client)
	lock2 := NewLock(client)

	ok, err := lock1.Acquire(ctx, "document:doc-1", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, lock1.OwnerID(), mustGet(t, mr, lockPrefix+"document:doc-1"))

	ok, err = lock2.Acquire(ctx, "document:doc-1", 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	// Not reentrant.
	ok, err = lock1.Acquire(ctx, "document:doc-1", 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = lock2.Acquire(ctx, "document:doc-2", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLock_DefaultTTL(t *testing.T) {
	client, mr := setupTestRedis(t)

	lock := NewLock(client)
	ok, err := lock.Acquire(context.Background(), "document:doc-1", 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, DefaultLockTTL, mr.TTL(lockPrefix+"document:doc-1"))
}

func TestLock_ExpiryFreesTheLock(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	lock1 := NewLock(client)
	lock2 := NewLock(client)

	ok, err := lock1.Acquire(ctx, "document:doc-1", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	ok, err = lock2.Acquire(ctx, "document:doc-1", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	// The expired holder must not drop the new owner's lock.
	require.NoError(t, lock1.Release(ctx, "document:doc-1"))
	assert.Equal(t, lock2.OwnerID(), mustGet(t, mr, lockPrefix+"document:doc-1"))
}

func TestLock_Release(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()

	lock1 := NewLock(client)
	lock2 := NewLock(client)

	require.NoError(t, lock1.Release(ctx, "document:doc-1"), "releasing an unheld lock is a no-op")

	ok, err := lock1.Acquire(ctx, "document:doc-1", 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, lock2.Release(ctx, "document:doc-1"))
	ok, err = lock2.Acquire(ctx, "document:doc-1", 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "foreign release must not free the lock")

	require.NoError(t, lock1.Release(ctx, "document:doc-1"))
	ok, err = lock2.Acquire(ctx, "document:doc-1", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLock_Extend(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	lock1 := NewLock(client)
	lock2 := NewLock(client)

	assert.Error(t, lock1.Extend(ctx, "document:doc-1", 10*time.Second))

	ok, err := lock1.Acquire(ctx, "document:doc-1", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, lock1.Extend(ctx, "document:doc-1", 10*time.Second))
	assert.Equal(t, 10*time.Second, mr.TTL(lockPrefix+"document:doc-1"))

	assert.Error(t, lock2.Extend(ctx, "document:doc-1", 20*time.Second))
}

func TestLock_Ping(t *testing.T) {
	client, mr := setupTestRedis(t)

	lock := NewLock(client)
	assert.NoError(t, lock.Ping(context.Background()))

	mr.Close()
	assert.Error(t, lock.Ping(context.Background()))
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}
