package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisLocker_AcquireRelease(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	locker := NewRedisLocker(rdb, time.Second, 200*time.Millisecond)
	ctx := context.Background()

	release, err := locker.Lock(ctx, 42)
	require.NoError(t, err)
	assert.True(t, mr.Exists(IdentityLockKey(42)))

	_, err = locker.Lock(ctx, 42)
	assert.ErrorIs(t, err, ErrLockTimeout)

	// Other identities are independent.
	releaseOther, err := locker.Lock(ctx, 43)
	require.NoError(t, err)
	releaseOther()

	release()
	assert.False(t, mr.Exists(IdentityLockKey(42)))

	release, err = locker.Lock(ctx, 42)
	require.NoError(t, err)
	release()
}

func TestRedisLocker_ReleaseKeepsForeignLock(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	locker := NewRedisLocker(rdb, time.Second, 100*time.Millisecond)

	release, err := locker.Lock(context.Background(), 7)
	require.NoError(t, err)

	// Lock expired and was taken by another holder.
	require.NoError(t, mr.Set(IdentityLockKey(7), "someone-else"))
	release()

	got, err := mr.Get(IdentityLockKey(7))
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestLocalLocker_Serializes(t *testing.T) {
	locker := NewLocalLocker()

	var (
		inside  int32
		maxSeen int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Lock(context.Background(), 1)
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxSeen)
				if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen)
	assert.Empty(t, locker.slots)
}

func TestLocalLocker_ContextCancel(t *testing.T) {
	locker := NewLocalLocker()
	release, err := locker.Lock(context.Background(), 1)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewClient(t *testing.T) {
	_, err := NewClient("redis://:bad url")
	assert.Error(t, err)

	c, err := NewClient("localhost:6379")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", c.Options().Addr)
	_ = c.Close()
}

func TestInvalidateRoleCatalog(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	require.NoError(t, mr.Set(RoleCatalogKey, "[]"))

	InvalidateRoleCatalog(context.Background(), rdb)
	assert.False(t, mr.Exists(RoleCatalogKey))

	InvalidateRoleCatalog(context.Background(), nil)
}
