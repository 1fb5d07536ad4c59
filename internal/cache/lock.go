package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"guildlink/internal/middleware"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockTimeout is returned when a lock could not be acquired before the wait expired.
var ErrLockTimeout = errors.New("identity lock: timed out waiting for lock")

const lockRetryInterval = 50 * time.Millisecond

// releaseScript deletes the lock only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serializes work per member id across service instances.
type RedisLocker struct {
	rdb  *redis.Client
	ttl  time.Duration
	wait time.Duration
}

// NewRedisLocker returns a locker whose keys expire after ttl. Lock waits at most wait.
func NewRedisLocker(rdb *redis.Client, ttl, wait time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = IdentityLockTTL
	}
	if wait <= 0 {
		wait = ttl
	}
	return &RedisLocker{rdb: rdb, ttl: ttl, wait: wait}
}

// Lock acquires the lock for vid and returns its release function.
func (l *RedisLocker) Lock(ctx context.Context, vid int64) (func(), error) {
	key := IdentityLockKey(vid)
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, ErrLockTimeout
			}
			return nil, err
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrLockTimeout
			}
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.rdb, []string{key}, token).Err(); err != nil {
			middleware.Logger.Warn("failed to release identity lock",
				slog.Int64("vid", vid),
				slog.String("error", err.Error()),
			)
		}
	}, nil
}

// LocalLocker serializes work per member id inside one process.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[int64]*localSlot
}

type localSlot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[int64]*localSlot)}
}

// Lock blocks until the lock for vid is free or ctx is done.
func (l *LocalLocker) Lock(ctx context.Context, vid int64) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[vid]
	if !ok {
		slot = &localSlot{ch: make(chan struct{}, 1)}
		l.slots[vid] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		l.drop(vid, slot)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.ch
			l.drop(vid, slot)
		})
	}, nil
}

func (l *LocalLocker) drop(vid int64, slot *localSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, vid)
	}
}
