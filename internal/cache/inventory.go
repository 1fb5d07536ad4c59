package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	RoleCatalogKey      = "roles:catalog"
	IdentityLockPrefix  = "lock:identity:%d"
	AuditChannelPrefix  = "audit:vid:%d"
	AuditBroadcastTopic = "audit:events"
)

const (
	RoleCatalogTTL  = 10 * time.Minute
	IdentityLockTTL = 30 * time.Second
)

func IdentityLockKey(vid int64) string {
	return fmt.Sprintf(IdentityLockPrefix, vid)
}

func AuditChannel(vid int64) string {
	return fmt.Sprintf(AuditChannelPrefix, vid)
}

// Invalidate deletes key when a client is available.
func Invalidate(ctx context.Context, rdb *redis.Client, key string) {
	if rdb != nil {
		rdb.Del(ctx, key)
	}
}

func InvalidateRoleCatalog(ctx context.Context, rdb *redis.Client) {
	Invalidate(ctx, rdb, RoleCatalogKey)
}
