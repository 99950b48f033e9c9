package storage

import (
	"context"
	"fmt"
	"time"

	"ChatRelay/logger"

	"github.com/redis/go-redis/v9"
)

// ActiveIndex mirrors the worker-local connection count per account into
// Redis so operators (and future nodes) can see cluster-wide presence.
// The authoritative state stays in each worker's ConnManager; this index
// is best-effort and swept clean on node boot, exactly like the
// active-clients cache of the previous generation of this service.
type ActiveIndex struct {
	rdb    *redis.Client
	nodeID string
	ttl    time.Duration
}

func NewActiveIndex(rdb *redis.Client, nodeID string) *ActiveIndex {
	return &ActiveIndex{rdb: rdb, nodeID: nodeID, ttl: 2 * time.Hour}
}

func (a *ActiveIndex) key(user string) string {
	return fmt.Sprintf("active-clients-%s-%s", a.nodeID, user)
}

// Cleanup removes every stale active-clients entry this node left behind
// before it last went down. Run once before accepting connections.
func (a *ActiveIndex) Cleanup(ctx context.Context) error {
	pattern := fmt.Sprintf("active-clients-%s-*", a.nodeID)
	var cursor uint64
	for {
		keys, next, err := a.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := a.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			logger.Debugf("[ActiveIndex] cleaned %d stale entries", len(keys))
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Incr bumps the cluster-visible connection count for an account.
func (a *ActiveIndex) Incr(ctx context.Context, user string) {
	key := a.key(user)
	if err := a.rdb.Incr(ctx, key).Err(); err != nil {
		logger.Warnf("[ActiveIndex] incr %s: %v", key, err)
		return
	}
	_ = a.rdb.Expire(ctx, key, a.ttl).Err()
}

// Decr lowers the count, deleting the key when the last connection goes.
func (a *ActiveIndex) Decr(ctx context.Context, user string) {
	key := a.key(user)
	n, err := a.rdb.Decr(ctx, key).Result()
	if err != nil {
		logger.Warnf("[ActiveIndex] decr %s: %v", key, err)
		return
	}
	if n <= 0 {
		_ = a.rdb.Del(ctx, key).Err()
	}
}
