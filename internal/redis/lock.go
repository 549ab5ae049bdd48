package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis. In-process callers are
// already serialized per station; the Redis lock additionally guards a
// bike against concurrent claims from other instances.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireBikeLock attempts to acquire a lock for the given bike.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquireBikeLock(ctx context.Context, bikeID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:bike:%s", bikeID)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseBikeLock releases the lock for the given bike.
func (s *LockStore) ReleaseBikeLock(ctx context.Context, bikeID string) error {
	key := fmt.Sprintf("lock:bike:%s", bikeID)

	return s.client.Del(ctx, key).Err()
}
