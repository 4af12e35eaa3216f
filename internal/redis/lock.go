package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireCheckoutLock attempts to take the lock for one checkout intent,
// identified by (user, purchase type). Returns true if the lock was
// acquired, false if another request for the same intent is in flight.
func (s *LockStore) AcquireCheckoutLock(ctx context.Context, userID, purchaseType string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:checkout:%s:%s", userID, purchaseType)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// ReleaseCheckoutLock releases the lock for a checkout intent.
func (s *LockStore) ReleaseCheckoutLock(ctx context.Context, userID, purchaseType string) error {
	key := fmt.Sprintf("lock:checkout:%s:%s", userID, purchaseType)

	return s.client.Del(ctx, key).Err()
}
