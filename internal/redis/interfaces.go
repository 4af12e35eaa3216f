package redis

import (
	"context"
	"time"
)

// LockStoreInterface defines the interface for checkout intent locking.
type LockStoreInterface interface {
	AcquireCheckoutLock(ctx context.Context, userID, purchaseType string, ttl time.Duration) (bool, error)
	ReleaseCheckoutLock(ctx context.Context, userID, purchaseType string) error
}

// EstimateCacheInterface defines the interface for distance estimate caching.
type EstimateCacheInterface interface {
	GetEstimate(ctx context.Context, originLat, originLng, destLat, destLng float64) (*CachedEstimate, error)
	SetEstimate(ctx context.Context, originLat, originLng, destLat, destLng float64, estimate *CachedEstimate) error
}

// RateLimiterInterface defines the interface for request rate limiting.
type RateLimiterInterface interface {
	Check(ctx context.Context, identity string, limit int64, window time.Duration) (*RateLimitResult, error)
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface     = (*LockStore)(nil)
	_ EstimateCacheInterface = (*CacheStore)(nil)
	_ RateLimiterInterface   = (*RateLimiter)(nil)
)
