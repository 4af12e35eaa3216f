package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles short-lived entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	EstimateCacheTTL = 2 * time.Minute  // Traffic shifts; keep estimates fresh
	RouteCacheTTL    = 10 * time.Minute // Reference data, changes rarely
)

// Key prefixes
const (
	estimateCachePrefix = "cache:estimate:"
	routeCachePrefix    = "cache:route:"
)

// CachedEstimate is a cached distance/duration estimate between two points.
type CachedEstimate struct {
	DistanceKm  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min"`
	Method      string  `json:"method"`
}

// CachedRoute is a cached route snapshot.
type CachedRoute struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	From string `json:"from"`
	To   string `json:"to"`
}

// estimateKey buckets coordinates to ~100m so nearby lookups share entries.
func estimateKey(originLat, originLng, destLat, destLng float64) string {
	return fmt.Sprintf("%s%.3f,%.3f:%.3f,%.3f", estimateCachePrefix, originLat, originLng, destLat, destLng)
}

// GetEstimate retrieves a cached estimate. A nil result means cache miss.
func (s *CacheStore) GetEstimate(ctx context.Context, originLat, originLng, destLat, destLng float64) (*CachedEstimate, error) {
	data, err := s.client.Get(ctx, estimateKey(originLat, originLng, destLat, destLng)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var estimate CachedEstimate
	if err := json.Unmarshal(data, &estimate); err != nil {
		return nil, err
	}
	return &estimate, nil
}

// SetEstimate stores an estimate in cache.
func (s *CacheStore) SetEstimate(ctx context.Context, originLat, originLng, destLat, destLng float64, estimate *CachedEstimate) error {
	data, err := json.Marshal(estimate)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, estimateKey(originLat, originLng, destLat, destLng), data, EstimateCacheTTL).Err()
}

// GetRoute retrieves a route from cache. A nil result means cache miss.
func (s *CacheStore) GetRoute(ctx context.Context, routeID string) (*CachedRoute, error) {
	data, err := s.client.Get(ctx, routeCachePrefix+routeID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var route CachedRoute
	if err := json.Unmarshal(data, &route); err != nil {
		return nil, err
	}
	return &route, nil
}

// SetRoute stores a route in cache.
func (s *CacheStore) SetRoute(ctx context.Context, route *CachedRoute) error {
	data, err := json.Marshal(route)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, routeCachePrefix+route.ID, data, RouteCacheTTL).Err()
}
