package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"transit/internal/domain"
	"transit/internal/logger"
	"transit/internal/redis"
)

const (
	earthRadiusKm    = 6371.0
	fallbackSpeedKmh = 40.0
)

// Estimate is a distance/duration estimate between two points. Method
// records which path produced it so downstream records can audit the source.
type Estimate struct {
	DistanceKm  float64
	DurationMin float64
	Method      domain.CalculationMethod
}

// RouteMatrixClient is the slice of the Google Maps client the estimator
// uses. *maps.Client satisfies it.
type RouteMatrixClient interface {
	DistanceMatrix(ctx context.Context, r *maps.DistanceMatrixRequest) (*maps.DistanceMatrixResponse, error)
}

// DistanceEstimator converts two coordinates into a distance/duration
// estimate. It prefers the routing service and falls back to a great-circle
// calculation on any failure; callers never see a routing error.
type DistanceEstimator struct {
	client  RouteMatrixClient
	cache   redis.EstimateCacheInterface
	timeout time.Duration
}

// NewDistanceEstimator creates a DistanceEstimator. client may be nil when
// no routing service is configured; every estimate then uses the fallback.
// cache may be nil to disable estimate caching.
func NewDistanceEstimator(client RouteMatrixClient, cache redis.EstimateCacheInterface, timeout time.Duration) *DistanceEstimator {
	return &DistanceEstimator{
		client:  client,
		cache:   cache,
		timeout: timeout,
	}
}

// Estimate returns the distance and duration between origin and destination.
// The only failure mode is invalid coordinates.
func (e *DistanceEstimator) Estimate(ctx context.Context, origin, destination domain.GeoPoint) (Estimate, error) {
	if !validCoordinates(origin) || !validCoordinates(destination) {
		return Estimate{}, ErrInvalidCoordinates
	}

	if e.cache != nil {
		cached, err := e.cache.GetEstimate(ctx, origin.Lat, origin.Lng, destination.Lat, destination.Lng)
		if err == nil && cached != nil {
			return Estimate{
				DistanceKm:  cached.DistanceKm,
				DurationMin: cached.DurationMin,
				Method:      domain.CalculationMethod(cached.Method),
			}, nil
		}
	}

	estimate, ok := e.fromRoutingService(ctx, origin, destination)
	if !ok {
		estimate = haversineEstimate(origin, destination)
	}

	if e.cache != nil {
		_ = e.cache.SetEstimate(ctx, origin.Lat, origin.Lng, destination.Lat, destination.Lng, &redis.CachedEstimate{
			DistanceKm:  estimate.DistanceKm,
			DurationMin: estimate.DurationMin,
			Method:      string(estimate.Method),
		})
	}
	return estimate, nil
}

// fromRoutingService queries the distance-matrix API. The call is bounded
// by the configured timeout; timeout counts as failure.
func (e *DistanceEstimator) fromRoutingService(ctx context.Context, origin, destination domain.GeoPoint) (Estimate, bool) {
	if e.client == nil {
		return Estimate{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
		Origins:      []string{fmt.Sprintf("%f,%f", origin.Lat, origin.Lng)},
		Destinations: []string{fmt.Sprintf("%f,%f", destination.Lat, destination.Lng)},
		Mode:         maps.TravelModeDriving,
	})
	if err != nil {
		logger.Get().Warn("distance matrix call failed, falling back to haversine", zap.Error(err))
		return Estimate{}, false
	}

	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return Estimate{}, false
	}

	element := resp.Rows[0].Elements[0]
	if element.Status != "OK" {
		logger.Get().Warn("distance matrix element not OK", zap.String("status", element.Status))
		return Estimate{}, false
	}

	return Estimate{
		DistanceKm:  float64(element.Distance.Meters) / 1000,
		DurationMin: element.Duration.Minutes(),
		Method:      domain.CalculationExternalAPI,
	}, true
}

// haversineEstimate computes the great-circle distance, with duration
// derived from an assumed average speed.
func haversineEstimate(origin, destination domain.GeoPoint) Estimate {
	distance := haversineKm(origin.Lat, origin.Lng, destination.Lat, destination.Lng)
	return Estimate{
		DistanceKm:  distance,
		DurationMin: distance / fallbackSpeedKmh * 60,
		Method:      domain.CalculationHaversine,
	}
}

// haversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func validCoordinates(p domain.GeoPoint) bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}
