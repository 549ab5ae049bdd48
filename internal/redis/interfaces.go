package redis

import (
	"context"
	"time"
)

// LocationStoreInterface defines the interface for station location operations.
type LocationStoreInterface interface {
	AddStation(ctx context.Context, stationID string, lat, lng float64) error
	FindNearbyStations(ctx context.Context, lat, lng, radiusKm float64) ([]StationLocation, error)
	RemoveStation(ctx context.Context, stationID string) error
}

// LockStoreInterface defines the interface for distributed bike locking.
type LockStoreInterface interface {
	AcquireBikeLock(ctx context.Context, bikeID string, ttl time.Duration) (bool, error)
	ReleaseBikeLock(ctx context.Context, bikeID string) error
}

// CacheStoreInterface defines the interface for ride-history caching.
type CacheStoreInterface interface {
	GetHistory(ctx context.Context, userID string) ([]CachedRide, error)
	SetHistory(ctx context.Context, userID string, rides []CachedRide) error
	InvalidateHistory(ctx context.Context, userID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
	_ CacheStoreInterface    = (*CacheStore)(nil)
)
