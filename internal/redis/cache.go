package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// HistoryCacheTTL bounds staleness of a cached ride history page; the
// cache is also invalidated explicitly whenever a ride settles.
const HistoryCacheTTL = 30 * time.Second

const historyCachePrefix = "cache:history:"

// CachedRide is one archived ride in a user's cached history. It must
// carry every reservation field the history endpoint serves; a cached
// read and an archive read have to produce identical responses.
type CachedRide struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	BikeID          string  `json:"bike_id"`
	BikeType        string  `json:"bike_type"`
	Plan            string  `json:"plan"`
	StartStationID  string  `json:"start_station_id"`
	EndStationID    string  `json:"end_station_id,omitempty"`
	ReservationTime string  `json:"reservation_time"`
	StartTime       string  `json:"start_time,omitempty"`
	EndTime         string  `json:"end_time,omitempty"`
	CancelledAt     string  `json:"cancelled_at,omitempty"`
	DurationMinutes float64 `json:"duration_minutes"`
	BaseRate        float64 `json:"base_rate"`
	MinutesCost     float64 `json:"minutes_cost"`
	Discount        float64 `json:"discount"`
	TotalCost       float64 `json:"total_cost"`
	Status          string  `json:"status"`
}

// CacheStore handles ride-history caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// GetHistory retrieves a user's cached ride history. Returns nil on a
// cache miss.
func (s *CacheStore) GetHistory(ctx context.Context, userID string) ([]CachedRide, error) {
	data, err := s.client.Get(ctx, historyCachePrefix+userID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var rides []CachedRide
	if err := json.Unmarshal(data, &rides); err != nil {
		return nil, err
	}
	return rides, nil
}

// SetHistory stores a user's ride history in cache.
func (s *CacheStore) SetHistory(ctx context.Context, userID string, rides []CachedRide) error {
	data, err := json.Marshal(rides)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, historyCachePrefix+userID, data, HistoryCacheTTL).Err()
}

// InvalidateHistory drops a user's cached ride history. Called when a
// reservation reaches a terminal state so the next read sees it.
func (s *CacheStore) InvalidateHistory(ctx context.Context, userID string) error {
	return s.client.Del(ctx, historyCachePrefix+userID).Err()
}
