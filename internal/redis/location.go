package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const stationLocationKey = "stations:locations"

// StationLocation represents a station's position.
type StationLocation struct {
	StationID string
	Lat       float64
	Lng       float64
}

// LocationStore handles station location operations in Redis.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// AddStation stores a station's location using GEOADD.
func (s *LocationStore) AddStation(ctx context.Context, stationID string, lat, lng float64) error {
	return s.client.GeoAdd(ctx, stationLocationKey, &redis.GeoLocation{
		Name:      stationID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// FindNearbyStations returns station IDs within the given radius (in
// kilometers), closest first.
func (s *LocationStore) FindNearbyStations(ctx context.Context, lat, lng, radiusKm float64) ([]StationLocation, error) {
	results, err := s.client.GeoRadius(ctx, stationLocationKey, lng, lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	locations := make([]StationLocation, 0, len(results))
	for _, r := range results {
		locations = append(locations, StationLocation{
			StationID: r.Name,
			Lat:       r.Latitude,
			Lng:       r.Longitude,
		})
	}

	return locations, nil
}

// RemoveStation removes a station's location from the geo index.
func (s *LocationStore) RemoveStation(ctx context.Context, stationID string) error {
	return s.client.ZRem(ctx, stationLocationKey, stationID).Err()
}
