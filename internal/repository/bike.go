package repository

import (
	"context"

	"bikeshare/internal/domain"
)

// BikeRepository defines the persistence operations for bikes.
type BikeRepository interface {
	// Create persists a new bike.
	Create(ctx context.Context, bike *domain.Bike) error

	// GetByID retrieves a bike by ID.
	GetByID(ctx context.Context, id string) (*domain.Bike, error)

	// GetByStation retrieves all bikes currently docked at a station.
	GetByStation(ctx context.Context, stationID string) ([]*domain.Bike, error)

	// UpdateStation moves a bike to a station, or out on loan when
	// stationID is empty.
	UpdateStation(ctx context.Context, id, stationID string) error

	// UpdateBattery records the battery level of an electric bike.
	UpdateBattery(ctx context.Context, id string, level int) error
}
