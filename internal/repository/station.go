package repository

import (
	"context"

	"bikeshare/internal/domain"
)

// StationRepository defines the persistence operations for stations.
type StationRepository interface {
	// Create persists a new station.
	Create(ctx context.Context, station *domain.Station) error

	// GetByID retrieves a station by ID.
	GetByID(ctx context.Context, id string) (*domain.Station, error)

	// GetAll retrieves all stations.
	GetAll(ctx context.Context) ([]*domain.Station, error)

	// UpdateCounts persists the station's live bike counters.
	UpdateCounts(ctx context.Context, id string, standard, electric int) error
}
