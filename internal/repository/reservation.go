package repository

import (
	"context"

	"bikeshare/internal/domain"
)

// ReservationRepository defines the persistence operations for
// reservations. Every row retains reservation/start/end times and the
// settlement cost breakdown, not just the upfront estimate, so ride
// history and auditing reflect what was actually charged.
type ReservationRepository interface {
	// Create persists a new reservation.
	Create(ctx context.Context, res *domain.Reservation) error

	// GetByID retrieves a reservation by ID.
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)

	// Update updates an existing reservation.
	Update(ctx context.Context, res *domain.Reservation) error

	// GetHistoryByUser returns the user's ENDED and CANCELLED
	// reservations, newest first.
	GetHistoryByUser(ctx context.Context, userID string) ([]*domain.Reservation, error)

	// CountFreeRidesToday returns how many fully free rides the user has
	// completed since UTC midnight. This is the daily free-ride ledger
	// consumed by pricing.
	CountFreeRidesToday(ctx context.Context, userID string) (int, error)
}
