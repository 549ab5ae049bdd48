package service

import (
	"sync"

	"bikeshare/internal/domain"
)

// reservationEntry is a live reservation tracked by the registry,
// together with its expiry timer. Transitions lock the entry so that
// lifecycle events for one reservation are strictly ordered.
type reservationEntry struct {
	mu          sync.Mutex
	reservation *domain.Reservation
	timer       *ExpiryTimer
}

// ReservationRegistry owns the process-wide set of in-flight
// reservations, keyed by bike ID. It is the sole place where
// at-most-one-active-reservation-per-bike (and per-user) is enforced.
type ReservationRegistry struct {
	mu     sync.RWMutex
	byBike map[string]*reservationEntry
	byID   map[string]*reservationEntry
	byUser map[string]*reservationEntry
}

// NewReservationRegistry creates an empty registry.
func NewReservationRegistry() *ReservationRegistry {
	return &ReservationRegistry{
		byBike: make(map[string]*reservationEntry),
		byID:   make(map[string]*reservationEntry),
		byUser: make(map[string]*reservationEntry),
	}
}

// Claim registers the entry under its bike, reservation and user keys.
// Returns ErrAlreadyReserved if the bike already has an entry and
// ErrActiveReservationExists if the user does.
func (r *ReservationRegistry) Claim(entry *reservationEntry) error {
	res := entry.reservation

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byBike[res.BikeID]; ok {
		return ErrAlreadyReserved
	}
	if _, ok := r.byUser[res.UserID]; ok {
		return ErrActiveReservationExists
	}

	r.byBike[res.BikeID] = entry
	r.byID[res.ID] = entry
	r.byUser[res.UserID] = entry
	return nil
}

// Release removes the entry for the given bike from all indexes.
func (r *ReservationRegistry) Release(bikeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.byBike[bikeID]
	if !ok {
		return
	}
	delete(r.byBike, bikeID)
	delete(r.byID, entry.reservation.ID)
	delete(r.byUser, entry.reservation.UserID)
}

// GetByBike returns the live entry for a bike, if any.
func (r *ReservationRegistry) GetByBike(bikeID string) (*reservationEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.byBike[bikeID]
	return entry, ok
}

// GetByID returns the live entry for a reservation ID, if any.
func (r *ReservationRegistry) GetByID(reservationID string) (*reservationEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.byID[reservationID]
	return entry, ok
}

// GetByUser returns the user's live entry, if any.
func (r *ReservationRegistry) GetByUser(userID string) (*reservationEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.byUser[userID]
	return entry, ok
}

// Count returns the number of in-flight reservations.
func (r *ReservationRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byBike)
}
