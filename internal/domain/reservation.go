package domain

import "time"

// ReservationStatus represents the current status of a reservation.
type ReservationStatus string

const (
	ReservationStatusReserved  ReservationStatus = "RESERVED"
	ReservationStatusActive    ReservationStatus = "ACTIVE"
	ReservationStatusEnded     ReservationStatus = "ENDED"
	ReservationStatusExpired   ReservationStatus = "EXPIRED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
)

// IsTerminal reports whether the status admits no further transitions.
// EXPIRED is not terminal: the rider still owes a bike and can only
// resolve the reservation by ending it.
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationStatusEnded || s == ReservationStatusCancelled
}

// Reservation is a single rider's claim on one bike from creation
// through return. It is created and mutated only by the reservation
// service and archived on terminal transition.
type Reservation struct {
	ID              string
	UserID          string
	BikeID          string
	BikeType        BikeType
	Plan            PlanName
	StartStationID  string
	EndStationID    string // empty until ended
	ReservationTime time.Time
	StartTime       time.Time // recorded at unlock
	EndTime         time.Time // zero until ended
	DurationMinutes float64   // the allotted window chosen at creation
	CostBreakdown   CostBreakdown
	Status          ReservationStatus
	CancelledAt     time.Time
}
