package service

import "errors"

var (
	// ErrBikeUnavailable is returned when no bike of the requested type is free at the station.
	ErrBikeUnavailable = errors.New("no bike of requested type available at station")

	// ErrAlreadyReserved is returned when the bike already has an active reservation.
	ErrAlreadyReserved = errors.New("bike already reserved")

	// ErrStationFull is returned when a bike is released at a station with no free dock.
	// This indicates an internal consistency bug, not a user error.
	ErrStationFull = errors.New("station has no free dock")

	// ErrInvalidTransition is returned when a lifecycle event is applied in the wrong state.
	ErrInvalidTransition = errors.New("invalid reservation state transition")

	// ErrActiveReservationExists is returned when the user already has an in-flight reservation.
	ErrActiveReservationExists = errors.New("user already has an active reservation")

	// ErrInvalidDuration is returned when the requested duration is not positive or exceeds the maximum.
	ErrInvalidDuration = errors.New("invalid reservation duration")

	// ErrUnknownPlan is returned when the request names a pricing plan that does not exist.
	ErrUnknownPlan = errors.New("unknown pricing plan")

	// ErrInvalidUserID is returned when the user ID is empty.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidBikeID is returned when the bike ID is empty.
	ErrInvalidBikeID = errors.New("invalid bike id")

	// ErrInvalidStationID is returned when the station ID is empty.
	ErrInvalidStationID = errors.New("invalid station id")

	// ErrInvalidLocation is returned when coordinates are out of range.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidCapacity is returned when a station is registered with a non-positive capacity.
	ErrInvalidCapacity = errors.New("invalid station capacity")

	// ErrInvalidBatteryLevel is returned when a battery level is outside 0-100.
	ErrInvalidBatteryLevel = errors.New("invalid battery level")

	// ErrInvalidBikeType is returned when the bike type is not STANDARD or ELECTRIC.
	ErrInvalidBikeType = errors.New("invalid bike type")
)
