package service

import (
	"fmt"
	"sync"

	"bikeshare/internal/domain"
	"bikeshare/internal/repository"
)

// stationState is the single-writer state for one station. All mutations
// happen under mu, which is also the critical section shared with the
// registry claim during reservation creation.
type stationState struct {
	mu      sync.Mutex
	station domain.Station
	docked  map[string]domain.BikeType // bikeID -> type, bikes currently in a dock
}

// StationInventory owns bike and dock counts per station and enforces
// the capacity invariant on every mutation. Locking is per station;
// reservations at different stations never contend.
type StationInventory struct {
	mu       sync.RWMutex
	stations map[string]*stationState
}

// NewStationInventory creates an empty inventory.
func NewStationInventory() *StationInventory {
	return &StationInventory{stations: make(map[string]*stationState)}
}

// AddStation registers a station and its initially docked bikes.
func (inv *StationInventory) AddStation(station domain.Station, bikes []domain.Bike) error {
	if station.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	if len(bikes) > station.Capacity {
		return ErrStationFull
	}

	state := &stationState{
		station: station,
		docked:  make(map[string]domain.BikeType, len(bikes)),
	}
	state.station.AvailableStandardBikes = 0
	state.station.AvailableElectricBikes = 0
	for _, b := range bikes {
		state.docked[b.ID] = b.Type
		if b.Type == domain.BikeTypeElectric {
			state.station.AvailableElectricBikes++
		} else {
			state.station.AvailableStandardBikes++
		}
	}
	state.assertInvariant()

	inv.mu.Lock()
	defer inv.mu.Unlock()
	if _, ok := inv.stations[station.ID]; ok {
		return fmt.Errorf("station %s already registered", station.ID)
	}
	inv.stations[station.ID] = state
	return nil
}

// ReserveBike atomically takes the named bike out of its dock at the
// station, decrements the matching counter and returns the bike's type.
// The bike must be docked there: distributed locks, rider intent and
// rollback compensation are all bound to this exact ID, so a different
// bike is never substituted. Fails with ErrBikeUnavailable when the
// bike is not docked.
//
// The caller runs the registry claim for the bike while still ordered
// behind this decrement; see CreateReservation.
func (inv *StationInventory) ReserveBike(stationID, bikeID string) (domain.BikeType, error) {
	state, err := inv.get(stationID)
	if err != nil {
		return "", err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	bikeType, ok := state.docked[bikeID]
	if !ok {
		return "", ErrBikeUnavailable
	}

	delete(state.docked, bikeID)
	if bikeType == domain.BikeTypeElectric {
		state.station.AvailableElectricBikes--
	} else {
		state.station.AvailableStandardBikes--
	}
	state.assertInvariant()

	return bikeType, nil
}

// ReleaseBike returns a bike to a dock at the station, incrementing the
// matching counter. Fails with ErrStationFull if every dock is occupied.
// Given the capacity invariant that should be structurally impossible
// for a bike that came out of this inventory; the check is kept as a
// defensive assertion and the caller treats it as an internal bug.
func (inv *StationInventory) ReleaseBike(stationID, bikeID string, bikeType domain.BikeType) error {
	state, err := inv.get(stationID)
	if err != nil {
		return err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if state.station.AvailableStandardBikes+state.station.AvailableElectricBikes == state.station.Capacity {
		return ErrStationFull
	}

	state.docked[bikeID] = bikeType
	if bikeType == domain.BikeTypeElectric {
		state.station.AvailableElectricBikes++
	} else {
		state.station.AvailableStandardBikes++
	}
	state.assertInvariant()

	return nil
}

// GetStation returns a snapshot of the station with its live counts.
func (inv *StationInventory) GetStation(stationID string) (domain.Station, error) {
	state, err := inv.get(stationID)
	if err != nil {
		return domain.Station{}, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	return state.station, nil
}

// ListStations returns snapshots of all registered stations.
func (inv *StationInventory) ListStations() []domain.Station {
	inv.mu.RLock()
	states := make([]*stationState, 0, len(inv.stations))
	for _, s := range inv.stations {
		states = append(states, s)
	}
	inv.mu.RUnlock()

	stations := make([]domain.Station, 0, len(states))
	for _, s := range states {
		s.mu.Lock()
		stations = append(stations, s.station)
		s.mu.Unlock()
	}
	return stations
}

// DockedBikeType reports the type of a bike currently docked at the station.
func (inv *StationInventory) DockedBikeType(stationID, bikeID string) (domain.BikeType, bool) {
	state, err := inv.get(stationID)
	if err != nil {
		return "", false
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	t, ok := state.docked[bikeID]
	return t, ok
}

func (inv *StationInventory) get(stationID string) (*stationState, error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	state, ok := inv.stations[stationID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return state, nil
}

// assertInvariant aborts loudly on a capacity violation. Any code path
// that trips this is a programming error, never a user-facing failure,
// and must not be silently clamped. Caller holds mu.
func (s *stationState) assertInvariant() {
	std := s.station.AvailableStandardBikes
	elec := s.station.AvailableElectricBikes
	if std < 0 || elec < 0 || std+elec > s.station.Capacity {
		panic(fmt.Sprintf("station %s capacity invariant violated: standard=%d electric=%d capacity=%d",
			s.station.ID, std, elec, s.station.Capacity))
	}
	if len(s.docked) != std+elec {
		panic(fmt.Sprintf("station %s dock ledger out of sync: docked=%d counters=%d",
			s.station.ID, len(s.docked), std+elec))
	}
}
