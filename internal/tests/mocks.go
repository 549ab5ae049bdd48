package tests

import (
	"context"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"bikeshare/internal/domain"
	"bikeshare/internal/redis"
	"bikeshare/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK STATION REPOSITORY
// ──────────────────────────────────────────────

// MockStationRepository is a mock implementation of StationRepository.
type MockStationRepository struct {
	mu       sync.RWMutex
	stations map[string]*domain.Station

	// Counters for verification
	CreateCallCount       int32
	UpdateCountsCallCount int32

	// Error injection
	CreateError       error
	UpdateCountsError error
}

// NewMockStationRepository creates a new mock station repository.
func NewMockStationRepository() *MockStationRepository {
	return &MockStationRepository{
		stations: make(map[string]*domain.Station),
	}
}

// AddStation adds a station to the mock repository.
func (m *MockStationRepository) AddStation(station *domain.Station) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stations[station.ID] = station
}

func (m *MockStationRepository) Create(ctx context.Context, station *domain.Station) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stations[station.ID] = station
	return nil
}

func (m *MockStationRepository) GetByID(ctx context.Context, id string) (*domain.Station, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	station, ok := m.stations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *station
	return &copy, nil
}

func (m *MockStationRepository) GetAll(ctx context.Context) ([]*domain.Station, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stations := make([]*domain.Station, 0, len(m.stations))
	for _, s := range m.stations {
		copy := *s
		stations = append(stations, &copy)
	}
	return stations, nil
}

func (m *MockStationRepository) UpdateCounts(ctx context.Context, id string, standard, electric int) error {
	atomic.AddInt32(&m.UpdateCountsCallCount, 1)
	if m.UpdateCountsError != nil {
		return m.UpdateCountsError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	station, ok := m.stations[id]
	if !ok {
		return repository.ErrNotFound
	}
	station.AvailableStandardBikes = standard
	station.AvailableElectricBikes = electric
	return nil
}

// ──────────────────────────────────────────────
// MOCK BIKE REPOSITORY
// ──────────────────────────────────────────────

// MockBikeRepository is a mock implementation of BikeRepository.
type MockBikeRepository struct {
	mu    sync.RWMutex
	bikes map[string]*domain.Bike

	// Counters for verification
	CreateCallCount        int32
	UpdateStationCallCount int32

	// Error injection
	CreateError        error
	UpdateStationError error
	UpdateBatteryError error
}

// NewMockBikeRepository creates a new mock bike repository.
func NewMockBikeRepository() *MockBikeRepository {
	return &MockBikeRepository{
		bikes: make(map[string]*domain.Bike),
	}
}

// AddBike adds a bike to the mock repository.
func (m *MockBikeRepository) AddBike(bike *domain.Bike) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bikes[bike.ID] = bike
}

func (m *MockBikeRepository) Create(ctx context.Context, bike *domain.Bike) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bikes[bike.ID] = bike
	return nil
}

func (m *MockBikeRepository) GetByID(ctx context.Context, id string) (*domain.Bike, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bike, ok := m.bikes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *bike
	return &copy, nil
}

func (m *MockBikeRepository) GetByStation(ctx context.Context, stationID string) ([]*domain.Bike, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var bikes []*domain.Bike
	for _, b := range m.bikes {
		if b.CurrentStationID == stationID {
			copy := *b
			bikes = append(bikes, &copy)
		}
	}
	return bikes, nil
}

func (m *MockBikeRepository) UpdateStation(ctx context.Context, id, stationID string) error {
	atomic.AddInt32(&m.UpdateStationCallCount, 1)
	if m.UpdateStationError != nil {
		return m.UpdateStationError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bike, ok := m.bikes[id]
	if !ok {
		return repository.ErrNotFound
	}
	bike.CurrentStationID = stationID
	return nil
}

func (m *MockBikeRepository) UpdateBattery(ctx context.Context, id string, level int) error {
	if m.UpdateBatteryError != nil {
		return m.UpdateBatteryError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bike, ok := m.bikes[id]
	if !ok {
		return repository.ErrNotFound
	}
	bike.BatteryLevel = level
	return nil
}

// ──────────────────────────────────────────────
// MOCK RESERVATION REPOSITORY
// ──────────────────────────────────────────────

// MockReservationRepository is a mock implementation of ReservationRepository.
type MockReservationRepository struct {
	mu           sync.RWMutex
	reservations map[string]*domain.Reservation

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error

	// FreeRidesToday is the value returned by CountFreeRidesToday.
	FreeRidesToday int
}

// NewMockReservationRepository creates a new mock reservation repository.
func NewMockReservationRepository() *MockReservationRepository {
	return &MockReservationRepository{
		reservations: make(map[string]*domain.Reservation),
	}
}

func (m *MockReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *res
	m.reservations[res.ID] = &copy
	return nil
}

func (m *MockReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res, ok := m.reservations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *res
	return &copy, nil
}

func (m *MockReservationRepository) Update(ctx context.Context, res *domain.Reservation) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reservations[res.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *res
	m.reservations[res.ID] = &copy
	return nil
}

func (m *MockReservationRepository) GetHistoryByUser(ctx context.Context, userID string) ([]*domain.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var history []*domain.Reservation
	for _, r := range m.reservations {
		if r.UserID == userID && r.Status.IsTerminal() {
			copy := *r
			history = append(history, &copy)
		}
	}
	sort.Slice(history, func(i, j int) bool {
		return history[i].ReservationTime.After(history[j].ReservationTime)
	})
	return history, nil
}

func (m *MockReservationRepository) CountFreeRidesToday(ctx context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.FreeRidesToday, nil
}

// Stored returns the persisted row for a reservation, if any.
func (m *MockReservationRepository) Stored(id string) (*domain.Reservation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res, ok := m.reservations[id]
	if !ok {
		return nil, false
	}
	copy := *res
	return &copy, true
}

// Len reports how many reservations have been persisted.
func (m *MockReservationRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.reservations)
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is an in-memory stand-in for the Redis GEO index.
type MockLocationStore struct {
	mu        sync.RWMutex
	locations map[string]redis.StationLocation
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		locations: make(map[string]redis.StationLocation),
	}
}

func (m *MockLocationStore) AddStation(ctx context.Context, stationID string, lat, lng float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[stationID] = redis.StationLocation{StationID: stationID, Lat: lat, Lng: lng}
	return nil
}

func (m *MockLocationStore) FindNearbyStations(ctx context.Context, lat, lng, radiusKm float64) ([]redis.StationLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type candidate struct {
		loc  redis.StationLocation
		dist float64
	}
	var candidates []candidate
	for _, loc := range m.locations {
		d := haversineKm(lat, lng, loc.Lat, loc.Lng)
		if d <= radiusKm {
			candidates = append(candidates, candidate{loc: loc, dist: d})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].dist < candidates[j].dist
	})

	result := make([]redis.StationLocation, 0, len(candidates))
	for _, c := range candidates {
		result = append(result, c.loc)
	}
	return result, nil
}

func (m *MockLocationStore) RemoveStation(ctx context.Context, stationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locations, stationID)
	return nil
}

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371.0
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is an in-memory stand-in for the Redis bike lock.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	// AcquiredKeys records every key handed out, in order.
	AcquiredKeys []string

	// Error injection
	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{locks: make(map[string]bool)}
}

func (m *MockLockStore) AcquireBikeLock(ctx context.Context, bikeID string, ttl time.Duration) (bool, error) {
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[bikeID] {
		return false, nil
	}
	m.locks[bikeID] = true
	m.AcquiredKeys = append(m.AcquiredKeys, bikeID)
	return true, nil
}

// Hold marks a key as taken by another instance.
func (m *MockLockStore) Hold(bikeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[bikeID] = true
}

func (m *MockLockStore) ReleaseBikeLock(ctx context.Context, bikeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, bikeID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK CACHE STORE
// ──────────────────────────────────────────────

// MockCacheStore is an in-memory stand-in for the ride-history cache.
type MockCacheStore struct {
	mu      sync.RWMutex
	history map[string][]redis.CachedRide

	// Counters for verification
	GetCallCount        int32
	SetCallCount        int32
	InvalidateCallCount int32
}

// NewMockCacheStore creates a new mock cache store.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{history: make(map[string][]redis.CachedRide)}
}

func (m *MockCacheStore) GetHistory(ctx context.Context, userID string) ([]redis.CachedRide, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	rides, ok := m.history[userID]
	if !ok {
		return nil, nil
	}
	return rides, nil
}

func (m *MockCacheStore) SetHistory(ctx context.Context, userID string, rides []redis.CachedRide) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[userID] = rides
	return nil
}

func (m *MockCacheStore) InvalidateHistory(ctx context.Context, userID string) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.history, userID)
	return nil
}

// Compile-time interface checks.
var (
	_ repository.StationRepository     = (*MockStationRepository)(nil)
	_ repository.BikeRepository        = (*MockBikeRepository)(nil)
	_ repository.ReservationRepository = (*MockReservationRepository)(nil)
	_ redis.LocationStoreInterface     = (*MockLocationStore)(nil)
	_ redis.LockStoreInterface         = (*MockLockStore)(nil)
	_ redis.CacheStoreInterface        = (*MockCacheStore)(nil)
)
