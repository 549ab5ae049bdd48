package tests

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"bikeshare/internal/domain"
	"bikeshare/internal/repository"
	"bikeshare/internal/service"
)

// fixture wires a ReservationService against in-memory stores. Station
// "station-1" starts with two standard bikes and one electric bike;
// "station-2" starts empty with two docks.
type fixture struct {
	Service     *service.ReservationService
	Stations    *service.StationService
	Inventory   *service.StationInventory
	Reservation *MockReservationRepository
	Bikes       *MockBikeRepository
	StationRepo *MockStationRepository
	Locks       *MockLockStore
	Cache       *MockCacheStore
	Locations   *MockLocationStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	inv := service.NewStationInventory()

	stationOne := &domain.Station{ID: "station-1", Name: "Market St", Lat: 37.77, Lng: -122.41, Capacity: 5}
	stationTwo := &domain.Station{ID: "station-2", Name: "Pier 7", Lat: 37.80, Lng: -122.40, Capacity: 2}

	bikes := []domain.Bike{
		{ID: "bike-1", Type: domain.BikeTypeStandard, CurrentStationID: "station-1"},
		{ID: "bike-2", Type: domain.BikeTypeStandard, CurrentStationID: "station-1"},
		{ID: "bike-3", Type: domain.BikeTypeElectric, BatteryLevel: 80, CurrentStationID: "station-1"},
	}

	if err := inv.AddStation(*stationOne, bikes); err != nil {
		t.Fatalf("seeding station-1: %v", err)
	}
	if err := inv.AddStation(*stationTwo, nil); err != nil {
		t.Fatalf("seeding station-2: %v", err)
	}

	stationRepo := NewMockStationRepository()
	stationRepo.AddStation(stationOne)
	stationRepo.AddStation(stationTwo)

	bikeRepo := NewMockBikeRepository()
	for i := range bikes {
		b := bikes[i]
		bikeRepo.AddBike(&b)
	}

	reservationRepo := NewMockReservationRepository()
	locks := NewMockLockStore()
	cache := NewMockCacheStore()
	locations := NewMockLocationStore()
	locations.AddStation(context.Background(), "station-1", stationOne.Lat, stationOne.Lng)
	locations.AddStation(context.Background(), "station-2", stationTwo.Lat, stationTwo.Lng)

	registry := service.NewReservationRegistry()
	notifier := service.NewNotificationService()

	return &fixture{
		Service: service.NewReservationService(
			inv, registry, service.NewPricingEngine(),
			locks, cache,
			reservationRepo, bikeRepo, stationRepo,
			notifier, 240,
		),
		Stations:    service.NewStationService(inv, locations, stationRepo, bikeRepo),
		Inventory:   inv,
		Reservation: reservationRepo,
		Bikes:       bikeRepo,
		StationRepo: stationRepo,
		Locks:       locks,
		Cache:       cache,
		Locations:   locations,
	}
}

func TestReservationCreation_ValidInput_Succeeds(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res, err := f.Service.CreateReservation(context.Background(), service.CreateReservationRequest{
		UserID:          "user-1",
		BikeID:          "bike-1",
		StationID:       "station-1",
		DurationMinutes: 30,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if res.ID == "" {
		t.Error("expected reservation ID to be set")
	}
	if res.Status != domain.ReservationStatusReserved {
		t.Errorf("expected status RESERVED, got %s", res.Status)
	}
	if res.BikeID != "bike-1" {
		t.Errorf("expected the requested bike reserved, got %s", res.BikeID)
	}
	if res.Plan != domain.PlanStandard {
		t.Errorf("expected default plan STANDARD, got %s", res.Plan)
	}
	// 30 minutes on STANDARD: 1.00 + 25*0.15 = 4.75 upfront.
	if res.CostBreakdown.TotalCost < 4.74 || res.CostBreakdown.TotalCost > 4.76 {
		t.Errorf("expected estimate ~4.75, got %v", res.CostBreakdown.TotalCost)
	}

	station, err := f.Inventory.GetStation("station-1")
	if err != nil {
		t.Fatalf("get station: %v", err)
	}
	if station.AvailableStandardBikes != 1 {
		t.Errorf("expected standard count decremented to 1, got %d", station.AvailableStandardBikes)
	}

	if _, ok := f.Reservation.Stored(res.ID); !ok {
		t.Error("expected reservation persisted")
	}
	if n := atomic.LoadInt32(&f.Bikes.UpdateStationCallCount); n == 0 {
		t.Error("expected bike marked out on loan")
	}
}

func TestReservationCreation_InvalidInput_Fails(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	testCases := []struct {
		name    string
		req     service.CreateReservationRequest
		wantErr error
	}{
		{
			name:    "missing user ID",
			req:     service.CreateReservationRequest{BikeID: "bike-1", StationID: "station-1", DurationMinutes: 30},
			wantErr: service.ErrInvalidUserID,
		},
		{
			name:    "missing bike ID",
			req:     service.CreateReservationRequest{UserID: "user-1", StationID: "station-1", DurationMinutes: 30},
			wantErr: service.ErrInvalidBikeID,
		},
		{
			name:    "missing station ID",
			req:     service.CreateReservationRequest{UserID: "user-1", BikeID: "bike-1", DurationMinutes: 30},
			wantErr: service.ErrInvalidStationID,
		},
		{
			name:    "zero duration",
			req:     service.CreateReservationRequest{UserID: "user-1", BikeID: "bike-1", StationID: "station-1"},
			wantErr: service.ErrInvalidDuration,
		},
		{
			name:    "negative duration",
			req:     service.CreateReservationRequest{UserID: "user-1", BikeID: "bike-1", StationID: "station-1", DurationMinutes: -5},
			wantErr: service.ErrInvalidDuration,
		},
		{
			name:    "duration above the maximum",
			req:     service.CreateReservationRequest{UserID: "user-1", BikeID: "bike-1", StationID: "station-1", DurationMinutes: 241},
			wantErr: service.ErrInvalidDuration,
		},
		{
			name:    "unknown plan",
			req:     service.CreateReservationRequest{UserID: "user-1", BikeID: "bike-1", StationID: "station-1", DurationMinutes: 30, Plan: "PLATINUM"},
			wantErr: service.ErrUnknownPlan,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.Service.CreateReservation(context.Background(), tc.req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestReservationCreation_BikeNotAtStation_Fails(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.Service.CreateReservation(context.Background(), service.CreateReservationRequest{
		UserID: "user-1", BikeID: "bike-99", StationID: "station-1", DurationMinutes: 30,
	})
	if !errors.Is(err, service.ErrBikeUnavailable) {
		t.Errorf("expected ErrBikeUnavailable, got %v", err)
	}
}

func TestReservationCreation_UnknownStation_Fails(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.Service.CreateReservation(context.Background(), service.CreateReservationRequest{
		UserID: "user-1", BikeID: "bike-1", StationID: "station-99", DurationMinutes: 30,
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReservationCreation_SameBikeTwice_Fails(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.Service.CreateReservation(ctx, service.CreateReservationRequest{
		UserID: "user-1", BikeID: "bike-1", StationID: "station-1", DurationMinutes: 30,
	}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := f.Service.CreateReservation(ctx, service.CreateReservationRequest{
		UserID: "user-2", BikeID: "bike-1", StationID: "station-1", DurationMinutes: 30,
	})
	if !errors.Is(err, service.ErrBikeUnavailable) {
		t.Errorf("expected ErrBikeUnavailable for an already reserved bike, got %v", err)
	}
}

func TestReservationCreation_SecondReservationBySameUser_Fails(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.Service.CreateReservation(ctx, service.CreateReservationRequest{
		UserID: "user-1", BikeID: "bike-1", StationID: "station-1", DurationMinutes: 30,
	}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := f.Service.CreateReservation(ctx, service.CreateReservationRequest{
		UserID: "user-1", BikeID: "bike-2", StationID: "station-1", DurationMinutes: 30,
	})
	if !errors.Is(err, service.ErrActiveReservationExists) {
		t.Errorf("expected ErrActiveReservationExists, got %v", err)
	}

	// The second bike must have been released back to its dock.
	station, _ := f.Inventory.GetStation("station-1")
	if station.AvailableStandardBikes != 1 {
		t.Errorf("expected standard count 1 after rejected create, got %d", station.AvailableStandardBikes)
	}
}

func TestReservationCreation_LockCoversReservedBike(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.Service.CreateReservation(ctx, service.CreateReservationRequest{
		UserID: "user-1", BikeID: "bike-2", StationID: "station-1", DurationMinutes: 30,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(f.Locks.AcquiredKeys) != 1 || f.Locks.AcquiredKeys[0] != res.BikeID {
		t.Errorf("expected one lock on reserved bike %s, got %v", res.BikeID, f.Locks.AcquiredKeys)
	}
}

func TestReservationCreation_HeldLockFailsWithoutSubstitution(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	// Another instance holds the lock for bike-2.
	f.Locks.Hold("bike-2")

	_, err := f.Service.CreateReservation(ctx, service.CreateReservationRequest{
		UserID: "user-1", BikeID: "bike-2", StationID: "station-1", DurationMinutes: 30,
	})
	if !errors.Is(err, service.ErrAlreadyReserved) {
		t.Fatalf("expected ErrAlreadyReserved, got %v", err)
	}

	// bike-1 is the same type but must not have been handed out instead.
	station, _ := f.Inventory.GetStation("station-1")
	if station.AvailableStandardBikes != 2 {
		t.Errorf("expected both standard bikes still docked, got %d", station.AvailableStandardBikes)
	}
	if n := f.Reservation.Len(); n != 0 {
		t.Errorf("expected no reservation persisted, got %d", n)
	}
}

func TestReservationCreation_PremiumPlanEstimate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res, err := f.Service.CreateReservation(context.Background(), service.CreateReservationRequest{
		UserID:          "user-1",
		BikeID:          "bike-3",
		StationID:       "station-1",
		DurationMinutes: 45,
		Plan:            domain.PlanPremium,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if res.Plan != domain.PlanPremium {
		t.Errorf("expected PREMIUM plan, got %s", res.Plan)
	}
	if res.BikeType != domain.BikeTypeElectric {
		t.Errorf("expected electric bike type recorded, got %s", res.BikeType)
	}
	// 45 minutes within the 60 free minutes, quota unused: free ride.
	if res.CostBreakdown.TotalCost != 0 {
		t.Errorf("expected free-ride estimate, got %v", res.CostBreakdown.TotalCost)
	}
}

func TestReservationCreation_ConcurrentRequestsForLastBike(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	// Take the first standard bike out of contention.
	if _, err := f.Service.CreateReservation(context.Background(), service.CreateReservationRequest{
		UserID: "user-0", BikeID: "bike-1", StationID: "station-1", DurationMinutes: 30,
	}); err != nil {
		t.Fatalf("setup create: %v", err)
	}

	var wg sync.WaitGroup
	var successes int32

	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := f.Service.CreateReservation(context.Background(), service.CreateReservationRequest{
				UserID:          fmt.Sprintf("user-%d", n),
				BikeID:          "bike-2",
				StationID:       "station-1",
				DurationMinutes: 30,
			})
			if err == nil {
				atomic.AddInt32(&successes, 1)
			}
		}(i)
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("expected exactly one successful reservation for bike-2, got %d", successes)
	}

	station, _ := f.Inventory.GetStation("station-1")
	if station.AvailableStandardBikes != 0 {
		t.Errorf("expected no standard bikes left, got %d", station.AvailableStandardBikes)
	}
}
