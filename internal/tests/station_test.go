package tests

import (
	"context"
	"errors"
	"testing"

	"bikeshare/internal/domain"
	"bikeshare/internal/service"
)

func TestStationCreation_ValidInput_Succeeds(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	station, err := f.Stations.CreateStation(ctx, service.CreateStationRequest{
		Name:     "Ferry Building",
		Address:  "1 Ferry Building",
		Lat:      37.7955,
		Lng:      -122.3937,
		Capacity: 10,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if station.ID == "" {
		t.Error("expected station ID to be set")
	}
	if station.AvailableDocks() != 10 {
		t.Errorf("expected a new station to have all docks free, got %d", station.AvailableDocks())
	}

	got, err := f.Stations.GetStation(ctx, station.ID)
	if err != nil {
		t.Fatalf("get station: %v", err)
	}
	if got.Name != "Ferry Building" {
		t.Errorf("expected name persisted, got %q", got.Name)
	}
}

func TestStationCreation_InvalidInput_Fails(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.Stations.CreateStation(ctx, service.CreateStationRequest{
		Name: "Nowhere", Lat: 91, Lng: 0, Capacity: 5,
	}); !errors.Is(err, service.ErrInvalidLocation) {
		t.Errorf("expected ErrInvalidLocation, got %v", err)
	}

	if _, err := f.Stations.CreateStation(ctx, service.CreateStationRequest{
		Name: "Empty", Lat: 37.77, Lng: -122.41, Capacity: 0,
	}); !errors.Is(err, service.ErrInvalidCapacity) {
		t.Errorf("expected ErrInvalidCapacity, got %v", err)
	}
}

func TestAddBike_DocksIntoFreeSlot(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	bike, err := f.Stations.AddBike(ctx, service.AddBikeRequest{
		StationID:    "station-2",
		Type:         domain.BikeTypeElectric,
		DisplayName:  "E-42",
		BatteryLevel: 95,
	})
	if err != nil {
		t.Fatalf("add bike: %v", err)
	}
	if bike.ID == "" {
		t.Error("expected bike ID to be set")
	}

	station, _ := f.Stations.GetStation(ctx, "station-2")
	if station.AvailableElectricBikes != 1 {
		t.Errorf("expected 1 electric bike docked, got %d", station.AvailableElectricBikes)
	}
	if station.AvailableDocks() != 1 {
		t.Errorf("expected 1 dock left, got %d", station.AvailableDocks())
	}
}

func TestAddBike_FullStation_Fails(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	// station-2 has two docks.
	for i := 0; i < 2; i++ {
		if _, err := f.Stations.AddBike(ctx, service.AddBikeRequest{
			StationID: "station-2", Type: domain.BikeTypeStandard,
		}); err != nil {
			t.Fatalf("add bike %d: %v", i, err)
		}
	}

	_, err := f.Stations.AddBike(ctx, service.AddBikeRequest{
		StationID: "station-2", Type: domain.BikeTypeStandard,
	})
	if !errors.Is(err, service.ErrStationFull) {
		t.Errorf("expected ErrStationFull, got %v", err)
	}
}

func TestAddBike_InvalidInput_Fails(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.Stations.AddBike(ctx, service.AddBikeRequest{
		StationID: "station-2", Type: "TANDEM",
	}); !errors.Is(err, service.ErrInvalidBikeType) {
		t.Errorf("expected ErrInvalidBikeType, got %v", err)
	}

	if _, err := f.Stations.AddBike(ctx, service.AddBikeRequest{
		StationID: "station-2", Type: domain.BikeTypeElectric, BatteryLevel: 101,
	}); !errors.Is(err, service.ErrInvalidBatteryLevel) {
		t.Errorf("expected ErrInvalidBatteryLevel, got %v", err)
	}
}

func TestFindNearby_OrdersByDistanceWithLiveCounts(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	// Query from a point next to station-1; both seeded stations are
	// within a few kilometres.
	stations, err := f.Stations.FindNearby(ctx, 37.771, -122.411, 10)
	if err != nil {
		t.Fatalf("find nearby: %v", err)
	}
	if len(stations) != 2 {
		t.Fatalf("expected 2 stations, got %d", len(stations))
	}
	if stations[0].ID != "station-1" {
		t.Errorf("expected station-1 closest, got %s", stations[0].ID)
	}
	if stations[0].AvailableStandardBikes != 2 {
		t.Errorf("expected live counts in results, got %d standard", stations[0].AvailableStandardBikes)
	}

	// Tight radius excludes the farther station.
	near, err := f.Stations.FindNearby(ctx, 37.771, -122.411, 1)
	if err != nil {
		t.Fatalf("find nearby: %v", err)
	}
	if len(near) != 1 || near[0].ID != "station-1" {
		t.Errorf("expected only station-1 within 1km, got %+v", near)
	}
}

func TestFindNearby_InvalidInput_Fails(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.Stations.FindNearby(ctx, 91, 0, 5); !errors.Is(err, service.ErrInvalidLocation) {
		t.Errorf("expected ErrInvalidLocation for bad latitude, got %v", err)
	}
	if _, err := f.Stations.FindNearby(ctx, 37.77, -122.41, 0); !errors.Is(err, service.ErrInvalidLocation) {
		t.Errorf("expected ErrInvalidLocation for zero radius, got %v", err)
	}
}

func TestUpdateBikeBattery_ElectricOnly(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	if err := f.Stations.UpdateBikeBattery(ctx, "bike-3", 55); err != nil {
		t.Fatalf("update battery: %v", err)
	}
	bike, _ := f.Bikes.GetByID(ctx, "bike-3")
	if bike.BatteryLevel != 55 {
		t.Errorf("expected battery 55, got %d", bike.BatteryLevel)
	}

	if err := f.Stations.UpdateBikeBattery(ctx, "bike-1", 55); !errors.Is(err, service.ErrInvalidBikeType) {
		t.Errorf("expected ErrInvalidBikeType for a standard bike, got %v", err)
	}
	if err := f.Stations.UpdateBikeBattery(ctx, "bike-3", 150); !errors.Is(err, service.ErrInvalidBatteryLevel) {
		t.Errorf("expected ErrInvalidBatteryLevel, got %v", err)
	}
}
