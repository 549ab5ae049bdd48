package service

import (
	"context"
	"log"

	"github.com/google/uuid"

	"bikeshare/internal/domain"
	"bikeshare/internal/redis"
	"bikeshare/internal/repository"
)

// StationService provides read access to station state and the admin
// operations that register stations and bikes. Live counts come from
// the inventory; geospatial queries go through the Redis GEO index.
type StationService struct {
	inventory     *StationInventory
	locationStore redis.LocationStoreInterface
	stationRepo   repository.StationRepository
	bikeRepo      repository.BikeRepository
}

// NewStationService creates a new StationService.
func NewStationService(
	inventory *StationInventory,
	locationStore redis.LocationStoreInterface,
	stationRepo repository.StationRepository,
	bikeRepo repository.BikeRepository,
) *StationService {
	return &StationService{
		inventory:     inventory,
		locationStore: locationStore,
		stationRepo:   stationRepo,
		bikeRepo:      bikeRepo,
	}
}

// CreateStationRequest contains the parameters for registering a station.
type CreateStationRequest struct {
	Name     string
	Address  string
	Lat      float64
	Lng      float64
	Capacity int
}

// CreateStation registers a new, initially empty station.
func (s *StationService) CreateStation(ctx context.Context, req CreateStationRequest) (*domain.Station, error) {
	if req.Capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if !validCoordinates(req.Lat, req.Lng) {
		return nil, ErrInvalidLocation
	}

	station := domain.Station{
		ID:       uuid.New().String(),
		Name:     req.Name,
		Address:  req.Address,
		Lat:      req.Lat,
		Lng:      req.Lng,
		Capacity: req.Capacity,
	}

	if err := s.stationRepo.Create(ctx, &station); err != nil {
		return nil, err
	}
	if err := s.inventory.AddStation(station, nil); err != nil {
		return nil, err
	}

	if s.locationStore != nil {
		if err := s.locationStore.AddStation(ctx, station.ID, station.Lat, station.Lng); err != nil {
			log.Printf("failed to index station %s location: %v", station.ID, err)
		}
	}

	return &station, nil
}

// AddBikeRequest contains the parameters for adding a bike to a station dock.
type AddBikeRequest struct {
	StationID    string
	Type         domain.BikeType
	DisplayName  string
	BatteryLevel int
}

// AddBike registers a new bike docked at a station. Fails with
// ErrStationFull when the station has no free dock.
func (s *StationService) AddBike(ctx context.Context, req AddBikeRequest) (*domain.Bike, error) {
	if req.StationID == "" {
		return nil, ErrInvalidStationID
	}
	if req.Type != domain.BikeTypeStandard && req.Type != domain.BikeTypeElectric {
		return nil, ErrInvalidBikeType
	}
	if req.Type == domain.BikeTypeElectric && (req.BatteryLevel < 0 || req.BatteryLevel > 100) {
		return nil, ErrInvalidBatteryLevel
	}

	bike := domain.Bike{
		ID:               uuid.New().String(),
		Type:             req.Type,
		DisplayName:      req.DisplayName,
		CurrentStationID: req.StationID,
	}
	if req.Type == domain.BikeTypeElectric {
		bike.BatteryLevel = req.BatteryLevel
	}

	// Docking a new bike is the same inventory mutation as a return, and
	// gets the same capacity check.
	if err := s.inventory.ReleaseBike(req.StationID, bike.ID, bike.Type); err != nil {
		return nil, err
	}

	if err := s.bikeRepo.Create(ctx, &bike); err != nil {
		if _, rbErr := s.inventory.ReserveBike(req.StationID, bike.ID); rbErr != nil {
			log.Printf("failed to undo dock of bike %s at station %s: %v", bike.ID, req.StationID, rbErr)
		}
		return nil, err
	}

	station, err := s.inventory.GetStation(req.StationID)
	if err == nil {
		if err := s.stationRepo.UpdateCounts(ctx, req.StationID, station.AvailableStandardBikes, station.AvailableElectricBikes); err != nil {
			log.Printf("failed to persist counts for station %s: %v", req.StationID, err)
		}
	}

	return &bike, nil
}

// GetStation returns a station with its live counts.
func (s *StationService) GetStation(ctx context.Context, stationID string) (domain.Station, error) {
	if stationID == "" {
		return domain.Station{}, ErrInvalidStationID
	}
	return s.inventory.GetStation(stationID)
}

// ListStations returns all stations with live counts.
func (s *StationService) ListStations(ctx context.Context) []domain.Station {
	return s.inventory.ListStations()
}

// FindNearby returns stations within radiusKm of the given point,
// closest first, with live counts. Counts are consistent with the
// capacity invariant at the instant of the read.
func (s *StationService) FindNearby(ctx context.Context, lat, lng, radiusKm float64) ([]domain.Station, error) {
	if !validCoordinates(lat, lng) || radiusKm <= 0 {
		return nil, ErrInvalidLocation
	}
	if s.locationStore == nil {
		return nil, ErrInvalidLocation
	}

	nearby, err := s.locationStore.FindNearbyStations(ctx, lat, lng, radiusKm)
	if err != nil {
		return nil, err
	}

	stations := make([]domain.Station, 0, len(nearby))
	for _, loc := range nearby {
		station, err := s.inventory.GetStation(loc.StationID)
		if err != nil {
			// Geo index can lag behind station removal.
			continue
		}
		stations = append(stations, station)
	}

	return stations, nil
}

// UpdateBikeBattery records a battery report from an electric bike.
func (s *StationService) UpdateBikeBattery(ctx context.Context, bikeID string, level int) error {
	if bikeID == "" {
		return ErrInvalidBikeID
	}
	if level < 0 || level > 100 {
		return ErrInvalidBatteryLevel
	}

	bike, err := s.bikeRepo.GetByID(ctx, bikeID)
	if err != nil {
		return err
	}
	if bike.Type != domain.BikeTypeElectric {
		return ErrInvalidBikeType
	}

	return s.bikeRepo.UpdateBattery(ctx, bikeID, level)
}

func validCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
