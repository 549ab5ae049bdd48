package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bikeshare/internal/domain"
	"bikeshare/internal/service"
)

// StationHandler handles HTTP requests for stations and bikes.
type StationHandler struct {
	stationService *service.StationService
}

// NewStationHandler creates a new StationHandler.
func NewStationHandler(stationService *service.StationService) *StationHandler {
	return &StationHandler{stationService: stationService}
}

// CreateStationRequest is the HTTP request body for registering a station.
type CreateStationRequest struct {
	Name     string  `json:"name"`
	Address  string  `json:"address"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Capacity int     `json:"capacity"`
}

// AddBikeRequest is the HTTP request body for adding a bike.
type AddBikeRequest struct {
	StationID    string `json:"station_id"`
	Type         string `json:"type"` // STANDARD or ELECTRIC
	DisplayName  string `json:"display_name,omitempty"`
	BatteryLevel int    `json:"battery_level,omitempty"`
}

// UpdateBatteryRequest is the HTTP request body for a battery report.
type UpdateBatteryRequest struct {
	BatteryLevel int `json:"battery_level"`
}

// StationResponse is the HTTP representation of a station with live counts.
type StationResponse struct {
	ID                     string  `json:"id"`
	Name                   string  `json:"name"`
	Address                string  `json:"address,omitempty"`
	Lat                    float64 `json:"lat"`
	Lng                    float64 `json:"lng"`
	Capacity               int     `json:"capacity"`
	AvailableStandardBikes int     `json:"available_standard_bikes"`
	AvailableElectricBikes int     `json:"available_electric_bikes"`
	AvailableDocks         int     `json:"available_docks"`
}

// BikeResponse is the HTTP representation of a bike.
type BikeResponse struct {
	ID               string `json:"id"`
	Type             string `json:"type"`
	DisplayName      string `json:"display_name,omitempty"`
	BatteryLevel     int    `json:"battery_level,omitempty"`
	CurrentStationID string `json:"current_station_id,omitempty"`
}

// CreateStation handles POST /v1/stations
func (h *StationHandler) CreateStation(c *gin.Context) {
	var req CreateStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	station, err := h.stationService.CreateStation(c.Request.Context(), service.CreateStationRequest{
		Name:     req.Name,
		Address:  req.Address,
		Lat:      req.Lat,
		Lng:      req.Lng,
		Capacity: req.Capacity,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toStationResponse(*station))
}

// GetStation handles GET /v1/stations/:id
func (h *StationHandler) GetStation(c *gin.Context) {
	station, err := h.stationService.GetStation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toStationResponse(station))
}

// GetAll handles GET /v1/stations
func (h *StationHandler) GetAll(c *gin.Context) {
	stations := h.stationService.ListStations(c.Request.Context())

	response := make([]StationResponse, 0, len(stations))
	for _, s := range stations {
		response = append(response, toStationResponse(s))
	}

	respondJSON(c, http.StatusOK, response)
}

// GetNearby handles GET /v1/stations/nearby?lat=&lng=&radius_km=
func (h *StationHandler) GetNearby(c *gin.Context) {
	var lat, lng, radiusKm float64
	if err := bindQueryFloat(c, "lat", &lat); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "lat must be a number"})
		return
	}
	if err := bindQueryFloat(c, "lng", &lng); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "lng must be a number"})
		return
	}
	if err := bindQueryFloat(c, "radius_km", &radiusKm); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "radius_km must be a number"})
		return
	}

	stations, err := h.stationService.FindNearby(c.Request.Context(), lat, lng, radiusKm)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]StationResponse, 0, len(stations))
	for _, s := range stations {
		response = append(response, toStationResponse(s))
	}

	respondJSON(c, http.StatusOK, response)
}

// AddBike handles POST /v1/bikes
func (h *StationHandler) AddBike(c *gin.Context) {
	var req AddBikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	bike, err := h.stationService.AddBike(c.Request.Context(), service.AddBikeRequest{
		StationID:    req.StationID,
		Type:         domain.BikeType(req.Type),
		DisplayName:  req.DisplayName,
		BatteryLevel: req.BatteryLevel,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, BikeResponse{
		ID:               bike.ID,
		Type:             string(bike.Type),
		DisplayName:      bike.DisplayName,
		BatteryLevel:     bike.BatteryLevel,
		CurrentStationID: bike.CurrentStationID,
	})
}

// UpdateBattery handles PATCH /v1/bikes/:id/battery
func (h *StationHandler) UpdateBattery(c *gin.Context) {
	var req UpdateBatteryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.stationService.UpdateBikeBattery(c.Request.Context(), c.Param("id"), req.BatteryLevel); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func toStationResponse(s domain.Station) StationResponse {
	return StationResponse{
		ID:                     s.ID,
		Name:                   s.Name,
		Address:                s.Address,
		Lat:                    s.Lat,
		Lng:                    s.Lng,
		Capacity:               s.Capacity,
		AvailableStandardBikes: s.AvailableStandardBikes,
		AvailableElectricBikes: s.AvailableElectricBikes,
		AvailableDocks:         s.AvailableDocks(),
	}
}
