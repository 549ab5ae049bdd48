package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bikeshare/internal/domain"
	"bikeshare/internal/service"
)

// ReservationHandler handles HTTP requests for reservations.
type ReservationHandler struct {
	reservationService *service.ReservationService
}

// NewReservationHandler creates a new ReservationHandler.
func NewReservationHandler(reservationService *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: reservationService}
}

// CreateReservationRequest is the HTTP request body for creating a reservation.
type CreateReservationRequest struct {
	UserID          string  `json:"user_id"`
	BikeID          string  `json:"bike_id"`
	StationID       string  `json:"station_id"`
	DurationMinutes float64 `json:"duration_minutes"`
	Plan            string  `json:"plan,omitempty"` // STANDARD or PREMIUM
}

// EndReservationRequest is the HTTP request body for ending a ride.
type EndReservationRequest struct {
	ReturnStationID string `json:"return_station_id"`
}

// ReservationResponse is the HTTP representation of a reservation.
type ReservationResponse struct {
	ID               string  `json:"id"`
	UserID           string  `json:"user_id,omitempty"`
	BikeID           string  `json:"bike_id"`
	BikeType         string  `json:"bike_type"`
	Plan             string  `json:"plan"`
	StartStationID   string  `json:"start_station_id"`
	EndStationID     string  `json:"end_station_id,omitempty"`
	ReservationTime  string  `json:"reservation_time"`
	StartTime        string  `json:"start_time,omitempty"`
	EndTime          string  `json:"end_time,omitempty"`
	DurationMinutes  float64 `json:"duration_minutes"`
	BaseRate         float64 `json:"base_rate"`
	MinutesCost      float64 `json:"minutes_cost"`
	Discount         float64 `json:"discount"`
	TotalCost        float64 `json:"total_cost"`
	Status           string  `json:"status"`
	RemainingSeconds float64 `json:"remaining_seconds,omitempty"`
}

// CostEstimateResponse is the HTTP response for a cost estimate.
type CostEstimateResponse struct {
	Plan            string  `json:"plan"`
	DurationMinutes float64 `json:"duration_minutes"`
	BaseRate        float64 `json:"base_rate"`
	MinutesCost     float64 `json:"minutes_cost"`
	Discount        float64 `json:"discount"`
	TotalCost       float64 `json:"total_cost"`
}

// CreateReservation handles POST /v1/reservations.
// Creating and unlocking are one user action: the rider walks up to the
// bike they just reserved.
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	res, err := h.reservationService.CreateReservation(c.Request.Context(), service.CreateReservationRequest{
		UserID:          req.UserID,
		BikeID:          req.BikeID,
		StationID:       req.StationID,
		DurationMinutes: req.DurationMinutes,
		Plan:            domain.PlanName(req.Plan),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	res, err = h.reservationService.Unlock(c.Request.Context(), res.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toReservationResponse(res, 0))
}

// GetActive handles GET /v1/reservations/active?user_id=
func (h *ReservationHandler) GetActive(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "user_id is required"})
		return
	}

	res, remaining, ok := h.reservationService.ActiveReservation(c.Request.Context(), userID)
	if !ok {
		respondJSON(c, http.StatusOK, nil)
		return
	}

	respondJSON(c, http.StatusOK, toReservationResponse(res, remaining))
}

// EndReservation handles POST /v1/reservations/:id/end
func (h *ReservationHandler) EndReservation(c *gin.Context) {
	var req EndReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	res, err := h.reservationService.EndReservation(c.Request.Context(), c.Param("id"), req.ReturnStationID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toReservationResponse(res, 0))
}

// CancelReservation handles POST /v1/reservations/:id/cancel
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	res, err := h.reservationService.CancelReservation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toReservationResponse(res, 0))
}

// GetHistory handles GET /v1/reservations/history?user_id=
func (h *ReservationHandler) GetHistory(c *gin.Context) {
	userID := c.Query("user_id")

	history, err := h.reservationService.RideHistory(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]ReservationResponse, 0, len(history))
	for _, res := range history {
		response = append(response, toReservationResponse(res, 0))
	}

	respondJSON(c, http.StatusOK, response)
}

// Estimate handles GET /v1/reservations/estimate?plan=&duration_minutes=
func (h *ReservationHandler) Estimate(c *gin.Context) {
	plan := c.DefaultQuery("plan", string(domain.PlanStandard))

	var duration float64
	if err := bindQueryFloat(c, "duration_minutes", &duration); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "duration_minutes must be a number"})
		return
	}

	breakdown, err := h.reservationService.EstimateCost(domain.PlanName(plan), duration)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, CostEstimateResponse{
		Plan:            plan,
		DurationMinutes: duration,
		BaseRate:        round2(breakdown.BaseRate),
		MinutesCost:     round2(breakdown.MinutesCost),
		Discount:        round2(breakdown.Discount),
		TotalCost:       round2(breakdown.TotalCost),
	})
}

func toReservationResponse(res *domain.Reservation, remainingSeconds float64) ReservationResponse {
	response := ReservationResponse{
		ID:               res.ID,
		UserID:           res.UserID,
		BikeID:           res.BikeID,
		BikeType:         string(res.BikeType),
		Plan:             string(res.Plan),
		StartStationID:   res.StartStationID,
		EndStationID:     res.EndStationID,
		ReservationTime:  res.ReservationTime.Format(time.RFC3339),
		DurationMinutes:  res.DurationMinutes,
		BaseRate:         round2(res.CostBreakdown.BaseRate),
		MinutesCost:      round2(res.CostBreakdown.MinutesCost),
		Discount:         round2(res.CostBreakdown.Discount),
		TotalCost:        round2(res.CostBreakdown.TotalCost),
		Status:           string(res.Status),
		RemainingSeconds: remainingSeconds,
	}

	if !res.StartTime.IsZero() {
		response.StartTime = res.StartTime.Format(time.RFC3339)
	}
	if !res.EndTime.IsZero() {
		response.EndTime = res.EndTime.Format(time.RFC3339)
	}

	return response
}
