package handler

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bikeshare/internal/repository"
	"bikeshare/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// bindQueryFloat parses a required float query parameter.
func bindQueryFloat(c *gin.Context, name string, out *float64) error {
	raw := c.Query(name)
	if raw == "" {
		return fmt.Errorf("%s is required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return err
	}
	*out = v
	return nil
}

// round2 rounds a monetary value for display. Internal arithmetic stays
// at full precision; rounding happens only here at the edge.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidBikeID),
		errors.Is(err, service.ErrInvalidStationID),
		errors.Is(err, service.ErrInvalidDuration),
		errors.Is(err, service.ErrUnknownPlan),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidCapacity),
		errors.Is(err, service.ErrInvalidBatteryLevel),
		errors.Is(err, service.ErrInvalidBikeType):
		return http.StatusBadRequest

	// Race lost or state machine misuse - Conflict. Surfaced to the
	// rider as "bike just taken" / "ride already ended", not as a
	// system error.
	case errors.Is(err, service.ErrAlreadyReserved),
		errors.Is(err, service.ErrActiveReservationExists),
		errors.Is(err, service.ErrBikeUnavailable),
		errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict

	// Internal-consistency bug on release. Operators are alerted by the
	// service; the rider sees an internal error, never the details.
	case errors.Is(err, service.ErrStationFull):
		return http.StatusInternalServerError

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
