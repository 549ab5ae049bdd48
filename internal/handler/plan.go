package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bikeshare/internal/domain"
)

// PlanHandler serves the canonical pricing plans.
type PlanHandler struct{}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler() *PlanHandler {
	return &PlanHandler{}
}

// PlanResponse is the HTTP representation of a pricing plan.
type PlanResponse struct {
	Name               string  `json:"name"`
	BaseRate           float64 `json:"base_rate"`
	PerMinuteRate      float64 `json:"per_minute_rate"`
	FreeMinutes        int     `json:"free_minutes"`
	MaxFreeRidesPerDay int     `json:"max_free_rides_per_day"`
	Explanation        string  `json:"explanation"`
}

// GetAll handles GET /v1/plans
func (h *PlanHandler) GetAll(c *gin.Context) {
	plans := []domain.PricingPlan{domain.StandardPlan, domain.PremiumPlan}

	response := make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		response = append(response, PlanResponse{
			Name:               string(p.Name),
			BaseRate:           p.BaseRate,
			PerMinuteRate:      p.PerMinuteRate,
			FreeMinutes:        p.FreeMinutes,
			MaxFreeRidesPerDay: p.MaxFreeRidesPerDay,
			Explanation:        p.Explanation(),
		})
	}

	respondJSON(c, http.StatusOK, response)
}
