package service

import (
	"math"

	"bikeshare/internal/domain"
)

const (
	loyaltyDiscountRate = 0.10
	loyaltyDiscountCap  = 2.00
)

// PricingEngine computes ride costs. It is pure: no state, no I/O, and
// identical inputs always produce identical outputs. Inputs are assumed
// pre-validated by the caller; negative durations never reach it.
type PricingEngine struct{}

// NewPricingEngine creates a new PricingEngine.
func NewPricingEngine() *PricingEngine {
	return &PricingEngine{}
}

// ComputeCost returns the cost breakdown for a ride under the given plan.
//
// Premium riders get MaxFreeRidesPerDay fully free rides per day as long
// as the ride fits inside the plan's free minutes. Paid premium rides get
// a flat 10% loyalty discount capped at $2. Monetary values stay at full
// precision; rounding happens at display time only, so the breakdown
// fields never accumulate rounding error.
func (e *PricingEngine) ComputeCost(req domain.RideRequest, plan domain.PricingPlan) domain.CostBreakdown {
	// Fully free ride under the premium daily quota. The discount field
	// reports the waived base rate for display; nothing is charged.
	if req.IsPremiumUser &&
		req.RidesCompletedToday < plan.MaxFreeRidesPerDay &&
		req.DurationMinutes <= float64(plan.FreeMinutes) {
		return domain.CostBreakdown{
			BaseRate:    0,
			MinutesCost: 0,
			Discount:    plan.BaseRate,
			TotalCost:   0,
		}
	}

	chargeableMinutes := math.Max(0, req.DurationMinutes-float64(plan.FreeMinutes))
	minutesCost := chargeableMinutes * plan.PerMinuteRate
	subtotal := plan.BaseRate + minutesCost

	var discount float64
	if req.IsPremiumUser {
		discount = math.Min(loyaltyDiscountCap, subtotal*loyaltyDiscountRate)
	}

	return domain.CostBreakdown{
		BaseRate:    plan.BaseRate,
		MinutesCost: minutesCost,
		Discount:    discount,
		TotalCost:   math.Max(0, subtotal-discount),
	}
}
