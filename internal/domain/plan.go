package domain

import "fmt"

// PlanName identifies a pricing plan.
type PlanName string

const (
	PlanStandard PlanName = "STANDARD"
	PlanPremium  PlanName = "PREMIUM"
)

// PricingPlan is immutable pricing configuration. Plans are reference
// data created at startup and never mutated at runtime.
type PricingPlan struct {
	Name               PlanName
	BaseRate           float64 // currency units
	PerMinuteRate      float64
	FreeMinutes        int // minutes included in the base rate
	MaxFreeRidesPerDay int // fully free rides per day (premium quota)
}

// The two canonical plans.
var (
	StandardPlan = PricingPlan{
		Name:               PlanStandard,
		BaseRate:           1.00,
		PerMinuteRate:      0.15,
		FreeMinutes:        5,
		MaxFreeRidesPerDay: 0,
	}

	PremiumPlan = PricingPlan{
		Name:               PlanPremium,
		BaseRate:           0.50,
		PerMinuteRate:      0.10,
		FreeMinutes:        60,
		MaxFreeRidesPerDay: 2,
	}
)

// PlanByName resolves a plan name to its canonical plan.
func PlanByName(name PlanName) (PricingPlan, bool) {
	switch name {
	case PlanStandard:
		return StandardPlan, true
	case PlanPremium:
		return PremiumPlan, true
	default:
		return PricingPlan{}, false
	}
}

// IsPremium reports whether the plan is the premium plan.
func (p PricingPlan) IsPremium() bool {
	return p.Name == PlanPremium
}

// Explanation returns a human-readable description of the plan's pricing.
func (p PricingPlan) Explanation() string {
	s := fmt.Sprintf("%s plan: $%.2f base rate includes first %d minutes. $%.2f/minute after that.",
		p.Name, p.BaseRate, p.FreeMinutes, p.PerMinuteRate)
	if p.IsPremium() {
		s += fmt.Sprintf(" First %d rides under %d minutes are free each day. 10%% discount on other rides (up to $2).",
			p.MaxFreeRidesPerDay, p.FreeMinutes)
	}
	return s
}

// RideRequest is the input to a pricing computation.
type RideRequest struct {
	DurationMinutes     float64
	DistanceKm          float64 // carried for future use, currently non-pricing
	IsPremiumUser       bool
	RidesCompletedToday int // rides since midnight that consumed the free-ride quota
}

// CostBreakdown is the output of a pricing computation. It is a value,
// recomputed fresh on every call and never cached or mutated.
type CostBreakdown struct {
	BaseRate    float64
	MinutesCost float64
	Discount    float64
	TotalCost   float64
}
