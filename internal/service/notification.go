package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"bikeshare/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationReservationCreated   NotificationType = "RESERVATION_CREATED"
	NotificationReservationExpired   NotificationType = "RESERVATION_EXPIRED"
	NotificationReservationCancelled NotificationType = "RESERVATION_CANCELLED"
	NotificationRideEnded            NotificationType = "RIDE_ENDED"
	NotificationOperatorAlert        NotificationType = "OPERATOR_ALERT"
)

// Notification represents a notification to be delivered.
type Notification struct {
	Type        NotificationType
	RecipientID string // user ID, or "operators" for alerts
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService handles notification delivery. Delivery failures
// never propagate into lifecycle transitions: the state machine is
// authoritative, notifications are best-effort.
type NotificationService struct {
	// In a real system, this would have:
	// - Push notification client (FCM, APNS)
	// - Email client
	// - Operator paging (PagerDuty, Opsgenie)
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyReservationCreated confirms the reservation and its estimate.
func (s *NotificationService) NotifyReservationCreated(ctx context.Context, res *domain.Reservation) {
	s.send(ctx, Notification{
		Type:        NotificationReservationCreated,
		RecipientID: res.UserID,
		Title:       "Bike Reserved",
		Message:     fmt.Sprintf("Bike %s is yours for the next %.0f minutes. Estimated cost $%.2f.", res.BikeID, res.DurationMinutes, res.CostBreakdown.TotalCost),
		Data: map[string]interface{}{
			"reservation_id":   res.ID,
			"bike_id":          res.BikeID,
			"duration_minutes": res.DurationMinutes,
			"estimated_cost":   res.CostBreakdown.TotalCost,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyReservationExpired tells the rider the window has elapsed. The
// ride keeps running until the bike is returned.
func (s *NotificationService) NotifyReservationExpired(ctx context.Context, res *domain.Reservation) {
	s.send(ctx, Notification{
		Type:        NotificationReservationExpired,
		RecipientID: res.UserID,
		Title:       "Reservation Expired",
		Message:     "Your reserved time is up. Please return the bike to any station; the final cost reflects the full ride time.",
		Data: map[string]interface{}{
			"reservation_id": res.ID,
			"bike_id":        res.BikeID,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyReservationCancelled confirms a cancellation.
func (s *NotificationService) NotifyReservationCancelled(ctx context.Context, res *domain.Reservation) {
	s.send(ctx, Notification{
		Type:        NotificationReservationCancelled,
		RecipientID: res.UserID,
		Title:       "Reservation Cancelled",
		Message:     "Your reservation was cancelled and the bike returned to the station.",
		Data: map[string]interface{}{
			"reservation_id": res.ID,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyRideEnded delivers the settlement.
func (s *NotificationService) NotifyRideEnded(ctx context.Context, res *domain.Reservation, wasOverdue bool) {
	message := fmt.Sprintf("Ride complete. Total: $%.2f.", res.CostBreakdown.TotalCost)
	if wasOverdue {
		message = fmt.Sprintf("Ride complete. Your ride ran past its reserved window; total: $%.2f.", res.CostBreakdown.TotalCost)
	}
	s.send(ctx, Notification{
		Type:        NotificationRideEnded,
		RecipientID: res.UserID,
		Title:       "Ride Ended",
		Message:     message,
		Data: map[string]interface{}{
			"reservation_id": res.ID,
			"total_cost":     res.CostBreakdown.TotalCost,
			"was_overdue":    wasOverdue,
		},
		CreatedAt: time.Now(),
	})
}

// AlertOperator raises an internal-consistency alert. These indicate
// bugs, never user errors, and must not be silently swallowed.
func (s *NotificationService) AlertOperator(ctx context.Context, format string, args ...interface{}) {
	s.send(ctx, Notification{
		Type:        NotificationOperatorAlert,
		RecipientID: "operators",
		Title:       "Inventory Consistency Alert",
		Message:     fmt.Sprintf(format, args...),
		CreatedAt:   time.Now(),
	})
}

// send delivers a notification. Currently logs; swap in real transports here.
func (s *NotificationService) send(ctx context.Context, n Notification) {
	log.Printf("[NOTIFICATION] type=%s recipient=%s title=%q message=%q", n.Type, n.RecipientID, n.Title, n.Message)
}
