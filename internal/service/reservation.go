package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"bikeshare/internal/domain"
	"bikeshare/internal/redis"
	"bikeshare/internal/repository"
)

const bikeLockTTL = 10 * time.Second

// ReservationService owns the lifecycle of reservations: it creates
// them, applies state transitions, delegates cost computation to the
// PricingEngine and availability changes to the StationInventory, and
// archives settled rides. The registry it holds is the concurrency
// boundary; repositories are write-through persistence.
type ReservationService struct {
	inventory       *StationInventory
	registry        *ReservationRegistry
	pricing         *PricingEngine
	lockStore       redis.LockStoreInterface
	cacheStore      redis.CacheStoreInterface
	reservationRepo repository.ReservationRepository
	bikeRepo        repository.BikeRepository
	stationRepo     repository.StationRepository
	notifier        *NotificationService
	maxDuration     float64 // minutes
}

// NewReservationService creates a new ReservationService. lockStore and
// cacheStore may be nil when Redis is not available (tests, single
// instance deployments).
func NewReservationService(
	inventory *StationInventory,
	registry *ReservationRegistry,
	pricing *PricingEngine,
	lockStore redis.LockStoreInterface,
	cacheStore redis.CacheStoreInterface,
	reservationRepo repository.ReservationRepository,
	bikeRepo repository.BikeRepository,
	stationRepo repository.StationRepository,
	notifier *NotificationService,
	maxDurationMinutes float64,
) *ReservationService {
	return &ReservationService{
		inventory:       inventory,
		registry:        registry,
		pricing:         pricing,
		lockStore:       lockStore,
		cacheStore:      cacheStore,
		reservationRepo: reservationRepo,
		bikeRepo:        bikeRepo,
		stationRepo:     stationRepo,
		notifier:        notifier,
		maxDuration:     maxDurationMinutes,
	}
}

// CreateReservationRequest contains the parameters for creating a reservation.
type CreateReservationRequest struct {
	UserID          string
	BikeID          string
	StationID       string
	DurationMinutes float64
	Plan            domain.PlanName // empty means STANDARD
}

// CreateReservation reserves a bike at a station. On success the
// reservation is RESERVED with an upfront cost estimate and its expiry
// timer running; the caller unlocks it to start the ride.
//
// The inventory decrement and the registry claim are one logical unit:
// the per-station lock hands the bike ID to exactly one caller, and any
// failure after the decrement releases the bike before returning, so no
// partial reservation is ever visible.
func (s *ReservationService) CreateReservation(ctx context.Context, req CreateReservationRequest) (*domain.Reservation, error) {
	if req.UserID == "" {
		return nil, ErrInvalidUserID
	}
	if req.BikeID == "" {
		return nil, ErrInvalidBikeID
	}
	if req.StationID == "" {
		return nil, ErrInvalidStationID
	}
	if req.DurationMinutes <= 0 || req.DurationMinutes > s.maxDuration {
		return nil, ErrInvalidDuration
	}

	planName := req.Plan
	if planName == "" {
		planName = domain.PlanStandard
	}
	plan, ok := domain.PlanByName(planName)
	if !ok {
		return nil, ErrUnknownPlan
	}

	if _, docked := s.inventory.DockedBikeType(req.StationID, req.BikeID); !docked {
		if _, err := s.inventory.GetStation(req.StationID); err != nil {
			return nil, err
		}
		return nil, ErrBikeUnavailable
	}

	// Cross-instance guard on the bike, mirroring the in-process claim.
	// ReserveBike takes exactly this bike or fails, so the lock covers
	// the bike that actually leaves the dock.
	if s.lockStore != nil {
		locked, err := s.lockStore.AcquireBikeLock(ctx, req.BikeID, bikeLockTTL)
		if err != nil {
			return nil, err
		}
		if !locked {
			return nil, ErrAlreadyReserved
		}
		defer func() {
			_ = s.lockStore.ReleaseBikeLock(ctx, req.BikeID)
		}()
	}

	bikeType, err := s.inventory.ReserveBike(req.StationID, req.BikeID)
	if err != nil {
		return nil, err
	}

	res := &domain.Reservation{
		ID:              uuid.New().String(),
		UserID:          req.UserID,
		BikeID:          req.BikeID,
		BikeType:        bikeType,
		Plan:            plan.Name,
		StartStationID:  req.StationID,
		ReservationTime: time.Now(),
		DurationMinutes: req.DurationMinutes,
		CostBreakdown:   s.estimate(ctx, req.UserID, req.DurationMinutes, plan),
		Status:          domain.ReservationStatusReserved,
	}

	entry := &reservationEntry{reservation: res}
	if err := s.registry.Claim(entry); err != nil {
		s.releaseOrAlert(req.StationID, req.BikeID, bikeType)
		return nil, err
	}

	if err := s.reservationRepo.Create(ctx, res); err != nil {
		s.registry.Release(req.BikeID)
		s.releaseOrAlert(req.StationID, req.BikeID, bikeType)
		return nil, err
	}

	// The window counts from reservation time; unlocking later does not
	// extend it.
	reservationID := res.ID
	entry.timer = StartExpiryTimer(minutesToDuration(req.DurationMinutes), func() {
		s.expire(reservationID)
	})

	s.persistCounts(ctx, req.StationID)
	if err := s.bikeRepo.UpdateStation(ctx, req.BikeID, ""); err != nil {
		log.Printf("reservation %s: failed to mark bike %s on loan: %v", res.ID, req.BikeID, err)
	}

	s.notifier.NotifyReservationCreated(ctx, res)

	out := *res
	return &out, nil
}

// Unlock transitions a RESERVED reservation to ACTIVE, recording the
// start time. The expiry timer keeps counting from reservation time.
func (s *ReservationService) Unlock(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	entry, err := s.liveEntry(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	res := entry.reservation
	if res.Status != domain.ReservationStatusReserved {
		return nil, ErrInvalidTransition
	}

	res.Status = domain.ReservationStatusActive
	res.StartTime = time.Now()

	if err := s.reservationRepo.Update(ctx, res); err != nil {
		// The live entry stays authoritative; settlement rewrites the
		// row in full at end().
		log.Printf("reservation %s: failed to persist unlock: %v", res.ID, err)
	}

	out := *res
	return &out, nil
}

// EndReservation settles a ride: the final cost is recomputed from the
// actual elapsed duration, the bike is released at the return station,
// the timer is cancelled and the registry entry removed. Allowed from
// ACTIVE and EXPIRED; the reserved duration was only ever the rider's
// upper bound, so settlement, not the upfront estimate, is what
// persists as final cost.
func (s *ReservationService) EndReservation(ctx context.Context, reservationID, returnStationID string) (*domain.Reservation, error) {
	if returnStationID == "" {
		return nil, ErrInvalidStationID
	}

	entry, err := s.liveEntry(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	res := entry.reservation
	if res.Status != domain.ReservationStatusActive && res.Status != domain.ReservationStatusExpired {
		return nil, ErrInvalidTransition
	}

	endTime := time.Now()
	started := res.StartTime
	if started.IsZero() {
		// Expired without ever being unlocked; the window still ran
		// from reservation time.
		started = res.ReservationTime
	}
	elapsedMinutes := endTime.Sub(started).Minutes()

	plan, _ := domain.PlanByName(res.Plan)
	settlement := s.pricing.ComputeCost(domain.RideRequest{
		DurationMinutes:     elapsedMinutes,
		IsPremiumUser:       plan.IsPremium(),
		RidesCompletedToday: s.freeRidesToday(ctx, res.UserID),
	}, plan)

	if err := s.inventory.ReleaseBike(returnStationID, res.BikeID, res.BikeType); err != nil {
		if err == ErrStationFull {
			s.notifier.AlertOperator(ctx, "release of bike %s at station %s hit a full station: reservation %s",
				res.BikeID, returnStationID, res.ID)
		}
		return nil, err
	}

	prevStatus := res.Status
	res.Status = domain.ReservationStatusEnded
	res.EndStationID = returnStationID
	res.EndTime = endTime
	res.CostBreakdown = settlement

	if err := s.reservationRepo.Update(ctx, res); err != nil {
		// Roll the transition back so the caller can retry; the bike
		// goes back out on loan.
		res.Status = prevStatus
		res.EndStationID = ""
		res.EndTime = time.Time{}
		if _, rbErr := s.inventory.ReserveBike(returnStationID, res.BikeID); rbErr != nil {
			s.notifier.AlertOperator(ctx, "rollback of reservation %s left bike %s docked: %v", res.ID, res.BikeID, rbErr)
		}
		return nil, err
	}

	if entry.timer != nil {
		entry.timer.Cancel()
	}
	s.registry.Release(res.BikeID)

	s.persistCounts(ctx, returnStationID)
	if err := s.bikeRepo.UpdateStation(ctx, res.BikeID, returnStationID); err != nil {
		log.Printf("reservation %s: failed to dock bike %s: %v", res.ID, res.BikeID, err)
	}
	s.invalidateHistory(ctx, res.UserID)

	s.notifier.NotifyRideEnded(ctx, res, prevStatus == domain.ReservationStatusExpired)

	out := *res
	return &out, nil
}

// CancelReservation cancels a RESERVED reservation, releasing the bike
// back to its start station synchronously: once this returns, a new
// create for the same station sees the bike as available.
func (s *ReservationService) CancelReservation(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	entry, err := s.liveEntry(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	res := entry.reservation
	if res.Status != domain.ReservationStatusReserved {
		return nil, ErrInvalidTransition
	}

	if err := s.inventory.ReleaseBike(res.StartStationID, res.BikeID, res.BikeType); err != nil {
		if err == ErrStationFull {
			s.notifier.AlertOperator(ctx, "cancel of reservation %s hit a full start station %s", res.ID, res.StartStationID)
		}
		return nil, err
	}

	res.Status = domain.ReservationStatusCancelled
	res.CancelledAt = time.Now()

	if err := s.reservationRepo.Update(ctx, res); err != nil {
		res.Status = domain.ReservationStatusReserved
		res.CancelledAt = time.Time{}
		if _, rbErr := s.inventory.ReserveBike(res.StartStationID, res.BikeID); rbErr != nil {
			s.notifier.AlertOperator(ctx, "rollback of cancel %s left bike %s docked: %v", res.ID, res.BikeID, rbErr)
		}
		return nil, err
	}

	if entry.timer != nil {
		entry.timer.Cancel()
	}
	s.registry.Release(res.BikeID)

	s.persistCounts(ctx, res.StartStationID)
	if err := s.bikeRepo.UpdateStation(ctx, res.BikeID, res.StartStationID); err != nil {
		log.Printf("reservation %s: failed to re-dock bike %s: %v", res.ID, res.BikeID, err)
	}
	s.invalidateHistory(ctx, res.UserID)

	s.notifier.NotifyReservationCancelled(ctx, res)

	out := *res
	return &out, nil
}

// expire is the timer callback. Expiry is advisory: the reservation is
// flagged for penalty billing but the bike remains out on loan until the
// rider ends the ride. The transition is applied even if downstream
// notification or persistence fails.
func (s *ReservationService) expire(reservationID string) {
	entry, ok := s.registry.GetByID(reservationID)
	if !ok {
		return // already settled, cancellation won the race
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	res := entry.reservation
	if res.Status != domain.ReservationStatusReserved && res.Status != domain.ReservationStatusActive {
		return
	}

	res.Status = domain.ReservationStatusExpired

	ctx := context.Background()
	if err := s.reservationRepo.Update(ctx, res); err != nil {
		log.Printf("reservation %s: failed to persist expiry: %v", res.ID, err)
	}
	s.notifier.NotifyReservationExpired(ctx, res)
}

// ActiveReservation returns the user's current RESERVED/ACTIVE/EXPIRED
// reservation and the seconds remaining in its window (negative once
// overdue). ok is false when the user has no in-flight reservation.
func (s *ReservationService) ActiveReservation(ctx context.Context, userID string) (*domain.Reservation, float64, bool) {
	entry, ok := s.registry.GetByUser(userID)
	if !ok {
		return nil, 0, false
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	out := *entry.reservation
	var remaining float64
	if entry.timer != nil {
		remaining = entry.timer.Remaining().Seconds()
	}
	return &out, remaining, true
}

// RideHistory returns the user's archived rides, newest first, through
// the Redis cache when available.
func (s *ReservationService) RideHistory(ctx context.Context, userID string) ([]*domain.Reservation, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	if s.cacheStore != nil {
		cached, err := s.cacheStore.GetHistory(ctx, userID)
		if err == nil && cached != nil {
			return fromCachedRides(cached), nil
		}
	}

	history, err := s.reservationRepo.GetHistoryByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		if err := s.cacheStore.SetHistory(ctx, userID, toCachedRides(history)); err != nil {
			log.Printf("failed to cache ride history for user %s: %v", userID, err)
		}
	}

	return history, nil
}

// EstimateCost prices a prospective ride. The estimate assumes the ride
// would be the rider's first of the day; settlement at end() is the
// authoritative figure.
func (s *ReservationService) EstimateCost(planName domain.PlanName, durationMinutes float64) (domain.CostBreakdown, error) {
	if durationMinutes < 0 {
		return domain.CostBreakdown{}, ErrInvalidDuration
	}
	plan, ok := domain.PlanByName(planName)
	if !ok {
		return domain.CostBreakdown{}, ErrUnknownPlan
	}

	return s.pricing.ComputeCost(domain.RideRequest{
		DurationMinutes: durationMinutes,
		IsPremiumUser:   plan.IsPremium(),
	}, plan), nil
}

// liveEntry resolves a reservation ID to its registry entry.
// Reservations no longer in the registry are looked up in the archive
// to distinguish "already settled" from "never existed".
func (s *ReservationService) liveEntry(ctx context.Context, reservationID string) (*reservationEntry, error) {
	if reservationID == "" {
		return nil, ErrInvalidTransition
	}

	if entry, ok := s.registry.GetByID(reservationID); ok {
		return entry, nil
	}

	if _, err := s.reservationRepo.GetByID(ctx, reservationID); err != nil {
		return nil, err
	}
	return nil, ErrInvalidTransition
}

// estimate computes the provisional cost shown to the rider at creation.
func (s *ReservationService) estimate(ctx context.Context, userID string, durationMinutes float64, plan domain.PricingPlan) domain.CostBreakdown {
	return s.pricing.ComputeCost(domain.RideRequest{
		DurationMinutes:     durationMinutes,
		IsPremiumUser:       plan.IsPremium(),
		RidesCompletedToday: s.freeRidesToday(ctx, userID),
	}, plan)
}

// freeRidesToday reads the daily free-ride ledger. A ledger read failure
// prices the ride as if the quota were unused; rides must not fail on a
// ledger outage.
func (s *ReservationService) freeRidesToday(ctx context.Context, userID string) int {
	count, err := s.reservationRepo.CountFreeRidesToday(ctx, userID)
	if err != nil {
		log.Printf("failed to read free-ride ledger for user %s: %v", userID, err)
		return 0
	}
	return count
}

// releaseOrAlert compensates a failed create by re-docking the bike.
func (s *ReservationService) releaseOrAlert(stationID, bikeID string, bikeType domain.BikeType) {
	if err := s.inventory.ReleaseBike(stationID, bikeID, bikeType); err != nil {
		s.notifier.AlertOperator(context.Background(), "failed to re-dock bike %s at station %s after aborted create: %v",
			bikeID, stationID, err)
	}
}

// persistCounts writes the station's live counters through to the
// repository. Failures are logged; the reconciler repairs drift.
func (s *ReservationService) persistCounts(ctx context.Context, stationID string) {
	station, err := s.inventory.GetStation(stationID)
	if err != nil {
		return
	}
	if err := s.stationRepo.UpdateCounts(ctx, stationID, station.AvailableStandardBikes, station.AvailableElectricBikes); err != nil {
		log.Printf("failed to persist counts for station %s: %v", stationID, err)
	}
}

func (s *ReservationService) invalidateHistory(ctx context.Context, userID string) {
	if s.cacheStore == nil {
		return
	}
	if err := s.cacheStore.InvalidateHistory(ctx, userID); err != nil {
		log.Printf("failed to invalidate ride history cache for user %s: %v", userID, err)
	}
}

func minutesToDuration(minutes float64) time.Duration {
	return time.Duration(minutes * float64(time.Minute))
}

func toCachedRides(history []*domain.Reservation) []redis.CachedRide {
	rides := make([]redis.CachedRide, 0, len(history))
	for _, r := range history {
		ride := redis.CachedRide{
			ID:              r.ID,
			UserID:          r.UserID,
			BikeID:          r.BikeID,
			BikeType:        string(r.BikeType),
			Plan:            string(r.Plan),
			StartStationID:  r.StartStationID,
			EndStationID:    r.EndStationID,
			ReservationTime: r.ReservationTime.Format(time.RFC3339),
			DurationMinutes: r.DurationMinutes,
			BaseRate:        r.CostBreakdown.BaseRate,
			MinutesCost:     r.CostBreakdown.MinutesCost,
			Discount:        r.CostBreakdown.Discount,
			TotalCost:       r.CostBreakdown.TotalCost,
			Status:          string(r.Status),
		}
		if !r.StartTime.IsZero() {
			ride.StartTime = r.StartTime.Format(time.RFC3339)
		}
		if !r.EndTime.IsZero() {
			ride.EndTime = r.EndTime.Format(time.RFC3339)
		}
		if !r.CancelledAt.IsZero() {
			ride.CancelledAt = r.CancelledAt.Format(time.RFC3339)
		}
		rides = append(rides, ride)
	}
	return rides
}

func fromCachedRides(rides []redis.CachedRide) []*domain.Reservation {
	history := make([]*domain.Reservation, 0, len(rides))
	for _, c := range rides {
		r := &domain.Reservation{
			ID:              c.ID,
			UserID:          c.UserID,
			BikeID:          c.BikeID,
			BikeType:        domain.BikeType(c.BikeType),
			Plan:            domain.PlanName(c.Plan),
			StartStationID:  c.StartStationID,
			EndStationID:    c.EndStationID,
			DurationMinutes: c.DurationMinutes,
			CostBreakdown: domain.CostBreakdown{
				BaseRate:    c.BaseRate,
				MinutesCost: c.MinutesCost,
				Discount:    c.Discount,
				TotalCost:   c.TotalCost,
			},
			Status: domain.ReservationStatus(c.Status),
		}
		r.ReservationTime, _ = time.Parse(time.RFC3339, c.ReservationTime)
		if c.StartTime != "" {
			r.StartTime, _ = time.Parse(time.RFC3339, c.StartTime)
		}
		if c.EndTime != "" {
			r.EndTime, _ = time.Parse(time.RFC3339, c.EndTime)
		}
		if c.CancelledAt != "" {
			r.CancelledAt, _ = time.Parse(time.RFC3339, c.CancelledAt)
		}
		history = append(history, r)
	}
	return history
}
