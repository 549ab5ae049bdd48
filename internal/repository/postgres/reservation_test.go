package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"bikeshare/internal/domain"
	"bikeshare/internal/repository"
)

func newMockRepo(t *testing.T) (*ReservationRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("opening stub database: %v", err)
	}
	return NewReservationRepository(db), mock, func() { db.Close() }
}

func sampleReservation() *domain.Reservation {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.Reservation{
		ID:              "res-1",
		UserID:          "user-1",
		BikeID:          "bike-1",
		BikeType:        domain.BikeTypeStandard,
		Plan:            domain.PlanStandard,
		StartStationID:  "station-1",
		ReservationTime: now,
		DurationMinutes: 30,
		CostBreakdown: domain.CostBreakdown{
			BaseRate:    1.00,
			MinutesCost: 3.75,
			TotalCost:   4.75,
		},
		Status: domain.ReservationStatusReserved,
	}
}

func TestReservationRepository_Create(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	res := sampleReservation()

	mock.ExpectExec("INSERT INTO reservations").
		WithArgs(
			res.ID, res.UserID, res.BikeID, string(res.BikeType), string(res.Plan),
			res.StartStationID, sqlmock.AnyArg(),
			res.ReservationTime, sqlmock.AnyArg(), sqlmock.AnyArg(),
			res.DurationMinutes,
			res.CostBreakdown.BaseRate, res.CostBreakdown.MinutesCost,
			res.CostBreakdown.Discount, res.CostBreakdown.TotalCost,
			string(res.Status), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), res); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReservationRepository_Update_NotFound(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	res := sampleReservation()
	res.Status = domain.ReservationStatusEnded

	mock.ExpectExec("UPDATE reservations").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), res)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound for a missing row, got %v", err)
	}
}

func TestReservationRepository_GetByID_RoundTrip(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	res := sampleReservation()
	res.Status = domain.ReservationStatusEnded
	res.EndStationID = "station-2"
	res.StartTime = res.ReservationTime.Add(time.Minute)
	res.EndTime = res.ReservationTime.Add(31 * time.Minute)

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "bike_id", "bike_type", "plan", "start_station_id", "end_station_id",
		"reservation_time", "start_time", "end_time", "duration_minutes",
		"base_rate", "minutes_cost", "discount", "total_cost", "status", "cancelled_at",
	}).AddRow(
		res.ID, res.UserID, res.BikeID, string(res.BikeType), string(res.Plan),
		res.StartStationID, res.EndStationID,
		res.ReservationTime, res.StartTime, res.EndTime, res.DurationMinutes,
		res.CostBreakdown.BaseRate, res.CostBreakdown.MinutesCost,
		res.CostBreakdown.Discount, res.CostBreakdown.TotalCost,
		string(res.Status), nil,
	)

	mock.ExpectQuery("SELECT (.+) FROM reservations WHERE id").
		WithArgs(res.ID).
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != res.ID || got.Status != res.Status {
		t.Errorf("unexpected row: %+v", got)
	}
	if got.EndStationID != "station-2" {
		t.Errorf("expected end station scanned, got %q", got.EndStationID)
	}
	if !got.EndTime.Equal(res.EndTime) {
		t.Errorf("expected end time %v, got %v", res.EndTime, got.EndTime)
	}
	if got.CostBreakdown != res.CostBreakdown {
		t.Errorf("expected breakdown %+v, got %+v", res.CostBreakdown, got.CostBreakdown)
	}
	if !got.CancelledAt.IsZero() {
		t.Errorf("expected zero cancelled time, got %v", got.CancelledAt)
	}
}

func TestReservationRepository_GetByID_NotFound(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectQuery("SELECT (.+) FROM reservations WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReservationRepository_GetHistoryByUser(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	res := sampleReservation()
	res.Status = domain.ReservationStatusCancelled
	res.CancelledAt = res.ReservationTime.Add(2 * time.Minute)

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "bike_id", "bike_type", "plan", "start_station_id", "end_station_id",
		"reservation_time", "start_time", "end_time", "duration_minutes",
		"base_rate", "minutes_cost", "discount", "total_cost", "status", "cancelled_at",
	}).AddRow(
		res.ID, res.UserID, res.BikeID, string(res.BikeType), string(res.Plan),
		res.StartStationID, nil,
		res.ReservationTime, nil, nil, res.DurationMinutes,
		res.CostBreakdown.BaseRate, res.CostBreakdown.MinutesCost,
		res.CostBreakdown.Discount, res.CostBreakdown.TotalCost,
		string(res.Status), res.CancelledAt,
	)

	mock.ExpectQuery("SELECT (.+) FROM reservations").
		WithArgs("user-1").
		WillReturnRows(rows)

	history, err := repo.GetHistoryByUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 row, got %d", len(history))
	}
	if history[0].Status != domain.ReservationStatusCancelled {
		t.Errorf("expected CANCELLED, got %s", history[0].Status)
	}
	if !history[0].CancelledAt.Equal(res.CancelledAt) {
		t.Errorf("expected cancelled time scanned, got %v", history[0].CancelledAt)
	}
}

func TestReservationRepository_CountFreeRidesToday(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectQuery("SELECT COUNT(.+) FROM reservations").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountFreeRidesToday(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 free rides, got %d", count)
	}
}
