package postgres

import (
	"context"
	"database/sql"
	"errors"

	"bikeshare/internal/domain"
	"bikeshare/internal/repository"
)

// ReservationRepository is a PostgreSQL implementation of repository.ReservationRepository.
type ReservationRepository struct {
	q Querier
}

// NewReservationRepository creates a new PostgreSQL reservation repository.
func NewReservationRepository(db *sql.DB) *ReservationRepository {
	return &ReservationRepository{q: db}
}

// NewReservationRepositoryWithTx creates a reservation repository using a transaction.
func NewReservationRepositoryWithTx(tx *sql.Tx) *ReservationRepository {
	return &ReservationRepository{q: tx}
}

const reservationColumns = `
	id, user_id, bike_id, bike_type, plan, start_station_id, end_station_id,
	reservation_time, start_time, end_time, duration_minutes,
	base_rate, minutes_cost, discount, total_cost, status, cancelled_at
`

// Create persists a new reservation.
func (r *ReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	query := `
		INSERT INTO reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.q.ExecContext(ctx, query, reservationArgs(res)...)
	return err
}

// Update updates an existing reservation.
func (r *ReservationRepository) Update(ctx context.Context, res *domain.Reservation) error {
	query := `
		UPDATE reservations
		SET end_station_id = $2, start_time = $3, end_time = $4,
		    base_rate = $5, minutes_cost = $6, discount = $7, total_cost = $8,
		    status = $9, cancelled_at = $10
		WHERE id = $1
	`

	var endStationID sql.NullString
	if res.EndStationID != "" {
		endStationID = sql.NullString{String: res.EndStationID, Valid: true}
	}
	var startTime, endTime, cancelledAt sql.NullTime
	if !res.StartTime.IsZero() {
		startTime = sql.NullTime{Time: res.StartTime, Valid: true}
	}
	if !res.EndTime.IsZero() {
		endTime = sql.NullTime{Time: res.EndTime, Valid: true}
	}
	if !res.CancelledAt.IsZero() {
		cancelledAt = sql.NullTime{Time: res.CancelledAt, Valid: true}
	}

	result, err := r.q.ExecContext(ctx, query,
		res.ID,
		endStationID,
		startTime,
		endTime,
		res.CostBreakdown.BaseRate,
		res.CostBreakdown.MinutesCost,
		res.CostBreakdown.Discount,
		res.CostBreakdown.TotalCost,
		res.Status,
		cancelledAt,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// GetByID retrieves a reservation by ID.
func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	res, err := scanReservation(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return res, nil
}

// GetHistoryByUser returns the user's ENDED and CANCELLED reservations, newest first.
func (r *ReservationRepository) GetHistoryByUser(ctx context.Context, userID string) ([]*domain.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE user_id = $1 AND status IN ('ENDED', 'CANCELLED')
		ORDER BY reservation_time DESC
	`

	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []*domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, res)
	}

	return history, rows.Err()
}

// CountFreeRidesToday returns how many fully free rides the user has
// completed since UTC midnight.
func (r *ReservationRepository) CountFreeRidesToday(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM reservations
		WHERE user_id = $1 AND status = 'ENDED' AND total_cost = 0
		  AND end_time >= date_trunc('day', now() AT TIME ZONE 'utc')
	`

	var count int
	if err := r.q.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanReservation(s scanner) (*domain.Reservation, error) {
	var res domain.Reservation
	var endStationID sql.NullString
	var startTime, endTime, cancelledAt sql.NullTime

	err := s.Scan(
		&res.ID,
		&res.UserID,
		&res.BikeID,
		&res.BikeType,
		&res.Plan,
		&res.StartStationID,
		&endStationID,
		&res.ReservationTime,
		&startTime,
		&endTime,
		&res.DurationMinutes,
		&res.CostBreakdown.BaseRate,
		&res.CostBreakdown.MinutesCost,
		&res.CostBreakdown.Discount,
		&res.CostBreakdown.TotalCost,
		&res.Status,
		&cancelledAt,
	)
	if err != nil {
		return nil, err
	}

	if endStationID.Valid {
		res.EndStationID = endStationID.String
	}
	if startTime.Valid {
		res.StartTime = startTime.Time
	}
	if endTime.Valid {
		res.EndTime = endTime.Time
	}
	if cancelledAt.Valid {
		res.CancelledAt = cancelledAt.Time
	}

	return &res, nil
}

func reservationArgs(res *domain.Reservation) []any {
	var endStationID sql.NullString
	if res.EndStationID != "" {
		endStationID = sql.NullString{String: res.EndStationID, Valid: true}
	}

	var startTime, endTime, cancelledAt sql.NullTime
	if !res.StartTime.IsZero() {
		startTime = sql.NullTime{Time: res.StartTime, Valid: true}
	}
	if !res.EndTime.IsZero() {
		endTime = sql.NullTime{Time: res.EndTime, Valid: true}
	}
	if !res.CancelledAt.IsZero() {
		cancelledAt = sql.NullTime{Time: res.CancelledAt, Valid: true}
	}

	return []any{
		res.ID,
		res.UserID,
		res.BikeID,
		res.BikeType,
		res.Plan,
		res.StartStationID,
		endStationID,
		res.ReservationTime,
		startTime,
		endTime,
		res.DurationMinutes,
		res.CostBreakdown.BaseRate,
		res.CostBreakdown.MinutesCost,
		res.CostBreakdown.Discount,
		res.CostBreakdown.TotalCost,
		res.Status,
		cancelledAt,
	}
}
