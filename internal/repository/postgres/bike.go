package postgres

import (
	"context"
	"database/sql"
	"errors"

	"bikeshare/internal/domain"
	"bikeshare/internal/repository"
)

// BikeRepository is a PostgreSQL implementation of repository.BikeRepository.
type BikeRepository struct {
	q Querier
}

// NewBikeRepository creates a new PostgreSQL bike repository.
func NewBikeRepository(db *sql.DB) *BikeRepository {
	return &BikeRepository{q: db}
}

// NewBikeRepositoryWithTx creates a bike repository using a transaction.
func NewBikeRepositoryWithTx(tx *sql.Tx) *BikeRepository {
	return &BikeRepository{q: tx}
}

// Create persists a new bike.
func (r *BikeRepository) Create(ctx context.Context, bike *domain.Bike) error {
	query := `
		INSERT INTO bikes (id, type, display_name, battery_level, current_station_id)
		VALUES ($1, $2, $3, $4, $5)
	`

	var stationID sql.NullString
	if bike.CurrentStationID != "" {
		stationID = sql.NullString{String: bike.CurrentStationID, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		bike.ID,
		bike.Type,
		bike.DisplayName,
		bike.BatteryLevel,
		stationID,
	)

	return err
}

// GetByID retrieves a bike by ID.
func (r *BikeRepository) GetByID(ctx context.Context, id string) (*domain.Bike, error) {
	query := `
		SELECT id, type, display_name, battery_level, current_station_id
		FROM bikes WHERE id = $1
	`

	return r.scanBike(r.q.QueryRowContext(ctx, query, id))
}

// GetByStation retrieves all bikes currently docked at a station.
func (r *BikeRepository) GetByStation(ctx context.Context, stationID string) ([]*domain.Bike, error) {
	query := `
		SELECT id, type, display_name, battery_level, current_station_id
		FROM bikes WHERE current_station_id = $1
	`

	rows, err := r.q.QueryContext(ctx, query, stationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bikes []*domain.Bike
	for rows.Next() {
		var bike domain.Bike
		var sid sql.NullString
		if err := rows.Scan(&bike.ID, &bike.Type, &bike.DisplayName, &bike.BatteryLevel, &sid); err != nil {
			return nil, err
		}
		if sid.Valid {
			bike.CurrentStationID = sid.String
		}
		bikes = append(bikes, &bike)
	}

	return bikes, rows.Err()
}

// UpdateStation moves a bike to a station, or out on loan when stationID is empty.
func (r *BikeRepository) UpdateStation(ctx context.Context, id, stationID string) error {
	query := `UPDATE bikes SET current_station_id = $2 WHERE id = $1`

	var sid sql.NullString
	if stationID != "" {
		sid = sql.NullString{String: stationID, Valid: true}
	}

	result, err := r.q.ExecContext(ctx, query, id, sid)
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

// UpdateBattery records the battery level of an electric bike.
func (r *BikeRepository) UpdateBattery(ctx context.Context, id string, level int) error {
	query := `UPDATE bikes SET battery_level = $2 WHERE id = $1`

	result, err := r.q.ExecContext(ctx, query, id, level)
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

// scanBike scans a single bike row.
func (r *BikeRepository) scanBike(row *sql.Row) (*domain.Bike, error) {
	var bike domain.Bike
	var sid sql.NullString

	err := row.Scan(&bike.ID, &bike.Type, &bike.DisplayName, &bike.BatteryLevel, &sid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if sid.Valid {
		bike.CurrentStationID = sid.String
	}

	return &bike, nil
}
