package postgres

import (
	"context"
	"database/sql"
	"errors"

	"bikeshare/internal/domain"
	"bikeshare/internal/repository"
)

// StationRepository is a PostgreSQL implementation of repository.StationRepository.
//
// available_docks is intentionally not a column; it is derived from
// capacity and the bike counters on read.
type StationRepository struct {
	q Querier
}

// NewStationRepository creates a new PostgreSQL station repository.
func NewStationRepository(db *sql.DB) *StationRepository {
	return &StationRepository{q: db}
}

// NewStationRepositoryWithTx creates a station repository using a transaction.
func NewStationRepositoryWithTx(tx *sql.Tx) *StationRepository {
	return &StationRepository{q: tx}
}

// Create persists a new station.
func (r *StationRepository) Create(ctx context.Context, station *domain.Station) error {
	query := `
		INSERT INTO stations (id, name, address, lat, lng, capacity, available_standard_bikes, available_electric_bikes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		station.ID,
		station.Name,
		station.Address,
		station.Lat,
		station.Lng,
		station.Capacity,
		station.AvailableStandardBikes,
		station.AvailableElectricBikes,
	)

	return err
}

// GetByID retrieves a station by ID.
func (r *StationRepository) GetByID(ctx context.Context, id string) (*domain.Station, error) {
	query := `
		SELECT id, name, address, lat, lng, capacity, available_standard_bikes, available_electric_bikes
		FROM stations WHERE id = $1
	`

	var station domain.Station
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&station.ID,
		&station.Name,
		&station.Address,
		&station.Lat,
		&station.Lng,
		&station.Capacity,
		&station.AvailableStandardBikes,
		&station.AvailableElectricBikes,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &station, nil
}

// GetAll retrieves all stations.
func (r *StationRepository) GetAll(ctx context.Context) ([]*domain.Station, error) {
	query := `
		SELECT id, name, address, lat, lng, capacity, available_standard_bikes, available_electric_bikes
		FROM stations ORDER BY name
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []*domain.Station
	for rows.Next() {
		var station domain.Station
		if err := rows.Scan(
			&station.ID,
			&station.Name,
			&station.Address,
			&station.Lat,
			&station.Lng,
			&station.Capacity,
			&station.AvailableStandardBikes,
			&station.AvailableElectricBikes,
		); err != nil {
			return nil, err
		}
		stations = append(stations, &station)
	}

	return stations, rows.Err()
}

// UpdateCounts persists the station's live bike counters.
func (r *StationRepository) UpdateCounts(ctx context.Context, id string, standard, electric int) error {
	query := `
		UPDATE stations
		SET available_standard_bikes = $2, available_electric_bikes = $3
		WHERE id = $1
	`

	result, err := r.q.ExecContext(ctx, query, id, standard, electric)
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
