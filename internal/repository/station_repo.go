package repository

import (
	"context"
	"database/sql"
	"errors"

	"gridvolt/internal/models"
)

// StationRepository manages charging station persistence.
type StationRepository struct {
	q Querier
}

// NewStationRepository returns repository.
func NewStationRepository(q Querier) *StationRepository {
	return &StationRepository{q: q}
}

const stationColumns = `id, charge_point_id, name, address, default_price_per_kwh, is_operational, created_at, updated_at`

func scanStation(row *sql.Row) (*models.Station, error) {
	var st models.Station
	err := row.Scan(
		&st.ID,
		&st.ChargePointID,
		&st.Name,
		&st.Address,
		&st.DefaultPricePerKWh,
		&st.IsOperational,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &st, nil
}

// StationByChargePoint resolves the station registered for a charge point
// identifier presented at connection time.
func (r *StationRepository) StationByChargePoint(ctx context.Context, chargePointID string) (*models.Station, error) {
	const query = `
		SELECT ` + stationColumns + `
		FROM charging_stations
		WHERE charge_point_id = $1
		LIMIT 1
	`
	return scanStation(r.q.QueryRowContext(ctx, query, chargePointID))
}

// StationByID fetches station by primary key.
func (r *StationRepository) StationByID(ctx context.Context, id int64) (*models.Station, error) {
	const query = `
		SELECT ` + stationColumns + `
		FROM charging_stations
		WHERE id = $1
		LIMIT 1
	`
	return scanStation(r.q.QueryRowContext(ctx, query, id))
}

// TouchStation bumps the station's updated_at timestamp.
func (r *StationRepository) TouchStation(ctx context.Context, id int64) error {
	const query = `
		UPDATE charging_stations
		SET updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.q.ExecContext(ctx, query, id)
	return err
}

// List returns all operational stations.
func (r *StationRepository) List(ctx context.Context) ([]models.Station, error) {
	const query = `
		SELECT ` + stationColumns + `
		FROM charging_stations
		WHERE is_operational = TRUE
		ORDER BY id
	`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		var st models.Station
		if err := rows.Scan(
			&st.ID,
			&st.ChargePointID,
			&st.Name,
			&st.Address,
			&st.DefaultPricePerKWh,
			&st.IsOperational,
			&st.CreatedAt,
			&st.UpdatedAt,
		); err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}
