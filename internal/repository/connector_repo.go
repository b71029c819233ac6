package repository

import (
	"context"
	"database/sql"
	"errors"

	"gridvolt/internal/models"
)

// ConnectorRepository manages connector persistence.
type ConnectorRepository struct {
	q Querier
}

// NewConnectorRepository returns repository.
func NewConnectorRepository(q Querier) *ConnectorRepository {
	return &ConnectorRepository{q: q}
}

const connectorColumns = `id, station_id, connector_type, max_power_kw, status, mirror_connector_id`

func scanConnector(row *sql.Row) (*models.Connector, error) {
	var c models.Connector
	err := row.Scan(
		&c.ID,
		&c.StationID,
		&c.ConnectorType,
		&c.MaxPowerKW,
		&c.Status,
		&c.MirrorConnectorID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ConnectorInStation fetches a connector belonging to the given station.
func (r *ConnectorRepository) ConnectorInStation(ctx context.Context, stationID, connectorID int64) (*models.Connector, error) {
	const query = `
		SELECT ` + connectorColumns + `
		FROM connectors
		WHERE id = $1 AND station_id = $2
		LIMIT 1
	`
	return scanConnector(r.q.QueryRowContext(ctx, query, connectorID, stationID))
}

// ConnectorByID fetches connector by primary key.
func (r *ConnectorRepository) ConnectorByID(ctx context.Context, id int64) (*models.Connector, error) {
	const query = `
		SELECT ` + connectorColumns + `
		FROM connectors
		WHERE id = $1
		LIMIT 1
	`
	return scanConnector(r.q.QueryRowContext(ctx, query, id))
}

// UpdateConnectorStatus writes the connector's status. Last write wins.
func (r *ConnectorRepository) UpdateConnectorStatus(ctx context.Context, connectorID int64, status models.ConnectorStatus) error {
	const query = `
		UPDATE connectors
		SET status = $2
		WHERE id = $1
	`
	_, err := r.q.ExecContext(ctx, query, connectorID, status)
	return err
}

// ListByStation returns connectors for a station ordered by id.
func (r *ConnectorRepository) ListByStation(ctx context.Context, stationID int64) ([]models.Connector, error) {
	const query = `
		SELECT ` + connectorColumns + `
		FROM connectors
		WHERE station_id = $1
		ORDER BY id
	`
	rows, err := r.q.QueryContext(ctx, query, stationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var connectors []models.Connector
	for rows.Next() {
		var c models.Connector
		if err := rows.Scan(
			&c.ID,
			&c.StationID,
			&c.ConnectorType,
			&c.MaxPowerKW,
			&c.Status,
			&c.MirrorConnectorID,
		); err != nil {
			return nil, err
		}
		connectors = append(connectors, c)
	}
	return connectors, rows.Err()
}
