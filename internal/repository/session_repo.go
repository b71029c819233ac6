package repository

import (
	"context"
	"database/sql"
	"errors"

	"gridvolt/internal/models"
)

// SessionRepository handles charging session persistence.
type SessionRepository struct {
	q Querier
}

// NewSessionRepository returns repository.
func NewSessionRepository(q Querier) *SessionRepository {
	return &SessionRepository{q: q}
}

const sessionColumns = `id, connector_id, user_id, start_time, end_time, energy_kwh, cost,
	payment_method, payment_status, transaction_id, authorization_tag, stop_reason, settlement_ref`

func scanSession(row *sql.Row) (*models.ChargingSession, error) {
	var s models.ChargingSession
	err := row.Scan(
		&s.ID,
		&s.ConnectorID,
		&s.UserID,
		&s.StartTime,
		&s.EndTime,
		&s.EnergyKWh,
		&s.Cost,
		&s.PaymentMethod,
		&s.PaymentStatus,
		&s.TransactionID,
		&s.AuthorizationTag,
		&s.StopReason,
		&s.SettlementRef,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// CreateSession inserts an open session and assigns its protocol transaction
// id from the generated row id.
func (r *SessionRepository) CreateSession(ctx context.Context, session *models.ChargingSession) error {
	const insert = `
		INSERT INTO charging_sessions
			(connector_id, user_id, start_time, energy_kwh, cost, payment_method, payment_status, transaction_id, authorization_tag)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8)
		RETURNING id
	`
	if err := r.q.QueryRowContext(ctx, insert,
		session.ConnectorID,
		session.UserID,
		session.StartTime,
		session.EnergyKWh,
		session.Cost,
		session.PaymentMethod,
		session.PaymentStatus,
		session.AuthorizationTag,
	).Scan(&session.ID); err != nil {
		return err
	}

	const assignTx = `
		UPDATE charging_sessions
		SET transaction_id = id
		WHERE id = $1
	`
	if _, err := r.q.ExecContext(ctx, assignTx, session.ID); err != nil {
		return err
	}
	session.TransactionID = session.ID
	return nil
}

// SessionByTransactionID fetches a session by protocol transaction id.
func (r *SessionRepository) SessionByTransactionID(ctx context.Context, transactionID int64) (*models.ChargingSession, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM charging_sessions
		WHERE transaction_id = $1
		LIMIT 1
	`
	return scanSession(r.q.QueryRowContext(ctx, query, transactionID))
}

// OpenSessionForConnector returns the open session on a connector, if any.
func (r *SessionRepository) OpenSessionForConnector(ctx context.Context, connectorID int64) (*models.ChargingSession, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM charging_sessions
		WHERE connector_id = $1 AND end_time IS NULL
		ORDER BY start_time DESC
		LIMIT 1
	`
	return scanSession(r.q.QueryRowContext(ctx, query, connectorID))
}

// UpdateSessionEnergy overwrites the session's accumulated energy.
func (r *SessionRepository) UpdateSessionEnergy(ctx context.Context, sessionID int64, energyKWh float64) error {
	const query = `
		UPDATE charging_sessions
		SET energy_kwh = $2
		WHERE id = $1
	`
	_, err := r.q.ExecContext(ctx, query, sessionID, energyKWh)
	return err
}

// CloseSession writes the terminal state of a session.
func (r *SessionRepository) CloseSession(ctx context.Context, session *models.ChargingSession) error {
	const query = `
		UPDATE charging_sessions
		SET end_time = $2,
		    energy_kwh = $3,
		    cost = $4,
		    payment_status = $5,
		    stop_reason = $6,
		    settlement_ref = $7
		WHERE id = $1
	`
	_, err := r.q.ExecContext(ctx, query,
		session.ID,
		session.EndTime,
		session.EnergyKWh,
		session.Cost,
		session.PaymentStatus,
		session.StopReason,
		session.SettlementRef,
	)
	return err
}

// ListByUser returns latest sessions for a user.
func (r *SessionRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.ChargingSession, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT ` + sessionColumns + `
		FROM charging_sessions
		WHERE user_id = $1
		ORDER BY start_time DESC
		LIMIT $2
	`
	rows, err := r.q.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.ChargingSession
	for rows.Next() {
		var s models.ChargingSession
		if err := rows.Scan(
			&s.ID,
			&s.ConnectorID,
			&s.UserID,
			&s.StartTime,
			&s.EndTime,
			&s.EnergyKWh,
			&s.Cost,
			&s.PaymentMethod,
			&s.PaymentStatus,
			&s.TransactionID,
			&s.AuthorizationTag,
			&s.StopReason,
			&s.SettlementRef,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
