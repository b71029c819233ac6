package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gridvolt/internal/models"
)

// ErrNotFound represents missing rows of any kind.
var ErrNotFound = errors.New("record not found")

// Querier is satisfied by both *sql.DB and *sql.Tx so the repositories can
// run standalone or inside a scoped transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Records is the record-store handle passed to gateway handlers. Every method
// runs against the same transaction when obtained through Store.InTx.
type Records interface {
	StationByChargePoint(ctx context.Context, chargePointID string) (*models.Station, error)
	StationByID(ctx context.Context, id int64) (*models.Station, error)
	TouchStation(ctx context.Context, id int64) error

	ConnectorInStation(ctx context.Context, stationID, connectorID int64) (*models.Connector, error)
	ConnectorByID(ctx context.Context, id int64) (*models.Connector, error)
	UpdateConnectorStatus(ctx context.Context, connectorID int64, status models.ConnectorStatus) error

	UserByTag(ctx context.Context, tag string) (*models.User, error)
	UserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUserBalance(ctx context.Context, userID int64, balance float64) error

	CreateSession(ctx context.Context, session *models.ChargingSession) error
	SessionByTransactionID(ctx context.Context, transactionID int64) (*models.ChargingSession, error)
	OpenSessionForConnector(ctx context.Context, connectorID int64) (*models.ChargingSession, error)
	UpdateSessionEnergy(ctx context.Context, sessionID int64, energyKWh float64) error
	CloseSession(ctx context.Context, session *models.ChargingSession) error
}

// Store runs a unit of record work as a single atomic transaction.
type Store interface {
	InTx(ctx context.Context, fn func(Records) error) error
}

// SQLStore is the Postgres-backed Store.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore returns store over the given pool.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// InTx begins a transaction, hands fn a Records bound to it, and commits on
// success or rolls back on error.
func (s *SQLStore) InTx(ctx context.Context, fn func(Records) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}

	if err := fn(newRecords(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("store: rollback after %v: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// records glues the per-table repositories into the Records interface.
type records struct {
	*StationRepository
	*ConnectorRepository
	*UserRepository
	*SessionRepository
}

func newRecords(q Querier) Records {
	return &records{
		StationRepository:   NewStationRepository(q),
		ConnectorRepository: NewConnectorRepository(q),
		UserRepository:      NewUserRepository(q),
		SessionRepository:   NewSessionRepository(q),
	}
}
