package models

import "time"

// ConnectorStatus is the normalized connector state stored in the database.
type ConnectorStatus string

const (
	ConnectorAvailable   ConnectorStatus = "Available"
	ConnectorCharging    ConnectorStatus = "Charging"
	ConnectorReserved    ConnectorStatus = "Reserved"
	ConnectorUnavailable ConnectorStatus = "Unavailable"
	ConnectorUnknown     ConnectorStatus = "Unknown"
)

// MapWireStatus normalizes an OCPP StatusNotification status string.
func MapWireStatus(wire string) ConnectorStatus {
	switch wire {
	case "Available":
		return ConnectorAvailable
	case "Preparing", "Charging", "SuspendedEV", "SuspendedEVSE":
		return ConnectorCharging
	case "Finishing":
		return ConnectorAvailable
	case "Reserved":
		return ConnectorReserved
	case "Unavailable", "Faulted":
		return ConnectorUnavailable
	default:
		return ConnectorUnknown
	}
}

// PaymentStatus tracks wallet settlement outcome for a session.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
	PaymentFailed  PaymentStatus = "Failed"
)

// Station is a charging station record.
type Station struct {
	ID                 int64     `db:"id" json:"id"`
	ChargePointID      string    `db:"charge_point_id" json:"charge_point_id"`
	Name               string    `db:"name" json:"name"`
	Address            string    `db:"address" json:"address"`
	DefaultPricePerKWh float64   `db:"default_price_per_kwh" json:"default_price_per_kwh"`
	IsOperational      bool      `db:"is_operational" json:"is_operational"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// Connector is an individually addressable port on a station.
//
// MirrorConnectorID, when set, names a second connector that receives every
// status written to this one. Some sites expose one physical port under two
// logical connectors and the hardware only reports the first.
type Connector struct {
	ID                int64           `db:"id" json:"id"`
	StationID         int64           `db:"station_id" json:"station_id"`
	ConnectorType     string          `db:"connector_type" json:"connector_type"`
	MaxPowerKW        float64         `db:"max_power_kw" json:"max_power_kw"`
	Status            ConnectorStatus `db:"status" json:"status"`
	MirrorConnectorID *int64          `db:"mirror_connector_id" json:"mirror_connector_id,omitempty"`
}

// User is an account with a wallet balance. Code is the authorization tag
// presented by the driver at the charge point.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Code         string    `db:"code" json:"code"`
	Balance      float64   `db:"balance" json:"balance"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ChargingSession is one charging event from start to stop.
// TransactionID is the protocol-level transaction id echoed to hardware.
type ChargingSession struct {
	ID               int64         `db:"id" json:"id"`
	ConnectorID      int64         `db:"connector_id" json:"connector_id"`
	UserID           int64         `db:"user_id" json:"user_id"`
	StartTime        time.Time     `db:"start_time" json:"start_time"`
	EndTime          *time.Time    `db:"end_time" json:"end_time,omitempty"`
	EnergyKWh        float64       `db:"energy_kwh" json:"energy_kwh"`
	Cost             float64       `db:"cost" json:"cost"`
	PaymentMethod    string        `db:"payment_method" json:"payment_method"`
	PaymentStatus    PaymentStatus `db:"payment_status" json:"payment_status"`
	TransactionID    int64         `db:"transaction_id" json:"transaction_id"`
	AuthorizationTag string        `db:"authorization_tag" json:"authorization_tag"`
	StopReason       *string       `db:"stop_reason" json:"stop_reason,omitempty"`
	SettlementRef    *string       `db:"settlement_ref" json:"settlement_ref,omitempty"`
}

// Open reports whether the session has not been closed yet.
func (s *ChargingSession) Open() bool {
	return s.EndTime == nil
}
