package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"gridvolt/internal/cache"
	"gridvolt/internal/metrics"
	"gridvolt/internal/models"
	"gridvolt/internal/ocpp"
	"gridvolt/internal/ocpp/protocol"
	"gridvolt/internal/repository"
	"gridvolt/internal/service"
	"gridvolt/internal/settlement"
)

// NewStopTransactionHandler closes the session and settles payment against
// the user's wallet in one store transaction: cost is energy at close time
// multiplied by the station's price, the debit applies only when the balance
// covers it, and the session close and the settlement commit together or not
// at all. Unknown or already-closed transactions are logged and still get an
// Accepted response; the protocol is lenient to avoid hardware retry storms.
func NewStopTransactionHandler(
	store repository.Store,
	tracker *service.TransactionTracker,
	activeSessions *cache.ActiveSessionStore,
	logger *zap.Logger,
) ocpp.HandlerFunc {
	return func(ctx context.Context, chargePointID string, payload json.RawMessage) (ocpp.Result, error) {
		req, err := ocpp.Decode[protocol.StopTransactionRequest](payload)
		if err != nil {
			return ocpp.Drop(), err
		}

		ack := ocpp.Reply(protocol.StopTransactionResponse{
			IdTagInfo: protocol.IdTagInfo{Status: protocol.AuthAccepted},
		})

		var closed *models.ChargingSession

		err = store.InTx(ctx, func(rec repository.Records) error {
			session, err := rec.SessionByTransactionID(ctx, req.TransactionID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					logger.Warn("stop for unknown transaction",
						zap.String("charge_point_id", chargePointID),
						zap.Int64("transaction_id", req.TransactionID))
					return nil
				}
				return err
			}
			if !session.Open() {
				logger.Warn("stop for already closed transaction",
					zap.String("charge_point_id", chargePointID),
					zap.Int64("transaction_id", req.TransactionID))
				return nil
			}

			connector, err := rec.ConnectorByID(ctx, session.ConnectorID)
			if err != nil {
				return err
			}
			station, err := rec.StationByID(ctx, connector.StationID)
			if err != nil {
				return err
			}
			user, err := rec.UserByID(ctx, session.UserID)
			if err != nil {
				return err
			}

			energyKWh := req.MeterStop / 1000
			cost := energyKWh * station.DefaultPricePerKWh

			now := time.Now().UTC()
			session.EndTime = &now
			session.EnergyKWh = energyKWh
			session.Cost = cost
			if req.Reason != "" {
				reason := req.Reason
				session.StopReason = &reason
			}

			outcome := settlement.Settle(user.Balance, cost)
			session.PaymentStatus = outcome.Status
			if outcome.Paid() {
				ref := outcome.Reference
				session.SettlementRef = &ref
				if err := rec.UpdateUserBalance(ctx, user.ID, outcome.NewBalance); err != nil {
					return err
				}
			}

			if err := rec.CloseSession(ctx, session); err != nil {
				return err
			}
			closed = session
			return nil
		})
		if err != nil {
			logger.Error("stop transaction failed",
				zap.String("charge_point_id", chargePointID),
				zap.Int64("transaction_id", req.TransactionID),
				zap.Error(err))
			return ack, nil
		}
		if closed == nil {
			return ack, nil
		}

		tracker.Stop(ctx, req.TransactionID)
		metrics.ObserveTransactions(tracker.Active())
		metrics.CountSession(chargePointID, string(closed.PaymentStatus))
		metrics.CountEnergy(chargePointID, closed.EnergyKWh)

		if activeSessions != nil {
			if err := activeSessions.Delete(ctx, req.TransactionID); err != nil {
				logger.Warn("active session cache delete failed",
					zap.Int64("transaction_id", req.TransactionID), zap.Error(err))
			}
		}

		logger.Info("charging session closed",
			zap.String("charge_point_id", chargePointID),
			zap.Int64("session_id", closed.ID),
			zap.Int64("transaction_id", req.TransactionID),
			zap.Float64("energy_kwh", closed.EnergyKWh),
			zap.Float64("cost", closed.Cost),
			zap.String("payment_status", string(closed.PaymentStatus)))

		return ack, nil
	}
}
