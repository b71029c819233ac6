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
)

const walletPaymentMethod = "AppWallet"

// NewStartTransactionHandler opens a charging session for the resolved user
// and connector. Unknown user, unknown connector, or a connector that already
// has an open session all abort silently: no session, no response.
func NewStartTransactionHandler(
	store repository.Store,
	tracker *service.TransactionTracker,
	activeSessions *cache.ActiveSessionStore,
	logger *zap.Logger,
) ocpp.HandlerFunc {
	return func(ctx context.Context, chargePointID string, payload json.RawMessage) (ocpp.Result, error) {
		req, err := ocpp.Decode[protocol.StartTransactionRequest](payload)
		if err != nil {
			return ocpp.Drop(), err
		}

		var session *models.ChargingSession
		dropped := false

		err = store.InTx(ctx, func(rec repository.Records) error {
			user, err := rec.UserByTag(ctx, req.IdTag)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					logger.Warn("start transaction for unknown id tag",
						zap.String("charge_point_id", chargePointID),
						zap.String("id_tag", req.IdTag))
					dropped = true
					return nil
				}
				return err
			}

			station, err := rec.StationByChargePoint(ctx, chargePointID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					logger.Warn("start transaction from unregistered charge point",
						zap.String("charge_point_id", chargePointID))
					dropped = true
					return nil
				}
				return err
			}

			connector, err := rec.ConnectorInStation(ctx, station.ID, int64(req.ConnectorID))
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					logger.Warn("start transaction for unknown connector",
						zap.String("charge_point_id", chargePointID),
						zap.Int("connector_id", req.ConnectorID))
					dropped = true
					return nil
				}
				return err
			}

			if open, err := rec.OpenSessionForConnector(ctx, connector.ID); err == nil {
				logger.Warn("start transaction on busy connector",
					zap.String("charge_point_id", chargePointID),
					zap.Int64("connector_id", connector.ID),
					zap.Int64("open_transaction_id", open.TransactionID))
				dropped = true
				return nil
			} else if !errors.Is(err, repository.ErrNotFound) {
				return err
			}

			session = &models.ChargingSession{
				ConnectorID:      connector.ID,
				UserID:           user.ID,
				StartTime:        time.Now().UTC(),
				PaymentMethod:    walletPaymentMethod,
				PaymentStatus:    models.PaymentPending,
				AuthorizationTag: req.IdTag,
			}
			return rec.CreateSession(ctx, session)
		})
		if err != nil {
			logger.Error("start transaction failed",
				zap.String("charge_point_id", chargePointID), zap.Error(err))
			return ocpp.Drop(), nil
		}
		if dropped || session == nil {
			return ocpp.Drop(), nil
		}

		tracker.Start(service.LiveTransaction{
			TransactionID: session.TransactionID,
			SessionID:     session.ID,
			ConnectorID:   session.ConnectorID,
			UserID:        session.UserID,
			ChargePointID: chargePointID,
		})
		metrics.ObserveTransactions(tracker.Active())

		if activeSessions != nil {
			if err := activeSessions.Save(ctx, cache.ActiveSession{
				SessionID:     session.ID,
				TransactionID: session.TransactionID,
				ChargePointID: chargePointID,
				ConnectorID:   session.ConnectorID,
				UserID:        session.UserID,
				StartTime:     session.StartTime,
			}); err != nil {
				logger.Warn("active session cache save failed",
					zap.Int64("transaction_id", session.TransactionID), zap.Error(err))
			}
		}

		logger.Info("charging session started",
			zap.String("charge_point_id", chargePointID),
			zap.Int64("session_id", session.ID),
			zap.Int64("transaction_id", session.TransactionID))

		return ocpp.Reply(protocol.StartTransactionResponse{
			TransactionID: session.TransactionID,
			IdTagInfo:     protocol.IdTagInfo{Status: protocol.AuthAccepted},
		}), nil
	}
}
