package handlers

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"gridvolt/internal/models"
	"gridvolt/internal/ocpp"
	"gridvolt/internal/ocpp/protocol"
	"gridvolt/internal/repository"
)

// NewStatusNotificationHandler writes the normalized connector status, and
// mirrors it to the connector's configured mirror when one is set. The status
// write is last-write-wins; out-of-order notifications are not reconciled.
// The empty ack is sent even when the station or connector cannot be found.
func NewStatusNotificationHandler(store repository.Store, logger *zap.Logger) ocpp.HandlerFunc {
	return func(ctx context.Context, chargePointID string, payload json.RawMessage) (ocpp.Result, error) {
		req, err := ocpp.Decode[protocol.StatusNotificationRequest](payload)
		if err != nil {
			return ocpp.Drop(), err
		}

		status := models.MapWireStatus(req.Status)

		err = store.InTx(ctx, func(rec repository.Records) error {
			station, err := rec.StationByChargePoint(ctx, chargePointID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					logger.Warn("status from unregistered charge point",
						zap.String("charge_point_id", chargePointID))
					return nil
				}
				return err
			}

			connector, err := rec.ConnectorInStation(ctx, station.ID, int64(req.ConnectorID))
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					logger.Warn("status for unknown connector",
						zap.String("charge_point_id", chargePointID),
						zap.Int("connector_id", req.ConnectorID))
					return nil
				}
				return err
			}

			if err := rec.UpdateConnectorStatus(ctx, connector.ID, status); err != nil {
				return err
			}
			if connector.MirrorConnectorID != nil {
				if err := rec.UpdateConnectorStatus(ctx, *connector.MirrorConnectorID, status); err != nil {
					return err
				}
			}

			logger.Info("connector status updated",
				zap.String("charge_point_id", chargePointID),
				zap.Int("connector_id", req.ConnectorID),
				zap.String("status", string(status)))
			return nil
		})
		if err != nil {
			logger.Error("status notification persistence failed",
				zap.String("charge_point_id", chargePointID), zap.Error(err))
		}

		return ocpp.Reply(protocol.EmptyResponse{}), nil
	}
}
