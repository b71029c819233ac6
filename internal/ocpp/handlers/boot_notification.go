package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"gridvolt/internal/ocpp"
	"gridvolt/internal/ocpp/protocol"
	"gridvolt/internal/repository"
)

// NewBootNotificationHandler touches the station resolved from the charge
// point identity. The Accepted response is sent whether or not the station is
// registered; an unknown charge point is only worth a warning.
func NewBootNotificationHandler(store repository.Store, heartbeatInterval int, logger *zap.Logger) ocpp.HandlerFunc {
	return func(ctx context.Context, chargePointID string, payload json.RawMessage) (ocpp.Result, error) {
		if _, err := ocpp.Decode[protocol.BootNotificationRequest](payload); err != nil {
			return ocpp.Drop(), err
		}

		err := store.InTx(ctx, func(rec repository.Records) error {
			station, err := rec.StationByChargePoint(ctx, chargePointID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					logger.Warn("boot from unregistered charge point",
						zap.String("charge_point_id", chargePointID))
					return nil
				}
				return err
			}
			return rec.TouchStation(ctx, station.ID)
		})
		if err != nil {
			logger.Error("boot notification persistence failed",
				zap.String("charge_point_id", chargePointID), zap.Error(err))
		}

		return ocpp.Reply(protocol.BootNotificationResponse{
			Status:      protocol.RegistrationAccepted,
			CurrentTime: time.Now().UTC().Format(time.RFC3339),
			Interval:    heartbeatInterval,
		}), nil
	}
}
