package handlers

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"gridvolt/internal/ocpp"
	"gridvolt/internal/ocpp/protocol"
	"gridvolt/internal/repository"
)

// NewAuthorizeHandler resolves the authorization tag to a user. An unknown
// tag answers Blocked, never an error.
func NewAuthorizeHandler(store repository.Store, logger *zap.Logger) ocpp.HandlerFunc {
	return func(ctx context.Context, chargePointID string, payload json.RawMessage) (ocpp.Result, error) {
		req, err := ocpp.Decode[protocol.AuthorizeRequest](payload)
		if err != nil {
			return ocpp.Drop(), err
		}

		status := protocol.AuthBlocked
		err = store.InTx(ctx, func(rec repository.Records) error {
			if _, err := rec.UserByTag(ctx, req.IdTag); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return nil
				}
				return err
			}
			status = protocol.AuthAccepted
			return nil
		})
		if err != nil {
			logger.Error("authorize lookup failed",
				zap.String("charge_point_id", chargePointID), zap.Error(err))
		}

		logger.Info("authorize",
			zap.String("charge_point_id", chargePointID),
			zap.String("id_tag", req.IdTag),
			zap.String("status", status))

		return ocpp.Reply(protocol.AuthorizeResponse{
			IdTagInfo: protocol.IdTagInfo{Status: status},
		}), nil
	}
}
