package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"gridvolt/internal/ocpp"
	"gridvolt/internal/ocpp/protocol"
	"gridvolt/internal/repository"
	"gridvolt/internal/service"
)

// NewMeterValuesHandler overwrites the session's accumulated energy with the
// latest sampled reading (watt-hours on the wire, stored as kWh). The value
// is last-write-wins, not cumulative. Unparsable values and unknown
// transactions are logged; the empty ack is sent regardless.
func NewMeterValuesHandler(store repository.Store, tracker *service.TransactionTracker, logger *zap.Logger) ocpp.HandlerFunc {
	return func(ctx context.Context, chargePointID string, payload json.RawMessage) (ocpp.Result, error) {
		req, err := ocpp.Decode[protocol.MeterValuesRequest](payload)
		if err != nil {
			return ocpp.Drop(), err
		}

		ack := ocpp.Reply(protocol.EmptyResponse{})

		raw, ok := firstSampledValue(req)
		if !ok {
			logger.Warn("meter values without sampled value",
				zap.String("charge_point_id", chargePointID),
				zap.Int64("transaction_id", req.TransactionID))
			return ack, nil
		}

		wattHours, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			logger.Warn("unparsable meter value",
				zap.String("charge_point_id", chargePointID),
				zap.Int64("transaction_id", req.TransactionID),
				zap.String("value", raw))
			return ack, nil
		}
		energyKWh := wattHours / 1000

		err = store.InTx(ctx, func(rec repository.Records) error {
			session, err := rec.SessionByTransactionID(ctx, req.TransactionID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					logger.Warn("meter values for unknown transaction",
						zap.String("charge_point_id", chargePointID),
						zap.Int64("transaction_id", req.TransactionID))
					return nil
				}
				return err
			}
			return rec.UpdateSessionEnergy(ctx, session.ID, energyKWh)
		})
		if err != nil {
			logger.Error("meter values persistence failed",
				zap.String("charge_point_id", chargePointID),
				zap.Int64("transaction_id", req.TransactionID),
				zap.Error(err))
			return ack, nil
		}

		tracker.Meter(ctx, req.TransactionID)
		return ack, nil
	}
}

func firstSampledValue(req protocol.MeterValuesRequest) (string, bool) {
	if len(req.MeterValue) == 0 || len(req.MeterValue[0].SampledValue) == 0 {
		return "", false
	}
	return req.MeterValue[0].SampledValue[0].Value, true
}
