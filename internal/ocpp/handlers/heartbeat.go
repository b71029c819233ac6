package handlers

import (
	"context"
	"encoding/json"
	"time"

	"gridvolt/internal/ocpp"
	"gridvolt/internal/ocpp/protocol"
)

// NewHeartbeatHandler acks with current server time. Never fails.
func NewHeartbeatHandler() ocpp.HandlerFunc {
	return func(ctx context.Context, chargePointID string, payload json.RawMessage) (ocpp.Result, error) {
		return ocpp.Reply(protocol.HeartbeatResponse{
			CurrentTime: time.Now().UTC().Format(time.RFC3339),
		}), nil
	}
}
