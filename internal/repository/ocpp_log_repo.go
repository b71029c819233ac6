package repository

import (
	"context"
)

// OCPPLogRepository stores raw gateway frames for audit.
type OCPPLogRepository struct {
	q Querier
}

// NewOCPPLogRepository returns repository.
func NewOCPPLogRepository(q Querier) *OCPPLogRepository {
	return &OCPPLogRepository{q: q}
}

// Save stores one frame. Direction is "incoming" or "outgoing".
func (r *OCPPLogRepository) Save(ctx context.Context, chargePointID, direction, action string, payload []byte) error {
	const query = `
		INSERT INTO ocpp_messages (charge_point_id, direction, action, payload)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.q.ExecContext(ctx, query, chargePointID, direction, action, payload)
	return err
}
