package ocpp

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"gridvolt/internal/metrics"
	"gridvolt/internal/ocpp/protocol"
)

// ErrUnknownAction marks a CALL whose action name is outside the supported
// set. The frame is dropped without a response.
var ErrUnknownAction = errors.New("ocpp: unknown action")

// Result is the tagged outcome of one handler invocation. Dropped means the
// gateway deliberately sends no response frame.
type Result struct {
	Payload interface{}
	Dropped bool
}

// Reply wraps a response payload.
func Reply(payload interface{}) Result {
	return Result{Payload: payload}
}

// Drop is the no-response outcome.
func Drop() Result {
	return Result{Dropped: true}
}

// HandlerFunc processes one CALL payload for a charge point.
type HandlerFunc func(ctx context.Context, chargePointID string, payload json.RawMessage) (Result, error)

// Router dispatches the closed action set to handlers.
type Router struct {
	handlers map[protocol.Action]HandlerFunc
}

// NewRouter returns router.
func NewRouter() *Router {
	return &Router{handlers: make(map[protocol.Action]HandlerFunc)}
}

// Register attaches handler to action.
func (r *Router) Register(action protocol.Action, handler HandlerFunc) {
	r.handlers[action] = handler
}

// Route executes the handler for a CALL message. Names outside the supported
// set are rejected here, at the boundary.
func (r *Router) Route(ctx context.Context, chargePointID string, msg *Message) (Result, error) {
	action, ok := protocol.Actions[string(msg.Action)]
	if !ok {
		return Drop(), ErrUnknownAction
	}
	handler, ok := r.handlers[action]
	if !ok {
		return Drop(), ErrUnknownAction
	}
	return handler(ctx, chargePointID, msg.Payload)
}

// MessageLog persists raw frames for audit. Saves are best-effort; a failed
// save never affects frame processing.
type MessageLog interface {
	Save(ctx context.Context, chargePointID, direction, action string, payload []byte) error
}

// Processor ties together parsing, routing, and response encoding. Its error
// policy is log-and-continue: no inbound frame ever produces a CALLERROR or
// closes the connection.
type Processor struct {
	parser     *Parser
	router     *Router
	messageLog MessageLog
	logger     *zap.Logger
}

// NewProcessor builds Processor. messageLog may be nil to disable auditing.
func NewProcessor(parser *Parser, router *Router, messageLog MessageLog, logger *zap.Logger) *Processor {
	return &Processor{
		parser:     parser,
		router:     router,
		messageLog: messageLog,
		logger:     logger,
	}
}

// Process handles one raw inbound frame and returns the response frame bytes,
// or nil when the frame is dropped.
func (p *Processor) Process(ctx context.Context, chargePointID string, raw []byte) ([]byte, error) {
	msg, err := p.parser.Parse(raw)
	if err != nil {
		p.logger.Warn("dropping malformed frame",
			zap.String("charge_point_id", chargePointID),
			zap.Error(err))
		metrics.CountDroppedFrame("malformed")
		return nil, nil
	}

	p.saveMessage(ctx, chargePointID, "incoming", string(msg.Action), raw)

	if !msg.Call() {
		p.logger.Debug("ignoring non-CALL frame",
			zap.String("charge_point_id", chargePointID),
			zap.Int("message_type", msg.MessageType))
		return nil, nil
	}

	result, err := p.router.Route(ctx, chargePointID, msg)
	if err != nil {
		if errors.Is(err, ErrUnknownAction) {
			p.logger.Warn("dropping unsupported action",
				zap.String("charge_point_id", chargePointID),
				zap.String("action", string(msg.Action)))
			metrics.CountDroppedFrame("unknown_action")
		} else {
			p.logger.Error("handler failed",
				zap.String("charge_point_id", chargePointID),
				zap.String("action", string(msg.Action)),
				zap.Error(err))
			metrics.CountDroppedFrame("handler_error")
		}
		return nil, nil
	}

	if result.Dropped {
		metrics.CountDroppedFrame("policy")
		return nil, nil
	}

	frame, err := BuildCallResult(msg.UniqueID, result.Payload)
	if err != nil {
		p.logger.Error("encode response failed",
			zap.String("charge_point_id", chargePointID),
			zap.String("action", string(msg.Action)),
			zap.Error(err))
		return nil, nil
	}

	p.saveMessage(ctx, chargePointID, "outgoing", string(msg.Action), frame)
	return frame, nil
}

func (p *Processor) saveMessage(ctx context.Context, chargePointID, direction, action string, payload []byte) {
	if p.messageLog == nil {
		return
	}
	if err := p.messageLog.Save(ctx, chargePointID, direction, action, payload); err != nil {
		p.logger.Warn("frame audit save failed",
			zap.String("charge_point_id", chargePointID),
			zap.String("direction", direction),
			zap.Error(err))
	}
}
