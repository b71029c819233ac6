package ocpp

import (
	"encoding/json"
	"errors"
	"fmt"

	"gridvolt/internal/ocpp/protocol"
)

// ErrMalformedFrame marks wire input that cannot be decoded as an OCPP-J
// envelope. Malformed frames are dropped; the connection stays open.
var ErrMalformedFrame = errors.New("ocpp: malformed frame")

// Message is a decoded OCPP-J frame.
type Message struct {
	MessageType int
	UniqueID    string
	Action      protocol.Action
	Payload     json.RawMessage
}

// Call reports whether the frame is a charge-point request.
func (m *Message) Call() bool {
	return m.MessageType == protocol.MessageTypeCall
}

// Parser decodes raw JSON OCPP frames.
type Parser struct{}

// NewParser returns parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes raw bytes into a Message.
//
// CALL frames are fully decoded. CALLRESULT and CALLERROR frames are accepted
// structurally (type id, correlation id, remaining payload) so callers can log
// and drop them; anything else fails with ErrMalformedFrame.
func (p *Parser) Parse(data []byte) (*Message, error) {
	var frame []json.RawMessage
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if len(frame) < 3 {
		return nil, fmt.Errorf("%w: %d elements", ErrMalformedFrame, len(frame))
	}

	var msgType int
	if err := json.Unmarshal(frame[0], &msgType); err != nil {
		return nil, fmt.Errorf("%w: message type: %v", ErrMalformedFrame, err)
	}

	msg := &Message{MessageType: msgType}
	if err := json.Unmarshal(frame[1], &msg.UniqueID); err != nil {
		return nil, fmt.Errorf("%w: unique id: %v", ErrMalformedFrame, err)
	}

	switch msgType {
	case protocol.MessageTypeCall:
		if len(frame) < 4 {
			return nil, fmt.Errorf("%w: incomplete CALL", ErrMalformedFrame)
		}
		var action string
		if err := json.Unmarshal(frame[2], &action); err != nil {
			return nil, fmt.Errorf("%w: action: %v", ErrMalformedFrame, err)
		}
		msg.Action = protocol.Action(action)
		if !json.Valid(frame[3]) {
			return nil, fmt.Errorf("%w: payload", ErrMalformedFrame)
		}
		msg.Payload = frame[3]
	case protocol.MessageTypeCallResult:
		msg.Payload = frame[2]
	case protocol.MessageTypeCallError:
		// Structurally accepted, never acted upon.
	default:
		return nil, fmt.Errorf("%w: unknown message type %d", ErrMalformedFrame, msgType)
	}

	return msg, nil
}

// BuildCallResult encodes a CALLRESULT frame. Encoding is total for any
// payload representable as a structured value.
func BuildCallResult(uniqueID string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	frame := []interface{}{protocol.MessageTypeCallResult, uniqueID, json.RawMessage(body)}
	return json.Marshal(frame)
}

// Decode unmarshals a payload into a typed request.
func Decode[T any](payload json.RawMessage) (T, error) {
	var target T
	if err := json.Unmarshal(payload, &target); err != nil {
		var zero T
		return zero, err
	}
	return target, nil
}
