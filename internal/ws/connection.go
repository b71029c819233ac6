package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// MessageProcessor handles raw inbound frames.
type MessageProcessor interface {
	Process(ctx context.Context, chargePointID string, raw []byte) ([]byte, error)
}

// Connection serves one charge point. Inbound frames are processed strictly
// in arrival order by the single read loop; outbound writes are serialized
// through the write pump.
type Connection struct {
	chargePointID string
	ws            *websocket.Conn
	send          chan []byte
	logger        *zap.Logger
	processor     MessageProcessor
	writeTimeout  time.Duration
	onClose       func(*Connection)
	closeOnce     sync.Once
}

// NewConnection builds connection wrapper.
func NewConnection(chargePointID string, ws *websocket.Conn, processor MessageProcessor, writeTimeout time.Duration, logger *zap.Logger, onClose func(*Connection)) *Connection {
	return &Connection{
		chargePointID: chargePointID,
		ws:            ws,
		send:          make(chan []byte, 16),
		logger:        logger,
		processor:     processor,
		writeTimeout:  writeTimeout,
		onClose:       onClose,
	}
}

// ChargePointID returns the identifier presented at connection time.
func (c *Connection) ChargePointID() string {
	return c.chargePointID
}

// Start launches the write pump and runs the read loop until the connection
// drops.
func (c *Connection) Start(ctx context.Context) {
	go c.writePump(ctx)
	c.readPump(ctx)
}

func (c *Connection) readPump(ctx context.Context) {
	defer c.cleanup()
	c.ws.SetReadLimit(1024 * 1024)
	c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgType, message, err := c.ws.ReadMessage()
		if err != nil {
			c.logger.Info("connection read closed", zap.String("charge_point_id", c.chargePointID), zap.Error(err))
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		response, err := c.processor.Process(ctx, c.chargePointID, message)
		if err != nil {
			c.logger.Warn("failed to process frame", zap.String("charge_point_id", c.chargePointID), zap.Error(err))
			continue
		}
		if response != nil {
			c.Send(response)
		}
	}
}

func (c *Connection) writePump(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "connection closed by server"))
				return
			}
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, []byte("ping")); err != nil {
				return
			}
		}
	}
}

// Send enqueues a frame best-effort: if the connection is gone or the buffer
// is full, the frame is dropped, not retried.
func (c *Connection) Send(msg []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("send on closed connection skipped", zap.String("charge_point_id", c.chargePointID))
		}
	}()
	select {
	case c.send <- msg:
	default:
		c.logger.Warn("dropping outgoing frame, buffer full", zap.String("charge_point_id", c.chargePointID))
	}
}

// Ping sends a keepalive ping.
func (c *Connection) Ping() error {
	return c.write(websocket.PingMessage, []byte("ping"))
}

// CloseGraceful sends a close frame if the socket is still writable, then
// tears the connection down. Safe to call more than once.
func (c *Connection) CloseGraceful() {
	c.closeOnce.Do(func() {
		deadline := time.Now().Add(c.writeTimeout)
		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "connection closed by server")
		_ = c.ws.WriteControl(websocket.CloseMessage, closeMsg, deadline)
		_ = c.ws.Close()
	})
}

func (c *Connection) write(messageType int, data []byte) error {
	c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(messageType, data)
}

func (c *Connection) cleanup() {
	close(c.send)
	_ = c.ws.Close()
	if c.onClose != nil {
		c.onClose(c)
	}
}
