package realtime

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// MessageHandler is the callback executed when a frame is received.
type MessageHandler func(ctx context.Context, connID uuid.UUID, msg []byte)

// OnCloseHandler is the callback executed once the connection terminates.
type OnCloseHandler func(connID uuid.UUID, err error)

// ConnConfig tunes a single connection. A zero ReadTimeout leaves reads
// unbounded, which is what a mostly idle notification socket wants.
type ConnConfig struct {
	ReadTimeout time.Duration
}

// Conn wraps a single WebSocket connection with a buffered write channel so
// every producer can send without coordinating with the socket.
type Conn struct {
	id     uuid.UUID
	conn   *websocket.Conn
	config ConnConfig
	send   chan []byte

	onMessage MessageHandler
	onClose   OnCloseHandler

	done      chan struct{}
	wg        *sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	logger *slog.Logger
}

// NewConn wraps an accepted websocket connection. Run must be called to start
// the pumps.
func NewConn(parentCtx context.Context, wg *sync.WaitGroup, conn *websocket.Conn, config ConnConfig, onMessage MessageHandler, onClose OnCloseHandler, logger *slog.Logger) *Conn {
	id := uuid.New()
	connCtx, cancel := context.WithCancel(parentCtx)

	return &Conn{
		id:        id,
		conn:      conn,
		config:    config,
		send:      make(chan []byte, 256),
		onMessage: onMessage,
		onClose:   onClose,
		done:      make(chan struct{}),
		wg:        wg,
		ctx:       connCtx,
		cancel:    cancel,
		logger:    logger.With(slog.String("connID", id.String())),
	}
}

// Run starts the read and write pumps.
func (c *Conn) Run() {
	c.wg.Add(1)
	go c.readPump()
	go c.writePump()

	c.logger.Debug("connection established")
}

// readPump pumps frames from the socket to the message handler.
func (c *Conn) readPump() {
	var readErr error
	defer func() {
		c.Close(readErr)
	}()

	for {
		readCtx := c.ctx
		var cancelRead context.CancelFunc
		if c.config.ReadTimeout > 0 {
			readCtx, cancelRead = context.WithTimeout(c.ctx, c.config.ReadTimeout)
		}

		typ, r, err := c.conn.Reader(readCtx)
		if err != nil {
			readErr = err
			if cancelRead != nil {
				cancelRead()
			}
			return
		}

		if typ != websocket.MessageText && typ != websocket.MessageBinary {
			if cancelRead != nil {
				cancelRead()
			}
			continue
		}

		message, err := io.ReadAll(r)
		if err != nil {
			readErr = err
			if cancelRead != nil {
				cancelRead()
			}
			return
		}
		if cancelRead != nil {
			cancelRead()
		}

		if c.onMessage != nil {
			c.onMessage(c.ctx, c.id, message)
		}
	}
}

// writePump pumps frames from the send channel to the socket.
func (c *Conn) writePump() {
	var writeErr error
	defer func() {
		c.Close(writeErr)
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err := c.conn.Write(c.ctx, websocket.MessageText, message); err != nil {
				writeErr = err
				return
			}
		case <-c.ctx.Done():
			c.conn.Close(websocket.StatusNormalClosure, "shutting down")
			return
		}
	}
}

// Send queues a frame for delivery. Safe for concurrent use; frames for a
// closed connection are dropped.
func (c *Conn) Send(message []byte) {
	select {
	case c.send <- message:
	case <-c.ctx.Done():
	}
}

// Close shuts the connection down exactly once and fires the close handler.
func (c *Conn) Close(err error) {
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		c.conn.Close(websocket.StatusNormalClosure, "")
		c.logger.Debug("connection closed", slog.Any("reason", err))
		if c.onClose != nil {
			c.onClose(c.id, err)
		}
		c.wg.Done()
		close(c.done)
	})
}

// Done is closed when the connection has fully terminated.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// ID returns the unique identifier of the connection.
func (c *Conn) ID() uuid.UUID {
	return c.id
}
