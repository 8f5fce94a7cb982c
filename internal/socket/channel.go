package socket

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/katajakasa/audiostash/internal/shared"
)

// WSChannel is the websocket transport behind the dispatcher. It keeps one
// connection alive, redialing when it drops, and feeds inbound frames and
// open notifications to the dispatcher from its read loop.
type WSChannel struct {
	url     string
	limiter *rate.Limiter
	logger  *log.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

var _ Transport = (*WSChannel)(nil)

// NewWSChannel creates a channel for the given websocket URL. Dial attempts
// are throttled to dialsPerMinute so a dead server is not hammered.
func NewWSChannel(url string, dialsPerMinute int, logger *log.Logger) *WSChannel {
	if dialsPerMinute <= 0 {
		dialsPerMinute = 12
	}
	return &WSChannel{
		url:     url,
		limiter: rate.NewLimiter(rate.Limit(dialsPerMinute)/60, 1),
		logger:  logger,
	}
}

// Write sends one text frame. Concurrent writers are serialized; gorilla
// connections allow only one writer at a time.
func (c *WSChannel) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return shared.ErrChannelClosed
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Run dials the server and pumps inbound frames into the dispatcher until
// the context is cancelled or Close is called. Every successful dial
// triggers the dispatcher's open handlers, so session restore and
// re-authentication run again after each reconnect.
func (c *WSChannel) Run(ctx context.Context, d *Dispatcher) error {
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		if c.isClosed() {
			return nil
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			c.logger.Warn("dial failed", "url", c.url, "error", err)
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()

		// Connection id correlates log lines across redials.
		c.logger.Info("channel open", "url", c.url, "conn", shared.GenerateID())
		d.DispatchOpen()

		c.readLoop(conn, d)

		c.mu.Lock()
		c.conn = nil
		closed := c.closed
		c.mu.Unlock()

		if closed || ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Info("channel lost, redialing")
	}
}

// readLoop reads frames until the connection dies.
func (c *WSChannel) readLoop(conn *websocket.Conn, d *Dispatcher) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.logger.Debug("read loop ended", "error", err)
			return
		}
		d.Dispatch(raw)
	}
}

// Close tears the channel down for good; Run returns after the current
// read loop ends.
func (c *WSChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	if err != nil {
		return fmt.Errorf("failed to close channel: %w", err)
	}
	return nil
}

func (c *WSChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
