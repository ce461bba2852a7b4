package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeTimeout   = 10 * time.Second
	idleTimeout    = 60 * time.Second
	keepAlive      = idleTimeout * 9 / 10
	maxInboundSize = 4 * 1024 // viewers only send control frames
	sendBuffer     = 64
)

// Client is one viewer connection. The hub closes send to detach it.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// NewClient attaches conn to the hub. If the hub has already stopped the
// client starts detached and Serve returns as soon as the peer goes away.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	c := &Client{hub: hub, conn: conn, send: make(chan Message, sendBuffer)}
	select {
	case hub.register <- c:
	case <-hub.done:
		close(c.send)
	}
	return c
}

// Handler returns a fiber websocket handler serving each connection as a
// viewer of h.
func (h *Hub) Handler() func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		NewClient(h, conn).Serve()
	}
}

// Serve blocks until the connection drops, writing hub messages from a
// second goroutine.
func (c *Client) Serve() {
	go c.forward()
	c.drain()
}

// drain discards inbound frames. A read error or a missed pong ends it.
func (c *Client) drain() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	extend := func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	}
	c.conn.SetReadLimit(maxInboundSize)
	extend("")
	c.conn.SetPongHandler(extend)

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// forward is the only writer on conn.
func (c *Client) forward() {
	ping := time.NewTicker(keepAlive)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case m, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(m.Kind.Opcode(), m.Data); err != nil {
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
