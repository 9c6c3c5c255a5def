package server

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 256
)

var errSlowClient = errors.New("send buffer full")

// client is one connected transport plus its ephemeral identity. The paired
// session sees it only through the session.Conn interface.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	// guarded by the server mutex
	nickname  string
	avatar    string
	skin      string
	sessionID string
	playerIdx int

	closeOnce sync.Once
}

// Send queues b for the write pump. A full buffer means the consumer is slow
// or gone; the connection is dropped rather than stalling the caller.
func (c *client) Send(b []byte) error {
	select {
	case <-c.done:
		return net.ErrClosed
	default:
	}
	select {
	case c.send <- b:
		return nil
	case <-c.done:
		return net.ErrClosed
	default:
		_ = c.Close()
		return errSlowClient
	}
}

func (c *client) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *client) readPump(s *Server) {
	defer func() {
		s.disconnect(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		s.dispatch(c, msg)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			// Frames queued before Close (the gameover notice in
			// particular) must still reach the peer.
			c.drain()
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *client) drain() {
	for {
		select {
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if c.conn.WriteMessage(websocket.TextMessage, b) != nil {
				return
			}
		default:
			return
		}
	}
}
